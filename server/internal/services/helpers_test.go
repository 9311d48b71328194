package services_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	servermodels "github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

const (
	admin    = "deployer"
	contract = "timefi-vault"
	wallet1  = "wallet1"
	wallet2  = "wallet2"
	botAddr  = "deployer.timefi-bot"
	genesis  = uint64(1_000_000_000)
)

// memStore - БД в памяти для сервисов: пользователи, журнал и служебные ключи.
type memStore struct {
	mu     sync.Mutex
	users  []models.User
	events []servermodels.EventRecord
	meta   map[string]uint64
}

func newMemStore() *memStore {
	return &memStore{meta: make(map[string]uint64)}
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == u.Username {
			return repository.ErrUsernameTaken
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	m.users = append(m.users, cp)
	return nil
}

func (m *memStore) GetUserByUsername(_ context.Context, name string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Username == name {
			cp := x
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.User(nil), m.users...), nil
}

func (m *memStore) AppendEvents(_ context.Context, events []servermodels.EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range events {
		if ev.Seq != uint64(len(m.events))+1 {
			return repository.ErrEventConflict
		}
		m.events = append(m.events, ev)
	}
	return nil
}

func (m *memStore) ListEvents(_ context.Context, after uint64, limit int) ([]servermodels.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []servermodels.EventRecord
	for _, ev := range m.events {
		if ev.Seq > after {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetUint(_ context.Context, key string) (uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.meta[key]
	return v, ok, nil
}

func (m *memStore) SetUint(_ context.Context, key string, value uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = value
	return nil
}

func (m *memStore) eventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func testLedgerConfig() services.LedgerConfig {
	return services.LedgerConfig{Admin: admin, Contract: contract, GenesisBalance: genesis}
}

// newLedgerService поднимает сервис поверх store. Для пустого store регистрирует
// стандартные учетные записи и выставляет высоту 1.
func newLedgerService(t *testing.T, store *memStore) *services.LedgerService {
	t.Helper()
	ctx := context.Background()
	fresh := len(store.users) == 0

	svc, err := services.NewLedgerService(ctx, testLedgerConfig(), store, store, store, services.NewEventHub(0))
	require.NoError(t, err)

	if fresh {
		for _, u := range []struct {
			addr string
			kind ledger.Kind
		}{{admin, ledger.KindWallet}, {wallet1, ledger.KindWallet}, {wallet2, ledger.KindWallet}, {botAddr, ledger.KindDelegate}} {
			require.NoError(t, store.CreateUser(ctx, &models.User{Username: u.addr, PasswordHash: "x", Kind: u.kind.String()}))
			require.NoError(t, svc.RegisterIdentity(ctx, u.addr, u.kind))
		}
		_, err = svc.AdvanceClock(ctx, 1, 0)
		require.NoError(t, err)
	}
	return svc
}

// createVault создает хранилище через сервис.
func createVault(t *testing.T, svc *services.LedgerService, owner string, amount, lock uint64) uint64 {
	t.Helper()
	var id uint64
	_, err := svc.Mutate(context.Background(), "create-vault", func(l *ledger.Ledger) error {
		var err error
		id, err = l.CreateVault(ledger.Address(owner), amount, lock)
		return err
	})
	require.NoError(t, err)
	return id
}
