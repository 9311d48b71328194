package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/handlers"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/mocks"
	servermodels "github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/token"
)

const (
	admin    = "deployer"
	contract = "timefi-vault"
	wallet1  = "wallet1"
	wallet2  = "wallet2"
	botAddr  = "deployer.timefi-bot"
	genesis  = uint64(1_000_000_000)
)

// MockAuthService - мок services.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req models.RegisterRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, username, password)
	if r := args.Get(0); r != nil {
		return r.(*models.LoginResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) SeedAccount(ctx context.Context, username, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

// MockArchiver - мок handlers.Archiver.
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context) (*servermodels.Archive, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.(*servermodels.Archive), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockArchiver) List(ctx context.Context, limit, offset int) ([]servermodels.Archive, error) {
	args := m.Called(ctx, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]servermodels.Archive), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockArchiver) Fetch(ctx context.Context, key string) (*models.Snapshot, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(*models.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

var _ handlers.Archiver = (*MockArchiver)(nil)

// testEnv - маршрутизатор поверх настоящего сервиса реестра с моками БД.
type testEnv struct {
	router  http.Handler
	ledger  *services.LedgerService
	tokens  *token.Manager
	auth    *MockAuthService
	journal *mocks.JournalRepository
}

type envOption func(*handlers.RouterConfig, *mocks.JournalRepository)

// withAppendError заставляет запись журнала падать.
func withAppendError(err error) envOption {
	return func(_ *handlers.RouterConfig, j *mocks.JournalRepository) {
		j.On("AppendEvents", mock.Anything, mock.Anything).Return(err)
	}
}

func withArchiver(a handlers.Archiver) envOption {
	return func(cfg *handlers.RouterConfig, _ *mocks.JournalRepository) {
		cfg.Archive = a
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()

	users := new(mocks.UserRepository)
	users.On("ListUsers", mock.Anything).Return([]models.User{}, nil)
	journal := new(mocks.JournalRepository)
	journal.On("ListEvents", mock.Anything, uint64(0), mock.Anything).Return(nil, nil)
	meta := new(mocks.MetaRepository)
	meta.On("GetUint", mock.Anything, repository.MetaHeight).Return(uint64(1), true, nil)
	meta.On("SetUint", mock.Anything, repository.MetaHeight, mock.Anything).Return(nil).Maybe()

	tokens, err := token.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	auth := new(MockAuthService)

	cfg := handlers.RouterConfig{Auth: auth, Tokens: tokens, Admin: admin}
	for _, o := range opts {
		o(&cfg, journal)
	}
	journal.On("AppendEvents", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc, err := services.NewLedgerService(ctx, services.LedgerConfig{
		Admin: admin, Contract: contract, GenesisBalance: genesis,
	}, users, journal, meta, nil)
	require.NoError(t, err)
	for addr, kind := range map[string]ledger.Kind{
		admin: ledger.KindWallet, wallet1: ledger.KindWallet, wallet2: ledger.KindWallet, botAddr: ledger.KindDelegate,
	} {
		require.NoError(t, svc.RegisterIdentity(ctx, addr, kind))
	}
	cfg.Ledger = svc

	return &testEnv{
		router:  handlers.NewRouter(cfg),
		ledger:  svc,
		tokens:  tokens,
		auth:    auth,
		journal: journal,
	}
}

// tokenFor выдает токен для адреса.
func (e *testEnv) tokenFor(t *testing.T, addr string) string {
	t.Helper()
	kind := ledger.KindWallet
	if addr == botAddr {
		kind = ledger.KindDelegate
	}
	tok, err := e.tokens.Issue(addr, kind.String())
	require.NoError(t, err)
	return tok
}

// do выполняет запрос от имени as (пусто - без токена). body сериализуется в JSON,
// строка отправляется как есть.
func (e *testEnv) do(t *testing.T, method, path, as string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokenFor(t, as))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// createVault создает хранилище через API и возвращает его id.
func (e *testEnv) createVault(t *testing.T, owner string, amount, lock uint64) uint64 {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/vaults", owner, models.CreateVaultRequest{Amount: amount, LockSeconds: lock})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var id uint64
	decodeOK(t, rr, &id)
	return id
}

// decodeOK разбирает успешный ответ {"ok": ...} в dst.
func decodeOK(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env models.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	require.NotEmpty(t, env.OK, rr.Body.String())
	require.NoError(t, json.Unmarshal(env.OK, dst))
}

// decodeErr разбирает ответ с ошибкой.
func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) models.Envelope {
	t.Helper()
	var env models.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	require.Empty(t, env.OK)
	return env
}
