package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/metrics"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
)

// DefaultGenesisBalance - стартовый баланс новой учетной записи, микро-единицы.
const DefaultGenesisBalance uint64 = 1_000_000_000_000

// replayBatch - размер страницы журнала при восстановлении.
const replayBatch = 1000

// LedgerConfig - параметры реестра сервера.
type LedgerConfig struct {
	Admin          string
	Contract       string
	GenesisBalance uint64
	VotingPower    ledger.VotingPower
	VotingPeriod   uint64
}

// LedgerService - единственная точка изменения реестра.
//
// Писатели сериализуются writeMu. Каждая операция выполняется на копии
// зафиксированного реестра; новые события пишутся в журнал одной транзакцией,
// и только после этого копия становится зафиксированной. Зафиксированный
// реестр не меняется, поэтому читатели работают с ним без блокировок.
type LedgerService struct {
	cfg     LedgerConfig
	journal repository.JournalRepository
	meta    repository.MetaRepository
	hub     *EventHub
	clock   *ledger.ManualClock
	log     *logging.Logger

	writeMu   sync.Mutex
	stateMu   sync.RWMutex
	committed *ledger.Ledger
}

// NewLedgerService восстанавливает реестр из БД: высота часов, учетные записи
// с генезис-балансом, затем воспроизведение журнала.
func NewLedgerService(
	ctx context.Context,
	cfg LedgerConfig,
	users repository.UserRepository,
	journal repository.JournalRepository,
	meta repository.MetaRepository,
	hub *EventHub,
) (*LedgerService, error) {
	if cfg.GenesisBalance == 0 {
		cfg.GenesisBalance = DefaultGenesisBalance
	}
	if hub == nil {
		hub = NewEventHub(0)
	}

	height, _, err := meta.GetUint(ctx, repository.MetaHeight)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения высоты: %w", err)
	}
	clock := ledger.NewManualClock(height)
	custody := ledger.NewMemoryCustody()

	l, err := ledger.New(ledger.Config{
		Admin:        ledger.Address(cfg.Admin),
		Contract:     ledger.Address(cfg.Contract),
		Clock:        clock,
		Custody:      custody,
		VotingPower:  cfg.VotingPower,
		VotingPeriod: cfg.VotingPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания реестра: %w", err)
	}

	s := &LedgerService{
		cfg:     cfg,
		journal: journal,
		meta:    meta,
		hub:     hub,
		clock:   clock,
		log:     logging.For("LedgerService"),
	}

	accounts, err := users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения учетных записей: %w", err)
	}
	for _, u := range accounts {
		kind, kerr := ledger.ParseKind(u.Kind)
		if kerr != nil {
			return nil, fmt.Errorf("учетная запись '%s': %w", u.Username, kerr)
		}
		if err = l.Guard().Register(ledger.Address(u.Username), kind); err != nil {
			return nil, fmt.Errorf("учетная запись '%s': %w", u.Username, err)
		}
		custody.Fund(ledger.Address(u.Username), cfg.GenesisBalance)
	}

	var lastTick uint64
	for {
		records, lerr := journal.ListEvents(ctx, l.Events().Len(), replayBatch)
		if lerr != nil {
			return nil, fmt.Errorf("ошибка чтения журнала: %w", lerr)
		}
		if len(records) == 0 {
			break
		}
		events, derr := decodeRecords(records)
		if derr != nil {
			return nil, derr
		}
		if err = l.Replay(events); err != nil {
			return nil, err
		}
		lastTick = events[len(events)-1].Tick
	}
	if lastTick > clock.Now() {
		s.log.Warn("Высота в журнале больше сохраненной, догоняем", "journal", lastTick, "meta", clock.Now())
		if err = clock.Set(lastTick); err != nil {
			return nil, err
		}
	}

	s.committed = l
	s.updateGauges(l)
	s.log.Info("Реестр восстановлен",
		"height", clock.Now(), "events", l.Events().Len(), "accounts", len(accounts), "vaults", l.VaultCount())
	return s, nil
}

// Current возвращает зафиксированный реестр. Его нельзя изменять.
func (s *LedgerService) Current() *ledger.Ledger {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.committed
}

// Hub возвращает рассыльщик событий.
func (s *LedgerService) Hub() *EventHub { return s.hub }

// Mutate выполняет изменяющую операцию op. fn работает с копией реестра;
// если fn вернул ошибку или журнал не записался, зафиксированный реестр не меняется.
// Возвращает идентификатор транзакции (пустой, если операция не породила событий).
func (s *LedgerService) Mutate(ctx context.Context, op string, fn func(l *ledger.Ledger) error) (string, error) {
	start := time.Now()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	draft := s.Current().Clone()
	before := draft.Events().Len()

	if err := fn(draft); err != nil {
		s.record(op, err, start)
		if _, ok := ledger.CodeOf(err); ok {
			s.log.Debug("Операция отклонена", "op", op, "err", err)
		} else {
			s.log.Error("Ошибка операции", "op", op, "err", err)
		}
		return "", err
	}

	events := draft.Events().Since(before, 0)
	if len(events) == 0 {
		s.record(op, nil, start)
		return "", nil
	}

	txID := uuid.NewString()
	records, err := encodeRecords(txID, events)
	if err != nil {
		s.record(op, err, start)
		return "", err
	}
	if err = s.journal.AppendEvents(ctx, records); err != nil {
		s.record(op, err, start)
		s.log.Error("Журнал не записан, операция отменена", "op", op, "tx", txID, "err", err)
		return "", fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.swap(draft)
	s.record(op, nil, start)
	s.hub.Publish(events)
	s.log.Info("Операция зафиксирована", "op", op, "tx", txID, "seq", events[len(events)-1].Seq)
	return txID, nil
}

// RegisterIdentity фиксирует вид учетной записи и зачисляет генезис-баланс.
// Событие в журнал не пишется: источник истины - таблица пользователей.
func (s *LedgerService) RegisterIdentity(_ context.Context, addr string, kind ledger.Kind) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	draft := s.Current().Clone()
	if err := draft.Guard().Register(ledger.Address(addr), kind); err != nil {
		return err
	}
	if mc, ok := draft.Custody().(*ledger.MemoryCustody); ok {
		mc.Fund(ledger.Address(addr), s.cfg.GenesisBalance)
	}
	s.swap(draft)
	s.log.Info("Учетная запись зарегистрирована", "address", addr, "kind", kind)
	return nil
}

// MaxHeight - предельная высота: тики хранятся в колонках BIGINT.
const MaxHeight uint64 = math.MaxInt64

// AdvanceClock сдвигает высоту на advance тиков или устанавливает height.
// Высота сначала сохраняется в БД, затем применяется к часам.
func (s *LedgerService) AdvanceClock(ctx context.Context, advance, height uint64) (uint64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.clock.Now()
	target := height
	if advance > 0 {
		if height != 0 {
			return now, ErrClockRequest
		}
		target = now + advance
		if target < now {
			return now, ErrClockRequest
		}
	}
	if target < now {
		return now, ledger.ErrClockBackwards
	}
	if target > MaxHeight {
		return now, ErrClockLimit
	}
	if target == now {
		return now, nil
	}

	if err := s.meta.SetUint(ctx, repository.MetaHeight, target); err != nil {
		return now, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.clock.Set(target); err != nil {
		return now, err
	}
	s.updateGauges(s.Current())
	s.log.Info("Высота изменена", "from", now, "to", target)
	return target, nil
}

// Balance возвращает баланс счета в учете реестра.
func (s *LedgerService) Balance(addr string) uint64 {
	if mc, ok := s.Current().Custody().(*ledger.MemoryCustody); ok {
		return mc.Balance(ledger.Address(addr))
	}
	return 0
}

func (s *LedgerService) swap(l *ledger.Ledger) {
	s.stateMu.Lock()
	s.committed = l
	s.stateMu.Unlock()
	s.updateGauges(l)
}

func (s *LedgerService) updateGauges(l *ledger.Ledger) {
	metrics.SetLedgerGauges(metrics.LedgerGauges{
		Height:     l.Height(),
		Events:     l.Events().Len(),
		TVL:        l.TVL(),
		TotalFees:  l.TotalFees(),
		VaultCount: l.VaultCount(),
	})
}

func (s *LedgerService) record(op string, err error, start time.Time) {
	result := "ok"
	if err != nil {
		result = "error"
		if code, ok := ledger.CodeOf(err); ok {
			result = code.String()
		}
	}
	metrics.RecordOperation(op, result, time.Since(start))
}

// encodeRecords превращает события в строки журнала.
func encodeRecords(txID string, events []ledger.Event) ([]models.EventRecord, error) {
	records := make([]models.EventRecord, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("ошибка сериализации события #%d: %w", ev.Seq, err)
		}
		records = append(records, models.EventRecord{
			Seq:     ev.Seq,
			TxID:    txID,
			Tick:    ev.Tick,
			Type:    string(ev.Type),
			Caller:  string(ev.Caller),
			Payload: payload,
		})
	}
	return records, nil
}

// decodeRecords восстанавливает события из строк журнала.
func decodeRecords(records []models.EventRecord) ([]ledger.Event, error) {
	events := make([]ledger.Event, 0, len(records))
	for _, r := range records {
		var ev ledger.Event
		if err := json.Unmarshal(r.Payload, &ev); err != nil {
			return nil, fmt.Errorf("ошибка разбора события #%d: %w", r.Seq, err)
		}
		if ev.Seq != r.Seq {
			return nil, fmt.Errorf("%w: строка #%d содержит событие #%d", ledger.ErrJournalDiverged, r.Seq, ev.Seq)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Ошибки сервиса реестра.
var (
	ErrPersist      = errors.New("не удалось сохранить изменения")
	ErrClockRequest = errors.New("нужно задать либо advance, либо height")
	ErrClockLimit   = errors.New("высота превышает допустимый предел")
)
