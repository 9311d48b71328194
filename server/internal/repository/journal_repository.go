package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
)

// JournalRepository хранит журнал событий реестра.
type JournalRepository interface {
	// AppendEvents записывает события одной транзакцией: либо все, либо ни одного.
	AppendEvents(ctx context.Context, events []models.EventRecord) error
	// ListEvents возвращает до limit событий с номером больше after по возрастанию.
	// limit <= 0 означает "все".
	ListEvents(ctx context.Context, after uint64, limit int) ([]models.EventRecord, error)
}

var _ JournalRepository = (*sqlJournalRepository)(nil)

type sqlJournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository создает новый экземпляр репозитория журнала.
func NewJournalRepository(db *sqlx.DB) JournalRepository {
	return &sqlJournalRepository{db: db}
}

// AppendEvents записывает пачку событий в рамках одной транзакции.
func (r *sqlJournalRepository) AppendEvents(ctx context.Context, events []models.EventRecord) (err error) {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции журнала: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Errorf("[JournalRepo] Ошибка отката транзакции: %v", rbErr)
		}
	}()

	query := tx.Rebind(`INSERT INTO ledger_events (seq, tx_id, tick, type, caller, payload)
	          VALUES (?, ?, ?, ?, ?, ?)`)
	for _, ev := range events {
		_, err = tx.ExecContext(ctx, query, ev.Seq, ev.TxID, ev.Tick, ev.Type, ev.Caller, string(ev.Payload))
		if err != nil {
			if isUniqueViolation(err) {
				logging.Errorf("[JournalRepo] Событие #%d уже записано", ev.Seq)
				return fmt.Errorf("событие #%d уже записано: %w", ev.Seq, ErrEventConflict)
			}
			return fmt.Errorf("ошибка записи события #%d: %w", ev.Seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции журнала: %w", err)
	}

	logging.Debugf("[JournalRepo] Записано %d событий (tx %s, #%d..#%d)",
		len(events), events[0].TxID, events[0].Seq, events[len(events)-1].Seq)
	return nil
}

// ListEvents возвращает события журнала по возрастанию номера.
func (r *sqlJournalRepository) ListEvents(ctx context.Context, after uint64, limit int) ([]models.EventRecord, error) {
	query := `SELECT seq, tx_id, tick, type, caller, payload, created_at
	          FROM ledger_events
	          WHERE seq > ?
	          ORDER BY seq`
	args := []any{after}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	events := make([]models.EventRecord, 0)
	if err := r.db.SelectContext(ctx, &events, r.db.Rebind(query), args...); err != nil {
		logging.Errorf("[JournalRepo] Ошибка чтения журнала после #%d: %v", after, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на чтение журнала: %w", err)
	}
	return events, nil
}
