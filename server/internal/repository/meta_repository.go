package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

// Ключи служебной таблицы.
const (
	MetaHeight = "height" // Текущая высота часов
)

// MetaRepository хранит служебные числовые значения (высота часов и т.п.).
type MetaRepository interface {
	// GetUint возвращает значение ключа. ok=false, если ключ не задан.
	GetUint(ctx context.Context, key string) (value uint64, ok bool, err error)
	SetUint(ctx context.Context, key string, value uint64) error
}

var _ MetaRepository = (*sqlMetaRepository)(nil)

type sqlMetaRepository struct {
	db *sqlx.DB
}

// NewMetaRepository создает новый экземпляр служебного репозитория.
func NewMetaRepository(db *sqlx.DB) MetaRepository {
	return &sqlMetaRepository{db: db}
}

func (r *sqlMetaRepository) GetUint(ctx context.Context, key string) (uint64, bool, error) {
	var value int64
	err := r.db.GetContext(ctx, &value, r.db.Rebind(`SELECT value FROM ledger_meta WHERE key=?`), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("ошибка чтения ключа '%s': %w", key, err)
	}
	return uint64(value), true, nil
}

func (r *sqlMetaRepository) SetUint(ctx context.Context, key string, value uint64) error {
	query := r.db.Rebind(`INSERT INTO ledger_meta (key, value) VALUES (?, ?)
	          ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	if _, err := r.db.ExecContext(ctx, query, key, int64(value)); err != nil {
		logging.Errorf("[MetaRepo] Ошибка записи ключа '%s': %v", key, err)
		return fmt.Errorf("ошибка записи ключа '%s': %w", key, err)
	}
	logging.Debugf("[MetaRepo] %s = %d", key, value)
	return nil
}
