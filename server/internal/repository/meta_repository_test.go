package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
)

func TestMetaRepository(t *testing.T) {
	selectQuery := regexp.QuoteMeta(`SELECT value FROM ledger_meta WHERE key=?`)

	t.Run("Ключ задан", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(selectQuery).WithArgs(repository.MetaHeight).
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(4242)))

		v, ok, err := repository.NewMetaRepository(db).GetUint(context.Background(), repository.MetaHeight)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint64(4242), v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ключ не задан", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(selectQuery).WithArgs(repository.MetaHeight).WillReturnError(sql.ErrNoRows)

		v, ok, err := repository.NewMetaRepository(db).GetUint(context.Background(), repository.MetaHeight)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, v)
	})

	t.Run("Запись значения", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ledger_meta (key, value) VALUES (?, ?)`)).
			WithArgs(repository.MetaHeight, int64(100)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repository.NewMetaRepository(db).SetUint(context.Background(), repository.MetaHeight, 100)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ошибка записи", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ledger_meta`)).WillReturnError(errors.New("read-only"))

		err := repository.NewMetaRepository(db).SetUint(context.Background(), repository.MetaHeight, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), repository.MetaHeight)
	})
}
