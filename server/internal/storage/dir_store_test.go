package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/storage"
)

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewDirStore(t.TempDir())
	require.NoError(t, err)

	t.Run("Запись и чтение", func(t *testing.T) {
		require.NoError(t, s.PutObject(ctx, "snapshots/1.json.zst", strings.NewReader("data"), 4, "application/zstd"))

		rc, err := s.GetObject(ctx, "snapshots/1.json.zst")
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "data", string(body))
	})

	t.Run("Перезапись", func(t *testing.T) {
		require.NoError(t, s.PutObject(ctx, "k", strings.NewReader("one"), 3, ""))
		require.NoError(t, s.PutObject(ctx, "k", strings.NewReader("two"), 3, ""))
		rc, err := s.GetObject(ctx, "k")
		require.NoError(t, err)
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		assert.Equal(t, "two", string(body))
	})

	t.Run("Объект не найден", func(t *testing.T) {
		_, err := s.GetObject(ctx, "snapshots/missing")
		require.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("Выход за пределы каталога", func(t *testing.T) {
		for _, key := range []string{"../escape", "/etc/passwd", ""} {
			err := s.PutObject(ctx, key, strings.NewReader("x"), 1, "")
			require.Error(t, err, key)
		}
	})
}
