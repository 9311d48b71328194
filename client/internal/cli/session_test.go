package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/client/internal/cli"
)

func TestSession_SaveLoadRemove(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")

	s, err := cli.LoadSession(ctx, path)
	require.NoError(t, err)
	assert.Nil(t, s)

	saved := &cli.Session{
		Server:  "http://localhost:8443",
		Address: "wallet1",
		Kind:    "wallet",
		Token:   "jwt",
		SavedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, cli.SaveSession(ctx, path, saved))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := cli.LoadSession(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	require.NoError(t, cli.RemoveSession(ctx, path))
	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	// Повторное удаление не ошибка.
	require.NoError(t, cli.RemoveSession(ctx, path))
}

func TestSession_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: x\n"), 0o600))

	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = other.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = cli.SaveSession(ctx, path, &cli.Session{Token: "y"})
	require.ErrorIs(t, err, cli.ErrSessionLocked)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "token: x\n", string(data))
}

func TestSession_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [\n"), 0o600))

	_, err := cli.LoadSession(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка разбора файла сессии")
}
