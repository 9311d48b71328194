package services_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/mocks"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/storage"
)

// archiveFixture - сервис архивации поверх каталога и мока метаданных.
type archiveFixture struct {
	svc    *services.ArchiveService
	ledger *services.LedgerService
	repo   *mocks.ArchiveRepository
	dir    string
	saved  []*models.Archive
}

func newArchiveFixture(t *testing.T) *archiveFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewDirStore(dir)
	require.NoError(t, err)

	f := &archiveFixture{
		ledger: newLedgerService(t, newMemStore()),
		repo:   new(mocks.ArchiveRepository),
		dir:    dir,
	}
	f.repo.On("CreateArchive", mock.Anything, mock.AnythingOfType("*models.Archive")).
		Run(func(args mock.Arguments) { f.saved = append(f.saved, args.Get(1).(*models.Archive)) }).
		Return(nil).Maybe()
	f.svc = services.NewArchiveService(f.ledger, store, f.repo)
	return f
}

func TestArchiveService_ArchiveAndFetch(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)
	id := createVault(t, f.ledger, wallet1, 2_000_000, 7200)

	archive, err := f.svc.Archive(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(archive.ObjectKey, "snapshots/000000000001-"))
	assert.True(t, strings.HasSuffix(archive.ObjectKey, ".json.zst"))
	assert.Equal(t, uint64(1), archive.Height)
	assert.Equal(t, uint64(1), archive.Events)
	assert.Len(t, archive.Checksum, 64)
	require.Len(t, f.saved, 1)

	info, err := os.Stat(filepath.Join(f.dir, filepath.FromSlash(archive.ObjectKey)))
	require.NoError(t, err)
	assert.Equal(t, archive.SizeBytes, info.Size())

	f.repo.On("GetArchive", mock.Anything, archive.ObjectKey).Return(archive, nil)
	snap, err := f.svc.Fetch(ctx, archive.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Events)
	require.Len(t, snap.Vaults, 1)
	assert.Equal(t, id, snap.Vaults[0].ID)
	assert.Equal(t, string(ledger.StatusLocked), snap.Vaults[0].Status)
	assert.Equal(t, genesis-2_000_000, snap.Balances[wallet1])
	assert.Equal(t, uint64(1_990_000), snap.Protocol.TVL)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestArchiveService_FetchChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)

	archive, err := f.svc.Archive(ctx)
	require.NoError(t, err)

	tampered := *archive
	tampered.Checksum = strings.Repeat("0", 64)
	f.repo.On("GetArchive", mock.Anything, archive.ObjectKey).Return(&tampered, nil)

	_, err = f.svc.Fetch(ctx, archive.ObjectKey)
	require.ErrorIs(t, err, services.ErrChecksumMismatch)
}

func TestArchiveService_FetchNotFound(t *testing.T) {
	f := newArchiveFixture(t)
	f.repo.On("GetArchive", mock.Anything, "snapshots/none").Return(nil, repository.ErrArchiveNotFound)

	_, err := f.svc.Fetch(context.Background(), "snapshots/none")
	require.ErrorIs(t, err, repository.ErrArchiveNotFound)
}

func TestArchiveService_UploadFailure(t *testing.T) {
	store := new(mocks.ObjectStore)
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "application/zstd").
		Return(errors.New("bucket gone"))
	repo := new(mocks.ArchiveRepository)

	svc := services.NewArchiveService(newLedgerService(t, newMemStore()), store, repo)
	_, err := svc.Archive(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
	repo.AssertNotCalled(t, "CreateArchive", mock.Anything, mock.Anything)
}

func TestArchiveService_Start(t *testing.T) {
	f := newArchiveFixture(t)

	require.Error(t, f.svc.Start("не расписание"))
	require.NoError(t, f.svc.Start("@every 1h"))
	f.svc.Stop(context.Background())
}

func TestArchiveService_ObjectBody(t *testing.T) {
	ctx := context.Background()
	f := newArchiveFixture(t)
	archive, err := f.svc.Archive(ctx)
	require.NoError(t, err)

	store, err := storage.NewDirStore(f.dir)
	require.NoError(t, err)
	rc, err := store.GetObject(ctx, archive.ObjectKey)
	require.NoError(t, err)
	defer rc.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(rc, head)
	require.NoError(t, err)
	// Магическое число кадра zstd.
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, head)
}
