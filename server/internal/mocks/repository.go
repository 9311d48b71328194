// Package mocks содержит моки testify для репозиториев и хранилища объектов.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	servermodels "github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/storage"
)

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.JournalRepository = (*JournalRepository)(nil)
	_ repository.MetaRepository    = (*MetaRepository)(nil)
	_ repository.ArchiveRepository = (*ArchiveRepository)(nil)
	_ storage.ObjectStore          = (*ObjectStore)(nil)
)

// UserRepository - мок repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	args := m.Called(ctx, username, hash)
	return args.Error(0)
}

func (m *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// JournalRepository - мок repository.JournalRepository.
type JournalRepository struct {
	mock.Mock
}

func (m *JournalRepository) AppendEvents(ctx context.Context, events []servermodels.EventRecord) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *JournalRepository) ListEvents(ctx context.Context, after uint64, limit int) ([]servermodels.EventRecord, error) {
	args := m.Called(ctx, after, limit)
	if r := args.Get(0); r != nil {
		return r.([]servermodels.EventRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// MetaRepository - мок repository.MetaRepository.
type MetaRepository struct {
	mock.Mock
}

func (m *MetaRepository) GetUint(ctx context.Context, key string) (uint64, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(uint64), args.Bool(1), args.Error(2)
}

func (m *MetaRepository) SetUint(ctx context.Context, key string, value uint64) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// ArchiveRepository - мок repository.ArchiveRepository.
type ArchiveRepository struct {
	mock.Mock
}

func (m *ArchiveRepository) CreateArchive(ctx context.Context, archive *servermodels.Archive) error {
	args := m.Called(ctx, archive)
	return args.Error(0)
}

func (m *ArchiveRepository) ListArchives(ctx context.Context, limit, offset int) ([]servermodels.Archive, error) {
	args := m.Called(ctx, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]servermodels.Archive), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ArchiveRepository) GetArchive(ctx context.Context, objectKey string) (*servermodels.Archive, error) {
	args := m.Called(ctx, objectKey)
	if r := args.Get(0); r != nil {
		return r.(*servermodels.Archive), args.Error(1)
	}
	return nil, args.Error(1)
}

// ObjectStore - мок storage.ObjectStore.
type ObjectStore struct {
	mock.Mock
}

func (m *ObjectStore) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, r, size, contentType)
	return args.Error(0)
}

func (m *ObjectStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}
