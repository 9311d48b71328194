// Package storage хранит архивные снимки реестра в объектном хранилище.
package storage

import (
	"context"
	"errors"
	"io"
)

// ObjectStore - хранилище объектов по ключу.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// GetObject возвращает тело объекта; его нужно закрыть после чтения.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
}

// Кастомная ошибка хранилища.
var (
	ErrObjectNotFound = errors.New("объект не найден в хранилище")
)
