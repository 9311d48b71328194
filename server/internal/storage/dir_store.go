package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var _ ObjectStore = (*DirStore)(nil)

// DirStore хранит объекты файлами в локальном каталоге (одиночный узел без MinIO).
// Ключи вида "a/b.zst" становятся путями внутри каталога.
type DirStore struct {
	root string
}

// NewDirStore создает каталог, если его нет.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога архивов '%s': %w", root, err)
	}
	return &DirStore{root: root}, nil
}

// PutObject записывает объект через временный файл и переименование.
func (s *DirStore) PutObject(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ошибка создания каталога для '%s': %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ошибка записи объекта '%s': %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("ошибка записи объекта '%s': %w", key, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ошибка сохранения объекта '%s': %w", key, err)
	}
	return nil
}

// GetObject открывает файл объекта.
func (s *DirStore) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("ошибка чтения объекта '%s': %w", key, err)
	}
	return f, nil
}

// path проверяет, что ключ не выходит за пределы каталога.
func (s *DirStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("недопустимый ключ объекта %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
