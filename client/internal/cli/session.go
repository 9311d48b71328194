package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const (
	sessionPerm    = 0o600
	lockRetryDelay = 50 * time.Millisecond
	lockTimeout    = 5 * time.Second
)

// ErrSessionLocked возвращается, если файл сессии занят другим процессом.
var ErrSessionLocked = errors.New("файл сессии заблокирован другим процессом")

// Session - сохраненные данные входа.
type Session struct {
	Server  string    `yaml:"server"`
	Address string    `yaml:"address"`
	Kind    string    `yaml:"kind"`
	Token   string    `yaml:"token"`
	SavedAt time.Time `yaml:"saved_at"`
}

// DefaultSessionPath возвращает путь к файлу сессии по умолчанию.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".vaultctl-session.yaml"
	}
	return filepath.Join(dir, "timefi", "session.yaml")
}

// withLock выполняет fn под блокировкой файла path.lock.
func withLock(ctx context.Context, path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ошибка создания каталога сессии: %w", err)
	}
	lock := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrSessionLocked
		}
		return fmt.Errorf("ошибка блокировки файла сессии: %w", err)
	}
	if !locked {
		return ErrSessionLocked
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}

// LoadSession читает сессию. Если файла нет, возвращает nil без ошибки.
func LoadSession(ctx context.Context, path string) (*Session, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var s *Session
	err := withLock(ctx, path, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("ошибка чтения файла сессии: %w", err)
		}
		var loaded Session
		if err = yaml.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("ошибка разбора файла сессии %s: %w", path, err)
		}
		s = &loaded
		return nil
	})
	return s, err
}

// SaveSession записывает сессию с правами 0600.
func SaveSession(ctx context.Context, path string, s *Session) error {
	return withLock(ctx, path, func() error {
		data, err := yaml.Marshal(s)
		if err != nil {
			return fmt.Errorf("ошибка кодирования сессии: %w", err)
		}
		tmp := path + ".tmp"
		if err = os.WriteFile(tmp, data, sessionPerm); err != nil {
			return fmt.Errorf("ошибка записи файла сессии: %w", err)
		}
		if err = os.Rename(tmp, path); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("ошибка записи файла сессии: %w", err)
		}
		return nil
	})
}

// RemoveSession удаляет файл сессии, если он есть.
func RemoveSession(ctx context.Context, path string) error {
	return withLock(ctx, path, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("ошибка удаления файла сессии: %w", err)
		}
		return nil
	})
}
