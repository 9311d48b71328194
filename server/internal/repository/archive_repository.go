package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
)

// ArchiveRepository определяет методы для работы с метаданными архивных снимков.
type ArchiveRepository interface {
	CreateArchive(ctx context.Context, archive *models.Archive) error
	ListArchives(ctx context.Context, limit, offset int) ([]models.Archive, error)
	GetArchive(ctx context.Context, objectKey string) (*models.Archive, error)
}

var _ ArchiveRepository = (*sqlArchiveRepository)(nil)

type sqlArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository создает новый экземпляр репозитория архивов.
func NewArchiveRepository(db *sqlx.DB) ArchiveRepository {
	return &sqlArchiveRepository{db: db}
}

// CreateArchive сохраняет метаданные выгруженного снимка.
func (r *sqlArchiveRepository) CreateArchive(ctx context.Context, archive *models.Archive) error {
	query := r.db.Rebind(`INSERT INTO archives (object_key, height, events, checksum, size_bytes)
	          VALUES (?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		archive.ObjectKey, archive.Height, archive.Events, archive.Checksum, archive.SizeBytes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			logging.Warnf("[ArchiveRepo] Архив с ключом '%s' уже существует", archive.ObjectKey)
			return fmt.Errorf("архив с ключом '%s' уже существует: %w", archive.ObjectKey, err)
		}
		logging.Errorf("[ArchiveRepo] Ошибка при создании архива '%s': %v", archive.ObjectKey, err)
		return fmt.Errorf("ошибка выполнения запроса на создание архива: %w", err)
	}

	logging.Infof("[ArchiveRepo] Архив '%s' (высота %d, событий %d) сохранен",
		archive.ObjectKey, archive.Height, archive.Events)
	return nil
}

// ListArchives возвращает список архивов с пагинацией, сначала новые.
func (r *sqlArchiveRepository) ListArchives(ctx context.Context, limit, offset int) ([]models.Archive, error) {
	query := r.db.Rebind(`SELECT object_key, height, events, checksum, size_bytes, created_at
	          FROM archives
	          ORDER BY height DESC, created_at DESC
	          LIMIT ? OFFSET ?`)

	archives := make([]models.Archive, 0, limit)
	if err := r.db.SelectContext(ctx, &archives, query, limit, offset); err != nil {
		logging.Errorf("[ArchiveRepo] Ошибка при получении списка архивов: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка архивов: %w", err)
	}

	logging.Debugf("[ArchiveRepo] Найдено %d архивов (limit=%d, offset=%d)", len(archives), limit, offset)
	return archives, nil
}

// GetArchive возвращает метаданные архива по ключу объекта.
func (r *sqlArchiveRepository) GetArchive(ctx context.Context, objectKey string) (*models.Archive, error) {
	query := r.db.Rebind(`SELECT object_key, height, events, checksum, size_bytes, created_at
	          FROM archives WHERE object_key=?`)
	var archive models.Archive

	if err := r.db.GetContext(ctx, &archive, query, objectKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArchiveNotFound
		}
		logging.Errorf("[ArchiveRepo] Ошибка при получении архива '%s': %v", objectKey, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение архива: %w", err)
	}
	return &archive, nil
}

// Кастомные ошибки журнала и архивов.
var (
	ErrArchiveNotFound = errors.New("архив не найден")
	ErrEventConflict   = errors.New("номер события уже занят")
)
