package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

// UserRepository определяет методы для работы с учетными записями.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error
}

var _ UserRepository = (*sqlUserRepository)(nil)

// sqlUserRepository реализует UserRepository поверх sqlx (PostgreSQL или SQLite).
type sqlUserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создает новый экземпляр репозитория пользователей.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

// CreateUser создает нового пользователя в базе данных.
func (r *sqlUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`INSERT INTO users (username, password_hash, kind) VALUES (?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.Kind)
	if err != nil {
		if isUniqueViolation(err) {
			logging.Warnf("[UserRepo] Ошибка создания пользователя: имя '%s' уже занято", user.Username)
			return ErrUsernameTaken
		}
		logging.Errorf("[UserRepo] Непредвиденная ошибка при создании пользователя '%s': %v", user.Username, err)
		return fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	logging.Infof("[UserRepo] Пользователь '%s' (%s) успешно создан", user.Username, user.Kind)
	return nil
}

// GetUserByUsername находит пользователя по его имени.
func (r *sqlUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := r.db.Rebind(`SELECT username, password_hash, kind, created_at FROM users WHERE username=?`)
	var user models.User

	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logging.Debugf("[UserRepo] Пользователь с именем '%s' не найден", username)
			return nil, ErrUserNotFound
		}
		logging.Errorf("[UserRepo] Ошибка при поиске пользователя '%s': %v", username, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	return &user, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (r *sqlUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT username, password_hash, kind, created_at FROM users ORDER BY created_at, username`
	var users []models.User

	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		logging.Errorf("[UserRepo] Ошибка при получении списка пользователей: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка пользователей: %w", err)
	}

	logging.Debugf("[UserRepo] Получено %d пользователей", len(users))
	return users, nil
}

// UpdatePasswordHash заменяет хеш пароля пользователя.
func (r *sqlUserRepository) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash=? WHERE username=?`)

	res, err := r.db.ExecContext(ctx, query, hash, username)
	if err != nil {
		logging.Errorf("[UserRepo] Ошибка обновления пароля '%s': %v", username, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление пароля: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения числа измененных строк: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound  = errors.New("пользователь не найден")
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
)
