package repository

import (
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Драйвер PostgreSQL
	modernc "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

// Имена драйверов database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	maxOpenConns    = 25              // Максимальное количество открытых соединений
	maxIdleConns    = 25              // Максимальное количество простаивающих соединений
	connMaxLifetime = 5 * time.Minute // Максимальное время жизни соединения
	connMaxIdleTime = 5 * time.Minute // Максимальное время простоя соединения

	sqliteScheme  = "sqlite://"
	sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	pgUniqueViolationCode = "23505"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// NewDB открывает подключение к БД по DSN. Схема postgres:// выбирает PostgreSQL,
// схема sqlite:// - встроенный SQLite (sqlite://path/to/ledger.db).
func NewDB(dsn string) (*sqlx.DB, error) {
	driver, source := splitDSN(dsn)
	logging.Infof("Подключение к БД (%s)...", driver)

	db, err := sqlx.Connect(driver, source)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Проверка соединения
	if err = db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Errorf("Ошибка закрытия соединения с БД после неудачного пинга: %v", closeErr)
		}
		return nil, fmt.Errorf("ошибка проверки соединения с БД (ping): %w", err)
	}

	if driver == DriverSQLite {
		// SQLite: одно соединение на процесс.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxIdleConns)
		db.SetConnMaxLifetime(connMaxLifetime)
		db.SetConnMaxIdleTime(connMaxIdleTime)
	}

	logging.Infof("Подключение к БД (%s) успешно установлено.", driver)
	return db, nil
}

// splitDSN определяет драйвер по схеме DSN.
func splitDSN(dsn string) (driver, source string) {
	if !strings.HasPrefix(dsn, sqliteScheme) {
		return DriverPostgres, dsn
	}
	source = strings.TrimPrefix(dsn, sqliteScheme)
	if !strings.Contains(source, "_pragma=") {
		sep := "?"
		if strings.Contains(source, "?") {
			sep = "&"
		}
		source += sep + sqlitePragmas
	}
	return DriverSQLite, source
}

// Migrate применяет встроенные миграции схемы.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка чтения миграций: %w", err)
	}
	defer src.Close()

	var drv database.Driver
	switch db.DriverName() {
	case DriverPostgres:
		drv, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		drv, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("миграции не поддерживаются для драйвера %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("ошибка инициализации драйвера миграций: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), drv)
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logging.Infof("Схема БД на версии %d (dirty=%t)", version, dirty)
	return nil
}

// isUniqueViolation распознает нарушение уникальности в PostgreSQL и SQLite.
func isUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var liteErr *modernc.Error
	if errors.As(err, &liteErr) {
		switch code := liteErr.Code(); {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			// Без расширенных кодов остается только текст ошибки.
			return strings.Contains(liteErr.Error(), "UNIQUE constraint")
		}
	}
	return false
}
