package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/handlers"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/middleware"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/storage"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/token"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	limiterCleanupInterval = time.Minute
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db      *sqlx.DB
	ledger  *services.LedgerService
	auth    services.AuthService
	tokens  *token.Manager
	archive *services.ArchiveService // nil - архивация не настроена
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		logging.Errorf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	cfg, err := parseFlags()
	if err != nil {
		return err
	}
	if err = logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	logging.Infof("Запуск сервера TimeFi...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Журнал пишет только один процесс.
	lock := flock.New(cfg.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("ошибка блокировки %s: %w", cfg.LockFile, err)
	}
	if !locked {
		return fmt.Errorf("файл %s заблокирован: сервер уже запущен", cfg.LockFile)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logging.Errorf("Ошибка снятия блокировки %s: %v", cfg.LockFile, unlockErr)
		}
	}()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			logging.Errorf("Ошибка закрытия соединения с БД: %v", closeErr)
		}
	}()

	routerCfg := handlers.RouterConfig{
		Ledger: deps.ledger,
		Auth:   deps.auth,
		Tokens: deps.tokens,
		Admin:  cfg.AdminAddress,
	}
	if deps.archive != nil {
		routerCfg.Archive = deps.archive
		if cfg.ArchiveSchedule != "" {
			if err = deps.archive.Start(cfg.ArchiveSchedule); err != nil {
				return err
			}
		}
		defer deps.archive.Stop(context.Background())
	}
	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		limiter.StartCleanup(limiterCleanupInterval, ctx.Done())
		routerCfg.Limiter = limiter
	}

	server := &http.Server{
		Addr:         cfg.Address,
		Handler:      handlers.NewRouter(routerCfg),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
	return serve(ctx, server, cfg)
}

// serve запускает сервер и останавливает его при отмене ctx.
func serve(ctx context.Context, server *http.Server, cfg *config) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled() {
			logging.Infof("Запуск HTTPS-сервера на %s (сертификат %s)", cfg.Address, cfg.CertFile)
			err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			logging.Warnf("TLS не настроен, запуск HTTP-сервера на %s", cfg.Address)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Infof("Получен сигнал остановки, завершаем работу...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	return <-errCh
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД и миграции
	deps.db, err = repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			logging.Errorf("Ошибка закрытия соединения с БД: %v", closeErr)
		}
	}
	if err = repository.Migrate(deps.db); err != nil {
		cleanup()
		return nil, err
	}

	// 2. Репозитории
	userRepo := repository.NewUserRepository(deps.db)
	journalRepo := repository.NewJournalRepository(deps.db)
	metaRepo := repository.NewMetaRepository(deps.db)
	archiveRepo := repository.NewArchiveRepository(deps.db)

	// 3. Реестр: восстановление из журнала
	power, err := ledger.ParseVotingPower(cfg.VotingPower)
	if err != nil {
		cleanup()
		return nil, err
	}
	deps.ledger, err = services.NewLedgerService(ctx, services.LedgerConfig{
		Admin:          cfg.AdminAddress,
		Contract:       cfg.ContractAddress,
		GenesisBalance: cfg.GenesisBalance,
		VotingPower:    power,
		VotingPeriod:   cfg.VotingPeriod,
	}, userRepo, journalRepo, metaRepo, services.NewEventHub(0))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("ошибка восстановления реестра: %w", err)
	}

	// 4. Аутентификация
	deps.tokens, err = token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		cleanup()
		return nil, err
	}
	deps.auth = services.NewAuthService(userRepo, deps.ledger, deps.tokens, cfg.ContractAddress, cfg.AdminAddress)
	if cfg.AdminPassword != "" {
		if err = deps.auth.SeedAccount(ctx, cfg.AdminAddress, cfg.AdminPassword); err != nil {
			cleanup()
			return nil, fmt.Errorf("ошибка создания учетной записи администратора: %w", err)
		}
	} else {
		logging.Warnf("ADMIN_PASSWORD не задан, вход администратора '%s' невозможен", cfg.AdminAddress)
	}

	// 5. Архив снимков
	store, err := setupObjectStore(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, err
	}
	if store != nil {
		deps.archive = services.NewArchiveService(deps.ledger, store, archiveRepo)
	}

	return deps, nil
}

// setupObjectStore выбирает хранилище снимков: MinIO, локальный каталог или ничего.
func setupObjectStore(ctx context.Context, cfg *config) (storage.ObjectStore, error) {
	switch {
	case cfg.MinioEndpoint != "":
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioUser,
			SecretAccessKey: cfg.MinioPassword,
			UseSSL:          cfg.MinioUseSSL,
			BucketName:      cfg.MinioBucket,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case cfg.ArchiveDir != "":
		store, err := storage.NewDirStore(cfg.ArchiveDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		logging.Warnf("Хранилище снимков не настроено (MINIO_ENDPOINT, ARCHIVE_DIR), архивация отключена")
		return nil, nil
	}
}
