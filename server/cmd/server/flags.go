package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
)

// defaultEnvFile - необязательный файл с переменными окружения.
const defaultEnvFile = ".env"

// config хранит конфигурацию сервера. Значения берутся из окружения,
// флаги командной строки имеют приоритет.
type config struct {
	Address  string `env:"SERVER_ADDRESS" envDefault:":8443"`
	CertFile string `env:"TLS_CERT_FILE"`
	KeyFile  string `env:"TLS_KEY_FILE"`

	DatabaseDSN string        `env:"DATABASE_DSN" envDefault:"sqlite://timefi.db"`
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	AdminAddress    string `env:"ADMIN_ADDRESS" envDefault:"deployer"`
	AdminPassword   string `env:"ADMIN_PASSWORD"`
	ContractAddress string `env:"CONTRACT_ADDRESS" envDefault:"timefi-vault"`
	GenesisBalance  uint64 `env:"GENESIS_BALANCE" envDefault:"1000000000000"`
	VotingPeriod    uint64 `env:"VOTING_PERIOD" envDefault:"604800"`
	VotingPower     string `env:"VOTING_POWER" envDefault:"stake"`

	MinioEndpoint   string `env:"MINIO_ENDPOINT"`
	MinioUser       string `env:"MINIO_USER"`
	MinioPassword   string `env:"MINIO_PASSWORD"`
	MinioBucket     string `env:"MINIO_BUCKET" envDefault:"timefi-archive"`
	MinioUseSSL     bool   `env:"MINIO_USE_SSL"`
	ArchiveDir      string `env:"ARCHIVE_DIR"`
	ArchiveSchedule string `env:"ARCHIVE_SCHEDULE"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	LockFile  string `env:"LOCK_FILE" envDefault:"timefi-server.lock"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// TLSEnabled сообщает, заданы ли сертификат и ключ.
func (c *config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags загружает .env, разбирает окружение, затем флаги.
func parseFlags() (*config, error) {
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения %s: %w", defaultEnvFile, err)
	}

	cfg := &config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора переменных окружения: %w", err)
	}

	// Значения по умолчанию у флагов - уже разобранное окружение.
	flag.StringVar(&cfg.Address, "a", cfg.Address, "Адрес HTTP-сервера (env: SERVER_ADDRESS)")
	flag.StringVar(&cfg.CertFile, "cert-file", cfg.CertFile, "Путь к файлу TLS-сертификата (env: TLS_CERT_FILE)")
	flag.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "Путь к файлу TLS-ключа (env: TLS_KEY_FILE)")
	flag.StringVar(&cfg.DatabaseDSN, "database-dsn", cfg.DatabaseDSN,
		"Строка подключения к БД: postgres://... или sqlite://путь (env: DATABASE_DSN)")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Секрет подписи JWT (env: JWT_SECRET)")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "Время жизни токена (env: TOKEN_TTL)")
	flag.StringVar(&cfg.AdminAddress, "admin", cfg.AdminAddress, "Адрес администратора (env: ADMIN_ADDRESS)")
	flag.StringVar(&cfg.ContractAddress, "contract", cfg.ContractAddress, "Адрес счета контракта (env: CONTRACT_ADDRESS)")
	flag.Uint64Var(&cfg.GenesisBalance, "genesis-balance", cfg.GenesisBalance,
		"Стартовый баланс новой учетной записи (env: GENESIS_BALANCE)")
	flag.Uint64Var(&cfg.VotingPeriod, "voting-period", cfg.VotingPeriod, "Длительность голосования в тиках (env: VOTING_PERIOD)")
	flag.StringVar(&cfg.VotingPower, "voting-power", cfg.VotingPower, "Вес голоса: stake или lock (env: VOTING_POWER)")
	flag.StringVar(&cfg.MinioEndpoint, "minio-endpoint", cfg.MinioEndpoint, "Адрес MinIO для снимков (env: MINIO_ENDPOINT)")
	flag.StringVar(&cfg.MinioBucket, "minio-bucket", cfg.MinioBucket, "Бакет MinIO (env: MINIO_BUCKET)")
	flag.StringVar(&cfg.ArchiveDir, "archive-dir", cfg.ArchiveDir, "Каталог для снимков без MinIO (env: ARCHIVE_DIR)")
	flag.StringVar(&cfg.ArchiveSchedule, "archive-schedule", cfg.ArchiveSchedule,
		"Расписание выгрузки снимков в формате cron (env: ARCHIVE_SCHEDULE)")
	flag.Float64Var(&cfg.RateLimitRPS, "rate-limit-rps", cfg.RateLimitRPS,
		"Запросов в секунду на клиента, 0 - без ограничения (env: RATE_LIMIT_RPS)")
	flag.IntVar(&cfg.RateLimitBurst, "rate-limit-burst", cfg.RateLimitBurst, "Допустимый всплеск запросов (env: RATE_LIMIT_BURST)")
	flag.StringVar(&cfg.LockFile, "lock-file", cfg.LockFile, "Файл блокировки процесса (env: LOCK_FILE)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Уровень логирования (env: LOG_LEVEL)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Формат логов: text, json, logfmt (env: LOG_FORMAT)")

	flag.Parse()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("не указан секрет JWT (--jwt-secret или JWT_SECRET)")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("сертификат и ключ TLS задаются вместе (--cert-file и --key-file)")
	}
	if c.DatabaseDSN == "" {
		return errors.New("не указана строка подключения к БД (--database-dsn или DATABASE_DSN)")
	}
	if c.AdminAddress == "" || c.ContractAddress == "" {
		return errors.New("адреса администратора и контракта обязательны")
	}
	if c.AdminAddress == c.ContractAddress {
		return errors.New("адрес администратора совпадает с адресом контракта")
	}
	if _, err := ledger.ParseVotingPower(c.VotingPower); err != nil {
		return err
	}
	if c.TokenTTL <= 0 {
		return errors.New("время жизни токена должно быть положительным")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("параметры ограничения частоты не могут быть отрицательными")
	}
	return nil
}
