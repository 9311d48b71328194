package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
)

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string // Бакет для снимков
	Region          string
}

var _ ObjectStore = (*MinioStore)(nil)

// MinioStore реализует ObjectStore поверх MinIO/S3.
type MinioStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinioStore подключается к MinIO и создает бакет, если его нет.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	logging.Infof("Инициализация клиента MinIO для эндпоинта %s...", cfg.Endpoint)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		logging.Infof("Бакет '%s' не найден, создаем...", cfg.BucketName)
		if err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	logging.Infof("Клиент MinIO готов, бакет '%s'", cfg.BucketName)
	return &MinioStore{client: client, bucketName: cfg.BucketName}, nil
}

// PutObject загружает объект в бакет.
func (s *MinioStore) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucketName, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logging.Errorf("[Minio] Ошибка загрузки '%s': %v", key, err)
		return fmt.Errorf("ошибка загрузки объекта в MinIO: %w", err)
	}
	logging.Debugf("[Minio] Объект '%s' загружен, размер: %d, ETag: %s", key, info.Size, info.ETag)
	return nil
}

// GetObject скачивает объект. Отсутствие объекта проверяется сразу через Stat,
// так как GetObject MinIO ленивый.
func (s *MinioStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioError(key, err)
	}
	if _, err = obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapMinioError(key, err)
	}
	return obj, nil
}

func mapMinioError(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound
	}
	logging.Errorf("[Minio] Ошибка получения '%s': %v", key, err)
	return fmt.Errorf("ошибка получения объекта из MinIO: %w", err)
}
