package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/robfig/cron/v3"

	apimodels "github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/metrics"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/storage"
)

const (
	snapshotContentType = "application/zstd"
	scheduledTimeout    = 2 * time.Minute
)

// ArchiveService выгружает сжатые снимки реестра в объектное хранилище
// и ведет их учет в БД.
type ArchiveService struct {
	ledger *LedgerService
	store  storage.ObjectStore
	repo   repository.ArchiveRepository
	log    *logging.Logger

	mu         sync.Mutex // одна выгрузка за раз
	lastEvents uint64
	lastHeight uint64
	scheduler  *cron.Cron
	now        func() time.Time
}

// NewArchiveService создает сервис архивации.
func NewArchiveService(l *LedgerService, store storage.ObjectStore, repo repository.ArchiveRepository) *ArchiveService {
	return &ArchiveService{
		ledger: l,
		store:  store,
		repo:   repo,
		log:    logging.For("ArchiveService"),
		now:    time.Now,
	}
}

// Archive снимает зафиксированное состояние, сжимает его zstd и выгружает.
func (s *ArchiveService) Archive(ctx context.Context) (*models.Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archiveLocked(ctx)
}

func (s *ArchiveService) archiveLocked(ctx context.Context) (*models.Archive, error) {
	snap := SnapshotDTO(s.ledger.Current())
	snap.TakenAt = s.now().UTC()

	data, err := encodeSnapshot(snap)
	if err != nil {
		metrics.RecordArchive(false)
		return nil, err
	}
	sum := sha256.Sum256(data)

	archive := &models.Archive{
		ObjectKey: fmt.Sprintf("snapshots/%012d-%s.json.zst", snap.Height, uuid.NewString()),
		Height:    snap.Height,
		Events:    snap.Events,
		Checksum:  hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
	}

	if err = s.store.PutObject(ctx, archive.ObjectKey, bytes.NewReader(data), archive.SizeBytes, snapshotContentType); err != nil {
		metrics.RecordArchive(false)
		return nil, fmt.Errorf("ошибка выгрузки снимка: %w", err)
	}
	if err = s.repo.CreateArchive(ctx, archive); err != nil {
		metrics.RecordArchive(false)
		return nil, fmt.Errorf("ошибка сохранения метаданных снимка: %w", err)
	}

	s.lastEvents, s.lastHeight = snap.Events, snap.Height
	metrics.RecordArchive(true)
	s.log.Info("Снимок выгружен", "key", archive.ObjectKey, "height", archive.Height,
		"events", archive.Events, "bytes", archive.SizeBytes)
	return archive, nil
}

// List возвращает учтенные снимки, сначала новые.
func (s *ArchiveService) List(ctx context.Context, limit, offset int) ([]models.Archive, error) {
	return s.repo.ListArchives(ctx, limit, offset)
}

// Fetch скачивает снимок, проверяет контрольную сумму и разбирает его.
func (s *ArchiveService) Fetch(ctx context.Context, key string) (*apimodels.Snapshot, error) {
	meta, err := s.repo.GetArchive(ctx, key)
	if err != nil {
		return nil, err
	}

	rc, err := s.store.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения снимка: %w", err)
	}
	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != meta.Checksum {
		s.log.Error("Контрольная сумма снимка не совпадает", "key", key)
		return nil, ErrChecksumMismatch
	}
	return decodeSnapshot(data)
}

// Start запускает выгрузку по расписанию cron (например "@hourly" или "*/30 * * * *").
// Запуск пропускается, если с прошлой выгрузки реестр не изменился.
func (s *ArchiveService) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return fmt.Errorf("неверное расписание архивации %q: %w", spec, err)
	}
	s.scheduler = c
	c.Start()
	s.log.Info("Архивация по расписанию запущена", "schedule", spec)
	return nil
}

// Stop останавливает расписание и ждет завершения текущей выгрузки.
func (s *ArchiveService) Stop(ctx context.Context) {
	if s.scheduler == nil {
		return
	}
	select {
	case <-s.scheduler.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Выгрузка не завершилась до остановки")
	}
}

func (s *ArchiveService) runScheduled() {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.ledger.Current()
	if s.lastEvents != 0 && l.Events().Len() == s.lastEvents && l.Height() == s.lastHeight {
		s.log.Debug("Реестр не изменился, выгрузка пропущена")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), scheduledTimeout)
	defer cancel()
	if _, err := s.archiveLocked(ctx); err != nil {
		s.log.Error("Ошибка выгрузки по расписанию", "err", err)
	}
}

// encodeSnapshot сериализует снимок в JSON и сжимает zstd.
func encodeSnapshot(snap apimodels.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации zstd: %w", err)
	}
	if err = json.NewEncoder(enc).Encode(snap); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	if err = enc.Close(); err != nil {
		return nil, fmt.Errorf("ошибка сжатия снимка: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeSnapshot распаковывает и разбирает снимок.
func decodeSnapshot(data []byte) (*apimodels.Snapshot, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации zstd: %w", err)
	}
	defer dec.Close()

	var snap apimodels.Snapshot
	if err = json.NewDecoder(dec).Decode(&snap); err != nil {
		return nil, fmt.Errorf("ошибка разбора снимка: %w", err)
	}
	return &snap, nil
}

// Ошибки архивации.
var (
	ErrChecksumMismatch = errors.New("контрольная сумма снимка не совпадает")
	ErrArchiveDisabled  = errors.New("архивация не настроена")
)
