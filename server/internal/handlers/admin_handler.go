package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apimodels "github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/repository"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

// ClockAdvancer управляет высотой реестра.
type ClockAdvancer interface {
	AdvanceClock(ctx context.Context, advance, height uint64) (uint64, error)
}

// Archiver выгружает и читает снимки реестра.
type Archiver interface {
	Archive(ctx context.Context) (*models.Archive, error)
	List(ctx context.Context, limit, offset int) ([]models.Archive, error)
	Fetch(ctx context.Context, key string) (*apimodels.Snapshot, error)
}

var (
	_ ClockAdvancer = (*services.LedgerService)(nil)
	_ Archiver      = (*services.ArchiveService)(nil)
)

// AdminHandler обрабатывает операции администратора.
// Маршруты должны быть закрыты middleware.AdminOnly; сам реестр
// дополнительно проверяет права вызывающего.
type AdminHandler struct {
	ledger  LedgerGateway
	clock   ClockAdvancer
	archive Archiver // nil - архивация не настроена
}

// NewAdminHandler создает новый экземпляр AdminHandler. archive может быть nil.
func NewAdminHandler(l LedgerGateway, clock ClockAdvancer, archive Archiver) *AdminHandler {
	return &AdminHandler{ledger: l, clock: clock, archive: archive}
}

const adminTag = "AdminHandler"

const defaultArchivePage = 50

// ApproveBot обрабатывает POST /api/admin/bots.
func (h *AdminHandler) ApproveBot(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AddressRequest
	h.mutate(w, r, "approve-bot", &req, func(l *ledger.Ledger, addr ledger.Address) error {
		return l.ApproveBot(addr, ledger.Address(req.Address))
	})
}

// RevokeBot обрабатывает DELETE /api/admin/bots/{address}.
func (h *AdminHandler) RevokeBot(w http.ResponseWriter, r *http.Request) {
	bot := ledger.Address(chi.URLParam(r, "address"))
	h.mutate(w, r, "revoke-bot", nil, func(l *ledger.Ledger, addr ledger.Address) error {
		return l.RevokeBot(addr, bot)
	})
}

// SetTreasury обрабатывает PUT /api/admin/treasury.
func (h *AdminHandler) SetTreasury(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AddressRequest
	h.mutate(w, r, "set-treasury", &req, func(l *ledger.Ledger, addr ledger.Address) error {
		return l.SetTreasury(addr, ledger.Address(req.Address))
	})
}

// SetPaused обрабатывает PUT /api/admin/paused.
func (h *AdminHandler) SetPaused(w http.ResponseWriter, r *http.Request) {
	var req apimodels.PausedRequest
	h.mutate(w, r, "set-paused", &req, func(l *ledger.Ledger, addr ledger.Address) error {
		return l.SetPaused(addr, req.Paused)
	})
}

// FundRewards обрабатывает POST /api/admin/rewards.
func (h *AdminHandler) FundRewards(w http.ResponseWriter, r *http.Request) {
	var req apimodels.AmountRequest
	h.mutate(w, r, "fund-rewards", &req, func(l *ledger.Ledger, addr ledger.Address) error {
		return l.FundRewards(addr, req.Amount)
	})
}

// AdvanceClock обрабатывает POST /api/admin/clock.
func (h *AdminHandler) AdvanceClock(w http.ResponseWriter, r *http.Request) {
	var req apimodels.ClockRequest
	if !decodeJSON(w, r, adminTag, &req) {
		return
	}
	height, err := h.clock.AdvanceClock(r.Context(), req.Advance, req.Height)
	switch {
	case err == nil:
		writeOK(w, http.StatusOK, apimodels.ClockResponse{Height: height})
	case errors.Is(err, services.ErrClockRequest), errors.Is(err, services.ErrClockLimit):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrClockBackwards):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeLedgerError(w, adminTag, err)
	}
}

// Archive обрабатывает POST /api/admin/archive.
func (h *AdminHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if !h.archiveEnabled(w) {
		return
	}
	a, err := h.archive.Archive(r.Context())
	if err != nil {
		writeLedgerError(w, adminTag, err)
		return
	}
	logging.Infof("[%s] Снимок выгружен: %s", adminTag, a.ObjectKey)
	writeOK(w, http.StatusCreated, a)
}

// ListArchives обрабатывает GET /api/admin/archives?limit=&offset=.
func (h *AdminHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	if !h.archiveEnabled(w) {
		return
	}
	limit, ok := uintQuery(w, r, "limit", defaultArchivePage)
	if !ok {
		return
	}
	offset, ok := uintQuery(w, r, "offset", 0)
	if !ok {
		return
	}
	list, err := h.archive.List(r.Context(), int(limit), int(offset))
	if err != nil {
		writeLedgerError(w, adminTag, err)
		return
	}
	if list == nil {
		list = []models.Archive{}
	}
	writeOK(w, http.StatusOK, list)
}

// GetArchive обрабатывает GET /api/admin/archives/*. Ключ объекта - остаток пути.
func (h *AdminHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	if !h.archiveEnabled(w) {
		return
	}
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Не указан ключ снимка")
		return
	}
	snap, err := h.archive.Fetch(r.Context(), key)
	if err != nil {
		if errors.Is(err, repository.ErrArchiveNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeLedgerError(w, adminTag, err)
		return
	}
	writeOK(w, http.StatusOK, snap)
}

func (h *AdminHandler) archiveEnabled(w http.ResponseWriter) bool {
	if h.archive == nil {
		writeError(w, http.StatusServiceUnavailable, services.ErrArchiveDisabled.Error())
		return false
	}
	return true
}

func (h *AdminHandler) mutate(w http.ResponseWriter, r *http.Request, op string, body any,
	fn func(l *ledger.Ledger, addr ledger.Address) error) {
	addr, ok := caller(w, r, adminTag)
	if !ok {
		return
	}
	if body != nil && !decodeJSON(w, r, adminTag, body) {
		return
	}
	txID, err := h.ledger.Mutate(r.Context(), op, func(l *ledger.Ledger) error {
		return fn(l, addr)
	})
	if err != nil {
		writeLedgerError(w, adminTag, err)
		return
	}
	writeCommitted(w, txID, true)
}
