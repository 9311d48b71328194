package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

// LedgerGateway - доступ обработчиков к реестру.
type LedgerGateway interface {
	Current() *ledger.Ledger
	Mutate(ctx context.Context, op string, fn func(l *ledger.Ledger) error) (string, error)
	Balance(addr string) uint64
}

var _ LedgerGateway = (*services.LedgerService)(nil)

// VaultHandler обрабатывает запросы к хранилищам.
type VaultHandler struct {
	ledger LedgerGateway
}

// NewVaultHandler создает новый экземпляр VaultHandler.
func NewVaultHandler(l LedgerGateway) *VaultHandler {
	return &VaultHandler{ledger: l}
}

const vaultTag = "VaultHandler"

// vaultID читает {id} из маршрута.
func vaultID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	return uintParam(w, r, "id")
}

// CreateVault обрабатывает POST /api/vaults.
func (h *VaultHandler) CreateVault(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r, vaultTag)
	if !ok {
		return
	}
	var req models.CreateVaultRequest
	if !decodeJSON(w, r, vaultTag, &req) {
		return
	}

	var id uint64
	txID, err := h.ledger.Mutate(r.Context(), "create-vault", func(l *ledger.Ledger) error {
		var err error
		id, err = l.CreateVault(addr, req.Amount, req.LockSeconds)
		return err
	})
	if err != nil {
		writeLedgerError(w, vaultTag, err)
		return
	}
	w.Header().Set(TxIDHeader, txID)
	writeOK(w, http.StatusCreated, id)
}

// ListVaults обрабатывает GET /api/vaults. Параметр owner задает владельца,
// по умолчанию берется вызывающий.
func (h *VaultHandler) ListVaults(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r, vaultTag)
	if !ok {
		return
	}
	if owner := r.URL.Query().Get("owner"); owner != "" {
		addr = ledger.Address(owner)
	}
	ids := h.ledger.Current().UserVaults(addr)
	if ids == nil {
		ids = []uint64{}
	}
	writeOK(w, http.StatusOK, ids)
}

// GetVault обрабатывает GET /api/vaults/{id}.
func (h *VaultHandler) GetVault(w http.ResponseWriter, r *http.Request) {
	id, ok := vaultID(w, r)
	if !ok {
		return
	}
	l := h.ledger.Current()
	v, err := l.GetVault(id)
	if err != nil {
		writeLedgerError(w, vaultTag, err)
		return
	}
	writeOK(w, http.StatusOK, services.VaultDTO(v, l.Height()))
}

// IsActive обрабатывает GET /api/vaults/{id}/active.
func (h *VaultHandler) IsActive(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) { return l.IsActive(id) })
}

// CanWithdraw обрабатывает GET /api/vaults/{id}/can-withdraw.
func (h *VaultHandler) CanWithdraw(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) { return l.CanWithdraw(id) })
}

// TimeRemaining обрабатывает GET /api/vaults/{id}/time-remaining.
func (h *VaultHandler) TimeRemaining(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) { return l.TimeRemaining(id) })
}

// Status обрабатывает GET /api/vaults/{id}/status.
func (h *VaultHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) {
		st, err := l.VaultStatus(id)
		return string(st), err
	})
}

// IsOwner обрабатывает GET /api/vaults/{id}/owner/{address}.
func (h *VaultHandler) IsOwner(w http.ResponseWriter, r *http.Request) {
	addr := ledger.Address(chi.URLParam(r, "address"))
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) { return l.IsVaultOwner(id, addr) })
}

// EmergencyPayout обрабатывает GET /api/vaults/{id}/emergency-payout.
func (h *VaultHandler) EmergencyPayout(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) { return l.EmergencyPayout(id) })
}

// VotingPower обрабатывает GET /api/vaults/{id}/voting-power.
func (h *VaultHandler) VotingPower(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) { return l.VotingPowerOf(id) })
}

// Rewards обрабатывает GET /api/vaults/{id}/rewards.
func (h *VaultHandler) Rewards(w http.ResponseWriter, r *http.Request) {
	h.query(w, r, func(l *ledger.Ledger, id uint64) (any, error) {
		rewards, err := l.Rewards(id)
		if err != nil {
			return nil, err
		}
		pending, err := l.PendingRewards(id)
		if err != nil {
			return nil, err
		}
		claimed, err := l.HasClaimed(id)
		if err != nil {
			return nil, err
		}
		return models.RewardsInfo{Rewards: rewards, Pending: pending, Claimed: claimed}, nil
	})
}

// Withdraw обрабатывает POST /api/vaults/{id}/withdraw.
func (h *VaultHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "withdraw", nil, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		_, err := l.Withdraw(addr, id)
		return err
	})
}

// EmergencyWithdraw обрабатывает POST /api/vaults/{id}/emergency-withdraw.
func (h *VaultHandler) EmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	h.mutateAmount(w, r, "request-emergency-withdraw", func(l *ledger.Ledger, addr ledger.Address, id uint64) (uint64, error) {
		return l.RequestEmergencyWithdraw(addr, id)
	})
}

// ClaimRewards обрабатывает POST /api/vaults/{id}/rewards/claim.
func (h *VaultHandler) ClaimRewards(w http.ResponseWriter, r *http.Request) {
	h.mutateAmount(w, r, "claim-rewards", func(l *ledger.Ledger, addr ledger.Address, id uint64) (uint64, error) {
		return l.ClaimRewards(addr, id)
	})
}

// TopUp обрабатывает POST /api/vaults/{id}/top-up.
func (h *VaultHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req models.AmountRequest
	h.mutate(w, r, "top-up-vault", &req, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		return l.TopUp(addr, id, req.Amount)
	})
}

// ExtendLock обрабатывает POST /api/vaults/{id}/extend-lock.
func (h *VaultHandler) ExtendLock(w http.ResponseWriter, r *http.Request) {
	var req models.ExtendLockRequest
	h.mutate(w, r, "extend-lock", &req, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		return l.ExtendLock(addr, id, req.Additional)
	})
}

// SetBeneficiary обрабатывает PUT /api/vaults/{id}/beneficiary.
func (h *VaultHandler) SetBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req models.AddressRequest
	h.mutate(w, r, "set-beneficiary", &req, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		return l.SetBeneficiary(addr, id, ledger.Address(req.Address))
	})
}

// InitiateTransfer обрабатывает POST /api/vaults/{id}/transfer.
func (h *VaultHandler) InitiateTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.AddressRequest
	h.mutate(w, r, "initiate-transfer", &req, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		return l.InitiateTransfer(addr, id, ledger.Address(req.Address))
	})
}

// AcceptTransfer обрабатывает POST /api/vaults/{id}/transfer/accept.
func (h *VaultHandler) AcceptTransfer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "accept-transfer", nil, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		return l.AcceptTransfer(addr, id)
	})
}

// AssignBot обрабатывает PUT /api/vaults/{id}/bot.
func (h *VaultHandler) AssignBot(w http.ResponseWriter, r *http.Request) {
	var req models.AddressRequest
	h.mutate(w, r, "assign-bot", &req, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		return l.AssignBot(addr, id, ledger.Address(req.Address))
	})
}

// UnassignBot обрабатывает DELETE /api/vaults/{id}/bot.
func (h *VaultHandler) UnassignBot(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "unassign-bot", nil, func(l *ledger.Ledger, addr ledger.Address, id uint64) error {
		return l.UnassignBot(addr, id)
	})
}

// query выполняет чтение по хранилищу {id} на зафиксированном реестре.
func (h *VaultHandler) query(w http.ResponseWriter, r *http.Request, fn func(l *ledger.Ledger, id uint64) (any, error)) {
	id, ok := vaultID(w, r)
	if !ok {
		return
	}
	v, err := fn(h.ledger.Current(), id)
	if err != nil {
		writeLedgerError(w, vaultTag, err)
		return
	}
	writeOK(w, http.StatusOK, v)
}

// mutate выполняет изменяющую операцию над хранилищем {id}. Если body не nil,
// тело запроса декодируется в него до вызова fn. Результат - true.
func (h *VaultHandler) mutate(w http.ResponseWriter, r *http.Request, op string, body any,
	fn func(l *ledger.Ledger, addr ledger.Address, id uint64) error) {
	addr, ok := caller(w, r, vaultTag)
	if !ok {
		return
	}
	id, ok := vaultID(w, r)
	if !ok {
		return
	}
	if body != nil && !decodeJSON(w, r, vaultTag, body) {
		return
	}
	txID, err := h.ledger.Mutate(r.Context(), op, func(l *ledger.Ledger) error {
		return fn(l, addr, id)
	})
	if err != nil {
		writeLedgerError(w, vaultTag, err)
		return
	}
	writeCommitted(w, txID, true)
}

// mutateAmount выполняет изменяющую операцию, возвращающую сумму выплаты.
func (h *VaultHandler) mutateAmount(w http.ResponseWriter, r *http.Request, op string,
	fn func(l *ledger.Ledger, addr ledger.Address, id uint64) (uint64, error)) {
	addr, ok := caller(w, r, vaultTag)
	if !ok {
		return
	}
	id, ok := vaultID(w, r)
	if !ok {
		return
	}
	var amount uint64
	txID, err := h.ledger.Mutate(r.Context(), op, func(l *ledger.Ledger) error {
		var err error
		amount, err = fn(l, addr, id)
		return err
	})
	if err != nil {
		writeLedgerError(w, vaultTag, err)
		return
	}
	writeCommitted(w, txID, amount)
}
