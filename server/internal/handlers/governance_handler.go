package handlers

import (
	"net/http"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

// GovernanceHandler обрабатывает запросы к предложениям и голосованию.
type GovernanceHandler struct {
	ledger LedgerGateway
}

// NewGovernanceHandler создает новый экземпляр GovernanceHandler.
func NewGovernanceHandler(l LedgerGateway) *GovernanceHandler {
	return &GovernanceHandler{ledger: l}
}

const governanceTag = "GovernanceHandler"

// CreateProposal обрабатывает POST /api/proposals.
func (h *GovernanceHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r, governanceTag)
	if !ok {
		return
	}
	var req models.CreateProposalRequest
	if !decodeJSON(w, r, governanceTag, &req) {
		return
	}

	var id uint64
	txID, err := h.ledger.Mutate(r.Context(), "create-proposal", func(l *ledger.Ledger) error {
		var err error
		id, err = l.CreateProposal(addr, req.VaultID, req.Title, req.Description, req.Type, req.Data)
		return err
	})
	if err != nil {
		writeLedgerError(w, governanceTag, err)
		return
	}
	w.Header().Set(TxIDHeader, txID)
	writeOK(w, http.StatusCreated, id)
}

// ListProposals обрабатывает GET /api/proposals.
func (h *GovernanceHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	l := h.ledger.Current()
	count := l.ProposalCount()
	out := models.ProposalList{Count: count, Proposals: make([]models.Proposal, 0, count)}
	for id := uint64(1); id <= count; id++ {
		p, err := l.GetProposal(id)
		if err != nil {
			writeLedgerError(w, governanceTag, err)
			return
		}
		out.Proposals = append(out.Proposals, services.ProposalDTO(p))
	}
	writeOK(w, http.StatusOK, out)
}

// GetProposal обрабатывает GET /api/proposals/{id}.
func (h *GovernanceHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.ledger.Current().GetProposal(id)
	if err != nil {
		writeLedgerError(w, governanceTag, err)
		return
	}
	writeOK(w, http.StatusOK, services.ProposalDTO(p))
}

// CastVote обрабатывает POST /api/proposals/{id}/votes.
func (h *GovernanceHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r, governanceTag)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	var req models.VoteRequest
	if !decodeJSON(w, r, governanceTag, &req) {
		return
	}
	txID, err := h.ledger.Mutate(r.Context(), "cast-vote", func(l *ledger.Ledger) error {
		return l.CastVote(addr, id, req.VaultID, req.Support)
	})
	if err != nil {
		writeLedgerError(w, governanceTag, err)
		return
	}
	writeCommitted(w, txID, true)
}

// HasVoted обрабатывает GET /api/proposals/{id}/votes/{vaultID}.
func (h *GovernanceHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	vid, ok := uintParam(w, r, "vaultID")
	if !ok {
		return
	}
	writeOK(w, http.StatusOK, h.ledger.Current().HasVoted(id, vid))
}

// ResolveProposal обрабатывает POST /api/proposals/{id}/resolve.
// Результат - прошло ли предложение.
func (h *GovernanceHandler) ResolveProposal(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r, governanceTag)
	if !ok {
		return
	}
	id, ok := uintParam(w, r, "id")
	if !ok {
		return
	}
	var passed bool
	txID, err := h.ledger.Mutate(r.Context(), "resolve-proposal", func(l *ledger.Ledger) error {
		var err error
		passed, err = l.ResolveProposal(addr, id)
		return err
	})
	if err != nil {
		writeLedgerError(w, governanceTag, err)
		return
	}
	writeCommitted(w, txID, passed)
}
