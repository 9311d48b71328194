package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AdekunleBamz/TimeFi-Protocol/models"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/ledger"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
)

// QueryHandler отдает справочные данные протокола.
type QueryHandler struct {
	ledger LedgerGateway
}

// NewQueryHandler создает новый экземпляр QueryHandler.
func NewQueryHandler(l LedgerGateway) *QueryHandler {
	return &QueryHandler{ledger: l}
}

const queryTag = "QueryHandler"

// IsBot обрабатывает GET /api/bots/{address}.
func (h *QueryHandler) IsBot(w http.ResponseWriter, r *http.Request) {
	addr := ledger.Address(chi.URLParam(r, "address"))
	writeOK(w, http.StatusOK, h.ledger.Current().IsBot(addr))
}

// Fees обрабатывает GET /api/fees?amount=.
func (h *QueryHandler) Fees(w http.ResponseWriter, r *http.Request) {
	amount, ok := uintQuery(w, r, "amount", 0)
	if !ok {
		return
	}
	writeOK(w, http.StatusOK, models.FeeQuote{
		Amount: amount,
		Fee:    ledger.CalculateFee(amount),
		Net:    ledger.CalculateDepositAfterFee(amount),
	})
}

// Protocol обрабатывает GET /api/protocol.
func (h *QueryHandler) Protocol(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, http.StatusOK, services.ProtocolDTO(h.ledger.Current()))
}

// Balance обрабатывает GET /api/balance. Параметр address задает счет,
// по умолчанию берется вызывающий.
func (h *QueryHandler) Balance(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r, queryTag)
	if !ok {
		return
	}
	if a := r.URL.Query().Get("address"); a != "" {
		addr = ledger.Address(a)
	}
	writeOK(w, http.StatusOK, models.Balance{Address: string(addr), Amount: h.ledger.Balance(string(addr))})
}
