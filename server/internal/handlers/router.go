package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/logging"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/metrics"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/middleware"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/services"
	"github.com/AdekunleBamz/TimeFi-Protocol/server/internal/token"
)

// LedgerBackend - все, что обработчикам нужно от сервиса реестра.
type LedgerBackend interface {
	LedgerGateway
	ClockAdvancer
	Hub() *services.EventHub
}

var _ LedgerBackend = (*services.LedgerService)(nil)

// RouterConfig - зависимости HTTP-маршрутизатора.
type RouterConfig struct {
	Ledger  LedgerBackend
	Auth    services.AuthService
	Tokens  *token.Manager
	Admin   string
	Archive Archiver                // nil - архивация не настроена
	Limiter *middleware.RateLimiter // nil - без ограничения частоты
}

// NewRouter собирает маршрутизатор API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logging.For("HTTP")))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pong\n"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	authHandler := NewAuthHandler(cfg.Auth)
	vaultHandler := NewVaultHandler(cfg.Ledger)
	govHandler := NewGovernanceHandler(cfg.Ledger)
	queryHandler := NewQueryHandler(cfg.Ledger)
	adminHandler := NewAdminHandler(cfg.Ledger, cfg.Ledger, cfg.Archive)
	eventsHandler := NewEventsHandler(cfg.Ledger)

	limit := func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Handler)
		}
	}

	r.Route("/api", func(r chi.Router) {
		// Публичные маршруты, лимит по IP.
		r.Group(func(r chi.Router) {
			limit(r)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Get("/protocol", queryHandler.Protocol)
			r.Get("/fees", queryHandler.Fees)
			r.Get("/bots/{address}", queryHandler.IsBot)
			r.Get("/events", eventsHandler.List)
			r.Get("/events/stream", eventsHandler.Stream)
		})

		// Лимит по адресу вызывающего.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(cfg.Tokens))
			limit(r)

			r.Get("/balance", queryHandler.Balance)

			r.Route("/vaults", func(r chi.Router) {
				r.Post("/", vaultHandler.CreateVault)
				r.Get("/", vaultHandler.ListVaults)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", vaultHandler.GetVault)
					r.Get("/active", vaultHandler.IsActive)
					r.Get("/can-withdraw", vaultHandler.CanWithdraw)
					r.Get("/time-remaining", vaultHandler.TimeRemaining)
					r.Get("/status", vaultHandler.Status)
					r.Get("/owner/{address}", vaultHandler.IsOwner)
					r.Get("/emergency-payout", vaultHandler.EmergencyPayout)
					r.Get("/voting-power", vaultHandler.VotingPower)
					r.Get("/rewards", vaultHandler.Rewards)

					r.Post("/withdraw", vaultHandler.Withdraw)
					r.Post("/top-up", vaultHandler.TopUp)
					r.Post("/extend-lock", vaultHandler.ExtendLock)
					r.Put("/beneficiary", vaultHandler.SetBeneficiary)
					r.Post("/transfer", vaultHandler.InitiateTransfer)
					r.Post("/transfer/accept", vaultHandler.AcceptTransfer)
					r.Put("/bot", vaultHandler.AssignBot)
					r.Delete("/bot", vaultHandler.UnassignBot)
					r.Post("/emergency-withdraw", vaultHandler.EmergencyWithdraw)
					r.Post("/rewards/claim", vaultHandler.ClaimRewards)
				})
			})

			r.Route("/proposals", func(r chi.Router) {
				r.Post("/", govHandler.CreateProposal)
				r.Get("/", govHandler.ListProposals)
				r.Get("/{id}", govHandler.GetProposal)
				r.Post("/{id}/votes", govHandler.CastVote)
				r.Get("/{id}/votes/{vaultID}", govHandler.HasVoted)
				r.Post("/{id}/resolve", govHandler.ResolveProposal)
			})

			r.Route("/admin", func(r chi.Router) {
				// Права на операции реестра проверяет сам реестр (код 100).
				r.Post("/bots", adminHandler.ApproveBot)
				r.Delete("/bots/{address}", adminHandler.RevokeBot)
				r.Put("/treasury", adminHandler.SetTreasury)
				r.Put("/paused", adminHandler.SetPaused)
				r.Post("/rewards", adminHandler.FundRewards)

				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly(cfg.Admin))
					r.Post("/clock", adminHandler.AdvanceClock)
					r.Post("/archive", adminHandler.Archive)
					r.Get("/archives", adminHandler.ListArchives)
					r.Get("/archives/*", adminHandler.GetArchive)
				})
			})
		})
	})

	return r
}
