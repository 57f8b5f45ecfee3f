package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stayhubapp/stayhub-backend/api/controllers"
	"github.com/stayhubapp/stayhub-backend/api/middleware"
	"github.com/stayhubapp/stayhub-backend/internal/escrow"
	"github.com/stayhubapp/stayhub-backend/internal/payouts"
	"github.com/stayhubapp/stayhub-backend/internal/wallet"
	"github.com/stayhubapp/stayhub-backend/internal/withdrawals"
	"github.com/stayhubapp/stayhub-backend/pkg/config"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
	"github.com/stayhubapp/stayhub-backend/pkg/logger"
	"github.com/stayhubapp/stayhub-backend/pkg/redis"
)

// RouterParams collects everything the HTTP layer needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	Metrics     prometheus.Gatherer
	Wallet      wallet.Service
	Escrow      escrow.Service
	Payouts     payouts.Service
	Withdrawals withdrawals.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	var idempotencyStore redis.IdempotencyStore
	if p.Redis != nil {
		idempotencyStore = p.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	moneyPolicy := middleware.NewRateLimitPolicy(
		"money",
		cfg.RateLimit.MoneyWindow,
		cfg.RateLimit.MoneyIPLimit,
		cfg.RateLimit.MoneyUserLimit,
	)
	withdrawalPolicy := middleware.NewRateLimitPolicy(
		"withdrawals",
		cfg.RateLimit.WithdrawalWindow,
		cfg.RateLimit.WithdrawalIPLimit,
		cfg.RateLimit.WithdrawalUserLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletDetails(p.Wallet, cfg.Ledger.RecentTransactions, logg))
			r.With(middleware.RateLimit(moneyPolicy, p.Redis, logg)).
				Post("/deposit", controllers.WalletDeposit(p.Wallet, logg))
			r.With(middleware.RequireRole(string(enums.MemberRoleAdmin), logg)).
				Get("/audit", controllers.WalletAudit(p.Wallet, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(middleware.RateLimit(moneyPolicy, p.Redis, logg))
			r.Post("/{bookingId}/hold", controllers.BookingHold(p.Escrow, logg))
			r.Post("/{bookingId}/release", controllers.BookingRelease(p.Escrow, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))
			r.Post("/", controllers.PayoutCreate(p.Payouts, logg))
			r.Get("/", controllers.PayoutList(p.Payouts, logg))
			r.Get("/{payoutId}", controllers.PayoutDetail(p.Payouts, logg))
			r.Post("/{payoutId}/pay", controllers.PayoutPay(p.Payouts, logg))
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.With(middleware.RateLimit(withdrawalPolicy, p.Redis, logg)).
				Post("/", controllers.WithdrawalCreate(p.Withdrawals, logg))
			r.Get("/", controllers.WithdrawalList(p.Withdrawals, logg))
			r.With(middleware.RequireRole(string(enums.MemberRoleAdmin), logg)).
				Post("/{withdrawalId}/decision", controllers.WithdrawalDecision(p.Withdrawals, logg))
		})
	})

	return r
}
