package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/security"
	"github.com/RandyMyers/affiliateShares-sub001/internal/usecase"
)

type Server struct {
	dispatcher usecase.WebhookDispatcher
	subUC      usecase.SubscriptionUseCase
	payoutUC   usecase.PayoutUseCase
	store      *security.CredentialStore
	plans      repository.PlanRepository
	auth       *AuthManager
	log        *zerolog.Logger
}

func NewServer(
	dispatcher usecase.WebhookDispatcher,
	subUC usecase.SubscriptionUseCase,
	payoutUC usecase.PayoutUseCase,
	store *security.CredentialStore,
	plans repository.PlanRepository,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		dispatcher: dispatcher,
		subUC:      subUC,
		payoutUC:   payoutUC,
		store:      store,
		plans:      plans,
		auth:       auth,
		log:        &l,
	}
}

// Router builds the full route tree: provider webhooks, the payment
// verification callback, health/metrics, and the admin API behind JWT auth.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhooks/{gateway}", s.webhookHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/subscriptions", s.subscribeHandler())
		r.Get("/payments/verify", s.verifyPaymentHandler())
		r.Get("/plans", s.plansListHandler())

		r.Post("/admin/login", s.loginHandler())
		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/admin/logout", s.logoutHandler())

			r.Get("/admin/gateways", s.gatewaysListHandler())
			r.Post("/admin/gateways", s.gatewaysSaveHandler())

			r.Post("/admin/plans", s.plansSaveHandler())
			r.Delete("/admin/plans/{id}", s.plansDeleteHandler())

			r.Get("/admin/payouts", s.payoutsListHandler())
			r.Get("/admin/affiliates/{id}/payouts", s.payoutsByAffiliateHandler())
			r.Post("/admin/payouts", s.payoutsCreateHandler())
			r.Post("/admin/payouts/{id}/transfer", s.payoutTransferHandler())
			r.Post("/admin/payouts/{id}/cancel", s.payoutCancelHandler())

			r.Get("/admin/users/{id}/subscriptions", s.subscriptionsListHandler())
			r.Post("/admin/subscriptions/{id}/cancel", s.subscriptionCancelHandler())
		})
	})

	return r
}

// adminMiddleware gates the admin API on a valid admin JWT.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil || claims.Role != "admin" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
