// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/config"
	pg "github.com/RandyMyers/affiliateShares-sub001/internal/infra/db/postgres"
	gw "github.com/RandyMyers/affiliateShares-sub001/internal/infra/gateway"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/logging"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/metrics"
	red "github.com/RandyMyers/affiliateShares-sub001/internal/infra/redis"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/sched"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/security"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/web"
	"github.com/RandyMyers/affiliateShares-sub001/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		// The configured logger does not exist yet at this point.
		logging.Global.Fatal().Err(err).Msg("load config")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect")
	}
	defer redisClient.Close()

	// ---- Credential encryption ----
	cipher, err := security.NewCipher(cfg.Security.MasterSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("credential cipher")
	}

	// ---- Repositories ----
	gatewayRepo := pg.NewGatewayConfigCacheDecorator(pg.NewGatewayConfigRepo(pool), redisClient)
	planRepo := pg.NewPlanRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	payoutRepo := pg.NewPayoutRepo(pool)

	store := security.NewCredentialStore(gatewayRepo, cipher, logger)

	// ---- Gateways ----
	httpClient := func(name string) *gw.Client { return gw.NewClient(name, cfg.Payment.RequestTimeout) }
	orch := gw.NewOrchestrator(store, logger,
		gw.NewFlutterwave(store, httpClient("flutterwave"), logger),
		gw.NewPaystack(store, httpClient("paystack"), logger),
		gw.NewMonnify(store, httpClient("monnify"), logger),
	)

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, pg.NewTxManager(pool), orch, cfg.Payment.CallbackURL, logger)
	payoutUC := usecase.NewPayoutUseCase(payoutRepo, orch, logger)
	dedup := red.NewWebhookDeduper(redisClient, cfg.Payment.WebhookTTL)
	dispatcher := usecase.NewWebhookDispatcher(orch, subRepo, payoutRepo, payoutUC, dedup, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.Password, cfg.Admin.SecureTLS, cfg.Admin.Domain, cfg.Admin.SessionTTL)
	srv := web.NewServer(dispatcher, subUC, payoutUC, store, planRepo, auth, logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", httpSrv.Addr).Msg("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Background workers ----
	renewal := sched.NewRenewalWorker(cfg.Scheduler.RenewalInterval, subUC, logger)
	go func() { _ = renewal.Run(ctx) }()

	reconciler := sched.NewTrialReconciler(subUC, subRepo, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.ReconcileStaleAfter, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
