package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/usecase"
)

// TrialReconciler periodically scans for stale trial subscriptions and tries
// to finalize them by re-verifying the payment with the provider. This covers
// webhooks that never arrived or a process that crashed mid-activation.
type TrialReconciler struct {
	subUC      usecase.SubscriptionUseCase
	subs       repository.SubscriptionRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a trial must be to retry
	log        *zerolog.Logger
}

func NewTrialReconciler(subUC usecase.SubscriptionUseCase, subs repository.SubscriptionRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *TrialReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	l := logger.With().Str("component", "TrialReconciler").Logger()
	return &TrialReconciler{subUC: subUC, subs: subs, interval: interval, staleAfter: staleAfter, log: &l}
}

func (w *TrialReconciler) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *TrialReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.subs.FindStaleTrials(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale trials failed")
		return
	}
	for _, sub := range stale {
		ref := sub.Metadata.TransactionReference
		if ref == "" {
			continue
		}
		if _, _, err := w.subUC.VerifyPayment(ctx, ref); err != nil {
			w.log.Warn().Err(err).Str("subscription_id", sub.ID).Str("reference", ref).Msg("trial reconciliation failed")
			continue
		}
		w.log.Info().Str("subscription_id", sub.ID).Msg("trial reconciled")
	}
}
