package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/metrics"
	"github.com/RandyMyers/affiliateShares-sub001/internal/usecase"
)

// RenewalWorker periodically sweeps subscriptions due for renewal and
// initiates their renewal payments via the use case.
type RenewalWorker struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	log      *zerolog.Logger
}

func NewRenewalWorker(interval time.Duration, subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *RenewalWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "RenewalWorker").Logger()
	return &RenewalWorker{
		interval: interval,
		subUC:    subUC,
		log:      &l,
	}
}

func (w *RenewalWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting renewal worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping renewal worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RenewalWorker) tick(ctx context.Context) {
	due, err := w.subUC.DueForRenewal(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("renewal sweep failed")
		return
	}
	if len(due) == 0 {
		return
	}

	renewed := 0
	for _, sub := range due {
		if err := w.subUC.ProcessRenewal(ctx, sub.ID); err != nil {
			// One failed renewal must not stall the sweep.
			w.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("renewal failed")
			continue
		}
		renewed++
	}
	metrics.IncRenewalSweep(len(due), renewed)
	w.log.Info().Int("due", len(due)).Int("renewed", renewed).Msg("renewal sweep finished")
}
