package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/metrics"
)

// WebhookDeduper remembers which events were already processed so a
// redelivered webhook does not replay side effects.
type WebhookDeduper interface {
	// Seen marks the event and reports whether it was already recorded.
	Seen(ctx context.Context, gateway, reference, event string) (bool, error)
	// Forget releases a recorded event so a provider retry can reapply it.
	Forget(ctx context.Context, gateway, reference, event string) error
}

// Compile-time check
var _ WebhookDispatcher = (*webhookDispatcher)(nil)

// WebhookDispatcher verifies, normalizes and routes raw provider webhooks.
type WebhookDispatcher interface {
	// Dispatch processes one raw webhook delivery for the given gateway.
	// An ErrSignatureInvalid return means the caller must reject the
	// delivery; any other error is internal and the provider should retry.
	Dispatch(ctx context.Context, kind model.GatewayKind, payload []byte, signature string) error
}

type webhookDispatcher struct {
	orch    adapter.PaymentOrchestrator
	subs    repository.SubscriptionRepository
	payouts repository.PayoutRepository
	payUC   PayoutUseCase
	dedup   WebhookDeduper
	log     *zerolog.Logger
}

func NewWebhookDispatcher(
	orch adapter.PaymentOrchestrator,
	subs repository.SubscriptionRepository,
	payouts repository.PayoutRepository,
	payUC PayoutUseCase,
	dedup WebhookDeduper,
	logger *zerolog.Logger,
) *webhookDispatcher {
	l := logger.With().Str("component", "WebhookDispatcher").Logger()
	return &webhookDispatcher{orch: orch, subs: subs, payouts: payouts, payUC: payUC, dedup: dedup, log: &l}
}

func (d *webhookDispatcher) Dispatch(ctx context.Context, kind model.GatewayKind, payload []byte, signature string) error {
	gw, err := d.orch.Gateway(ctx, kind)
	if err != nil {
		return err
	}

	if !gw.VerifyWebhookSignature(payload, signature) {
		metrics.IncWebhookRejected(string(kind))
		d.log.Warn().Str("gateway", string(kind)).Msg("webhook signature rejected")
		return domain.ErrSignatureInvalid
	}

	ev, err := gw.NormalizeWebhook(payload)
	if err != nil {
		return fmt.Errorf("normalize %s webhook: %w", kind, err)
	}
	metrics.IncWebhook(string(kind), ev.Event)

	// Events we do not model are acknowledged so the provider stops
	// redelivering them.
	if ev.Type == adapter.WebhookTypeUnknown {
		d.log.Debug().Str("gateway", string(kind)).Str("event", ev.Event).Msg("ignoring unmapped webhook event")
		return nil
	}

	claimed := false
	if d.dedup != nil && ev.TransactionReference != "" {
		seen, derr := d.dedup.Seen(ctx, string(kind), ev.TransactionReference, ev.Event)
		if derr != nil {
			// Dedup is best effort; the handlers below are idempotent.
			d.log.Warn().Err(derr).Msg("webhook dedup unavailable, processing anyway")
		} else if seen {
			metrics.IncWebhookDuplicate(string(kind))
			d.log.Info().Str("gateway", string(kind)).Str("reference", ev.TransactionReference).Str("event", ev.Event).Msg("duplicate webhook skipped")
			return nil
		} else {
			claimed = true
		}
	}

	var herr error
	switch ev.Type {
	case adapter.WebhookTypePayment:
		herr = d.handlePayment(ctx, kind, ev)
	case adapter.WebhookTypeTransfer:
		herr = d.handleTransfer(ctx, kind, ev)
	}
	if herr != nil && claimed {
		// The transition did not commit. Release the claim so the
		// provider's redelivery is not swallowed as a duplicate.
		if ferr := d.dedup.Forget(ctx, string(kind), ev.TransactionReference, ev.Event); ferr != nil {
			d.log.Warn().Err(ferr).Str("reference", ev.TransactionReference).Str("event", ev.Event).Msg("failed to release webhook dedup claim")
		}
	}
	return herr
}

func (d *webhookDispatcher) handlePayment(ctx context.Context, kind model.GatewayKind, ev *adapter.WebhookEvent) error {
	if ev.Status != adapter.PaymentStatusCompleted {
		d.log.Info().Str("gateway", string(kind)).Str("reference", ev.TransactionReference).Str("status", string(ev.Status)).Msg("non-success payment webhook, nothing to activate")
		return nil
	}

	sub, err := d.subs.FindByReference(ctx, repository.NoTX, ev.TransactionReference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Charge for something we never initiated (or a purged record);
			// ack so the provider stops retrying, but leave a trace.
			d.log.Warn().Str("gateway", string(kind)).Str("reference", ev.TransactionReference).Msg("payment webhook references no known subscription")
			return nil
		}
		return err
	}

	sub.Activate(ev.TransactionID)
	if err := d.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return err
	}
	metrics.IncSubscription("activated")
	d.log.Info().Str("subscription_id", sub.ID).Str("reference", ev.TransactionReference).Msg("subscription activated via webhook")
	return nil
}

func (d *webhookDispatcher) handleTransfer(ctx context.Context, kind model.GatewayKind, ev *adapter.WebhookEvent) error {
	p, err := d.payouts.FindByReference(ctx, repository.NoTX, ev.TransactionReference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.log.Warn().Str("gateway", string(kind)).Str("reference", ev.TransactionReference).Msg("transfer webhook references no known payout")
			return nil
		}
		return err
	}

	switch ev.Status {
	case adapter.PaymentStatusCompleted:
		_, err = d.payUC.MarkCompleted(ctx, p.ID, ev.TransactionID, ev.TransactionReference)
	case adapter.PaymentStatusFailed:
		_, err = d.payUC.MarkFailed(ctx, p.ID, &model.PayoutError{
			Message: ev.Event,
			Code:    "provider_transfer_failed",
			Details: ev.Raw,
		})
	default:
		d.log.Debug().Str("reference", ev.TransactionReference).Str("status", string(ev.Status)).Msg("pending transfer webhook, waiting for settlement")
		return nil
	}
	if err != nil && errors.Is(err, domain.ErrInvalidTransition) {
		// Late or out-of-order delivery for a payout already settled.
		d.log.Info().Str("payout_id", p.ID).Str("event", ev.Event).Msg("transfer webhook arrived after payout settled")
		return nil
	}
	return err
}
