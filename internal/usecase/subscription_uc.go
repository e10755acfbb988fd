package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/logging"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/metrics"
)

// renewalWindow is how far ahead the due-for-renewal sweep looks.
const renewalWindow = 24 * time.Hour

// newReference issues a caller-generated transaction reference. ULIDs sort
// by creation time, which keeps provider dashboards and log greps sane.
func newReference(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// Subscribe creates the user's subscription and returns it together with
	// the provider-hosted payment link. Rejected when the user already holds
	// a trial or active subscription.
	Subscribe(ctx context.Context, userID, planID, email string, kind model.GatewayKind) (*model.Subscription, string, error)
	// VerifyPayment resolves a transaction reference with the provider and,
	// on business success, promotes the matching trial subscription.
	VerifyPayment(ctx context.Context, reference string) (*adapter.PaymentVerification, *model.Subscription, error)
	// Renew recomputes the billing window from now, optionally switching plan,
	// and merges the new payment reference.
	Renew(ctx context.Context, subID, planID, reference string) (*model.Subscription, error)
	// ProcessRenewal initiates a renewal payment for one due subscription and
	// applies the renewal carrying the fresh reference.
	ProcessRenewal(ctx context.Context, subID string) error
	Cancel(ctx context.Context, subID, actor, reason string) (*model.Subscription, error)
	// DueForRenewal selects active auto-renew subscriptions whose next billing
	// date falls within the next 24 hours.
	DueForRenewal(ctx context.Context) ([]*model.Subscription, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error)
}

type subscriptionUC struct {
	subs        repository.SubscriptionRepository
	plans       repository.PlanRepository
	tm          repository.TransactionManager
	orch        adapter.PaymentOrchestrator
	callbackURL string
	log         *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.PlanRepository, tm repository.TransactionManager, orch adapter.PaymentOrchestrator, callbackURL string, logger *zerolog.Logger) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, plans: plans, tm: tm, orch: orch, callbackURL: callbackURL, log: &l}
}

func (uc *subscriptionUC) Subscribe(ctx context.Context, userID, planID, email string, kind model.GatewayKind) (*model.Subscription, string, error) {
	defer logging.TraceDuration(uc.log, "SubscriptionUseCase.Subscribe")()
	if userID == "" || planID == "" || email == "" {
		return nil, "", domain.ErrInvalidArgument
	}

	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrPlanNotFound
		}
		return nil, "", err
	}

	// One live subscription per user. The partial unique index backs this
	// check up under concurrent subscribes.
	if live, err := uc.subs.FindLiveByUser(ctx, repository.NoTX, userID); err == nil && live != nil {
		return nil, "", domain.ErrDuplicateSubscription
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	// Resolve the gateway up front so the subscription records the concrete
	// kind even when the caller asked for the default.
	g, err := uc.orch.Gateway(ctx, kind)
	if err != nil {
		return nil, "", err
	}
	kind = g.Kind()

	reference := newReference("sub")
	init, err := uc.orch.InitializePayment(ctx, kind, adapter.PaymentRequest{
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Email:       email,
		Reference:   reference,
		CallbackURL: uc.callbackURL,
		Metadata:    map[string]any{"userId": userID, "planId": planID},
	})
	if err != nil {
		return nil, "", err
	}

	sub, err := model.NewSubscription(uuid.NewString(), userID, plan, kind, init.TransactionReference)
	if err != nil {
		return nil, "", err
	}
	sub.CustomerEmail = email

	// Persist regardless of immediate payment completion; the webhook or an
	// explicit verification finishes the job later. The duplicate check is
	// repeated inside the transaction to close the race with a concurrent
	// subscribe that slipped in during the provider call.
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if live, err := uc.subs.FindLiveByUser(ctx, tx, userID); err == nil && live != nil {
			return domain.ErrDuplicateSubscription
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return uc.subs.Save(ctx, tx, sub)
	})
	if err != nil {
		uc.log.Error().Err(err).Str("user_id", userID).Msg("save subscription")
		return nil, "", err
	}
	metrics.IncSubscription("created")
	uc.log.Info().Str("subscription_id", sub.ID).Str("gateway", string(kind)).Str("reference", sub.Metadata.TransactionReference).Msg("subscription created")
	return sub, init.PaymentLink, nil
}

func (uc *subscriptionUC) VerifyPayment(ctx context.Context, reference string) (*adapter.PaymentVerification, *model.Subscription, error) {
	sub, err := uc.subs.FindByReference(ctx, repository.NoTX, reference)
	if err != nil {
		return nil, nil, err
	}

	ver, err := uc.orch.VerifyPayment(ctx, sub.Gateway, reference)
	if err != nil {
		return nil, sub, err
	}
	if !ver.Success || ver.Status != adapter.PaymentStatusCompleted {
		return ver, sub, nil
	}

	if sub.Status == model.SubscriptionStatusTrial {
		metrics.IncSubscription("activated")
	}
	sub.Activate(ver.TransactionID)
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return ver, sub, err
	}
	return ver, sub, nil
}

func (uc *subscriptionUC) Renew(ctx context.Context, subID, planID, reference string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, subID)
	if err != nil {
		return nil, err
	}
	// Cancellation is terminal for the lifecycle instance.
	if sub.Status == model.SubscriptionStatusCancelled {
		return nil, fmt.Errorf("renew cancelled subscription: %w", domain.ErrInvalidTransition)
	}

	if planID == "" {
		planID = sub.PlanID
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	sub.Renew(plan, reference)
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	metrics.IncSubscription("renewed")
	uc.log.Info().Str("subscription_id", sub.ID).Str("plan_id", plan.ID).Time("end_date", sub.EndDate).Msg("subscription renewed")
	return sub, nil
}

func (uc *subscriptionUC) ProcessRenewal(ctx context.Context, subID string) error {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, subID)
	if err != nil {
		return err
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, sub.PlanID)
	if err != nil {
		return err
	}

	reference := newReference("renew")
	if _, err := uc.orch.InitializePayment(ctx, sub.Gateway, adapter.PaymentRequest{
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Email:       sub.CustomerEmail,
		Reference:   reference,
		CallbackURL: uc.callbackURL,
		Metadata:    map[string]any{"userId": sub.UserID, "planId": plan.ID, "renewal": true},
	}); err != nil {
		return err
	}

	_, err = uc.Renew(ctx, subID, "", reference)
	return err
}

func (uc *subscriptionUC) Cancel(ctx context.Context, subID, actor, reason string) (*model.Subscription, error) {
	sub, err := uc.subs.FindByID(ctx, repository.NoTX, subID)
	if err != nil {
		return nil, err
	}
	sub.Cancel(actor, reason)
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	metrics.IncSubscription("cancelled")
	uc.log.Info().Str("subscription_id", sub.ID).Str("actor", actor).Msg("subscription cancelled")
	return sub, nil
}

func (uc *subscriptionUC) DueForRenewal(ctx context.Context) ([]*model.Subscription, error) {
	return uc.subs.FindDueForRenewal(ctx, repository.NoTX, time.Now(), renewalWindow)
}

func (uc *subscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return uc.subs.ListByUser(ctx, repository.NoTX, userID)
}
