package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/metrics"
)

// payoutTransitions is the allowed state machine. The model setters do not
// validate the prior state; this table is what enforces sequencing, so a
// completed payout can never be re-completed or overwritten as failed.
// A failed payout may be retried (failed -> processing).
var payoutTransitions = map[model.PayoutStatus][]model.PayoutStatus{
	model.PayoutStatusPending:    {model.PayoutStatusProcessing, model.PayoutStatusCancelled},
	model.PayoutStatusProcessing: {model.PayoutStatusCompleted, model.PayoutStatusFailed, model.PayoutStatusCancelled},
	model.PayoutStatusFailed:     {model.PayoutStatusProcessing},
}

func canTransition(from, to model.PayoutStatus) bool {
	for _, allowed := range payoutTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Compile-time check
var _ PayoutUseCase = (*payoutUC)(nil)

type PayoutUseCase interface {
	Create(ctx context.Context, affiliateID, storeID string, commissionIDs []string, amount float64, currency string, method model.PayoutMethod, account model.PayoutAccount) (*model.Payout, error)
	// StartTransfer moves the payout to processing and initiates the provider
	// transfer carrying a fresh transaction reference.
	StartTransfer(ctx context.Context, payoutID, actor string) (*model.Payout, error)
	MarkCompleted(ctx context.Context, payoutID, transactionID, reference string) (*model.Payout, error)
	MarkFailed(ctx context.Context, payoutID string, perr *model.PayoutError) (*model.Payout, error)
	Cancel(ctx context.Context, payoutID, actor string) (*model.Payout, error)
	Get(ctx context.Context, payoutID string) (*model.Payout, error)
	ListByStatus(ctx context.Context, status model.PayoutStatus, limit int) ([]*model.Payout, error)
	ListByAffiliate(ctx context.Context, affiliateID string) ([]*model.Payout, error)
}

type payoutUC struct {
	payouts repository.PayoutRepository
	orch    adapter.PaymentOrchestrator
	log     *zerolog.Logger
}

func NewPayoutUseCase(payouts repository.PayoutRepository, orch adapter.PaymentOrchestrator, logger *zerolog.Logger) *payoutUC {
	l := logger.With().Str("component", "PayoutUC").Logger()
	return &payoutUC{payouts: payouts, orch: orch, log: &l}
}

func (uc *payoutUC) Create(ctx context.Context, affiliateID, storeID string, commissionIDs []string, amount float64, currency string, method model.PayoutMethod, account model.PayoutAccount) (*model.Payout, error) {
	p, err := model.NewPayout(uuid.NewString(), affiliateID, storeID, commissionIDs, amount, currency, method, account)
	if err != nil {
		return nil, err
	}
	if err := uc.payouts.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayout("pending")
	uc.log.Info().Str("payout_id", p.ID).Str("affiliate_id", affiliateID).Float64("amount", amount).Msg("payout created")
	return p, nil
}

// gatewayKindFor maps a payout method onto a gateway kind; bank transfers
// go through the default gateway.
func gatewayKindFor(method model.PayoutMethod) model.GatewayKind {
	switch method {
	case model.PayoutMethodFlutterwave:
		return model.GatewayFlutterwave
	case model.PayoutMethodPaystack:
		return model.GatewayPaystack
	case model.PayoutMethodMonnify:
		return model.GatewayMonnify
	}
	return ""
}

func (uc *payoutUC) StartTransfer(ctx context.Context, payoutID, actor string) (*model.Payout, error) {
	p, err := uc.payouts.FindByID(ctx, repository.NoTX, payoutID)
	if err != nil {
		return nil, err
	}
	if !canTransition(p.Status, model.PayoutStatusProcessing) {
		return nil, fmt.Errorf("payout %s -> processing: %w", p.Status, domain.ErrInvalidTransition)
	}

	p.TransactionReference = newReference("payout")
	p.MarkAsProcessing(actor)
	if err := uc.payouts.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayout("processing")

	res, err := uc.orch.InitiateTransfer(ctx, gatewayKindFor(p.Method), adapter.TransferRequest{
		Account:   p.Account,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Narration: "affiliate commission payout",
		Reference: p.TransactionReference,
	})
	if err != nil {
		// Transport failure: the provider may or may not have received the
		// transfer. Leave the payout processing so an operator or the
		// provider webhook can settle it.
		uc.log.Error().Err(err).Str("payout_id", p.ID).Str("reference", p.TransactionReference).Msg("transfer initiation failed in transit")
		return p, err
	}
	if !res.Success {
		// Provider rejected the transfer outright.
		return uc.MarkFailed(ctx, p.ID, &model.PayoutError{Message: res.Status, Code: "transfer_rejected", Details: res.Raw})
	}

	if res.TransferID != "" {
		p.TransactionID = res.TransferID
	}
	if err := uc.payouts.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	uc.log.Info().Str("payout_id", p.ID).Str("reference", p.TransactionReference).Str("transfer_id", res.TransferID).Msg("payout transfer initiated")
	return p, nil
}

func (uc *payoutUC) MarkCompleted(ctx context.Context, payoutID, transactionID, reference string) (*model.Payout, error) {
	p, err := uc.payouts.FindByID(ctx, repository.NoTX, payoutID)
	if err != nil {
		return nil, err
	}
	// Re-completing an already-completed payout is a duplicate-webhook no-op.
	if p.Status == model.PayoutStatusCompleted {
		return p, nil
	}
	if !canTransition(p.Status, model.PayoutStatusCompleted) {
		return nil, fmt.Errorf("payout %s -> completed: %w", p.Status, domain.ErrInvalidTransition)
	}
	p.MarkAsCompleted(transactionID, reference)
	if err := uc.payouts.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayout("completed")
	uc.log.Info().Str("payout_id", p.ID).Str("transaction_id", transactionID).Msg("payout completed")
	return p, nil
}

func (uc *payoutUC) MarkFailed(ctx context.Context, payoutID string, perr *model.PayoutError) (*model.Payout, error) {
	p, err := uc.payouts.FindByID(ctx, repository.NoTX, payoutID)
	if err != nil {
		return nil, err
	}
	if !canTransition(p.Status, model.PayoutStatusFailed) {
		return nil, fmt.Errorf("payout %s -> failed: %w", p.Status, domain.ErrInvalidTransition)
	}
	p.MarkAsFailed(perr)
	if err := uc.payouts.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayout("failed")
	msg := ""
	if perr != nil {
		msg = perr.Message
	}
	uc.log.Warn().Str("payout_id", p.ID).Str("error", msg).Msg("payout failed")
	return p, nil
}

func (uc *payoutUC) Cancel(ctx context.Context, payoutID, actor string) (*model.Payout, error) {
	p, err := uc.payouts.FindByID(ctx, repository.NoTX, payoutID)
	if err != nil {
		return nil, err
	}
	if !canTransition(p.Status, model.PayoutStatusCancelled) {
		return nil, fmt.Errorf("payout %s -> cancelled: %w", p.Status, domain.ErrInvalidTransition)
	}
	p.MarkAsCancelled(actor)
	if err := uc.payouts.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayout("cancelled")
	return p, nil
}

func (uc *payoutUC) Get(ctx context.Context, payoutID string) (*model.Payout, error) {
	return uc.payouts.FindByID(ctx, repository.NoTX, payoutID)
}

func (uc *payoutUC) ListByStatus(ctx context.Context, status model.PayoutStatus, limit int) ([]*model.Payout, error) {
	return uc.payouts.ListByStatus(ctx, repository.NoTX, status, limit)
}

func (uc *payoutUC) ListByAffiliate(ctx context.Context, affiliateID string) ([]*model.Payout, error) {
	if affiliateID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.payouts.ListByAffiliate(ctx, repository.NoTX, affiliateID)
}
