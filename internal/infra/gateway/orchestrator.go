package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/metrics"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/security"
)

var _ adapter.PaymentOrchestrator = (*Orchestrator)(nil)

// Orchestrator hides adapter selection behind a registry keyed by gateway
// kind. Calls with the zero kind resolve the system default through the
// credential store. It holds no business state of its own.
type Orchestrator struct {
	store    *security.CredentialStore
	registry map[model.GatewayKind]adapter.PaymentGateway
	log      *zerolog.Logger
}

func NewOrchestrator(store *security.CredentialStore, logger *zerolog.Logger, gateways ...adapter.PaymentGateway) *Orchestrator {
	l := logger.With().Str("component", "PaymentOrchestrator").Logger()
	registry := make(map[model.GatewayKind]adapter.PaymentGateway, len(gateways))
	for _, g := range gateways {
		registry[g.Kind()] = g
	}
	return &Orchestrator{store: store, registry: registry, log: &l}
}

// Gateway resolves an adapter for the requested kind, or the default
// gateway when kind is empty.
func (o *Orchestrator) Gateway(ctx context.Context, kind model.GatewayKind) (adapter.PaymentGateway, error) {
	if kind == "" {
		cfg, err := o.store.DefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		kind = cfg.Kind
	}
	g, ok := o.registry[kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", kind, domain.ErrUnsupportedGateway)
	}
	return g, nil
}

func (o *Orchestrator) InitializePayment(ctx context.Context, kind model.GatewayKind, req adapter.PaymentRequest) (*adapter.PaymentInit, error) {
	g, err := o.Gateway(ctx, kind)
	if err != nil {
		o.log.Error().Err(err).Str("op", "InitializePayment").Str("gateway", string(kind)).Msg("gateway resolution failed")
		return nil, err
	}
	res, err := g.InitializePayment(ctx, req)
	if err != nil {
		metrics.IncPaymentInit(string(g.Kind()), "error")
		o.log.Error().Err(err).Str("op", "InitializePayment").Str("gateway", string(g.Kind())).Msg("initialize payment failed")
		return nil, err
	}
	metrics.IncPaymentInit(string(g.Kind()), "ok")
	return res, nil
}

func (o *Orchestrator) VerifyPayment(ctx context.Context, kind model.GatewayKind, reference string) (*adapter.PaymentVerification, error) {
	g, err := o.Gateway(ctx, kind)
	if err != nil {
		o.log.Error().Err(err).Str("op", "VerifyPayment").Str("gateway", string(kind)).Msg("gateway resolution failed")
		return nil, err
	}
	res, err := g.VerifyPayment(ctx, reference)
	if err != nil {
		metrics.IncPaymentVerify(string(g.Kind()), "error")
		o.log.Error().Err(err).Str("op", "VerifyPayment").Str("gateway", string(g.Kind())).Msg("verify payment failed")
		return nil, err
	}
	metrics.IncPaymentVerify(string(g.Kind()), string(res.Status))
	return res, nil
}

func (o *Orchestrator) InitiateTransfer(ctx context.Context, kind model.GatewayKind, req adapter.TransferRequest) (*adapter.TransferResult, error) {
	g, err := o.Gateway(ctx, kind)
	if err != nil {
		o.log.Error().Err(err).Str("op", "InitiateTransfer").Str("gateway", string(kind)).Msg("gateway resolution failed")
		return nil, err
	}
	res, err := g.InitiateTransfer(ctx, req)
	if err != nil {
		metrics.IncTransfer(string(g.Kind()), "error")
		o.log.Error().Err(err).Str("op", "InitiateTransfer").Str("gateway", string(g.Kind())).Msg("initiate transfer failed")
		return nil, err
	}
	metrics.IncTransfer(string(g.Kind()), "ok")
	return res, nil
}
