//go:build !integration

package web

import (
	"context"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
)

// --- Mocks over the use case ports the server depends on ---

type mockDispatcher struct {
	DispatchFunc func(ctx context.Context, kind model.GatewayKind, payload []byte, signature string) error
}

func (m *mockDispatcher) Dispatch(ctx context.Context, kind model.GatewayKind, payload []byte, signature string) error {
	return m.DispatchFunc(ctx, kind, payload, signature)
}

type mockSubscriptionUC struct {
	SubscribeFunc     func(ctx context.Context, userID, planID, email string, kind model.GatewayKind) (*model.Subscription, string, error)
	VerifyPaymentFunc func(ctx context.Context, reference string) (*adapter.PaymentVerification, *model.Subscription, error)
	CancelFunc        func(ctx context.Context, subID, actor, reason string) (*model.Subscription, error)
	ListByUserFunc    func(ctx context.Context, userID string) ([]*model.Subscription, error)
}

func (m *mockSubscriptionUC) Subscribe(ctx context.Context, userID, planID, email string, kind model.GatewayKind) (*model.Subscription, string, error) {
	if m.SubscribeFunc == nil {
		return nil, "", domain.ErrOperationFailed
	}
	return m.SubscribeFunc(ctx, userID, planID, email, kind)
}
func (m *mockSubscriptionUC) VerifyPayment(ctx context.Context, reference string) (*adapter.PaymentVerification, *model.Subscription, error) {
	return m.VerifyPaymentFunc(ctx, reference)
}
func (m *mockSubscriptionUC) Renew(ctx context.Context, subID, planID, reference string) (*model.Subscription, error) {
	return nil, domain.ErrOperationFailed
}
func (m *mockSubscriptionUC) ProcessRenewal(ctx context.Context, subID string) error {
	return domain.ErrOperationFailed
}
func (m *mockSubscriptionUC) Cancel(ctx context.Context, subID, actor, reason string) (*model.Subscription, error) {
	return m.CancelFunc(ctx, subID, actor, reason)
}
func (m *mockSubscriptionUC) DueForRenewal(ctx context.Context) ([]*model.Subscription, error) {
	return nil, nil
}
func (m *mockSubscriptionUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return m.ListByUserFunc(ctx, userID)
}

type mockPayoutUC struct {
	CreateFunc          func(ctx context.Context) (*model.Payout, error)
	StartTransferFunc   func(ctx context.Context, payoutID, actor string) (*model.Payout, error)
	CancelFunc          func(ctx context.Context, payoutID, actor string) (*model.Payout, error)
	ListByStatusFunc    func(ctx context.Context, status model.PayoutStatus, limit int) ([]*model.Payout, error)
	ListByAffiliateFunc func(ctx context.Context, affiliateID string) ([]*model.Payout, error)
}

func (m *mockPayoutUC) Create(ctx context.Context, affiliateID, storeID string, commissionIDs []string, amount float64, currency string, method model.PayoutMethod, account model.PayoutAccount) (*model.Payout, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return m.CreateFunc(ctx)
}
func (m *mockPayoutUC) StartTransfer(ctx context.Context, payoutID, actor string) (*model.Payout, error) {
	return m.StartTransferFunc(ctx, payoutID, actor)
}
func (m *mockPayoutUC) MarkCompleted(ctx context.Context, payoutID, transactionID, reference string) (*model.Payout, error) {
	return nil, domain.ErrOperationFailed
}
func (m *mockPayoutUC) MarkFailed(ctx context.Context, payoutID string, perr *model.PayoutError) (*model.Payout, error) {
	return nil, domain.ErrOperationFailed
}
func (m *mockPayoutUC) Cancel(ctx context.Context, payoutID, actor string) (*model.Payout, error) {
	return m.CancelFunc(ctx, payoutID, actor)
}
func (m *mockPayoutUC) Get(ctx context.Context, payoutID string) (*model.Payout, error) {
	return nil, domain.ErrNotFound
}
func (m *mockPayoutUC) ListByStatus(ctx context.Context, status model.PayoutStatus, limit int) ([]*model.Payout, error) {
	return m.ListByStatusFunc(ctx, status, limit)
}
func (m *mockPayoutUC) ListByAffiliate(ctx context.Context, affiliateID string) ([]*model.Payout, error) {
	if m.ListByAffiliateFunc != nil {
		return m.ListByAffiliateFunc(ctx, affiliateID)
	}
	return nil, domain.ErrOperationFailed
}

// mockPlanRepo backs the public plan listing and the admin plan CRUD.
type mockPlanRepo struct {
	plans   map[string]*model.Plan
	listErr error
}

func newMockPlanRepo(plans ...*model.Plan) *mockPlanRepo {
	r := &mockPlanRepo{plans: make(map[string]*model.Plan)}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (m *mockPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	m.plans[plan.ID] = plan
	return nil
}
func (m *mockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
func (m *mockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.Plan
	for _, p := range m.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *mockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

// mockGatewayConfigRepo backs a real CredentialStore in handler tests.
type mockGatewayConfigRepo struct {
	configs map[string]*model.GatewayConfig
}

func newMockGatewayConfigRepo() *mockGatewayConfigRepo {
	return &mockGatewayConfigRepo{configs: make(map[string]*model.GatewayConfig)}
}

func (m *mockGatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, cfg *model.GatewayConfig) error {
	cp := *cfg
	m.configs[cfg.ID] = &cp
	return nil
}
func (m *mockGatewayConfigRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GatewayConfig, error) {
	cfg, ok := m.configs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}
func (m *mockGatewayConfigRepo) FindActiveByKind(ctx context.Context, tx repository.Tx, kind model.GatewayKind) (*model.GatewayConfig, error) {
	for _, cfg := range m.configs {
		if cfg.Kind == kind && cfg.IsActive {
			return cfg, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *mockGatewayConfigRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.GatewayConfig, error) {
	for _, cfg := range m.configs {
		if cfg.IsDefault && cfg.IsActive {
			return cfg, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (m *mockGatewayConfigRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GatewayConfig, error) {
	var out []*model.GatewayConfig
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	return out, nil
}
