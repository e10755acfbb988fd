//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// passTxManager runs the callback without a real transaction.
type passTxManager struct{}

func (passTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// memPlanRepo is a small in-memory implementation used by unit tests.
type memPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Plan
}

func newMemPlanRepo(plans ...*model.Plan) *memPlanRepo {
	r := &memPlanRepo{store: make(map[string]*model.Plan)}
	for _, p := range plans {
		cp := *p
		r.store[p.ID] = &cp
	}
	return r
}

func (m *memPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.store[plan.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Plan
	for _, p := range m.store {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

// memSubscriptionRepo backs subscription tests; saveErr simulates failures.
type memSubscriptionRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Subscription
	saveErr error
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *memSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.store[sub.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscriptionRepo) FindLiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.UserID == userID && s.Status.IsLive() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubscriptionRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.Metadata.TransactionReference == reference {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubscriptionRepo) FindDueForRenewal(ctx context.Context, tx repository.Tx, now time.Time, window time.Duration) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	cutoff := now.Add(window)
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && s.AutoRenew &&
			!s.NextBillingDate.Before(now) && !s.NextBillingDate.After(cutoff) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) FindStaleTrials(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusTrial && s.CreatedAt.Before(olderThan) {
			cp := *s
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memPayoutRepo backs payout tests.
type memPayoutRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Payout
	saveErr error
}

func newMemPayoutRepo() *memPayoutRepo {
	return &memPayoutRepo{store: make(map[string]*model.Payout)}
}

func (m *memPayoutRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payout) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPayoutRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPayoutRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.TransactionReference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPayoutRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.PayoutStatus, limit int) ([]*model.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payout
	for _, p := range m.store {
		if p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memPayoutRepo) ListByAffiliate(ctx context.Context, tx repository.Tx, affiliateID string) ([]*model.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payout
	for _, p := range m.store {
		if p.AffiliateID == affiliateID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// mockGateway is a PaymentGateway whose behavior tests override per call.
type mockGateway struct {
	kind          model.GatewayKind
	InitFunc      func(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInit, error)
	VerifyFunc    func(ctx context.Context, reference string) (*adapter.PaymentVerification, error)
	TransferFunc  func(ctx context.Context, req adapter.TransferRequest) (*adapter.TransferResult, error)
	SignatureFunc func(payload []byte, signature string) bool
	NormalizeFunc func(payload []byte) (*adapter.WebhookEvent, error)
}

func (g *mockGateway) Kind() model.GatewayKind { return g.kind }

func (g *mockGateway) InitializePayment(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInit, error) {
	if g.InitFunc != nil {
		return g.InitFunc(ctx, req)
	}
	return &adapter.PaymentInit{Success: true, PaymentLink: "https://pay.example/" + req.Reference, TransactionReference: req.Reference}, nil
}

func (g *mockGateway) VerifyPayment(ctx context.Context, reference string) (*adapter.PaymentVerification, error) {
	if g.VerifyFunc != nil {
		return g.VerifyFunc(ctx, reference)
	}
	return &adapter.PaymentVerification{Success: true, Status: adapter.PaymentStatusCompleted, TransactionReference: reference, TransactionID: "tx-1"}, nil
}

func (g *mockGateway) InitiateTransfer(ctx context.Context, req adapter.TransferRequest) (*adapter.TransferResult, error) {
	if g.TransferFunc != nil {
		return g.TransferFunc(ctx, req)
	}
	return &adapter.TransferResult{Success: true, TransferID: "tr-1", Reference: req.Reference, Status: "queued"}, nil
}

func (g *mockGateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	if g.SignatureFunc != nil {
		return g.SignatureFunc(payload, signature)
	}
	return true
}

func (g *mockGateway) NormalizeWebhook(payload []byte) (*adapter.WebhookEvent, error) {
	if g.NormalizeFunc != nil {
		return g.NormalizeFunc(payload)
	}
	return &adapter.WebhookEvent{Type: adapter.WebhookTypeUnknown}, nil
}

// mockOrchestrator routes to a fixed set of mock gateways; an empty kind
// resolves defaultKind like the real orchestrator resolves the default
// gateway config.
type mockOrchestrator struct {
	gateways    map[model.GatewayKind]*mockGateway
	defaultKind model.GatewayKind
	gatewayErr  error
}

func newMockOrchestrator(def *mockGateway, rest ...*mockGateway) *mockOrchestrator {
	o := &mockOrchestrator{gateways: map[model.GatewayKind]*mockGateway{def.kind: def}, defaultKind: def.kind}
	for _, g := range rest {
		o.gateways[g.kind] = g
	}
	return o
}

func (o *mockOrchestrator) Gateway(ctx context.Context, kind model.GatewayKind) (adapter.PaymentGateway, error) {
	if o.gatewayErr != nil {
		return nil, o.gatewayErr
	}
	if kind == "" {
		kind = o.defaultKind
	}
	g, ok := o.gateways[kind]
	if !ok {
		return nil, domain.ErrGatewayNotConfigured
	}
	return g, nil
}

func (o *mockOrchestrator) InitializePayment(ctx context.Context, kind model.GatewayKind, req adapter.PaymentRequest) (*adapter.PaymentInit, error) {
	g, err := o.Gateway(ctx, kind)
	if err != nil {
		return nil, err
	}
	return g.InitializePayment(ctx, req)
}

func (o *mockOrchestrator) VerifyPayment(ctx context.Context, kind model.GatewayKind, reference string) (*adapter.PaymentVerification, error) {
	g, err := o.Gateway(ctx, kind)
	if err != nil {
		return nil, err
	}
	return g.VerifyPayment(ctx, reference)
}

func (o *mockOrchestrator) InitiateTransfer(ctx context.Context, kind model.GatewayKind, req adapter.TransferRequest) (*adapter.TransferResult, error) {
	g, err := o.Gateway(ctx, kind)
	if err != nil {
		return nil, err
	}
	return g.InitiateTransfer(ctx, req)
}

// memDeduper is an in-memory WebhookDeduper.
type memDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	seenErr error
}

func newMemDeduper() *memDeduper { return &memDeduper{seen: make(map[string]bool)} }

func (d *memDeduper) Seen(ctx context.Context, gateway, reference, event string) (bool, error) {
	if d.seenErr != nil {
		return false, d.seenErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := gateway + ":" + reference + ":" + event
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func (d *memDeduper) Forget(ctx context.Context, gateway, reference, event string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, gateway+":"+reference+":"+event)
	return nil
}
