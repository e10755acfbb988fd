//go:build !integration

// File: internal/infra/gateway/gateway_test.go
package gateway

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/security"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memConfigRepo holds gateway configs in memory for adapter tests.
type memConfigRepo struct {
	configs map[model.GatewayKind]*model.GatewayConfig
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{configs: make(map[model.GatewayKind]*model.GatewayConfig)}
}

func (r *memConfigRepo) Save(_ context.Context, _ repository.Tx, cfg *model.GatewayConfig) error {
	r.configs[cfg.Kind] = cfg
	return nil
}

func (r *memConfigRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.GatewayConfig, error) {
	for _, cfg := range r.configs {
		if cfg.ID == id {
			return cfg, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memConfigRepo) FindActiveByKind(_ context.Context, _ repository.Tx, kind model.GatewayKind) (*model.GatewayConfig, error) {
	cfg, ok := r.configs[kind]
	if !ok || !cfg.IsActive {
		return nil, domain.ErrNotFound
	}
	return cfg, nil
}

func (r *memConfigRepo) FindDefault(_ context.Context, _ repository.Tx) (*model.GatewayConfig, error) {
	for _, cfg := range r.configs {
		if cfg.IsActive && cfg.IsDefault {
			return cfg, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memConfigRepo) ListAll(_ context.Context, _ repository.Tx) ([]*model.GatewayConfig, error) {
	out := make([]*model.GatewayConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		out = append(out, cfg)
	}
	return out, nil
}

const testMasterSecret = "unit-test-master-secret"

// newTestStore seeds a credential store with one active config whose
// base_url points the adapter at a fake provider.
func newTestStore(t *testing.T, kind model.GatewayKind, secretKey, webhookSecret, baseURL string, extras map[string]any) *security.CredentialStore {
	t.Helper()
	cipher, err := security.NewCipher(testMasterSecret)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	store := security.NewCredentialStore(newMemConfigRepo(), cipher, testLogger())

	cfg, err := model.NewGatewayConfig("cfg-"+string(kind), kind, "pk_test_123", secretKey, model.GatewayEnvTest)
	if err != nil {
		t.Fatalf("NewGatewayConfig: %v", err)
	}
	cfg.IsActive = true
	cfg.IsDefault = true
	cfg.WebhookSecret = webhookSecret
	cfg.Config = map[string]any{}
	if baseURL != "" {
		cfg.Config["base_url"] = baseURL
	}
	for k, v := range extras {
		cfg.Config[k] = v
	}
	if err := store.SaveConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	return store
}
