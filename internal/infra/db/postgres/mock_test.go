//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	red "github.com/RandyMyers/affiliateShares-sub001/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerGatewayConfigRepo mocks the database repository the decorator wraps.
type mockInnerGatewayConfigRepo struct {
	SaveFunc             func(ctx context.Context, tx repository.Tx, cfg *model.GatewayConfig) error
	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.GatewayConfig, error)
	FindActiveByKindFunc func(ctx context.Context, tx repository.Tx, kind model.GatewayKind) (*model.GatewayConfig, error)
	FindDefaultFunc      func(ctx context.Context, tx repository.Tx) (*model.GatewayConfig, error)
	ListAllFunc          func(ctx context.Context, tx repository.Tx) ([]*model.GatewayConfig, error)
}

func (m *mockInnerGatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, cfg *model.GatewayConfig) error {
	return m.SaveFunc(ctx, tx, cfg)
}
func (m *mockInnerGatewayConfigRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GatewayConfig, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerGatewayConfigRepo) FindActiveByKind(ctx context.Context, tx repository.Tx, kind model.GatewayKind) (*model.GatewayConfig, error) {
	return m.FindActiveByKindFunc(ctx, tx, kind)
}
func (m *mockInnerGatewayConfigRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.GatewayConfig, error) {
	return m.FindDefaultFunc(ctx, tx)
}
func (m *mockInnerGatewayConfigRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GatewayConfig, error) {
	return m.ListAllFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc   func(ctx context.Context, key string) (string, error)
	SetFunc   func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNXFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelFunc   func(ctx context.Context, keys ...string) error
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Close() error                   { return m.CloseFunc() }
