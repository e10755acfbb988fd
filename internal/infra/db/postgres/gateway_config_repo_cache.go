package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/metrics"
	red "github.com/RandyMyers/affiliateShares-sub001/internal/infra/redis"
)

var _ repository.GatewayConfigRepository = (*gatewayConfigCacheDecorator)(nil)

// gatewayConfigCacheDecorator caches gateway config reads. Configs change
// rarely but are read on every payment, verification and webhook, so the
// hot lookups (active-by-kind, default) are worth keeping out of Postgres.
// Cached values hold the secret ciphertext, never plaintext.
type gatewayConfigCacheDecorator struct {
	inner repository.GatewayConfigRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewGatewayConfigCacheDecorator(inner repository.GatewayConfigRepository, cache red.RedisClient) repository.GatewayConfigRepository {
	return &gatewayConfigCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   15 * time.Minute,
	}
}

func (d *gatewayConfigCacheDecorator) FindActiveByKind(ctx context.Context, tx repository.Tx, kind model.GatewayKind) (*model.GatewayConfig, error) {
	return d.cached(ctx, fmt.Sprintf("gateway:active:%s", kind), func() (*model.GatewayConfig, error) {
		return d.inner.FindActiveByKind(ctx, tx, kind)
	})
}

func (d *gatewayConfigCacheDecorator) FindDefault(ctx context.Context, tx repository.Tx) (*model.GatewayConfig, error) {
	return d.cached(ctx, "gateway:default", func() (*model.GatewayConfig, error) {
		return d.inner.FindDefault(ctx, tx)
	})
}

func (d *gatewayConfigCacheDecorator) cached(ctx context.Context, key string, load func() (*model.GatewayConfig, error)) (*model.GatewayConfig, error) {
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("gateway_config", "hit")
		var cfg model.GatewayConfig
		if json.Unmarshal([]byte(val), &cfg) == nil {
			return &cfg, nil
		}
	}

	metrics.IncCacheRequest("gateway_config", "miss")
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		bytes, _ := json.Marshal(cfg)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return cfg, nil
}

// Save invalidates everything touching the record: the per-kind entry, the
// default entry (the write may flip the default flag) and the id entry.
func (d *gatewayConfigCacheDecorator) Save(ctx context.Context, tx repository.Tx, cfg *model.GatewayConfig) error {
	d.cache.Del(ctx,
		fmt.Sprintf("gateway:active:%s", cfg.Kind),
		"gateway:default",
	)
	return d.inner.Save(ctx, tx, cfg)
}

// FindByID and ListAll are admin paths; they go straight to Postgres.
func (d *gatewayConfigCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GatewayConfig, error) {
	return d.inner.FindByID(ctx, tx, id)
}

func (d *gatewayConfigCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GatewayConfig, error) {
	return d.inner.ListAll(ctx, tx)
}
