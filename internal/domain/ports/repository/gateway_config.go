package repository

import (
	"context"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
)

// GatewayConfigRepository is the port for provider integration records.
type GatewayConfigRepository interface {
	Save(ctx context.Context, tx Tx, cfg *model.GatewayConfig) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GatewayConfig, error)
	// FindActiveByKind returns the active config for a provider, or
	// domain.ErrNotFound when none is active.
	FindActiveByKind(ctx context.Context, tx Tx, kind model.GatewayKind) (*model.GatewayConfig, error)
	// FindDefault resolves the system default. When several active configs are
	// flagged default the most recently updated one wins.
	FindDefault(ctx context.Context, tx Tx) (*model.GatewayConfig, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.GatewayConfig, error)
}
