package repository

import (
	"context"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
)

// PayoutRepository is the port for affiliate payout runs.
type PayoutRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payout) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payout, error)
	// FindByReference locates a payout by its transaction reference.
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Payout, error)
	ListByStatus(ctx context.Context, tx Tx, status model.PayoutStatus, limit int) ([]*model.Payout, error)
	ListByAffiliate(ctx context.Context, tx Tx, affiliateID string) ([]*model.Payout, error)
}
