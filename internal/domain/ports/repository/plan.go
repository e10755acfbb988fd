package repository

import (
	"context"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
)

// PlanRepository is the port for subscription plans.
type PlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Plan, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
