package model

import (
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// AddTo advances t by one billing cycle unit.
func (c BillingCycle) AddTo(t time.Time) time.Time {
	if c == BillingYearly {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

// Plan is a purchasable subscription plan. Prices are in major currency
// units; conversion to provider minor units happens inside the gateway
// adapters only.
type Plan struct {
	ID        string
	Name      string
	Price     float64 // major units
	Currency  string
	Cycle     BillingCycle
	TrialDays int
	Features  []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, price float64, currency string, cycle BillingCycle, trialDays int) (*Plan, error) {
	if id == "" || name == "" || price <= 0 || currency == "" || trialDays < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if cycle != BillingMonthly && cycle != BillingYearly {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Plan{
		ID:        id,
		Name:      name,
		Price:     price,
		Currency:  currency,
		Cycle:     cycle,
		TrialDays: trialDays,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
