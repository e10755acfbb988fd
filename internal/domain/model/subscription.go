package model

import (
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// IsLive reports whether the status counts against the one-live-subscription
// rule (at most one trial or active subscription per user).
func (s SubscriptionStatus) IsLive() bool {
	return s == SubscriptionStatusTrial || s == SubscriptionStatusActive
}

// SubscriptionMetadata correlates the subscription with external payment
// activity. TransactionReference is the sole correlation key echoed back by
// provider webhooks.
type SubscriptionMetadata struct {
	TransactionReference string
	TransactionID        string
}

// Subscription is a user's subscription instance. It is never hard-deleted,
// only status-transitioned.
type Subscription struct {
	ID              string // UUID
	UserID          string
	CustomerEmail   string // payer email, needed again at renewal time
	PlanID          string
	Status          SubscriptionStatus
	Gateway         GatewayKind
	StartDate       time.Time
	EndDate         time.Time
	NextBillingDate time.Time
	TrialEndDate    *time.Time
	AutoRenew       bool
	Metadata        SubscriptionMetadata

	CancelledAt        *time.Time
	CancelledBy        string
	CancellationReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSubscription dates a subscription at subscribe time: end date one
// billing cycle out, trial status iff the plan carries a trial period.
func NewSubscription(id, userID string, plan *Plan, gateway GatewayKind, reference string) (*Subscription, error) {
	if id == "" || userID == "" || plan.IsZero() || reference == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	end := plan.Cycle.AddTo(now)
	s := &Subscription{
		ID:              id,
		UserID:          userID,
		PlanID:          plan.ID,
		Status:          SubscriptionStatusActive,
		Gateway:         gateway,
		StartDate:       now,
		EndDate:         end,
		NextBillingDate: end,
		AutoRenew:       true,
		Metadata:        SubscriptionMetadata{TransactionReference: reference},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if plan.TrialDays > 0 {
		s.Status = SubscriptionStatusTrial
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		s.TrialEndDate = &trialEnd
	}
	return s, nil
}

// Activate promotes a trial subscription after its first payment verifies.
// Dates are untouched; they were computed at subscribe time. Calling it on
// an already-active subscription is a no-op, which keeps duplicate webhook
// delivery harmless.
func (s *Subscription) Activate(transactionID string) {
	if transactionID != "" {
		s.Metadata.TransactionID = transactionID
	}
	if s.Status == SubscriptionStatusTrial {
		s.Status = SubscriptionStatusActive
	}
	s.UpdatedAt = time.Now()
}

// Renew recomputes the billing window from now using the given plan and
// merges the new payment reference.
func (s *Subscription) Renew(plan *Plan, reference string) {
	now := time.Now()
	end := plan.Cycle.AddTo(now)
	s.PlanID = plan.ID
	s.Status = SubscriptionStatusActive
	s.EndDate = end
	s.NextBillingDate = end
	if reference != "" {
		s.Metadata.TransactionReference = reference
		s.Metadata.TransactionID = ""
	}
	s.UpdatedAt = now
}

// Cancel stamps the audit trail and stops auto-renewal. Terminal: a new
// Subscribe call is required afterward.
func (s *Subscription) Cancel(actor, reason string) {
	now := time.Now()
	s.Status = SubscriptionStatusCancelled
	s.AutoRenew = false
	s.CancelledAt = &now
	s.CancelledBy = actor
	s.CancellationReason = reason
	s.UpdatedAt = now
}
