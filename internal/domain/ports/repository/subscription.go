package repository

import (
	"context"
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
)

// SubscriptionRepository is the port for user subscriptions. Both the live
// lookup and the transaction-reference lookup must be indexed.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// FindLiveByUser returns the user's trial or active subscription, or
	// domain.ErrNotFound.
	FindLiveByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// FindByReference locates a subscription by metadata transaction reference.
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Subscription, error)
	// FindDueForRenewal returns active auto-renew subscriptions whose next
	// billing date falls within [now, now+window].
	FindDueForRenewal(ctx context.Context, tx Tx, now time.Time, window time.Duration) ([]*model.Subscription, error)
	// FindStaleTrials returns trial subscriptions created before the cutoff,
	// candidates for payment re-verification when a webhook was missed.
	FindStaleTrials(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
}
