package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

// subscriptionRepo persists subscriptions. The one-live-subscription rule is
// backed by a partial unique index:
//
//	CREATE UNIQUE INDEX subscriptions_one_live_per_user
//	    ON subscriptions (user_id) WHERE status IN ('trial', 'active');
//
// and webhook lookups by an index on transaction_reference.
type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionCols = `id, user_id, customer_email, plan_id, status, gateway,
  start_date, end_date, next_billing_date, trial_end_date, auto_renew,
  transaction_reference, transaction_id,
  cancelled_at, cancelled_by, cancellation_reason, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (` + subscriptionCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
  customer_email=$3, plan_id=$4, status=$5, gateway=$6,
  start_date=$7, end_date=$8, next_billing_date=$9, trial_end_date=$10, auto_renew=$11,
  transaction_reference=$12, transaction_id=$13,
  cancelled_at=$14, cancelled_by=$15, cancellation_reason=$16, updated_at=$18;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.CustomerEmail, s.PlanID, s.Status, s.Gateway,
		s.StartDate, s.EndDate, s.NextBillingDate, s.TrialEndDate, s.AutoRenew,
		s.Metadata.TransactionReference, s.Metadata.TransactionID,
		s.CancelledAt, s.CancelledBy, s.CancellationReason, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		case isUniqueViolation(err):
			return domain.ErrDuplicateSubscription
		default:
			return fmt.Errorf("save subscription: %w", err)
		}
	}
	return nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionCols + ` FROM subscriptions WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *subscriptionRepo) FindLiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE user_id=$1 AND status IN ('trial', 'active')
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE transaction_reference=$1
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, reference)
}

func (r *subscriptionRepo) FindDueForRenewal(ctx context.Context, tx repository.Tx, now time.Time, window time.Duration) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE status='active' AND auto_renew=true
   AND next_billing_date >= $1 AND next_billing_date <= $2
 ORDER BY next_billing_date ASC;`
	return r.queryMany(ctx, tx, q, now, now.Add(window))
}

func (r *subscriptionRepo) FindStaleTrials(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE status='trial' AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;`
	if limit <= 0 {
		limit = 200
	}
	return r.queryMany(ctx, tx, q, olderThan, limit)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions
 WHERE user_id=$1
 ORDER BY created_at DESC;`
	return r.queryMany(ctx, tx, q, userID)
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...any) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	s, err := scanSubscription(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query subscription: %w", err)
	}
	return s, nil
}

func (r *subscriptionRepo) queryMany(ctx context.Context, tx repository.Tx, q string, args ...any) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()
	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	if err := row.Scan(
		&s.ID, &s.UserID, &s.CustomerEmail, &s.PlanID, &s.Status, &s.Gateway,
		&s.StartDate, &s.EndDate, &s.NextBillingDate, &s.TrialEndDate, &s.AutoRenew,
		&s.Metadata.TransactionReference, &s.Metadata.TransactionID,
		&s.CancelledAt, &s.CancelledBy, &s.CancellationReason, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
