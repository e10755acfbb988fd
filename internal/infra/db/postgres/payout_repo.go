package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PayoutRepository = (*payoutRepo)(nil)

type payoutRepo struct {
	pool *pgxpool.Pool
}

func NewPayoutRepo(pool *pgxpool.Pool) *payoutRepo {
	return &payoutRepo{pool: pool}
}

const payoutCols = `id, affiliate_id, store_id, commission_ids, amount, currency, method, status,
  account_number, bank_code, account_name,
  transaction_id, transaction_reference, error,
  processed_at, processed_by, created_at, updated_at`

func (r *payoutRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payout) error {
	var perr []byte
	if p.Error != nil {
		var err error
		if perr, err = json.Marshal(p.Error); err != nil {
			return fmt.Errorf("marshal payout error: %w", err)
		}
	}
	const q = `
INSERT INTO payouts (` + payoutCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
  commission_ids=$4, amount=$5, currency=$6, method=$7, status=$8,
  account_number=$9, bank_code=$10, account_name=$11,
  transaction_id=$12, transaction_reference=$13, error=$14,
  processed_at=$15, processed_by=$16, updated_at=$18;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.AffiliateID, p.StoreID, p.CommissionIDs, p.Amount, p.Currency, p.Method, p.Status,
		p.Account.AccountNumber, p.Account.BankCode, p.Account.AccountName,
		p.TransactionID, p.TransactionReference, perr,
		p.ProcessedAt, p.ProcessedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save payout: %w", err)
	}
	return nil
}

func (r *payoutRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payout, error) {
	const q = `SELECT ` + payoutCols + ` FROM payouts WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *payoutRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Payout, error) {
	const q = `
SELECT ` + payoutCols + `
  FROM payouts
 WHERE transaction_reference=$1
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, reference)
}

func (r *payoutRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.PayoutStatus, limit int) ([]*model.Payout, error) {
	const q = `
SELECT ` + payoutCols + `
  FROM payouts
 WHERE status=$1
 ORDER BY created_at ASC
 LIMIT $2;`
	if limit <= 0 {
		limit = 100
	}
	return r.queryMany(ctx, tx, q, status, limit)
}

func (r *payoutRepo) ListByAffiliate(ctx context.Context, tx repository.Tx, affiliateID string) ([]*model.Payout, error) {
	const q = `
SELECT ` + payoutCols + `
  FROM payouts
 WHERE affiliate_id=$1
 ORDER BY created_at DESC;`
	return r.queryMany(ctx, tx, q, affiliateID)
}

func (r *payoutRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...any) (*model.Payout, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPayout(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query payout: %w", err)
	}
	return p, nil
}

func (r *payoutRepo) queryMany(ctx context.Context, tx repository.Tx, q string, args ...any) ([]*model.Payout, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query payouts: %w", err)
	}
	defer rows.Close()
	var out []*model.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPayout(row pgx.Row) (*model.Payout, error) {
	var p model.Payout
	var perr []byte
	if err := row.Scan(
		&p.ID, &p.AffiliateID, &p.StoreID, &p.CommissionIDs, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&p.Account.AccountNumber, &p.Account.BankCode, &p.Account.AccountName,
		&p.TransactionID, &p.TransactionReference, &perr,
		&p.ProcessedAt, &p.ProcessedBy, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(perr) > 0 {
		p.Error = &model.PayoutError{}
		if err := json.Unmarshal(perr, p.Error); err != nil {
			return nil, fmt.Errorf("unmarshal payout error: %w", err)
		}
	}
	return &p, nil
}
