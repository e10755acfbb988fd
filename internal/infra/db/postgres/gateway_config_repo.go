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
var _ repository.GatewayConfigRepository = (*gatewayConfigRepo)(nil)

type gatewayConfigRepo struct {
	pool *pgxpool.Pool
}

func NewGatewayConfigRepo(pool *pgxpool.Pool) *gatewayConfigRepo {
	return &gatewayConfigRepo{pool: pool}
}

const gatewayConfigCols = `id, kind, public_key, secret_key, webhook_secret, environment, is_active, is_default, config, created_at, updated_at`

func (r *gatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, cfg *model.GatewayConfig) error {
	extras, err := json.Marshal(cfg.Config)
	if err != nil {
		return fmt.Errorf("marshal gateway config extras: %w", err)
	}
	const q = `
INSERT INTO gateway_configs (` + gatewayConfigCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  kind=$2, public_key=$3, secret_key=$4, webhook_secret=$5, environment=$6,
  is_active=$7, is_default=$8, config=$9, updated_at=$11;`

	_, err = execSQL(ctx, r.pool, tx, q,
		cfg.ID, cfg.Kind, cfg.PublicKey, cfg.SecretKey, cfg.WebhookSecret,
		cfg.Environment, cfg.IsActive, cfg.IsDefault, extras, cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save gateway config: %w", err)
	}
	return nil
}

func (r *gatewayConfigRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GatewayConfig, error) {
	const q = `SELECT ` + gatewayConfigCols + ` FROM gateway_configs WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *gatewayConfigRepo) FindActiveByKind(ctx context.Context, tx repository.Tx, kind model.GatewayKind) (*model.GatewayConfig, error) {
	const q = `
SELECT ` + gatewayConfigCols + `
  FROM gateway_configs
 WHERE kind=$1 AND is_active=true
 ORDER BY updated_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, kind)
}

// FindDefault resolves the system default gateway. When several configs are
// flagged default the most recently updated one wins.
func (r *gatewayConfigRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.GatewayConfig, error) {
	const q = `
SELECT ` + gatewayConfigCols + `
  FROM gateway_configs
 WHERE is_default=true AND is_active=true
 ORDER BY updated_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q)
}

func (r *gatewayConfigRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.GatewayConfig, error) {
	const q = `SELECT ` + gatewayConfigCols + ` FROM gateway_configs ORDER BY kind, created_at;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list gateway configs: %w", err)
	}
	defer rows.Close()
	var out []*model.GatewayConfig
	for rows.Next() {
		cfg, err := scanGatewayConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *gatewayConfigRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...any) (*model.GatewayConfig, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	cfg, err := scanGatewayConfig(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query gateway config: %w", err)
	}
	return cfg, nil
}

func scanGatewayConfig(row pgx.Row) (*model.GatewayConfig, error) {
	var cfg model.GatewayConfig
	var extras []byte
	if err := row.Scan(
		&cfg.ID, &cfg.Kind, &cfg.PublicKey, &cfg.SecretKey, &cfg.WebhookSecret,
		&cfg.Environment, &cfg.IsActive, &cfg.IsDefault, &extras, &cfg.CreatedAt, &cfg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &cfg.Config); err != nil {
			return nil, fmt.Errorf("unmarshal gateway config extras: %w", err)
		}
	}
	return &cfg, nil
}
