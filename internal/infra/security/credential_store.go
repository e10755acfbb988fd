package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
)

// CredentialStore resolves gateway configuration records and handles secret
// key encryption at rest. The repository handed in here is normally the
// redis-cached decorator, so resolution does not cost a database round trip
// per payment operation.
type CredentialStore struct {
	repo   repository.GatewayConfigRepository
	cipher *Cipher
	log    *zerolog.Logger
}

func NewCredentialStore(repo repository.GatewayConfigRepository, cipher *Cipher, logger *zerolog.Logger) *CredentialStore {
	l := logger.With().Str("component", "CredentialStore").Logger()
	return &CredentialStore{repo: repo, cipher: cipher, log: &l}
}

// ActiveConfig returns the active configuration for a provider.
func (s *CredentialStore) ActiveConfig(ctx context.Context, kind model.GatewayKind) (*model.GatewayConfig, error) {
	cfg, err := s.repo.FindActiveByKind(ctx, repository.NoTX, kind)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", kind, domain.ErrGatewayNotConfigured)
		}
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig resolves the system default gateway. When multiple active
// configs are flagged default, the most recently updated one wins; with none,
// domain.ErrNoDefaultGateway.
func (s *CredentialStore) DefaultConfig(ctx context.Context) (*model.GatewayConfig, error) {
	cfg, err := s.repo.FindDefault(ctx, repository.NoTX)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoDefaultGateway
		}
		return nil, err
	}
	return cfg, nil
}

// DecryptSecret recovers the plaintext secret key from its stored form.
func (s *CredentialStore) DecryptSecret(ciphertext string) (string, error) {
	return s.cipher.Decrypt(ciphertext)
}

// SaveConfig persists a configuration, encrypting the secret key when it is
// still plaintext. Re-saving a record whose secret is already ciphertext
// must not re-encrypt it.
func (s *CredentialStore) SaveConfig(ctx context.Context, cfg *model.GatewayConfig) error {
	if cfg == nil {
		return domain.ErrInvalidArgument
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
		cfg.CreatedAt = time.Now()
	}
	enc, err := s.cipher.EncryptIfNeeded(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("encrypt secret key: %w", err)
	}
	cfg.SecretKey = enc
	cfg.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, repository.NoTX, cfg); err != nil {
		s.log.Error().Err(err).Str("gateway", string(cfg.Kind)).Msg("save gateway config")
		return err
	}
	return nil
}

// ListConfigs returns every stored configuration. Secret keys stay in their
// encrypted form.
func (s *CredentialStore) ListConfigs(ctx context.Context) ([]*model.GatewayConfig, error) {
	return s.repo.ListAll(ctx, repository.NoTX)
}
