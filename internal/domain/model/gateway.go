package model

import (
	"strings"
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
)

// GatewayKind identifies one of the supported payment providers.
type GatewayKind string

const (
	GatewayFlutterwave GatewayKind = "flutterwave"
	GatewayPaystack    GatewayKind = "paystack"
	GatewayMonnify     GatewayKind = "monnify"
)

// ParseGatewayKind validates a provider name coming from config, URLs or the DB.
func ParseGatewayKind(s string) (GatewayKind, error) {
	switch GatewayKind(strings.ToLower(strings.TrimSpace(s))) {
	case GatewayFlutterwave:
		return GatewayFlutterwave, nil
	case GatewayPaystack:
		return GatewayPaystack, nil
	case GatewayMonnify:
		return GatewayMonnify, nil
	}
	return "", domain.ErrUnsupportedGateway
}

type GatewayEnvironment string

const (
	GatewayEnvTest GatewayEnvironment = "test"
	GatewayEnvLive GatewayEnvironment = "live"
)

// GatewayConfig is one provider integration record. SecretKey is held as
// ciphertext (hex(iv):hex(ct)) and is never logged or returned in plaintext.
type GatewayConfig struct {
	ID            string // UUID
	Kind          GatewayKind
	PublicKey     string
	SecretKey     string // ciphertext at rest
	WebhookSecret string
	Environment   GatewayEnvironment
	IsActive      bool
	IsDefault     bool
	Config        map[string]any // provider-specific extras (e.g. monnify contract code)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewGatewayConfig validates and constructs a config record.
func NewGatewayConfig(id string, kind GatewayKind, publicKey, secretKey string, env GatewayEnvironment) (*GatewayConfig, error) {
	if id == "" || secretKey == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := ParseGatewayKind(string(kind)); err != nil {
		return nil, err
	}
	if env != GatewayEnvTest && env != GatewayEnvLive {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &GatewayConfig{
		ID:          id,
		Kind:        kind,
		PublicKey:   publicKey,
		SecretKey:   secretKey,
		Environment: env,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
