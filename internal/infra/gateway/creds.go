package gateway

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"hash"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/security"
)

// resolved is an adapter's cached view of its gateway configuration with the
// secret key already decrypted.
type resolved struct {
	cfg    *model.GatewayConfig
	secret string
}

// credSource lazily resolves and caches a gateway's configuration on first
// use. The mutex keeps concurrent first-use calls from racing the cache;
// a config save invalidates via Reset.
type credSource struct {
	store *security.CredentialStore
	kind  model.GatewayKind

	mu     sync.Mutex
	cached *resolved
}

func newCredSource(store *security.CredentialStore, kind model.GatewayKind) *credSource {
	return &credSource{store: store, kind: kind}
}

func (c *credSource) resolve(ctx context.Context) (*resolved, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached, nil
	}
	cfg, err := c.store.ActiveConfig(ctx, c.kind)
	if err != nil {
		return nil, err
	}
	secret, err := c.store.DecryptSecret(cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	c.cached = &resolved{cfg: cfg, secret: secret}
	return c.cached, nil
}

// Reset drops the cached configuration so the next call re-resolves.
func (c *credSource) Reset() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// webhookSecret returns the stored webhook secret, falling back to the
// KIND_WEBHOOK_SECRET environment variable. Empty means unconfigured.
func (c *credSource) webhookSecret() string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if r, err := c.resolve(ctx); err == nil && r.cfg.WebhookSecret != "" {
		return r.cfg.WebhookSecret
	}
	return os.Getenv(strings.ToUpper(string(c.kind)) + "_WEBHOOK_SECRET")
}

// baseURL picks the adapter's API root: an explicit base_url in the config
// blob wins (also how tests point adapters at a fake provider), otherwise
// the environment selects between live and test hosts.
func baseURL(cfg *model.GatewayConfig, live, test string) string {
	if cfg.Config != nil {
		if v, ok := cfg.Config["base_url"].(string); ok && v != "" {
			return strings.TrimRight(v, "/")
		}
	}
	if cfg.Environment == model.GatewayEnvTest {
		return test
	}
	return live
}

// hmacHex computes the hex HMAC digest of payload under secret.
func hmacHex(algo func() hash.Hash, secret string, payload []byte) string {
	h := hmac.New(algo, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// signatureMatches compares an expected hex digest with the header value in
// constant time, tolerating case differences.
func signatureMatches(expected, header string) bool {
	return hmac.Equal([]byte(strings.ToLower(expected)), []byte(strings.ToLower(strings.TrimSpace(header))))
}
