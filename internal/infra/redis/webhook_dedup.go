package redis

import (
	"context"
	"fmt"
	"time"
)

// WebhookDeduper records processed webhook events so at-least-once provider
// retries are not applied twice. First delivery of a (gateway, reference,
// event) triple claims the key; later deliveries within the TTL are
// reported as duplicates.
type WebhookDeduper struct {
	cli RedisClient
	ttl time.Duration
}

func NewWebhookDeduper(cli RedisClient, ttl time.Duration) *WebhookDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &WebhookDeduper{cli: cli, ttl: ttl}
}

func dedupKey(gateway, reference, event string) string {
	return fmt.Sprintf("webhook:seen:%s:%s:%s", gateway, reference, event)
}

// Seen claims the event key. It returns true when the event was already
// processed. A redis failure is returned so the caller can decide whether
// to process anyway (the lifecycle transitions are idempotent).
func (d *WebhookDeduper) Seen(ctx context.Context, gateway, reference, event string) (bool, error) {
	claimed, err := d.cli.SetNX(ctx, dedupKey(gateway, reference, event), 1, d.ttl)
	if err != nil {
		return false, err
	}
	return !claimed, nil
}

// Forget drops the claim for an event whose side effect failed to commit,
// so the provider's redelivery is processed instead of skipped.
func (d *WebhookDeduper) Forget(ctx context.Context, gateway, reference, event string) error {
	return d.cli.Del(ctx, dedupKey(gateway, reference, event))
}
