package adapter

import (
	"context"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
)

// PaymentStatus is the canonical transaction status across providers.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
)

// WebhookType classifies a normalized provider notification.
type WebhookType string

const (
	WebhookTypePayment  WebhookType = "payment"
	WebhookTypeTransfer WebhookType = "transfer"
	WebhookTypeUnknown  WebhookType = "unknown"
)

// PaymentRequest initiates a hosted payment. Amount is in major currency
// units; adapters convert to provider minor units internally.
type PaymentRequest struct {
	Amount      float64
	Currency    string
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

// PaymentInit is the canonical result of InitializePayment.
type PaymentInit struct {
	Success              bool
	PaymentLink          string
	TransactionReference string
	Raw                  map[string]any
}

// PaymentVerification is the canonical result of VerifyPayment.
// Success=false means the provider could not resolve the transaction
// (with Message set); a resolved-but-unsuccessful transaction comes back
// Success=true with Status=failed.
type PaymentVerification struct {
	Success              bool
	Status               PaymentStatus
	Amount               float64
	Currency             string
	TransactionID        string
	TransactionReference string
	Message              string
	Raw                  map[string]any
}

// TransferRequest initiates a payout transfer to a bank account.
type TransferRequest struct {
	Account   model.PayoutAccount
	Amount    float64
	Currency  string
	Narration string
	Reference string
}

// TransferResult is the canonical result of InitiateTransfer.
type TransferResult struct {
	Success    bool
	TransferID string
	Reference  string
	Status     string
	Raw        map[string]any
}

// WebhookEvent is the canonical shape of a normalized provider webhook.
// Unmapped provider events come back with Type=unknown, never an error.
type WebhookEvent struct {
	Type                 WebhookType
	Event                string // provider event name, for logging
	Status               PaymentStatus
	TransactionID        string
	TransactionReference string
	Amount               float64
	Currency             string
	Raw                  map[string]any
}

// PaymentGateway is the port each provider adapter implements. Adapters
// resolve and cache their GatewayConfig lazily on first use.
type PaymentGateway interface {
	Kind() model.GatewayKind

	InitializePayment(ctx context.Context, req PaymentRequest) (*PaymentInit, error)
	VerifyPayment(ctx context.Context, reference string) (*PaymentVerification, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)

	// VerifyWebhookSignature checks the provider signature header against the
	// raw payload. Returns false (never errors) when unconfigured.
	VerifyWebhookSignature(payload []byte, signature string) bool
	NormalizeWebhook(payload []byte) (*WebhookEvent, error)
}

// PaymentOrchestrator mirrors the gateway contract with an optional kind
// selector; the zero kind resolves the default gateway. It carries no
// business state.
type PaymentOrchestrator interface {
	Gateway(ctx context.Context, kind model.GatewayKind) (PaymentGateway, error)

	InitializePayment(ctx context.Context, kind model.GatewayKind, req PaymentRequest) (*PaymentInit, error)
	VerifyPayment(ctx context.Context, kind model.GatewayKind, reference string) (*PaymentVerification, error)
	InitiateTransfer(ctx context.Context, kind model.GatewayKind, req TransferRequest) (*TransferResult, error)
}
