package gateway

import (
	"context"
	"crypto/sha512"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/security"
)

const (
	paystackLiveURL = "https://api.paystack.co"
	paystackTestURL = "https://api.paystack.co" // sandbox selected per-key
)

var _ adapter.PaymentGateway = (*Paystack)(nil)

// Paystack adapts the Paystack REST API. Amounts cross the wire in kobo;
// webhooks are signed HMAC-SHA512 under x-paystack-signature. Transfers
// require a transfer recipient, created on the fly per payout.
type Paystack struct {
	creds  *credSource
	client *Client
	log    *zerolog.Logger
}

func NewPaystack(store *security.CredentialStore, client *Client, logger *zerolog.Logger) *Paystack {
	l := logger.With().Str("component", "PaystackGateway").Logger()
	return &Paystack{
		creds:  newCredSource(store, model.GatewayPaystack),
		client: client,
		log:    &l,
	}
}

func (g *Paystack) Kind() model.GatewayKind { return model.GatewayPaystack }

// Reset drops the cached credentials, forcing re-resolution on next use.
func (g *Paystack) Reset() { g.creds.Reset() }

func (g *Paystack) auth(secret string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + secret}
}

func (g *Paystack) InitializePayment(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInit, error) {
	r, err := g.creds.resolve(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"email":        req.Email,
		"amount":       toMinorUnits(req.Amount),
		"currency":     req.Currency,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
	}
	if req.Metadata != nil {
		body["metadata"] = req.Metadata
	}
	resp, _, err := g.client.DoJSON(ctx, http.MethodPost, baseURL(r.cfg, paystackLiveURL, paystackTestURL)+"/transaction/initialize", g.auth(r.secret), body)
	if err != nil {
		g.log.Error().Err(err).Str("op", "InitializePayment").Msg("provider call failed")
		return nil, err
	}
	if !mapBool(resp, "status") {
		g.log.Warn().Str("op", "InitializePayment").Str("message", mapStr(resp, "message")).Msg("provider rejected payment init")
		return nil, fmt.Errorf("paystack: %s", mapStr(resp, "message"))
	}
	data := mapMap(resp, "data")
	return &adapter.PaymentInit{
		Success:              true,
		PaymentLink:          mapStr(data, "authorization_url"),
		TransactionReference: mapStr(data, "reference"),
		Raw:                  resp,
	}, nil
}

func (g *Paystack) VerifyPayment(ctx context.Context, reference string) (*adapter.PaymentVerification, error) {
	r, err := g.creds.resolve(ctx)
	if err != nil {
		return nil, err
	}
	u := baseURL(r.cfg, paystackLiveURL, paystackTestURL) + "/transaction/verify/" + url.PathEscape(reference)
	resp, _, err := g.client.DoJSON(ctx, http.MethodGet, u, g.auth(r.secret), nil)
	if err != nil {
		g.log.Error().Err(err).Str("op", "VerifyPayment").Msg("provider call failed")
		return nil, err
	}
	if !mapBool(resp, "status") {
		return &adapter.PaymentVerification{
			Success: false,
			Message: mapStr(resp, "message"),
			Raw:     resp,
		}, nil
	}
	data := mapMap(resp, "data")
	status := adapter.PaymentStatusPending
	switch mapStr(data, "status") {
	case "success":
		status = adapter.PaymentStatusCompleted
	case "failed", "abandoned":
		status = adapter.PaymentStatusFailed
	}
	return &adapter.PaymentVerification{
		Success:              true,
		Status:               status,
		Amount:               toMajorUnits(mapFloat(data, "amount")),
		Currency:             mapStr(data, "currency"),
		TransactionID:        mapID(data, "id"),
		TransactionReference: mapStr(data, "reference"),
		Raw:                  resp,
	}, nil
}

func (g *Paystack) InitiateTransfer(ctx context.Context, req adapter.TransferRequest) (*adapter.TransferResult, error) {
	r, err := g.creds.resolve(ctx)
	if err != nil {
		return nil, err
	}
	base := baseURL(r.cfg, paystackLiveURL, paystackTestURL)

	// Paystack transfers go to a pre-registered recipient.
	recipientBody := map[string]any{
		"type":           "nuban",
		"name":           req.Account.AccountName,
		"account_number": req.Account.AccountNumber,
		"bank_code":      req.Account.BankCode,
		"currency":       req.Currency,
	}
	recResp, _, err := g.client.DoJSON(ctx, http.MethodPost, base+"/transferrecipient", g.auth(r.secret), recipientBody)
	if err != nil {
		g.log.Error().Err(err).Str("op", "InitiateTransfer").Msg("recipient call failed")
		return nil, err
	}
	if !mapBool(recResp, "status") {
		return nil, fmt.Errorf("paystack recipient: %s", mapStr(recResp, "message"))
	}
	recipient := mapStr(mapMap(recResp, "data"), "recipient_code")

	body := map[string]any{
		"source":    "balance",
		"amount":    toMinorUnits(req.Amount),
		"currency":  req.Currency,
		"recipient": recipient,
		"reason":    req.Narration,
		"reference": req.Reference,
	}
	resp, _, err := g.client.DoJSON(ctx, http.MethodPost, base+"/transfer", g.auth(r.secret), body)
	if err != nil {
		g.log.Error().Err(err).Str("op", "InitiateTransfer").Msg("provider call failed")
		return nil, err
	}
	if !mapBool(resp, "status") {
		g.log.Warn().Str("op", "InitiateTransfer").Str("message", mapStr(resp, "message")).Msg("provider rejected transfer")
		return nil, fmt.Errorf("paystack: %s", mapStr(resp, "message"))
	}
	data := mapMap(resp, "data")
	return &adapter.TransferResult{
		Success:    true,
		TransferID: mapID(data, "id"),
		Reference:  mapStr(data, "reference"),
		Status:     mapStr(data, "status"),
		Raw:        resp,
	}, nil
}

func (g *Paystack) VerifyWebhookSignature(payload []byte, signature string) bool {
	secret := g.creds.webhookSecret()
	if secret == "" || signature == "" {
		return false
	}
	return signatureMatches(hmacHex(sha512.New, secret, payload), signature)
}

// NormalizeWebhook maps Paystack's event vocabulary onto the canonical shape.
func (g *Paystack) NormalizeWebhook(payload []byte) (*adapter.WebhookEvent, error) {
	raw, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	data := mapMap(raw, "data")
	event := mapStr(raw, "event")

	norm := &adapter.WebhookEvent{
		Type:                 adapter.WebhookTypeUnknown,
		Event:                event,
		TransactionID:        mapID(data, "id"),
		TransactionReference: mapStr(data, "reference"),
		Amount:               toMajorUnits(mapFloat(data, "amount")),
		Currency:             mapStr(data, "currency"),
		Raw:                  raw,
	}
	switch event {
	case "charge.success":
		norm.Type = adapter.WebhookTypePayment
		norm.Status = adapter.PaymentStatusCompleted
	case "charge.failed":
		norm.Type = adapter.WebhookTypePayment
		norm.Status = adapter.PaymentStatusFailed
	case "transfer.success":
		norm.Type = adapter.WebhookTypeTransfer
		norm.Status = adapter.PaymentStatusCompleted
	case "transfer.failed", "transfer.reversed":
		norm.Type = adapter.WebhookTypeTransfer
		norm.Status = adapter.PaymentStatusFailed
	}
	return norm, nil
}
