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
	flutterwaveLiveURL = "https://api.flutterwave.com/v3"
	flutterwaveTestURL = "https://api.flutterwave.com/v3" // sandbox selected per-key
)

var _ adapter.PaymentGateway = (*Flutterwave)(nil)

// Flutterwave adapts the Flutterwave v3 REST API to the canonical contract.
// Amounts cross the wire in minor units; webhooks are signed HMAC-SHA512 and
// delivered under the verif-hash (or x-flutterwave-signature) header.
type Flutterwave struct {
	creds  *credSource
	client *Client
	log    *zerolog.Logger
}

func NewFlutterwave(store *security.CredentialStore, client *Client, logger *zerolog.Logger) *Flutterwave {
	l := logger.With().Str("component", "FlutterwaveGateway").Logger()
	return &Flutterwave{
		creds:  newCredSource(store, model.GatewayFlutterwave),
		client: client,
		log:    &l,
	}
}

func (g *Flutterwave) Kind() model.GatewayKind { return model.GatewayFlutterwave }

// Reset drops the cached credentials, forcing re-resolution on next use.
func (g *Flutterwave) Reset() { g.creds.Reset() }

func (g *Flutterwave) auth(secret string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + secret}
}

func (g *Flutterwave) InitializePayment(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInit, error) {
	r, err := g.creds.resolve(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"tx_ref":       req.Reference,
		"amount":       toMinorUnits(req.Amount),
		"currency":     req.Currency,
		"redirect_url": req.CallbackURL,
		"customer":     map[string]any{"email": req.Email},
	}
	if req.Metadata != nil {
		body["meta"] = req.Metadata
	}
	resp, _, err := g.client.DoJSON(ctx, http.MethodPost, baseURL(r.cfg, flutterwaveLiveURL, flutterwaveTestURL)+"/payments", g.auth(r.secret), body)
	if err != nil {
		g.log.Error().Err(err).Str("op", "InitializePayment").Msg("provider call failed")
		return nil, err
	}
	if mapStr(resp, "status") != "success" {
		g.log.Warn().Str("op", "InitializePayment").Str("message", mapStr(resp, "message")).Msg("provider rejected payment init")
		return nil, fmt.Errorf("flutterwave: %s", mapStr(resp, "message"))
	}
	return &adapter.PaymentInit{
		Success:              true,
		PaymentLink:          mapStr(mapMap(resp, "data"), "link"),
		TransactionReference: req.Reference,
		Raw:                  resp,
	}, nil
}

func (g *Flutterwave) VerifyPayment(ctx context.Context, reference string) (*adapter.PaymentVerification, error) {
	r, err := g.creds.resolve(ctx)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/transactions/verify_by_reference?tx_ref=%s", baseURL(r.cfg, flutterwaveLiveURL, flutterwaveTestURL), url.QueryEscape(reference))
	resp, _, err := g.client.DoJSON(ctx, http.MethodGet, u, g.auth(r.secret), nil)
	if err != nil {
		g.log.Error().Err(err).Str("op", "VerifyPayment").Msg("provider call failed")
		return nil, err
	}
	if mapStr(resp, "status") != "success" {
		return &adapter.PaymentVerification{
			Success: false,
			Message: mapStr(resp, "message"),
			Raw:     resp,
		}, nil
	}
	data := mapMap(resp, "data")
	status := adapter.PaymentStatusPending
	switch mapStr(data, "status") {
	case "successful":
		status = adapter.PaymentStatusCompleted
	case "failed":
		status = adapter.PaymentStatusFailed
	}
	return &adapter.PaymentVerification{
		Success:              true,
		Status:               status,
		Amount:               toMajorUnits(mapFloat(data, "amount")),
		Currency:             mapStr(data, "currency"),
		TransactionID:        mapID(data, "id"),
		TransactionReference: mapStr(data, "tx_ref"),
		Raw:                  resp,
	}, nil
}

func (g *Flutterwave) InitiateTransfer(ctx context.Context, req adapter.TransferRequest) (*adapter.TransferResult, error) {
	r, err := g.creds.resolve(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"account_bank":   req.Account.BankCode,
		"account_number": req.Account.AccountNumber,
		"amount":         toMinorUnits(req.Amount),
		"currency":       req.Currency,
		"narration":      req.Narration,
		"reference":      req.Reference,
	}
	resp, _, err := g.client.DoJSON(ctx, http.MethodPost, baseURL(r.cfg, flutterwaveLiveURL, flutterwaveTestURL)+"/transfers", g.auth(r.secret), body)
	if err != nil {
		g.log.Error().Err(err).Str("op", "InitiateTransfer").Msg("provider call failed")
		return nil, err
	}
	if mapStr(resp, "status") != "success" {
		g.log.Warn().Str("op", "InitiateTransfer").Str("message", mapStr(resp, "message")).Msg("provider rejected transfer")
		return nil, fmt.Errorf("flutterwave: %s", mapStr(resp, "message"))
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

func (g *Flutterwave) VerifyWebhookSignature(payload []byte, signature string) bool {
	secret := g.creds.webhookSecret()
	if secret == "" || signature == "" {
		return false
	}
	return signatureMatches(hmacHex(sha512.New, secret, payload), signature)
}

// NormalizeWebhook maps Flutterwave's event vocabulary onto the canonical
// shape. charge.completed carries its outcome in data.status; transfer
// events carry it in the event name.
func (g *Flutterwave) NormalizeWebhook(payload []byte) (*adapter.WebhookEvent, error) {
	raw, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	data := mapMap(raw, "data")
	event := mapStr(raw, "event")

	norm := &adapter.WebhookEvent{
		Type:          adapter.WebhookTypeUnknown,
		Event:         event,
		TransactionID: mapID(data, "id"),
		Amount:        toMajorUnits(mapFloat(data, "amount")),
		Currency:      mapStr(data, "currency"),
		Raw:           raw,
	}
	switch event {
	case "charge.completed":
		norm.Type = adapter.WebhookTypePayment
		norm.TransactionReference = mapStr(data, "tx_ref")
		if mapStr(data, "status") == "successful" {
			norm.Status = adapter.PaymentStatusCompleted
		} else {
			norm.Status = adapter.PaymentStatusFailed
		}
	case "transfer.completed":
		norm.Type = adapter.WebhookTypeTransfer
		norm.TransactionReference = mapStr(data, "reference")
		// Flutterwave fires transfer.completed for terminal transfers in
		// either direction; the payload status disambiguates.
		if mapStr(data, "status") == "SUCCESSFUL" || mapStr(data, "status") == "successful" {
			norm.Status = adapter.PaymentStatusCompleted
		} else {
			norm.Status = adapter.PaymentStatusFailed
		}
	case "transfer.failed":
		norm.Type = adapter.WebhookTypeTransfer
		norm.TransactionReference = mapStr(data, "reference")
		norm.Status = adapter.PaymentStatusFailed
	}
	return norm, nil
}
