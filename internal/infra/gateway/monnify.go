package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/security"
)

const (
	monnifyLiveURL = "https://api.monnify.com"
	monnifyTestURL = "https://sandbox.monnify.com"
)

var _ adapter.PaymentGateway = (*Monnify)(nil)

// Monnify adapts the Monnify REST API. Unlike the other two providers every
// call needs a short-lived bearer token obtained by basic-auth login with
// the api key (public key) and secret; the token is cached until shortly
// before expiry. Webhooks are signed HMAC-SHA256 and arrive under
// monnify-signature (or authorization on older dashboard versions).
type Monnify struct {
	creds  *credSource
	client *Client
	log    *zerolog.Logger

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewMonnify(store *security.CredentialStore, client *Client, logger *zerolog.Logger) *Monnify {
	l := logger.With().Str("component", "MonnifyGateway").Logger()
	return &Monnify{
		creds:  newCredSource(store, model.GatewayMonnify),
		client: client,
		log:    &l,
	}
}

func (g *Monnify) Kind() model.GatewayKind { return model.GatewayMonnify }

// Reset drops the cached credentials and access token.
func (g *Monnify) Reset() {
	g.creds.Reset()
	g.tokenMu.Lock()
	g.token = ""
	g.tokenExpiry = time.Time{}
	g.tokenMu.Unlock()
}

func (g *Monnify) base(r *resolved) string {
	return baseURL(r.cfg, monnifyLiveURL, monnifyTestURL)
}

// accessToken logs in when the cached token is missing or about to expire.
func (g *Monnify) accessToken(ctx context.Context, r *resolved) (string, error) {
	g.tokenMu.Lock()
	defer g.tokenMu.Unlock()
	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		return g.token, nil
	}
	basic := base64.StdEncoding.EncodeToString([]byte(r.cfg.PublicKey + ":" + r.secret))
	resp, _, err := g.client.DoJSON(ctx, http.MethodPost, g.base(r)+"/api/v1/auth/login",
		map[string]string{"Authorization": "Basic " + basic}, map[string]any{})
	if err != nil {
		return "", err
	}
	if !mapBool(resp, "requestSuccessful") {
		return "", fmt.Errorf("monnify login: %s", mapStr(resp, "responseMessage"))
	}
	body := mapMap(resp, "responseBody")
	g.token = mapStr(body, "accessToken")
	ttl := time.Duration(mapFloat(body, "expiresIn")) * time.Second
	if ttl <= time.Minute {
		ttl = 30 * time.Minute
	}
	g.tokenExpiry = time.Now().Add(ttl - time.Minute)
	return g.token, nil
}

func (g *Monnify) authed(ctx context.Context) (*resolved, map[string]string, error) {
	r, err := g.creds.resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	token, err := g.accessToken(ctx, r)
	if err != nil {
		g.log.Error().Err(err).Msg("monnify auth failed")
		return nil, nil, err
	}
	return r, map[string]string{"Authorization": "Bearer " + token}, nil
}

func (g *Monnify) InitializePayment(ctx context.Context, req adapter.PaymentRequest) (*adapter.PaymentInit, error) {
	r, headers, err := g.authed(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"amount":             toMinorUnits(req.Amount),
		"currencyCode":       req.Currency,
		"customerEmail":      req.Email,
		"paymentReference":   req.Reference,
		"paymentDescription": "subscription payment",
		"contractCode":       mapStr(r.cfg.Config, "contract_code"),
		"redirectUrl":        req.CallbackURL,
	}
	if req.Metadata != nil {
		body["metaData"] = req.Metadata
	}
	resp, _, err := g.client.DoJSON(ctx, http.MethodPost, g.base(r)+"/api/v1/merchant/transactions/init-transaction", headers, body)
	if err != nil {
		g.log.Error().Err(err).Str("op", "InitializePayment").Msg("provider call failed")
		return nil, err
	}
	if !mapBool(resp, "requestSuccessful") {
		g.log.Warn().Str("op", "InitializePayment").Str("message", mapStr(resp, "responseMessage")).Msg("provider rejected payment init")
		return nil, fmt.Errorf("monnify: %s", mapStr(resp, "responseMessage"))
	}
	data := mapMap(resp, "responseBody")
	return &adapter.PaymentInit{
		Success:              true,
		PaymentLink:          mapStr(data, "checkoutUrl"),
		TransactionReference: req.Reference,
		Raw:                  resp,
	}, nil
}

func (g *Monnify) VerifyPayment(ctx context.Context, reference string) (*adapter.PaymentVerification, error) {
	r, headers, err := g.authed(ctx)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/api/v2/merchant/transactions/query?paymentReference=%s", g.base(r), url.QueryEscape(reference))
	resp, _, err := g.client.DoJSON(ctx, http.MethodGet, u, headers, nil)
	if err != nil {
		g.log.Error().Err(err).Str("op", "VerifyPayment").Msg("provider call failed")
		return nil, err
	}
	if !mapBool(resp, "requestSuccessful") {
		return &adapter.PaymentVerification{
			Success: false,
			Message: mapStr(resp, "responseMessage"),
			Raw:     resp,
		}, nil
	}
	data := mapMap(resp, "responseBody")
	status := adapter.PaymentStatusPending
	switch mapStr(data, "paymentStatus") {
	case "PAID":
		status = adapter.PaymentStatusCompleted
	case "FAILED", "EXPIRED", "CANCELLED":
		status = adapter.PaymentStatusFailed
	}
	return &adapter.PaymentVerification{
		Success:              true,
		Status:               status,
		Amount:               toMajorUnits(mapFloat(data, "amountPaid")),
		Currency:             mapStr(data, "currencyCode"),
		TransactionID:        mapStr(data, "transactionReference"),
		TransactionReference: mapStr(data, "paymentReference"),
		Raw:                  resp,
	}, nil
}

func (g *Monnify) InitiateTransfer(ctx context.Context, req adapter.TransferRequest) (*adapter.TransferResult, error) {
	r, headers, err := g.authed(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"amount":                   toMinorUnits(req.Amount),
		"reference":                req.Reference,
		"narration":                req.Narration,
		"destinationBankCode":      req.Account.BankCode,
		"destinationAccountNumber": req.Account.AccountNumber,
		"currency":                 req.Currency,
		"sourceAccountNumber":      mapStr(r.cfg.Config, "wallet_account_number"),
	}
	resp, _, err := g.client.DoJSON(ctx, http.MethodPost, g.base(r)+"/api/v2/disbursements/single", headers, body)
	if err != nil {
		g.log.Error().Err(err).Str("op", "InitiateTransfer").Msg("provider call failed")
		return nil, err
	}
	if !mapBool(resp, "requestSuccessful") {
		g.log.Warn().Str("op", "InitiateTransfer").Str("message", mapStr(resp, "responseMessage")).Msg("provider rejected transfer")
		return nil, fmt.Errorf("monnify: %s", mapStr(resp, "responseMessage"))
	}
	data := mapMap(resp, "responseBody")
	return &adapter.TransferResult{
		Success:    true,
		TransferID: mapStr(data, "reference"),
		Reference:  mapStr(data, "reference"),
		Status:     mapStr(data, "status"),
		Raw:        resp,
	}, nil
}

func (g *Monnify) VerifyWebhookSignature(payload []byte, signature string) bool {
	secret := g.creds.webhookSecret()
	if secret == "" || signature == "" {
		return false
	}
	return signatureMatches(hmacHex(sha256.New, secret, payload), signature)
}

// NormalizeWebhook maps Monnify's SCREAMING_CASE event taxonomy onto the
// canonical shape. Collections correlate by paymentReference (our key);
// disbursements echo the transfer reference directly.
func (g *Monnify) NormalizeWebhook(payload []byte) (*adapter.WebhookEvent, error) {
	raw, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}
	data := mapMap(raw, "eventData")
	event := mapStr(raw, "eventType")

	norm := &adapter.WebhookEvent{
		Type:     adapter.WebhookTypeUnknown,
		Event:    event,
		Currency: mapStr(data, "currencyCode"),
		Raw:      raw,
	}
	switch event {
	case "SUCCESSFUL_TRANSACTION", "FAILED_TRANSACTION":
		norm.Type = adapter.WebhookTypePayment
		norm.TransactionID = mapStr(data, "transactionReference")
		norm.TransactionReference = mapStr(data, "paymentReference")
		norm.Amount = toMajorUnits(mapFloat(data, "amountPaid"))
		if event == "SUCCESSFUL_TRANSACTION" {
			norm.Status = adapter.PaymentStatusCompleted
		} else {
			norm.Status = adapter.PaymentStatusFailed
		}
	case "SUCCESSFUL_DISBURSEMENT", "FAILED_DISBURSEMENT":
		norm.Type = adapter.WebhookTypeTransfer
		norm.TransactionID = mapStr(data, "transactionReference")
		norm.TransactionReference = mapStr(data, "reference")
		norm.Amount = toMajorUnits(mapFloat(data, "amount"))
		if event == "SUCCESSFUL_DISBURSEMENT" {
			norm.Status = adapter.PaymentStatusCompleted
		} else {
			norm.Status = adapter.PaymentStatusFailed
		}
	}
	return norm, nil
}
