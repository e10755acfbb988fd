//go:build !integration

// File: internal/infra/gateway/monnify_test.go
package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/adapter"
)

func newMonnify(t *testing.T, baseURL, webhookSecret string, extras map[string]any) *Monnify {
	t.Helper()
	store := newTestStore(t, model.GatewayMonnify, "sk_mfy_secret", webhookSecret, baseURL, extras)
	return NewMonnify(store, NewClient("monnify-test", 5*time.Second), testLogger())
}

// fakeMonnify handles the login handshake plus one business endpoint.
func fakeMonnify(t *testing.T, logins *int, handle func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/login" {
			*logins++
			auth := r.Header.Get("Authorization")
			want := "Basic " + base64.StdEncoding.EncodeToString([]byte("pk_test_123:sk_mfy_secret"))
			if auth != want {
				t.Errorf("login Authorization = %q", auth)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"requestSuccessful": true,
				"responseBody":      map[string]any{"accessToken": "tok_abc", "expiresIn": 3600},
			})
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok_abc" {
			t.Errorf("business call Authorization = %q", got)
		}
		handle(w, r)
	}))
}

func TestMonnify_InitializePayment(t *testing.T) {
	var logins int
	var got map[string]any
	srv := fakeMonnify(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/merchant/transactions/init-transaction" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"requestSuccessful": true,
			"responseBody":      map[string]any{"checkoutUrl": "https://sandbox.sdk.monnify.com/checkout/xyz"},
		})
	})
	defer srv.Close()

	g := newMonnify(t, srv.URL, "", map[string]any{"contract_code": "1234567890"})
	init, err := g.InitializePayment(context.Background(), adapter.PaymentRequest{
		Amount:    25.00,
		Currency:  "NGN",
		Email:     "affiliate@example.com",
		Reference: "sub-01ABC",
	})
	if err != nil {
		t.Fatalf("InitializePayment: %v", err)
	}
	if got["amount"].(float64) != 2500 {
		t.Errorf("amount = %v, want minor units", got["amount"])
	}
	if got["contractCode"] != "1234567890" {
		t.Errorf("contractCode = %v, want value from config blob", got["contractCode"])
	}
	if init.PaymentLink != "https://sandbox.sdk.monnify.com/checkout/xyz" {
		t.Errorf("payment link = %q", init.PaymentLink)
	}

	// Second call reuses the cached token instead of logging in again.
	if _, err := g.InitializePayment(context.Background(), adapter.PaymentRequest{Amount: 10, Currency: "NGN", Reference: "sub-02DEF"}); err != nil {
		t.Fatalf("second InitializePayment: %v", err)
	}
	if logins != 1 {
		t.Errorf("logins = %d, want 1 (token cached)", logins)
	}
}

func TestMonnify_VerifyPayment(t *testing.T) {
	var logins int
	srv := fakeMonnify(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/v2/merchant/transactions/query") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("paymentReference") != "sub-01ABC" {
			t.Errorf("paymentReference = %q", r.URL.Query().Get("paymentReference"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"requestSuccessful": true,
			"responseBody": map[string]any{
				"paymentStatus":        "PAID",
				"amountPaid":           2500,
				"currencyCode":         "NGN",
				"transactionReference": "MNFY|001",
				"paymentReference":     "sub-01ABC",
			},
		})
	})
	defer srv.Close()

	g := newMonnify(t, srv.URL, "", nil)
	v, err := g.VerifyPayment(context.Background(), "sub-01ABC")
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if v.Status != adapter.PaymentStatusCompleted || v.Amount != 25.00 {
		t.Errorf("status/amount = %s/%v", v.Status, v.Amount)
	}
	if v.TransactionID != "MNFY|001" || v.TransactionReference != "sub-01ABC" {
		t.Errorf("ids = %q / %q", v.TransactionID, v.TransactionReference)
	}
}

func TestMonnify_InitiateTransfer(t *testing.T) {
	var logins int
	var got map[string]any
	srv := fakeMonnify(t, &logins, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/disbursements/single" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"requestSuccessful": true,
			"responseBody":      map[string]any{"reference": got["reference"], "status": "PENDING"},
		})
	})
	defer srv.Close()

	g := newMonnify(t, srv.URL, "", map[string]any{"wallet_account_number": "3000011111"})
	res, err := g.InitiateTransfer(context.Background(), adapter.TransferRequest{
		Account:   model.PayoutAccount{AccountNumber: "0690000040", BankCode: "044", AccountName: "Ada Obi"},
		Amount:    120.50,
		Currency:  "NGN",
		Reference: "payout-01XYZ",
	})
	if err != nil {
		t.Fatalf("InitiateTransfer: %v", err)
	}
	if got["sourceAccountNumber"] != "3000011111" {
		t.Errorf("sourceAccountNumber = %v, want wallet from config blob", got["sourceAccountNumber"])
	}
	if got["destinationAccountNumber"] != "0690000040" {
		t.Errorf("destinationAccountNumber = %v", got["destinationAccountNumber"])
	}
	if !res.Success || res.Reference != "payout-01XYZ" {
		t.Errorf("unexpected transfer result: %+v", res)
	}
}

func TestMonnify_VerifyWebhookSignature(t *testing.T) {
	g := newMonnify(t, "", "whsec_mfy", nil)
	payload := []byte(`{"eventType":"SUCCESSFUL_TRANSACTION","eventData":{"paymentReference":"sub-01ABC"}}`)
	sig := hmacHex(sha256.New, "whsec_mfy", payload)

	if !g.VerifyWebhookSignature(payload, sig) {
		t.Error("valid signature rejected")
	}
	if g.VerifyWebhookSignature(payload, hmacHex(sha256.New, "wrong-secret", payload)) {
		t.Error("signature under wrong secret accepted")
	}
	if !g.VerifyWebhookSignature(payload, strings.ToUpper(sig)) {
		t.Error("uppercase hex digest rejected; comparison should be case-insensitive")
	}
}

func TestMonnify_NormalizeWebhook(t *testing.T) {
	g := newMonnify(t, "", "", nil)

	t.Run("successful transaction", func(t *testing.T) {
		ev, err := g.NormalizeWebhook([]byte(`{"eventType":"SUCCESSFUL_TRANSACTION","eventData":{"transactionReference":"MNFY|001","paymentReference":"sub-01ABC","amountPaid":2500,"currencyCode":"NGN"}}`))
		if err != nil {
			t.Fatalf("NormalizeWebhook: %v", err)
		}
		if ev.Type != adapter.WebhookTypePayment || ev.Status != adapter.PaymentStatusCompleted {
			t.Errorf("type/status = %s/%s", ev.Type, ev.Status)
		}
		if ev.TransactionReference != "sub-01ABC" {
			t.Errorf("reference = %q, want paymentReference", ev.TransactionReference)
		}
	})

	t.Run("failed disbursement", func(t *testing.T) {
		ev, err := g.NormalizeWebhook([]byte(`{"eventType":"FAILED_DISBURSEMENT","eventData":{"transactionReference":"MNFY|002","reference":"payout-01XYZ","amount":12050,"currencyCode":"NGN"}}`))
		if err != nil {
			t.Fatalf("NormalizeWebhook: %v", err)
		}
		if ev.Type != adapter.WebhookTypeTransfer || ev.Status != adapter.PaymentStatusFailed {
			t.Errorf("type/status = %s/%s", ev.Type, ev.Status)
		}
		if ev.TransactionReference != "payout-01XYZ" {
			t.Errorf("reference = %q, want transfer reference", ev.TransactionReference)
		}
	})

	t.Run("unmapped event", func(t *testing.T) {
		ev, err := g.NormalizeWebhook([]byte(`{"eventType":"SETTLEMENT_COMPLETION","eventData":{}}`))
		if err != nil {
			t.Fatalf("NormalizeWebhook: %v", err)
		}
		if ev.Type != adapter.WebhookTypeUnknown {
			t.Errorf("type = %s, want unknown", ev.Type)
		}
	})
}
