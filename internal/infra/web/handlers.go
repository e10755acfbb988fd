package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/model"
	"github.com/RandyMyers/affiliateShares-sub001/internal/domain/ports/repository"
	"github.com/RandyMyers/affiliateShares-sub001/internal/infra/logging"
)

// maxWebhookBody bounds provider webhook payloads.
const maxWebhookBody = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// webhookSignature pulls the provider-specific signature header. Each
// provider names its header differently; monnify deployments vary between
// the dedicated header and a bare Authorization value.
func webhookSignature(kind model.GatewayKind, r *http.Request) string {
	switch kind {
	case model.GatewayFlutterwave:
		if v := r.Header.Get("verif-hash"); v != "" {
			return v
		}
		return r.Header.Get("x-flutterwave-signature")
	case model.GatewayPaystack:
		return r.Header.Get("x-paystack-signature")
	case model.GatewayMonnify:
		if v := r.Header.Get("monnify-signature"); v != "" {
			return v
		}
		return r.Header.Get("Authorization")
	}
	return ""
}

func (s *Server) webhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := model.ParseGatewayKind(chi.URLParam(r, "gateway"))
		if err != nil {
			http.Error(w, "Unknown gateway", http.StatusNotFound)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "Failed to read body", http.StatusBadRequest)
			return
		}

		ctx := logging.WithGateway(r.Context(), string(kind))
		err = s.dispatcher.Dispatch(ctx, kind, body, webhookSignature(kind, r))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		case errors.Is(err, domain.ErrSignatureInvalid):
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
		case errors.Is(err, domain.ErrGatewayNotConfigured):
			http.Error(w, "Gateway not configured", http.StatusNotFound)
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("webhook processing failed")
			http.Error(w, "Webhook processing failed", http.StatusInternalServerError)
		}
	}
}

func (s *Server) verifyPaymentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reference := r.URL.Query().Get("reference")
		if reference == "" {
			// Flutterwave redirects carry tx_ref instead.
			reference = r.URL.Query().Get("tx_ref")
		}
		if reference == "" {
			http.Error(w, "reference is required", http.StatusBadRequest)
			return
		}

		ctx := logging.WithReference(r.Context(), reference)
		ver, sub, err := s.subUC.VerifyPayment(ctx, reference)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			logging.With(ctx, s.log).Error().Err(err).Msg("payment verification failed")
			http.Error(w, "Verification failed", http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Success            bool   `json:"success"`
			Status             string `json:"status"`
			SubscriptionID     string `json:"subscription_id"`
			SubscriptionStatus string `json:"subscription_status"`
		}{
			Success:            ver.Success,
			Status:             string(ver.Status),
			SubscriptionID:     sub.ID,
			SubscriptionStatus: string(sub.Status),
		})
	}
}

func (s *Server) subscribeHandler() http.HandlerFunc {
	type request struct {
		UserID  string `json:"user_id"`
		PlanID  string `json:"plan_id"`
		Email   string `json:"email"`
		Gateway string `json:"gateway"` // optional; empty uses the default
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid body", http.StatusBadRequest)
			return
		}

		var kind model.GatewayKind
		if req.Gateway != "" {
			parsed, err := model.ParseGatewayKind(req.Gateway)
			if err != nil {
				http.Error(w, "Unsupported gateway", http.StatusBadRequest)
				return
			}
			kind = parsed
		}

		ctx := logging.WithUserID(r.Context(), req.UserID)
		sub, link, err := s.subUC.Subscribe(ctx, req.UserID, req.PlanID, req.Email, kind)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, struct {
				SubscriptionID string `json:"subscription_id"`
				Status         string `json:"status"`
				Reference      string `json:"reference"`
				PaymentLink    string `json:"payment_link"`
			}{sub.ID, string(sub.Status), sub.Metadata.TransactionReference, link})
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "user_id, plan_id and email are required", http.StatusBadRequest)
		case errors.Is(err, domain.ErrPlanNotFound):
			http.Error(w, "Plan not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrDuplicateSubscription):
			http.Error(w, "User already has a live subscription", http.StatusConflict)
		default:
			logging.With(ctx, s.log).Error().Err(err).Msg("subscribe failed")
			http.Error(w, "Subscription failed", http.StatusBadGateway)
		}
	}
}

// ===== Admin auth =====

func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !s.auth.CheckPassword(req.Password) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to mint session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ===== Gateway configs =====

// gatewayConfigView hides the secret ciphertext from API responses.
type gatewayConfigView struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	PublicKey   string         `json:"public_key"`
	Environment string         `json:"environment"`
	IsActive    bool           `json:"is_active"`
	IsDefault   bool           `json:"is_default"`
	Config      map[string]any `json:"config,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func viewOf(cfg *model.GatewayConfig) gatewayConfigView {
	return gatewayConfigView{
		ID:          cfg.ID,
		Kind:        string(cfg.Kind),
		PublicKey:   cfg.PublicKey,
		Environment: string(cfg.Environment),
		IsActive:    cfg.IsActive,
		IsDefault:   cfg.IsDefault,
		Config:      cfg.Config,
		CreatedAt:   cfg.CreatedAt,
		UpdatedAt:   cfg.UpdatedAt,
	}
}

func (s *Server) gatewaysListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configs, err := s.store.ListConfigs(r.Context())
		if err != nil {
			http.Error(w, "Failed to list gateways", http.StatusInternalServerError)
			return
		}
		views := make([]gatewayConfigView, 0, len(configs))
		for _, cfg := range configs {
			views = append(views, viewOf(cfg))
		}
		writeJSON(w, http.StatusOK, struct {
			Data []gatewayConfigView `json:"data"`
		}{Data: views})
	}
}

type gatewaySaveRequest struct {
	ID            string         `json:"id"`
	Kind          string         `json:"kind"`
	PublicKey     string         `json:"public_key"`
	SecretKey     string         `json:"secret_key"`
	WebhookSecret string         `json:"webhook_secret"`
	Environment   string         `json:"environment"`
	IsActive      *bool          `json:"is_active"`
	IsDefault     bool           `json:"is_default"`
	Config        map[string]any `json:"config"`
}

func (s *Server) gatewaysSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gatewaySaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		kind, err := model.ParseGatewayKind(req.Kind)
		if err != nil {
			http.Error(w, "Unsupported gateway kind", http.StatusBadRequest)
			return
		}

		id := req.ID
		if id == "" {
			id = uuid.NewString()
		}
		cfg, err := model.NewGatewayConfig(id, kind, req.PublicKey, req.SecretKey, model.GatewayEnvironment(req.Environment))
		if err != nil {
			http.Error(w, "Invalid gateway config", http.StatusBadRequest)
			return
		}
		cfg.WebhookSecret = req.WebhookSecret
		cfg.IsDefault = req.IsDefault
		cfg.Config = req.Config
		if req.IsActive != nil {
			cfg.IsActive = *req.IsActive
		}

		if err := s.store.SaveConfig(r.Context(), cfg); err != nil {
			s.log.Error().Err(err).Str("kind", req.Kind).Msg("save gateway config failed")
			http.Error(w, "Failed to save gateway config", http.StatusInternalServerError)
			return
		}
		s.log.Info().
			Str("kind", req.Kind).
			Str("public_key", logging.Redact(cfg.PublicKey, false)).
			Bool("is_default", cfg.IsDefault).
			Msg("gateway config saved")
		writeJSON(w, http.StatusCreated, viewOf(cfg))
	}
}

// ===== Plans =====

type planSaveRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency"`
	Cycle     string   `json:"cycle"`
	TrialDays int      `json:"trial_days"`
	Features  []string `json:"features"`
	IsActive  *bool    `json:"is_active"`
}

func (s *Server) plansListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := s.plans.ListActive(r.Context(), repository.NoTX)
		if err != nil {
			http.Error(w, "Failed to list plans", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Plan `json:"data"`
		}{Data: plans})
	}
}

func (s *Server) plansSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planSaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		id := req.ID
		if id == "" {
			id = uuid.NewString()
		}
		plan, err := model.NewPlan(id, req.Name, req.Price, req.Currency, model.BillingCycle(req.Cycle), req.TrialDays)
		if err != nil {
			http.Error(w, "Invalid plan", http.StatusBadRequest)
			return
		}
		plan.Features = req.Features
		if req.IsActive != nil {
			plan.IsActive = *req.IsActive
		}

		if err := s.plans.Save(r.Context(), repository.NoTX, plan); err != nil {
			http.Error(w, "Failed to save plan", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	}
}

func (s *Server) plansDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.plans.Delete(r.Context(), repository.NoTX, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ===== Payouts =====

type payoutCreateRequest struct {
	AffiliateID   string   `json:"affiliate_id"`
	StoreID       string   `json:"store_id"`
	CommissionIDs []string `json:"commission_ids"`
	Amount        float64  `json:"amount"`
	Currency      string   `json:"currency"`
	Method        string   `json:"method"`
	AccountNumber string   `json:"account_number"`
	BankCode      string   `json:"bank_code"`
	AccountName   string   `json:"account_name"`
}

func (s *Server) payoutsCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req payoutCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		p, err := s.payoutUC.Create(r.Context(), req.AffiliateID, req.StoreID, req.CommissionIDs,
			req.Amount, req.Currency, model.PayoutMethod(req.Method),
			model.PayoutAccount{AccountNumber: req.AccountNumber, BankCode: req.BankCode, AccountName: req.AccountName})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, "Invalid payout", http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to create payout", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func (s *Server) payoutsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := model.PayoutStatus(r.URL.Query().Get("status"))
		if status == "" {
			status = model.PayoutStatusPending
		}
		payouts, err := s.payoutUC.ListByStatus(r.Context(), status, 100)
		if err != nil {
			http.Error(w, "Failed to list payouts", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Payout `json:"data"`
		}{Data: payouts})
	}
}

func (s *Server) payoutsByAffiliateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payouts, err := s.payoutUC.ListByAffiliate(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, "affiliate id is required", http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to list payouts", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Payout `json:"data"`
		}{Data: payouts})
	}
}

func (s *Server) payoutTransferHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := s.payoutUC.StartTransfer(r.Context(), id, "admin")
		if err != nil {
			writePayoutError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) payoutCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := s.payoutUC.Cancel(r.Context(), id, "admin")
		if err != nil {
			writePayoutError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func writePayoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Payout not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, "Invalid payout state", http.StatusConflict)
	default:
		http.Error(w, "Payout operation failed", http.StatusInternalServerError)
	}
}

// ===== Subscriptions =====

func (s *Server) subscriptionsListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")
		subs, err := s.subUC.ListByUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to list subscriptions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Subscription `json:"data"`
		}{Data: subs})
	}
}

func (s *Server) subscriptionCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		sub, err := s.subUC.Cancel(r.Context(), id, "admin", req.Reason)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to cancel subscription", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
