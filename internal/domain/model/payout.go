package model

import (
	"time"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
	PayoutStatusCancelled  PayoutStatus = "cancelled"
)

type PayoutMethod string

const (
	PayoutMethodFlutterwave  PayoutMethod = "flutterwave"
	PayoutMethodPaystack     PayoutMethod = "paystack"
	PayoutMethodMonnify      PayoutMethod = "monnify"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
)

// PayoutError captures the provider-reported failure for a payout run.
type PayoutError struct {
	Message string
	Code    string
	Details map[string]any
}

// PayoutAccount is the destination bank account for a transfer.
type PayoutAccount struct {
	AccountNumber string
	BankCode      string
	AccountName   string
}

// Payout is one affiliate payout run over a set of commissions.
type Payout struct {
	ID            string // UUID
	AffiliateID   string
	StoreID       string
	CommissionIDs []string
	Amount        float64 // major units
	Currency      string
	Method        PayoutMethod
	Status        PayoutStatus
	Account       PayoutAccount

	TransactionID        string // provider transfer id, set on completion
	TransactionReference string // correlation key echoed in webhooks
	Error                *PayoutError

	ProcessedAt *time.Time
	ProcessedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayout creates a pending payout run.
func NewPayout(id, affiliateID, storeID string, commissionIDs []string, amount float64, currency string, method PayoutMethod, account PayoutAccount) (*Payout, error) {
	if id == "" || affiliateID == "" || amount <= 0 || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payout{
		ID:            id,
		AffiliateID:   affiliateID,
		StoreID:       storeID,
		CommissionIDs: commissionIDs,
		Amount:        amount,
		Currency:      currency,
		Method:        method,
		Status:        PayoutStatusPending,
		Account:       account,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// The MarkAs* methods are plain setters; they do not validate the prior
// state. Sequencing is enforced by the payout use case transition table.

func (p *Payout) MarkAsProcessing(actor string) {
	now := time.Now()
	p.Status = PayoutStatusProcessing
	p.ProcessedAt = &now
	p.ProcessedBy = actor
	p.UpdatedAt = now
}

func (p *Payout) MarkAsCompleted(transactionID, reference string) {
	p.Status = PayoutStatusCompleted
	p.TransactionID = transactionID
	if reference != "" {
		p.TransactionReference = reference
	}
	p.Error = nil
	p.UpdatedAt = time.Now()
}

func (p *Payout) MarkAsFailed(perr *PayoutError) {
	p.Status = PayoutStatusFailed
	p.Error = perr
	p.UpdatedAt = time.Now()
}

func (p *Payout) MarkAsCancelled(actor string) {
	p.Status = PayoutStatusCancelled
	p.ProcessedBy = actor
	p.UpdatedAt = time.Now()
}
