package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Fine statuses. A fine only ever moves from unpaid to paid.
const (
	FineStatusUnpaid = "unpaid"
	FineStatusPaid   = "paid"
)

type Fine struct {
	bun.BaseModel `bun:"table:fine,alias:f"`

	ID         int             `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	MemberID   int             `json:"member_id"`
	Member     *User           `bun:"rel:belongs-to,join:member_id=id" json:"member,omitempty"`
	LoanID     int             `json:"loan_id"`
	Loan       *Loan           `bun:"rel:belongs-to,join:loan_id=id" json:"loan,omitempty"`
	FineDate   time.Time       `json:"fine_date"`
	FineAmount decimal.Decimal `bun:"type:text" json:"fine_amount"`
	Status     string          `bun:",nullzero" json:"status"`
}

func (f *Fine) IsPaid() bool {
	return f.Status == FineStatusPaid
}

// FinePayment records a verified gateway payment against a fine. Rows are
// never updated or deleted.
type FinePayment struct {
	bun.BaseModel `bun:"table:fine_payment,alias:fp"`

	ID               int             `bun:",pk,nullzero" json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	MemberID         int             `json:"member_id"`
	FineID           int             `json:"fine_id"`
	PaymentDate      time.Time       `json:"payment_date"`
	PaymentAmount    decimal.Decimal `bun:"type:text" json:"payment_amount"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
}
