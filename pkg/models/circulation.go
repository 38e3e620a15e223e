package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Loan struct {
	bun.BaseModel `bun:"table:loan,alias:l"`

	ID           int        `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	BookID       int        `json:"book_id"`
	Book         *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	MemberID     int        `json:"member_id"`
	Member       *User      `bun:"rel:belongs-to,join:member_id=id" json:"member,omitempty"`
	LoanDate     time.Time  `json:"loan_date"`
	ReturnedDate *time.Time `json:"returned_date"`
}

func (l *Loan) IsReturned() bool {
	return l.ReturnedDate != nil
}

// Reservation statuses.
const (
	ReservationStatusPending   = "pending"
	ReservationStatusFulfilled = "fulfilled"
	ReservationStatusCancelled = "cancelled"
)

type Reservation struct {
	bun.BaseModel `bun:"table:reservation,alias:rv"`

	ID              int       `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	BookID          int       `json:"book_id"`
	Book            *Book     `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	MemberID        int       `json:"member_id"`
	Member          *User     `bun:"rel:belongs-to,join:member_id=id" json:"member,omitempty"`
	ReservationDate time.Time `json:"reservation_date"`
	Status          string    `bun:",nullzero" json:"status"`
}
