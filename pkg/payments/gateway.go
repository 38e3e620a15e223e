package payments

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"
)

// OrderRequest describes a remote order. Amount is in minor currency units.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the gateway's envelope for a pending payment.
type Order struct {
	ID       string     `json:"id"`
	Amount   int64      `json:"amount"`
	Currency string     `json:"currency"`
	Receipt  string     `json:"receipt"`
	Status   string     `json:"status"`
	Notes    OrderNotes `json:"notes"`
}

// OrderNotes are the key/value notes attached to an order. The gateway
// encodes an order without notes as an empty JSON array.
type OrderNotes map[string]string

func (n *OrderNotes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*n = nil
		return nil
	}
	m := map[string]string{}
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return errors.WithStack(err)
	}
	*n = m
	return nil
}

// Gateway is the remote payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) error
	KeyID() string
}

// GatewayError is a non-retryable error response from the provider.
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (err *GatewayError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s: %s", err.StatusCode, err.Code, err.Description)
}

// ToMinorUnits converts a decimal amount to the smallest currency unit,
// truncating anything beyond two decimal places.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Truncate(0).IntPart()
}
