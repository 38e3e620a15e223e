package payments

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/shelfkeep/pkg/database"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
	"github.com/shishobooks/shelfkeep/pkg/events"
	"github.com/shishobooks/shelfkeep/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// SuccessPath is where members land after a confirmed payment.
const SuccessPath = "/fines/payment-success/"

// Checkout is everything the client-side widget needs to collect a payment.
type Checkout struct {
	FineID      int             `json:"fine_id"`
	OrderID     string          `json:"order_id"`
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	KeyID       string          `json:"key_id"`
	MemberName  string          `json:"member_name"`
	MemberEmail string          `json:"member_email"`
}

type CompleteOptions struct {
	OrderID   string
	PaymentID string
	Signature string
	FineID    int
	MemberID  int
}

// Confirmation is returned for a completed payment, including replays of an
// already recorded one.
type Confirmation struct {
	Success     bool   `json:"success"`
	Amount      string `json:"amount"`
	RedirectURL string `json:"redirect_url"`

	payment  *models.FinePayment
	replayed bool
}

func newConfirmation(payment *models.FinePayment, replayed bool) *Confirmation {
	amount := payment.PaymentAmount.StringFixed(2)
	return &Confirmation{
		Success:     true,
		Amount:      amount,
		RedirectURL: SuccessPath + "?amount=" + url.QueryEscape(amount),
		payment:     payment,
		replayed:    replayed,
	}
}

type Service struct {
	db        *bun.DB
	gateway   Gateway
	publisher events.Publisher
	currency  string
}

func NewService(db *bun.DB, gateway Gateway, publisher events.Publisher, currency string) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{db, gateway, publisher, currency}
}

func (svc *Service) retrieveFine(ctx context.Context, db bun.IDB, fineID, memberID int) (*models.Fine, error) {
	fine := &models.Fine{}
	err := db.NewSelect().
		Model(fine).
		Relation("Member").
		Where("f.id = ?", fineID).
		Where("f.member_id = ?", memberID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Fine")
		}
		return nil, errors.WithStack(err)
	}
	return fine, nil
}

// Initiate creates a gateway order for the member's unpaid fine. Nothing is
// written locally.
func (svc *Service) Initiate(ctx context.Context, fineID, memberID int) (*Checkout, error) {
	log := logger.FromContext(ctx)

	fine, err := svc.retrieveFine(ctx, svc.db, fineID, memberID)
	if err != nil {
		return nil, err
	}
	if fine.IsPaid() {
		return nil, errcodes.ValidationError("Fine has already been paid")
	}

	minor := ToMinorUnits(fine.FineAmount)
	if minor <= 0 {
		return nil, errcodes.ValidationError("Fine amount must be greater than zero")
	}

	// The gateway caps receipts at 40 characters.
	receipt := fmt.Sprintf("fine-%d-%s", fine.ID, strings.ReplaceAll(uuid.NewString(), "-", "")[:16])

	order, err := svc.gateway.CreateOrder(ctx, OrderRequest{
		Amount:   minor,
		Currency: svc.currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"fine_id":   strconv.Itoa(fine.ID),
			"member_id": strconv.Itoa(memberID),
		},
	})
	if err != nil {
		log.Err(err).Error("failed to create gateway order", logger.Data{"fine_id": fine.ID, "receipt": receipt})
		return nil, errcodes.UpstreamError("Payment gateway")
	}

	checkout := &Checkout{
		FineID:      fine.ID,
		OrderID:     order.ID,
		Amount:      fine.FineAmount,
		AmountMinor: minor,
		Currency:    svc.currency,
		KeyID:       svc.gateway.KeyID(),
	}
	if fine.Member != nil {
		checkout.MemberName = fine.Member.FullName()
		checkout.MemberEmail = fine.Member.Email
	}
	return checkout, nil
}

// Complete records a verified gateway payment against the member's fine and
// marks it paid. Replaying a payment that is already recorded returns the
// original confirmation without writing anything.
func (svc *Service) Complete(ctx context.Context, opts CompleteOptions) (*Confirmation, error) {
	log := logger.FromContext(ctx)

	if err := svc.gateway.VerifyPaymentSignature(opts.OrderID, opts.PaymentID, opts.Signature); err != nil {
		return nil, err
	}

	// The signature only proves the order was paid. The order itself says
	// which fine and how much.
	order, err := svc.gateway.FetchOrder(ctx, opts.OrderID)
	if err != nil {
		log.Err(err).Error("failed to fetch gateway order", logger.Data{"order_id": opts.OrderID, "fine_id": opts.FineID})
		return nil, errcodes.UpstreamError("Payment gateway")
	}

	var confirmation *Confirmation
	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		fine, err := svc.retrieveFine(ctx, tx, opts.FineID, opts.MemberID)
		if err != nil {
			return err
		}
		if err := svc.checkOrder(order, opts.OrderID, fine); err != nil {
			log.Warn("gateway order does not match fine", logger.Data{
				"order_id":     order.ID,
				"order_amount": order.Amount,
				"fine_id":      fine.ID,
			})
			return err
		}

		existing, err := findPayment(ctx, tx, opts.PaymentID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.FineID != fine.ID {
				return errcodes.Conflict("Payment has already been applied to another fine")
			}
			confirmation = newConfirmation(existing, true)
			return nil
		}

		if fine.IsPaid() {
			return errcodes.Conflict("Fine has already been paid")
		}

		payment := &models.FinePayment{
			CreatedAt:        time.Now(),
			MemberID:         fine.MemberID,
			FineID:           fine.ID,
			PaymentDate:      models.Today(),
			PaymentAmount:    fine.FineAmount,
			GatewayOrderID:   opts.OrderID,
			GatewayPaymentID: opts.PaymentID,
		}
		_, err = tx.NewInsert().
			Model(payment).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewUpdate().
			Model((*models.Fine)(nil)).
			Set("status = ?", models.FineStatusPaid).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", fine.ID).
			Where("status = ?", models.FineStatusUnpaid).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.Conflict("Fine has already been paid")
		}

		confirmation = newConfirmation(payment, false)
		return nil
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return svc.resolveDuplicate(ctx, opts)
		}
		return nil, err
	}

	if !confirmation.replayed {
		svc.publishPaid(ctx, confirmation.payment)
	}
	return confirmation, nil
}

// checkOrder rejects a paid order that was not created for this fine at its
// current amount.
func (svc *Service) checkOrder(order *Order, orderID string, fine *models.Fine) error {
	mismatch := errcodes.Conflict("Payment order does not belong to this fine")

	if order.ID != orderID {
		return mismatch
	}
	fineID := strconv.Itoa(fine.ID)
	if id, ok := order.Notes["fine_id"]; ok {
		if id != fineID {
			return mismatch
		}
	} else if !strings.HasPrefix(order.Receipt, "fine-"+fineID+"-") {
		return mismatch
	}
	if memberID, ok := order.Notes["member_id"]; ok && memberID != strconv.Itoa(fine.MemberID) {
		return mismatch
	}
	if order.Amount != ToMinorUnits(fine.FineAmount) {
		return mismatch
	}
	if order.Currency != "" && !strings.EqualFold(order.Currency, svc.currency) {
		return mismatch
	}
	return nil
}

// resolveDuplicate handles a callback that lost an insert race to a
// concurrent one.
func (svc *Service) resolveDuplicate(ctx context.Context, opts CompleteOptions) (*Confirmation, error) {
	existing, err := findPayment(ctx, svc.db, opts.PaymentID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.FineID == opts.FineID {
		return newConfirmation(existing, true), nil
	}
	return nil, errcodes.Conflict("Fine has already been paid")
}

func findPayment(ctx context.Context, db bun.IDB, gatewayPaymentID string) (*models.FinePayment, error) {
	payment := &models.FinePayment{}
	err := db.NewSelect().
		Model(payment).
		Where("gateway_payment_id = ?", gatewayPaymentID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	return payment, nil
}

func (svc *Service) publishPaid(ctx context.Context, payment *models.FinePayment) {
	log := logger.FromContext(ctx)

	err := svc.publisher.Publish(ctx, events.Event{
		Type:       events.TypeFinePaid,
		OccurredAt: time.Now().UTC(),
		Key:        "fine-" + strconv.Itoa(payment.FineID),
		Data: map[string]any{
			"fine_id":            payment.FineID,
			"member_id":          payment.MemberID,
			"amount":             payment.PaymentAmount.StringFixed(2),
			"gateway_payment_id": payment.GatewayPaymentID,
		},
	})
	if err != nil {
		log.Err(err).Warn("failed to publish fine payment event", logger.Data{"fine_id": payment.FineID})
	}
}
