package payments

// CompletePaymentPayload is posted by the checkout widget once the gateway
// has captured a payment.
type CompletePaymentPayload struct {
	OrderID   string `json:"razorpay_order_id" form:"razorpay_order_id" mod:"trim" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" form:"razorpay_payment_id" mod:"trim" validate:"required"`
	Signature string `json:"razorpay_signature" form:"razorpay_signature" mod:"trim" validate:"required"`
	FineID    int    `json:"fine_id" form:"fine_id" validate:"required,min=1"`
}

type PaymentSuccessQuery struct {
	Amount string `query:"amount" mod:"trim" validate:"money"`
}
