package payments

import (
	"fmt"
	"html"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/shelfkeep/pkg/pages"
)

const checkoutScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

type checkoutOptions struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	OrderID     string            `json:"order_id"`
	Prefill     map[string]string `json:"prefill"`
}

// renderCheckout builds the page that opens the gateway widget and posts the
// signed result back to the callback endpoint.
func renderCheckout(checkout *Checkout) (string, error) {
	opts, err := json.Marshal(checkoutOptions{
		Key:         checkout.KeyID,
		Amount:      checkout.AmountMinor,
		Currency:    checkout.Currency,
		Name:        "Shelfkeep",
		Description: fmt.Sprintf("Fine #%d", checkout.FineID),
		OrderID:     checkout.OrderID,
		Prefill: map[string]string{
			"name":  checkout.MemberName,
			"email": checkout.MemberEmail,
		},
	})
	if err != nil {
		return "", errors.WithStack(err)
	}

	content := pages.NavBar() + fmt.Sprintf(`<h1>Pay fine #%d</h1>
<p>Amount due: <b>%s %s</b></p>
<button id="pay" class="nav-btn">Pay now</button>
<p id="pay-error" style="color: red;"></p>
<script src="%s"></script>
<script>
var options = %s;
options.handler = function (response) {
  var body = new URLSearchParams({
    razorpay_order_id: response.razorpay_order_id,
    razorpay_payment_id: response.razorpay_payment_id,
    razorpay_signature: response.razorpay_signature,
    fine_id: "%d"
  });
  fetch("/fines/payment-success", { method: "POST", body: body, credentials: "same-origin" })
    .then(function (r) { return r.json(); })
    .then(function (data) {
      if (data.success) { window.location = data.redirect_url; return; }
      document.getElementById("pay-error").textContent = data.error ? data.error.message : "Payment could not be confirmed";
    });
};
document.getElementById("pay").onclick = function (e) {
  e.preventDefault();
  new Razorpay(options).open();
};
</script>`,
		checkout.FineID,
		html.EscapeString(checkout.Amount.StringFixed(2)),
		html.EscapeString(checkout.Currency),
		checkoutScriptURL,
		opts,
		checkout.FineID,
	)

	return pages.RenderPage("Pay fine", content), nil
}

func renderSuccess(amount string) string {
	content := pages.NavBar() + fmt.Sprintf(`<div class="notice">
  <h1>Payment received</h1>
  <p>Thank you. We have recorded your payment of <b>%s</b>.</p>
</div>
<div class="nav"><a href="/fines" class="nav-btn">View my fines</a></div>`, html.EscapeString(amount))

	return pages.RenderPage("Payment received", content)
}
