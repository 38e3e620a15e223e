package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/shelfkeep/pkg/errcodes"
)

const (
	defaultAPIURL  = "https://api.razorpay.com/v1"
	defaultBackoff = 250 * time.Millisecond
)

type RazorpayOptions struct {
	APIURL     string
	KeyID      string
	KeySecret  string
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the delay before the first retry. It doubles on every
	// subsequent attempt.
	Backoff time.Duration
}

// RazorpayClient talks to the Razorpay orders API.
type RazorpayClient struct {
	httpClient *http.Client
	apiURL     string
	keyID      string
	keySecret  string
	maxRetries int
	backoff    time.Duration
}

func NewRazorpayClient(opts RazorpayOptions) *RazorpayClient {
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	return &RazorpayClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		apiURL:     strings.TrimRight(opts.APIURL, "/"),
		keyID:      opts.KeyID,
		keySecret:  opts.KeySecret,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
}

func (rc *RazorpayClient) KeyID() string {
	return rc.keyID
}

type createOrderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type errorBody struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates a remote order. Transport failures, 429s, and 5xx
// responses are retried with exponential backoff. The receipt is sent
// unchanged on every attempt.
func (rc *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(createOrderBody{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return rc.orderWithRetry(ctx, http.MethodPost, "/orders", body)
}

// FetchOrder loads an existing order, including its amount and notes. It
// retries like CreateOrder.
func (rc *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	return rc.orderWithRetry(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
}

func (rc *RazorpayClient) orderWithRetry(ctx context.Context, method, path string, body []byte) (*Order, error) {
	delay := rc.backoff
	var lastErr error
	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.WithStack(ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		order, retry, err := rc.doOrder(ctx, method, path, body)
		if err == nil {
			return order, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return nil, lastErr
}

func (rc *RazorpayClient) doOrder(ctx context.Context, method, path string, body []byte) (*Order, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, rc.apiURL+path, reader)
	if err != nil {
		return nil, false, errors.WithStack(err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.SetBasicAuth(rc.keyID, rc.keySecret)

	resp, err := rc.httpClient.Do(httpReq)
	if err != nil {
		// A cancelled caller is not worth retrying.
		return nil, ctx.Err() == nil, errors.Wrap(err, "order request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to read order response")
	}

	if resp.StatusCode >= 300 {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		eb := errorBody{}
		if json.Unmarshal(data, &eb) == nil {
			gwErr.Code = eb.Error.Code
			gwErr.Description = eb.Error.Description
		}
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, errors.WithStack(gwErr)
	}

	order := &Order{}
	if err := json.Unmarshal(data, order); err != nil {
		return nil, false, errors.Wrap(err, "malformed order response")
	}
	if order.ID == "" {
		return nil, false, errors.New("order response is missing an id")
	}
	return order, false, nil
}

// Signature returns the hex HMAC-SHA256 the gateway attaches to a completed
// payment for the order.
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (rc *RazorpayClient) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	if rc.keySecret == "" || orderID == "" || paymentID == "" || signature == "" {
		return errcodes.SignatureInvalid()
	}
	expected := Signature(rc.keySecret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return errcodes.SignatureInvalid()
	}
	return nil
}
