package config

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/shelfkeep/pkg/version"
)

type handler struct {
	config *Config
}

// PublicSettings is the subset of configuration that is safe to show to
// administrators. Secrets are reported only as present or absent.
type PublicSettings struct {
	Version              string   `json:"version"`
	Environment          string   `json:"environment"`
	PaymentCurrency      string   `json:"payment_currency"`
	RazorpayKeyID        string   `json:"razorpay_key_id"`
	RazorpaySecretLoaded bool     `json:"razorpay_secret_loaded"`
	KafkaBrokers         []string `json:"kafka_brokers"`
	KafkaPaymentsTopic   string   `json:"kafka_payments_topic"`
}

func (h *handler) retrieve(c echo.Context) error {
	brokers := h.config.KafkaBrokers
	if brokers == nil {
		brokers = []string{}
	}
	settings := PublicSettings{
		Version:              version.Version,
		Environment:          h.config.Environment,
		PaymentCurrency:      h.config.PaymentCurrency,
		RazorpayKeyID:        h.config.RazorpayKeyID,
		RazorpaySecretLoaded: h.config.RazorpayKeySecret != "",
		KafkaBrokers:         brokers,
		KafkaPaymentsTopic:   h.config.KafkaPaymentsTopic,
	}
	return errors.WithStack(c.JSON(http.StatusOK, settings))
}
