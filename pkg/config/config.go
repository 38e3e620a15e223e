package config

import (
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/shelfkeep.yaml"
)

// Config holds every runtime setting. Values are resolved from struct
// defaults, then the YAML file at CONFIG_FILE, then environment variables
// named after the upper snake case of each key.
type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`

	Environment string `koanf:"environment" default:"development"`
	JWTSecret   string `koanf:"jwt_secret" required:"true"`
	MediaDir    string `koanf:"media_dir" default:"./media"`
	ServerHost  string `koanf:"server_host" default:"0.0.0.0"`
	ServerPort  int    `koanf:"server_port" default:"8000"`

	// Payment gateway. The key id is public and handed to the checkout
	// widget; the secret signs orders and verifies callbacks.
	RazorpayKeyID     string        `koanf:"razorpay_key_id"`
	RazorpayKeySecret string        `koanf:"razorpay_key_secret"`
	RazorpayAPIURL    string        `koanf:"razorpay_api_url" default:"https://api.razorpay.com/v1"`
	PaymentCurrency   string        `koanf:"payment_currency" default:"INR"`
	GatewayTimeout    time.Duration `koanf:"gateway_timeout" default:"10s"`
	GatewayMaxRetries int           `koanf:"gateway_max_retries" default:"3"`

	KafkaBrokers       []string `koanf:"kafka_brokers"`
	KafkaPaymentsTopic string   `koanf:"kafka_payments_topic" default:"shelfkeep.fine-payments"`

	AuthRateLimit    float64 `koanf:"auth_rate_limit" default:"5"`
	PaymentRateLimit float64 `koanf:"payment_rate_limit" default:"10"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	known := knownKeys()
	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		name := strings.ToLower(key)
		if !known[name] || value == "" {
			return "", nil
		}
		if name == "kafka_brokers" {
			return name, strings.Split(value, ",")
		}
		return name, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config backed by an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = "test"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.RazorpayKeyID = "rzp_test_key"
	cfg.RazorpayKeySecret = "rzp_test_secret"
	return cfg
}

// IsTest reports whether the process runs in the test environment.
func (cfg *Config) IsTest() bool {
	return cfg.Environment == "test"
}

func knownKeys() map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[t.Field(i).Tag.Get("koanf")] = true
	}
	return keys
}

func validateRequired(cfg *Config) error {
	var missing []string
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" || !v.Field(i).IsZero() {
			continue
		}
		key := toSnakeCase(field.Name)
		missing = append(missing, strings.ToUpper(key)+" ("+key+")")
	}
	if len(missing) > 0 {
		return errors.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
