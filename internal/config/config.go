package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string `validate:"oneof=dev prod"`
	Port        string `validate:"required,numeric"`
	StoreDriver string `validate:"oneof=mysql mongo"`
	Database    DatabaseConfig
	Mongo       MongoConfig
	JWT         JWTConfig
	Stripe      StripeConfig
	Payment     PaymentConfig
	Kafka       KafkaConfig
	Audit       AuditConfig

	ClientURL       string   `validate:"required,url"`
	SeedAdminEmails []string `validate:"dive,email"`
	AllowedOrigins  string
	TrustedProxies  []string `validate:"dive,ip|cidr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASS"`
	DBName   string `env:"DB_NAME" envDefault:"microloan"`
}

// MongoConfig holds the document store connection
type MongoConfig struct {
	URI          string
	Database     string
	Transactions bool
}

// JWTConfig holds identity token verification settings
type JWTConfig struct {
	Secret string `validate:"required"`
	Issuer string
}

// StripeConfig holds payment provider credentials
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// PaymentConfig holds the application fee
type PaymentConfig struct {
	Fee      decimal.Decimal
	Currency string `validate:"len=3"`
}

// KafkaConfig holds notification broker settings; no brokers disables publishing
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AuditConfig holds the drift audit schedule
type AuditConfig struct {
	Schedule string `validate:"required"`
}

// sharedEnv holds variables that are the same in every mode
type sharedEnv struct {
	AppMode             string          `env:"APP_MODE" envDefault:"dev"`
	Port                string          `env:"PORT" envDefault:"3000"`
	StoreDriver         string          `env:"STORE_DRIVER" envDefault:"mysql"`
	MongoDB             string          `env:"MONGO_DB" envDefault:"microloan"`
	MongoTransactions   bool            `env:"MONGO_TRANSACTIONS" envDefault:"false"`
	JWTIssuer           string          `env:"JWT_ISSUER"`
	StripeSecretKey     string          `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string          `env:"STRIPE_WEBHOOK_SECRET"`
	ClientURL           string          `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	ApplicationFee      decimal.Decimal `env:"APPLICATION_FEE" envDefault:"10.00"`
	FeeCurrency         string          `env:"FEE_CURRENCY" envDefault:"usd"`
	KafkaBrokers        []string        `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic          string          `env:"KAFKA_TOPIC" envDefault:"loan-application-events"`
	AuditSchedule       string          `env:"AUDIT_SCHEDULE" envDefault:"@every 30m"`
	SeedAdminEmails     []string        `env:"SEED_ADMIN_EMAILS" envSeparator:","`
	AllowedOrigins      string          `env:"ALLOWED_ORIGINS"`
	TrustedProxies      []string        `env:"TRUSTED_PROXIES" envSeparator:","`
}

// modeEnv holds variables read with the DEV_ or PROD_ prefix
type modeEnv struct {
	Database  DatabaseConfig
	MongoURI  string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	JWTSecret string `env:"JWT_SECRET"`
}

// Load reads configuration from .env file and environment variables
func Load(log *zap.Logger) (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using environment variables")
	}
	return FromEnvironment(nil)
}

// FromEnvironment builds the config from the process environment, or from
// vars when it is non-nil.
func FromEnvironment(vars map[string]string) (*Config, error) {
	opts := env.Options{Environment: vars}

	var shared sharedEnv
	if err := env.ParseWithOptions(&shared, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	appMode := strings.TrimSpace(shared.AppMode)

	opts.Prefix = modePrefix(appMode)
	var scoped modeEnv
	if err := env.ParseWithOptions(&scoped, opts); err != nil {
		return nil, fmt.Errorf("parse %s environment: %w", opts.Prefix, err)
	}

	cfg := &Config{
		AppMode:     appMode,
		Port:        shared.Port,
		StoreDriver: strings.ToLower(shared.StoreDriver),
		Database:    scoped.Database,
		Mongo: MongoConfig{
			URI:          scoped.MongoURI,
			Database:     shared.MongoDB,
			Transactions: shared.MongoTransactions,
		},
		JWT:    JWTConfig{Secret: scoped.JWTSecret, Issuer: shared.JWTIssuer},
		Stripe: StripeConfig{SecretKey: shared.StripeSecretKey, WebhookSecret: shared.StripeWebhookSecret},
		Payment: PaymentConfig{
			Fee:      shared.ApplicationFee,
			Currency: strings.ToLower(shared.FeeCurrency),
		},
		Kafka:           KafkaConfig{Brokers: shared.KafkaBrokers, Topic: shared.KafkaTopic},
		Audit:           AuditConfig{Schedule: shared.AuditSchedule},
		ClientURL:       strings.TrimRight(shared.ClientURL, "/"),
		SeedAdminEmails: normalizeEmails(shared.SeedAdminEmails),
		AllowedOrigins:  shared.AllowedOrigins,
		TrustedProxies:  shared.TrustedProxies,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.Payment.Fee.IsPositive() {
		return nil, fmt.Errorf("invalid configuration: APPLICATION_FEE must be positive, got %s", cfg.Payment.Fee)
	}
	return cfg, nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins == "" {
		if c.IsDev() {
			return "*"
		}
		return c.ClientURL
	}
	return c.AllowedOrigins
}

// CheckoutSuccessURL is where the provider sends the payer after paying
func (c *Config) CheckoutSuccessURL() string {
	return c.ClientURL + "/dashboard/payment-success?session_id={CHECKOUT_SESSION_ID}"
}

// CheckoutCancelURL is where the provider sends the payer after cancelling
func (c *Config) CheckoutCancelURL() string {
	return c.ClientURL + "/dashboard/my-loans"
}
