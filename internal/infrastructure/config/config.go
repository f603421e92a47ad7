package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/checkout"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Worker        WorkerConfig        `mapstructure:"worker"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Auth          AuthConfig          `mapstructure:"auth"`
	InstanceID    string              `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SSLMode         string        `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

// PaymentConfig tunes the reconciliation engine and the gateway client.
type PaymentConfig struct {
	GracePeriod             time.Duration `mapstructure:"grace_period"`
	ClaimTTL                time.Duration `mapstructure:"claim_ttl"`
	MaxRetries              int           `mapstructure:"max_retries"`
	RetryDelay              time.Duration `mapstructure:"retry_delay"`
	CircuitBreakerThreshold int           `mapstructure:"circuit_breaker_threshold"`
	CircuitBreakerTimeout   time.Duration `mapstructure:"circuit_breaker_timeout"`
	ContinuationMaxAttempts int           `mapstructure:"continuation_max_attempts"`
}

type WorkerConfig struct {
	BatchSize          int64         `mapstructure:"batch_size"`
	BlockDuration      time.Duration `mapstructure:"block_duration"`
	OutboxPollInterval time.Duration `mapstructure:"outbox_poll_interval"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
	WebhookEventTTL    time.Duration `mapstructure:"webhook_event_ttl"`
}

// StripeConfig holds the processor credentials and checkout settings per sales channel.
type StripeConfig struct {
	DefaultChannel   string                   `mapstructure:"default_channel"`
	WebhookTolerance time.Duration            `mapstructure:"webhook_tolerance"`
	PlatformName     string                   `mapstructure:"platform_name"`
	Channels         map[string]ChannelConfig `mapstructure:"channels"`
}

type ChannelConfig struct {
	SecretKey                 string `mapstructure:"secret_key"`
	WebhookSecret             string `mapstructure:"webhook_secret"`
	SendReceiptEmail          bool   `mapstructure:"send_receipt_email"`
	AllowMOTO                 bool   `mapstructure:"allow_moto"`
	StatementDescriptorPrefix string `mapstructure:"statement_descriptor_prefix"`
	StatementDescriptorSuffix string `mapstructure:"statement_descriptor_suffix"`
	ShopName                  string `mapstructure:"shop_name"`
	ReturnURLTemplate         string `mapstructure:"return_url_template"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CHECKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/checkout")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive"))
	}
	if c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}
	if c.Payment.GracePeriod <= 0 {
		errs = append(errs, fmt.Errorf("payment.grace_period must be positive"))
	}
	if c.Payment.ClaimTTL <= 0 {
		errs = append(errs, fmt.Errorf("payment.claim_ttl must be positive"))
	}
	if c.Payment.ContinuationMaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("payment.continuation_max_attempts must be positive"))
	}
	if c.Worker.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("worker.batch_size must be positive"))
	}
	errs = append(errs, c.Stripe.validate()...)

	env := os.Getenv("ENV")
	if env == "production" || env == "prod" {
		if c.Database.Password == "" {
			errs = append(errs, fmt.Errorf("database.password required in production"))
		}
		if c.Auth.JWTSecret == "" {
			errs = append(errs, fmt.Errorf("auth.jwt_secret required in production"))
		}
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 32 characters"))
	}

	return errors.Join(errs...)
}

func (s *StripeConfig) validate() []error {
	var errs []error
	if s.DefaultChannel == "" {
		errs = append(errs, fmt.Errorf("stripe.default_channel is required"))
	}
	for id, ch := range s.Channels {
		if ch.SecretKey == "" {
			errs = append(errs, fmt.Errorf("stripe.channels.%s.secret_key is required", id))
		}
		if ch.WebhookSecret == "" {
			errs = append(errs, fmt.Errorf("stripe.channels.%s.webhook_secret is required", id))
		}
	}
	return errs
}

// ChannelSettings resolves the checkout settings of one sales channel.
func (s *StripeConfig) ChannelSettings(channelID string) (checkout.ChannelSettings, error) {
	ch, ok := s.Channels[channelID]
	if !ok {
		return checkout.ChannelSettings{}, fmt.Errorf("channel %q: %w", channelID, domainErrors.ErrChannelNotConfigured)
	}
	return checkout.ChannelSettings{
		ChannelID:                 channelID,
		SecretKey:                 ch.SecretKey,
		WebhookSecret:             ch.WebhookSecret,
		SendReceiptEmail:          ch.SendReceiptEmail,
		AllowMOTO:                 ch.AllowMOTO,
		StatementDescriptorPrefix: ch.StatementDescriptorPrefix,
		StatementDescriptorSuffix: ch.StatementDescriptorSuffix,
		ShopName:                  ch.ShopName,
		ReturnURLTemplate:         ch.ReturnURLTemplate,
	}, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "checkout")
	v.SetDefault("database.database", "checkout")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Worker defaults
	v.SetDefault("worker.batch_size", 10)
	v.SetDefault("worker.block_duration", "1s")
	v.SetDefault("worker.outbox_poll_interval", "1s")
	v.SetDefault("worker.consumer_group", "reconcilers")
	v.SetDefault("worker.cleanup_interval", "1h")
	v.SetDefault("worker.webhook_event_ttl", "720h")

	// Payment defaults
	v.SetDefault("payment.grace_period", "5s")
	v.SetDefault("payment.claim_ttl", "30s")
	v.SetDefault("payment.max_retries", 3)
	v.SetDefault("payment.retry_delay", "200ms")
	v.SetDefault("payment.circuit_breaker_threshold", 10)
	v.SetDefault("payment.circuit_breaker_timeout", "30s")
	v.SetDefault("payment.continuation_max_attempts", 5)

	// Stripe defaults
	v.SetDefault("stripe.default_channel", "default")
	v.SetDefault("stripe.webhook_tolerance", "5m")
	v.SetDefault("stripe.platform_name", "checkout")

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", true)

	v.SetDefault("instance_id", "checkout-1")
}

func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DatabaseURL is the DSN in URL form, as golang-migrate expects it.
func (c *DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
