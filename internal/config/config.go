package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"motoka/internal/entity"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App      App      `yaml:"app"      env-prefix:"APP_"`
		Logger   Logger   `yaml:"logger"   env-prefix:"LOGGER_"`
		Postgres Postgres `yaml:"postgres" env-prefix:"DB_"`
		HTTP     HTTP     `yaml:"http"     env-prefix:"HTTP_"`
		Cache    Cache    `yaml:"cache"    env-prefix:"CACHE_"`
		Kafka    Kafka    `yaml:"kafka"    env-prefix:"KAFKA_"`
		DLQ      DLQ      `yaml:"dlq"      env-prefix:"DLQ_"`
		Metrics  Metrics  `yaml:"metrics"  env-prefix:"METRICS_"`
		Redis    Redis    `yaml:"redis"    env-prefix:"REDIS_"`
		Auth     Auth     `yaml:"auth"     env-prefix:"AUTH_"`
		Payment  Payment  `yaml:"payment"  env-prefix:"PAYMENT_"`
		Gateways Gateways `yaml:"gateways" env-prefix:"GATEWAY_"`
		Sweep    Sweep    `yaml:"sweep"    env-prefix:"SWEEP_"`
		Tracing  Tracing  `yaml:"tracing"  env-prefix:"TRACING_"`
		Env      string   `yaml:"env"      env:"ENV" env-default:"local" validate:"oneof=local dev staging prod"`
	}

	App struct {
		Name    string `yaml:"name"    env:"NAME"    validate:"required"`
		Version string `yaml:"version" env:"VERSION" validate:"required"`
	}

	Postgres struct {
		Host           string        `yaml:"host"             env:"HOST"             validate:"required"`
		Port           string        `yaml:"port"             env:"PORT"             validate:"required"`
		Name           string        `yaml:"name"             env:"NAME"             validate:"required"`
		User           string        `yaml:"user"             env:"USER"             validate:"required"`
		Password       string        `yaml:"password"         env:"PASSWORD"         validate:"required"`
		SSLMode        string        `yaml:"ssl_mode"         env:"SSL_MODE"         validate:"required"`
		PoolMax        int32         `yaml:"pool_max"         env:"POOL_MAX"         validate:"min=1,max=100"                             env-default:"20"`
		ConnAttempts   int           `yaml:"conn_attempts"    env:"CONN_ATTEMPTS"    validate:"min=1,max=10"                              env-default:"5"`
		BaseRetryDelay time.Duration `yaml:"base_retry_delay" env:"BASE_RETRY_DELAY" validate:"gte=10ms,lte=10s"                          env-default:"100ms"`
		MaxRetryDelay  time.Duration `yaml:"max_retry_delay"  env:"MAX_RETRY_DELAY"  validate:"gte=100ms,lte=30s,gtefield=BaseRetryDelay" env-default:"5s"`
	}

	HTTP struct {
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"         env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required"         env-default:"8080"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gte=10ms,lte=60s" env-default:"5s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gte=10ms,lte=60s" env-default:"40s"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"IDLE_TIMEOUT"        validate:"gte=10ms,lte=120s" env-default:"60s"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SHUTDOWN_TIMEOUT"    validate:"gte=10ms,lte=30s" env-default:"10s"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s" env-default:"5s"`
	}

	Cache struct {
		Capacity        int           `yaml:"capacity"         env:"CAPACITY"         validate:"required,min=1,max=1000000" env-default:"512"`
		TTL             time.Duration `yaml:"ttl"              env:"TTL"              validate:"required,gt=0s,lte=24h"     env-default:"5m"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL" validate:"gt=0s,lte=24h"              env-default:"1m"`
	}

	Kafka struct {
		Brokers      []string      `yaml:"brokers"       env:"BROKERS"       validate:"min=1,dive,hostname_port" env-separator:","`
		Topic        string        `yaml:"topic"         env:"TOPIC"         validate:"required"                 env-default:"payment.completed"`
		WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" validate:"gte=1ms,lte=30s"          env-default:"5s"`
	}

	DLQ struct {
		GroupID       string        `yaml:"group_id"        env:"GROUP_ID"        validate:"required"`
		Brokers       []string      `yaml:"brokers"         env:"BROKERS"         validate:"min=1,dive,hostname_port" env-separator:","`
		Topic         string        `yaml:"topic"           env:"TOPIC"           validate:"required"`
		BatchSize     int           `yaml:"batch_size"      env:"BATCH_SIZE"      validate:"required,min=1,max=1000"  env-default:"100"`
		BatchTimeout  time.Duration `yaml:"batch_timeout"   env:"BATCH_TIMEOUT"   validate:"required,gte=1ms,lte=30s" env-default:"1s"`
		WriteTimeout  time.Duration `yaml:"write_timeout"   env:"WRITE_TIMEOUT"   validate:"required,gte=1ms,lte=30s" env-default:"2s"`
		ReadTimeout   time.Duration `yaml:"read_timeout"    env:"READ_TIMEOUT"    validate:"required,gte=1ms,lte=30s" env-default:"2s"`
		MaxRetryCount int           `yaml:"max_retry_count" env:"MAX_RETRY_COUNT" validate:"min=1,max=20"             env-default:"5"`
		RetryDelay    time.Duration `yaml:"retry_delay"     env:"RETRY_DELAY"     validate:"gte=10ms,lte=30s"         env-default:"100ms"`
	}

	Metrics struct {
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"         env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required"         env-default:"9090"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gte=10ms,lte=30s" env-default:"5s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gte=10ms,lte=30s" env-default:"5s"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s" env-default:"5s"`
	}

	Logger struct {
		Level      string `yaml:"level"       env:"LEVEL"       env-default:"info"                       validate:"oneof=debug info warn error"`
		Filename   string `yaml:"filename"    env:"FILENAME"    env-default:"./logs/payment-service.log"`
		MaxSize    int    `yaml:"max_size"    env:"MAX_SIZE"    env-default:"100"                        validate:"min=1,max=1000"`
		MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" env-default:"3"                          validate:"min=1,max=20"`
		MaxAge     int    `yaml:"max_age"     env:"MAX_AGE"     env-default:"28"                         validate:"min=1,max=365"`
	}

	Redis struct {
		Addr     string `yaml:"addr"     env:"ADDR"     validate:"required,hostname_port" env-default:"localhost:6379"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db"       env:"DB"       validate:"gte=0,lte=15"            env-default:"0"`
	}

	Auth struct {
		JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" validate:"required,min=16"`
		Issuer    string `yaml:"issuer"     env:"ISSUER"`
	}

	Payment struct {
		Currency        string `yaml:"currency"          env:"CURRENCY"          validate:"required,len=3" env-default:"NGN"`
		DefaultGateway  string `yaml:"default_gateway"   env:"DEFAULT_GATEWAY"   validate:"required"       env-default:"paystack"`
		CallbackBaseURL string `yaml:"callback_base_url" env:"CALLBACK_BASE_URL" validate:"required,url"`
		MaxLicenseYears int    `yaml:"max_license_years" env:"MAX_LICENSE_YEARS" validate:"min=1,max=10"   env-default:"5"`
	}

	Gateways struct {
		Paystack   Paystack   `yaml:"paystack"   env-prefix:"PAYSTACK_"`
		Monicredit Monicredit `yaml:"monicredit" env-prefix:"MONICREDIT_"`
	}

	// Paystack signs webhooks with the secret key itself.
	Paystack struct {
		Enabled   bool          `yaml:"enabled"    env:"ENABLED"    env-default:"true"`
		BaseURL   string        `yaml:"base_url"   env:"BASE_URL"   validate:"required_if=Enabled true,omitempty,url" env-default:"https://api.paystack.co"`
		SecretKey string        `yaml:"secret_key" env:"SECRET_KEY" validate:"required_if=Enabled true"`
		PublicKey string        `yaml:"public_key" env:"PUBLIC_KEY"`
		Timeout   time.Duration `yaml:"timeout"    env:"TIMEOUT"    validate:"gte=1s,lte=60s"                         env-default:"30s"`
	}

	Monicredit struct {
		Enabled       bool          `yaml:"enabled"        env:"ENABLED"        env-default:"false"`
		BaseURL       string        `yaml:"base_url"       env:"BASE_URL"       validate:"required_if=Enabled true,omitempty,url" env-default:"https://live.backend.monicredit.com/api/v1"`
		PublicKey     string        `yaml:"public_key"     env:"PUBLIC_KEY"     validate:"required_if=Enabled true"`
		PrivateKey    string        `yaml:"private_key"    env:"PRIVATE_KEY"    validate:"required_if=Enabled true"`
		WebhookSecret string        `yaml:"webhook_secret" env:"WEBHOOK_SECRET" validate:"required_if=Enabled true"`
		RevenueHead   string        `yaml:"revenue_head"   env:"REVENUE_HEAD"`
		Timeout       time.Duration `yaml:"timeout"        env:"TIMEOUT"        validate:"gte=1s,lte=60s"                         env-default:"30s"`
	}

	Sweep struct {
		Enabled     bool          `yaml:"enabled"      env:"ENABLED"      env-default:"true"`
		Interval    time.Duration `yaml:"interval"     env:"INTERVAL"     validate:"gte=10s,lte=1h"    env-default:"5m"`
		Window      time.Duration `yaml:"window"       env:"WINDOW"       validate:"gte=1m,lte=720h"   env-default:"48h"`
		BatchSize   int           `yaml:"batch_size"   env:"BATCH_SIZE"   validate:"min=1,max=5000"    env-default:"200"`
		Concurrency int           `yaml:"concurrency"  env:"CONCURRENCY"  validate:"min=1,max=64"      env-default:"4"`
		CallTimeout time.Duration `yaml:"call_timeout" env:"CALL_TIMEOUT" validate:"gte=1s,lte=2m"     env-default:"30s"`
		LockTTL     time.Duration `yaml:"lock_ttl"     env:"LOCK_TTL"     validate:"gte=10s,lte=2h"    env-default:"30m"`
		LockKey     string        `yaml:"lock_key"     env:"LOCK_KEY"     validate:"required"          env-default:"motoka:payments:sweep"`
	}

	Tracing struct {
		Enabled     bool    `yaml:"enabled"      env:"ENABLED"      env-default:"false"`
		Endpoint    string  `yaml:"endpoint"     env:"ENDPOINT"     validate:"required_if=Enabled true" env-default:"localhost:4317"`
		SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO" validate:"gte=0,lte=1"              env-default:"0.1"`
	}
)

func Load() (*Config, error) {
	path := fetchConfigPath()
	if path == "" {
		return nil, entity.ErrConfigPathNotSet
	}
	return LoadPath(path)
}

func LoadPath(configPath string) (*Config, error) {
	const op = "config.LoadPath"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	} else if err != nil {
		return nil, fmt.Errorf("%s: checking config file: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: read config: %w", op, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			messages := make([]string, 0, len(validationErrs))
			for _, ve := range validationErrs {
				messages = append(messages,
					fmt.Sprintf("%s=%v must satisfy '%s'", ve.Namespace(), ve.Value(), ve.Tag()))
			}
			return fmt.Errorf("config validation: %s", strings.Join(messages, "; "))
		}
		return fmt.Errorf("config validation: %w", err)
	}

	if !cfg.Gateways.Paystack.Enabled && !cfg.Gateways.Monicredit.Enabled {
		return errors.New("config validation: at least one payment gateway must be enabled")
	}
	if !cfg.gatewayEnabled(cfg.Payment.DefaultGateway) {
		return fmt.Errorf("config validation: default gateway %q is not enabled", cfg.Payment.DefaultGateway)
	}
	if worst := cfg.Sweep.WorstCaseRun(); cfg.Sweep.LockTTL < worst {
		return fmt.Errorf("config validation: sweep lock_ttl %s is shorter than a worst-case run of %s",
			cfg.Sweep.LockTTL, worst)
	}

	return nil
}

func (c *Config) gatewayEnabled(name string) bool {
	switch name {
	case "paystack":
		return c.Gateways.Paystack.Enabled
	case "monicredit":
		return c.Gateways.Monicredit.Enabled
	default:
		return false
	}
}

// WorstCaseRun is how long a sweep takes when every gateway call in a full
// batch runs to CallTimeout. The sweep lock must outlive it.
func (s Sweep) WorstCaseRun() time.Duration {
	waves := (s.BatchSize + s.Concurrency - 1) / s.Concurrency
	return time.Duration(waves) * s.CallTimeout
}

func fetchConfigPath() string {
	var path string
	flag.StringVar(&path, "config", "", "Path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}
