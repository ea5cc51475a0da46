package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Port        string   `env:"PORT" env-default:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" env-default:"http://localhost:5173,http://127.0.0.1:5173"`
	GinMode     string   `env:"GIN_MODE" env-default:"debug"`
}

type PostgresConfig struct {
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            string        `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD" env-default:"postgres"`
	Name            string        `env:"DB_NAME" env-default:"postgres"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	LockTimeout     time.Duration `env:"DB_LOCK_TIMEOUT" env-default:"5s"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" env-default:"true"`
}

// DSN builds the postgres URL understood by pgx. lock_timeout is passed as a
// runtime parameter so every pooled connection carries it.
func (p PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
	if p.LockTimeout > 0 {
		dsn += fmt.Sprintf("&lock_timeout=%d", p.LockTimeout.Milliseconds())
	}
	return dsn
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR"`
	TaxPreview time.Duration `env:"TAX_PREVIEW_TTL" env-default:"30s"`
}

type KafkaConfig struct {
	Brokers    []string `env:"KAFKA_BROKERS"`
	StockTopic string   `env:"KAFKA_STOCK_TOPIC" env-default:"stock.changed"`
	OrderTopic string   `env:"KAFKA_ORDER_TOPIC" env-default:"order.confirmed"`
}

type SequenceConfig struct {
	OrderName      string        `env:"ORDER_NUMBER_SEQUENCE" env-default:"order_number"`
	OrderPrefix    string        `env:"ORDER_NUMBER_PREFIX" env-default:"ORD-"`
	OrderInitial   int64         `env:"ORDER_NUMBER_INITIAL" env-default:"1000"`
	OrderPadding   int           `env:"ORDER_NUMBER_PADDING" env-default:"8"`
	InvoicePadding int           `env:"INVOICE_NUMBER_PADDING" env-default:"4"`
	MaxAttempts    int           `env:"SEQUENCE_MAX_ATTEMPTS" env-default:"3"`
	Backoff        time.Duration `env:"SEQUENCE_RETRY_BACKOFF" env-default:"50ms"`
}

// Config holds the whole process configuration.
type Config struct {
	ServiceName    string `env:"SERVICE_NAME" env-default:"storecore"`
	Env            string `env:"APP_ENV" env-default:"development"`
	LogLevel       string `env:"LOG_LEVEL" env-default:"info"`
	JWTSecret      string `env:"JWT_SECRET"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`

	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Sequence SequenceConfig
}

// Load reads envFile when present, then the process environment.
func Load(envFile string) (*Config, error) {
	// a missing file is fine, the environment alone is enough
	_ = godotenv.Load(envFile)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers)
	if cfg.JWTSecret == "" {
		if cfg.HTTP.GinMode == "release" {
			return nil, fmt.Errorf("JWT_SECRET is required in release mode")
		}
		cfg.JWTSecret = "default_super_secret_key"
	}
	return &cfg, nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
