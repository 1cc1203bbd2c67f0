package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "SCHOOLBOOKS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SCHOOLBOOKS_DB_DSN"
	EnvDBHost = "SCHOOLBOOKS_DB_HOST"
	EnvDBUser = "SCHOOLBOOKS_DB_USER"
	EnvDBName = "SCHOOLBOOKS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Ledger    LedgerConfig
	Features  FeatureFlagsConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Outbox    OutboxConfig
	Cron      CronConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SCHOOLBOOKS_APP_ENV" required:"true"`
	Port         string `envconfig:"SCHOOLBOOKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCHOOLBOOKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCHOOLBOOKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SCHOOLBOOKS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SCHOOLBOOKS_DB_DSN"`
	Driver string `envconfig:"SCHOOLBOOKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCHOOLBOOKS_DB_HOST"`
	LegacyPort     int    `envconfig:"SCHOOLBOOKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCHOOLBOOKS_DB_USER"`
	LegacyPassword string `envconfig:"SCHOOLBOOKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCHOOLBOOKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCHOOLBOOKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCHOOLBOOKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCHOOLBOOKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCHOOLBOOKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCHOOLBOOKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCHOOLBOOKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCHOOLBOOKS_REDIS_ADDR"`
	Password     string        `envconfig:"SCHOOLBOOKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCHOOLBOOKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCHOOLBOOKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCHOOLBOOKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCHOOLBOOKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCHOOLBOOKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCHOOLBOOKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SCHOOLBOOKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SCHOOLBOOKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SCHOOLBOOKS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LedgerConfig carries finance-wide settings the posting engines need.
type LedgerConfig struct {
	// PFClearingAccountID is the internal account that nets provident fund
	// contributions; payroll posts its PF legs against it.
	PFClearingAccountID string `envconfig:"SCHOOLBOOKS_PF_CLEARING_ACCOUNT_ID"`
	// PFRate is the provident fund rate applied to base salary for both the
	// employee and employer sides.
	PFRate string `envconfig:"SCHOOLBOOKS_PF_RATE" default:"0.05"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SCHOOLBOOKS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SCHOOLBOOKS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SCHOOLBOOKS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SCHOOLBOOKS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SCHOOLBOOKS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	FinanceTopic        string `envconfig:"SCHOOLBOOKS_PUBSUB_FINANCE_TOPIC" default:"sb-finance-events"`
	FinanceSubscription string `envconfig:"SCHOOLBOOKS_PUBSUB_FINANCE_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SCHOOLBOOKS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SCHOOLBOOKS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SCHOOLBOOKS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"SCHOOLBOOKS_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SCHOOLBOOKS_CRON_INTERVAL" default:"24h"`
}

// RateLimitConfig bounds how often one collector (or one address) can hit the
// payment endpoints inside a fixed window.
type RateLimitConfig struct {
	PaymentWindow    time.Duration `envconfig:"SCHOOLBOOKS_RATE_LIMIT_PAYMENT_WINDOW" default:"1m"`
	PaymentUserLimit int           `envconfig:"SCHOOLBOOKS_RATE_LIMIT_PAYMENT_USER_LIMIT" default:"30"`
	PaymentIPLimit   int           `envconfig:"SCHOOLBOOKS_RATE_LIMIT_PAYMENT_IP_LIMIT" default:"120"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
