package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig prefix shared by every service binary.
const EnvPrefix = "clinicdesk"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, tooling).
const (
	EnvAppEnv            = "CLINICDESK_APP_ENV"
	EnvPort              = "CLINICDESK_APP_PORT"
	EnvDBDSN             = "CLINICDESK_DB_DSN"
	EnvDBHost            = "CLINICDESK_DB_HOST"
	EnvDBUser            = "CLINICDESK_DB_USER"
	EnvDBName            = "CLINICDESK_DB_NAME"
	EnvRedisURL          = "CLINICDESK_REDIS_URL"
	EnvJWTSecret         = "CLINICDESK_JWT_SECRET"
	EnvJWTIssuer         = "CLINICDESK_JWT_ISSUER"
	EnvJWTExpMins        = "CLINICDESK_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID      = "CLINICDESK_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "CLINICDESK_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub   = "CLINICDESK_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Ledger       LedgerConfig
	Cron         CronConfig
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
	Env          string `envconfig:"CLINICDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"CLINICDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CLINICDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLINICDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CLINICDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CLINICDESK_DB_DSN"`
	Driver string `envconfig:"CLINICDESK_DB_DRIVER" default:"postgres"`

	// ElevatedDSN connects with the service role that bypasses row-level
	// security. Only the ledger writer's last-resort strategy uses it.
	ElevatedDSN string `envconfig:"CLINICDESK_DB_ELEVATED_DSN"`

	LegacyHost     string `envconfig:"CLINICDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"CLINICDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLINICDESK_DB_USER"`
	LegacyPassword string `envconfig:"CLINICDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLINICDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLINICDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLINICDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLINICDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLINICDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLINICDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLINICDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLINICDESK_REDIS_ADDR"`
	Password     string        `envconfig:"CLINICDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLINICDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLINICDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLINICDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLINICDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLINICDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLINICDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CLINICDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CLINICDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CLINICDESK_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CLINICDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CLINICDESK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CLINICDESK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CLINICDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CLINICDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"CLINICDESK_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription       string `envconfig:"CLINICDESK_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"CLINICDESK_PUBSUB_NOTIFICATION_TOPIC" default:"cd-notification-events"`
	NotificationSubscription string `envconfig:"CLINICDESK_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CLINICDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CLINICDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CLINICDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type LedgerConfig struct {
	// MaxWritePasses caps end-to-end writer retries after a failed
	// persistence verification.
	MaxWritePasses int `envconfig:"CLINICDESK_LEDGER_MAX_WRITE_PASSES" default:"2"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CLINICDESK_CRON_INTERVAL" default:"24h"`
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
