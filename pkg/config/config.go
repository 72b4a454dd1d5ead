package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Procurement  ProcurementConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Scheduler    SchedulerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Procurement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SOLARPO_APP_ENV" required:"true"`
	Port         string   `envconfig:"SOLARPO_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"SOLARPO_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SOLARPO_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"SOLARPO_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SOLARPO_DB_DSN"`

	LegacyHost     string `envconfig:"SOLARPO_DB_HOST"`
	LegacyPort     int    `envconfig:"SOLARPO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOLARPO_DB_USER"`
	LegacyPassword string `envconfig:"SOLARPO_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOLARPO_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOLARPO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOLARPO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOLARPO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOLARPO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOLARPO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"SOLARPO_DB_SLOW_QUERY" default:"500ms"`
	TxRetries       int           `envconfig:"SOLARPO_DB_TX_RETRIES" default:"3"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOLARPO_REDIS_URL"`
	Address      string        `envconfig:"SOLARPO_REDIS_ADDR"`
	Password     string        `envconfig:"SOLARPO_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOLARPO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOLARPO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOLARPO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOLARPO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOLARPO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOLARPO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool   `envconfig:"SOLARPO_USE_SQLITE" default:"false"`
	SQLitePath  string `envconfig:"SOLARPO_SQLITE_PATH" default:"solarpo.db"`
	AutoMigrate bool   `envconfig:"SOLARPO_AUTO_MIGRATE" default:"false"`
}

// ProcurementConfig carries the material-order generation settings. The selection
// engine never reads it directly; callers convert it into a strategy value.
type ProcurementConfig struct {
	Strategy         string          `envconfig:"SOLARPO_SUPPLIER_STRATEGY" default:"BALANCED"`
	CommissionWeight decimal.Decimal `envconfig:"SOLARPO_COMMISSION_WEIGHT" default:"0.5"`
	MaxLeadTimeDays  int             `envconfig:"SOLARPO_MAX_LEAD_TIME_DAYS" default:"0"`
	GSTRate          decimal.Decimal `envconfig:"SOLARPO_GST_RATE" default:"0.10"`
	ReadyStatus      string          `envconfig:"SOLARPO_JOB_READY_STATUS" default:"READY_TO_SCHEDULE"`
	OrderedStatus    string          `envconfig:"SOLARPO_JOB_ORDERED_STATUS" default:"MATERIALS_ORDERED"`
	POTimeZone       string          `envconfig:"SOLARPO_PO_TIMEZONE" default:"UTC"`
	LockTTL          time.Duration   `envconfig:"SOLARPO_GENERATION_LOCK_TTL" default:"2m"`
}

// MaxLeadTime returns the lead-time ceiling, nil when unset.
func (p ProcurementConfig) MaxLeadTime() *int {
	if p.MaxLeadTimeDays <= 0 {
		return nil
	}
	days := p.MaxLeadTimeDays
	return &days
}

// Location resolves the time zone PO numbers are scoped in.
func (p ProcurementConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(p.POTimeZone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading po timezone %q: %w", name, err)
	}
	return loc, nil
}

func (p ProcurementConfig) validate() error {
	if p.CommissionWeight.IsNegative() || p.CommissionWeight.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1", EnvCommissionWeight)
	}
	if p.GSTRate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvGSTRate)
	}
	if _, err := p.Location(); err != nil {
		return err
	}
	return nil
}

type GCPConfig struct {
	ProjectID string `envconfig:"SOLARPO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	MaterialOrdersTopic string `envconfig:"SOLARPO_PUBSUB_MATERIAL_ORDERS_TOPIC" default:"material-order-events"`
	// CreateTopics creates missing topics at startup. Meant for the emulator.
	CreateTopics bool `envconfig:"SOLARPO_PUBSUB_CREATE_TOPICS" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SOLARPO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SOLARPO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SOLARPO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// SchedulerConfig drives the cron worker.
type SchedulerConfig struct {
	Interval            time.Duration `envconfig:"SOLARPO_CRON_INTERVAL" default:"15m"`
	LockTTL             time.Duration `envconfig:"SOLARPO_CRON_LOCK_TTL" default:"30m"`
	JobTimeout          time.Duration `envconfig:"SOLARPO_CRON_JOB_TIMEOUT" default:"10m"`
	SweepLimit          int           `envconfig:"SOLARPO_CRON_SWEEP_LIMIT" default:"100"`
	OutboxRetentionDays int           `envconfig:"SOLARPO_OUTBOX_RETENTION_DAYS" default:"30"`
	MetricsPort         string        `envconfig:"SOLARPO_CRON_METRICS_PORT" default:"9091"`
	// RunOnce runs a single cycle and exits, for an external trigger such as
	// Cloud Scheduler invoking a job.
	RunOnce bool `envconfig:"SOLARPO_CRON_RUN_ONCE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
