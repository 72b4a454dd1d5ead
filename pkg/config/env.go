package config

const EnvPrefix = "SOLARPO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv           = "SOLARPO_APP_ENV"
	EnvPort             = "SOLARPO_APP_PORT"
	EnvLogLevel         = "SOLARPO_LOG_LEVEL"
	EnvDBDSN            = "SOLARPO_DB_DSN"
	EnvDBHost           = "SOLARPO_DB_HOST"
	EnvDBUser           = "SOLARPO_DB_USER"
	EnvDBName           = "SOLARPO_DB_NAME"
	EnvDBPassword       = "SOLARPO_DB_PASSWORD"
	EnvRedisURL         = "SOLARPO_REDIS_URL"
	EnvUseSQLite        = "SOLARPO_USE_SQLITE"
	EnvStrategy         = "SOLARPO_SUPPLIER_STRATEGY"
	EnvCommissionWeight = "SOLARPO_COMMISSION_WEIGHT"
	EnvMaxLeadTimeDays  = "SOLARPO_MAX_LEAD_TIME_DAYS"
	EnvGSTRate          = "SOLARPO_GST_RATE"
	EnvPOTimeZone       = "SOLARPO_PO_TIMEZONE"
	EnvGCPProjectID     = "SOLARPO_GCP_PROJECT_ID"
	EnvCORSOrigins      = "SOLARPO_CORS_ORIGINS"
	EnvJobReadyStatus   = "SOLARPO_JOB_READY_STATUS"
	EnvJobOrderedStatus = "SOLARPO_JOB_ORDERED_STATUS"
	EnvCronInterval     = "SOLARPO_CRON_INTERVAL"
	EnvCronSweepLimit   = "SOLARPO_CRON_SWEEP_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
