package config

const (
	EnvPrefix = "LEDGER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverMemory   = "memory"
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"

	ReportModePlain  = "plain"
	ReportModeQuoted = "quoted"

	EnvAppEnv       = "LEDGER_APP_ENV"
	EnvPort         = "LEDGER_APP_PORT"
	EnvLogLevel     = "LEDGER_LOG_LEVEL"
	EnvDBDriver     = "LEDGER_DB_DRIVER"
	EnvDBDSN        = "LEDGER_DB_DSN"
	EnvDBHost       = "LEDGER_DB_HOST"
	EnvDBUser       = "LEDGER_DB_USER"
	EnvDBName       = "LEDGER_DB_NAME"
	EnvRedisURL     = "LEDGER_REDIS_URL"
	EnvTrackStock   = "LEDGER_TRACK_STOCK"
	EnvSeedDemo     = "LEDGER_SEED_DEMO"
	EnvReportLocale = "LEDGER_REPORT_LOCALE"
	EnvReportMode   = "LEDGER_REPORT_MODE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const defaultSQLiteDSN = "file:ledger.db?cache=shared"
