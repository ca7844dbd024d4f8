package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Ledger       LedgerConfig
	Report       ReportConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Report.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"LEDGER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEDGER_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"LEDGER_LOG_FORMAT" default:"json"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"LEDGER_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"LEDGER_DB_DRIVER" default:"memory"`
	DSN    string `envconfig:"LEDGER_DB_DSN"`

	LegacyHost     string `envconfig:"LEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"LEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEDGER_DB_USER"`
	LegacyPassword string `envconfig:"LEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQueryThreshold logs statements slower than this; zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"LEDGER_DB_SLOW_QUERY" default:"200ms"`
}

// UsesMemory reports whether the ledger runs without a database.
func (db DBConfig) UsesMemory() bool {
	return db.normalizedDriver() == DBDriverMemory
}

func (db DBConfig) normalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	if driver == "" {
		return DBDriverMemory
	}
	return driver
}

type RedisConfig struct {
	URL          string        `envconfig:"LEDGER_REDIS_URL"`
	Address      string        `envconfig:"LEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"LEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
	// KeyPrefix namespaces every key this service writes.
	KeyPrefix string `envconfig:"LEDGER_REDIS_KEY_PREFIX" default:"ledger"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type LedgerConfig struct {
	TrackStock bool  `envconfig:"LEDGER_TRACK_STOCK" default:"true"`
	SeedDemo   bool  `envconfig:"LEDGER_SEED_DEMO" default:"true"`
	SeedRandom int64 `envconfig:"LEDGER_SEED_RANDOM" default:"0"`
	NodeID     int64 `envconfig:"LEDGER_NODE_ID" default:"1"`
}

type ReportConfig struct {
	Locale string `envconfig:"LEDGER_REPORT_LOCALE" default:"en"`
	Mode   string `envconfig:"LEDGER_REPORT_MODE" default:"plain"`
}

// Quoted reports whether exports escape fields per RFC 4180.
func (r ReportConfig) Quoted() bool {
	return strings.EqualFold(strings.TrimSpace(r.Mode), ReportModeQuoted)
}

func (r ReportConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(r.Mode)) {
	case "", ReportModePlain, ReportModeQuoted:
		return nil
	default:
		return fmt.Errorf("%s must be %s or %s, got %q", EnvReportMode, ReportModePlain, ReportModeQuoted, r.Mode)
	}
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEDGER_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	driver := db.normalizedDriver()
	db.Driver = driver

	switch driver {
	case DBDriverMemory:
		return nil
	case DBDriverSQLite:
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	case DBDriverPostgres:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, db.Driver)
	}

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
