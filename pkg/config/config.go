package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "bloodlink"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BLOODLINK_DB_DSN"
	EnvDBHost = "BLOODLINK_DB_HOST"
	EnvDBUser = "BLOODLINK_DB_USER"
	EnvDBName = "BLOODLINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Requests      RequestTTLConfig
	Geofence      GeofenceConfig
	Certificates  CertificatesConfig
	Cron          CronConfig
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
	Env          string `envconfig:"BLOODLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"BLOODLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BLOODLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BLOODLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BLOODLINK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BLOODLINK_DB_DSN"`
	Driver string `envconfig:"BLOODLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BLOODLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"BLOODLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BLOODLINK_DB_USER"`
	LegacyPassword string `envconfig:"BLOODLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BLOODLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BLOODLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BLOODLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BLOODLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BLOODLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BLOODLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BLOODLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BLOODLINK_REDIS_ADDR"`
	Password     string        `envconfig:"BLOODLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BLOODLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BLOODLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLOODLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLOODLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLOODLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLOODLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BLOODLINK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BLOODLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BLOODLINK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BLOODLINK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BLOODLINK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BLOODLINK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BLOODLINK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BLOODLINK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BLOODLINK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BLOODLINK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"BLOODLINK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BLOODLINK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BLOODLINK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BLOODLINK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BLOODLINK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BLOODLINK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BLOODLINK_AUTO_MIGRATE" default:"false"`
}

// RequestTTLConfig controls how long a blood request stays open before the
// expiry sweeper closes it.
type RequestTTLConfig struct {
	StandardTTL  time.Duration `envconfig:"BLOODLINK_REQUEST_TTL" default:"24h"`
	EmergencyTTL time.Duration `envconfig:"BLOODLINK_REQUEST_EMERGENCY_TTL" default:"12h"`
}

type GeofenceConfig struct {
	ArrivalRadiusKM float64 `envconfig:"BLOODLINK_GEOFENCE_ARRIVAL_RADIUS_KM" default:"1"`
}

type CertificatesConfig struct {
	Dir            string `envconfig:"BLOODLINK_CERTIFICATES_DIR" default:"certificates"`
	PublicBasePath string `envconfig:"BLOODLINK_CERTIFICATES_BASE_PATH" default:"/certificates"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BLOODLINK_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"BLOODLINK_CRON_LOCK_TTL" default:"10m"`
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
