package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Apple     AppleConfig
	Google    GoogleConfig
	Push      PushConfig
	Scheduler SchedulerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("%s is required", EnvDBDSN)
	}
	if err := cfg.Scheduler.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRECIOUS_APP_ENV" default:"dev"`
	Port         string `envconfig:"PRECIOUS_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"PRECIOUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRECIOUS_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"PRECIOUS_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PRECIOUS_DB_DSN"`
	Driver string `envconfig:"PRECIOUS_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"PRECIOUS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PRECIOUS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PRECIOUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRECIOUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// UsesSQLite reports whether the configured driver is the embedded sqlite one.
func (d DBConfig) UsesSQLite() bool {
	return strings.EqualFold(d.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"PRECIOUS_REDIS_URL" required:"true"`
	DialTimeout  time.Duration `envconfig:"PRECIOUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRECIOUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRECIOUS_REDIS_WRITE_TIMEOUT" default:"5s"`
	PoolSize     int           `envconfig:"PRECIOUS_REDIS_POOL_SIZE" default:"10"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PRECIOUS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PRECIOUS_JWT_ISSUER" default:"precious.you"`
	ExpirationMinutes      int    `envconfig:"PRECIOUS_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"PRECIOUS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type AppleConfig struct {
	// ClientID is the app bundle id expected in the identity token audience.
	ClientID string `envconfig:"PRECIOUS_APPLE_CLIENT_ID"`
}

type GoogleConfig struct {
	ClientID string `envconfig:"PRECIOUS_GOOGLE_CLIENT_ID"`
}

type PushConfig struct {
	// CredentialsJSON holds the Firebase service-account key. When empty the
	// gateway is wired in disabled mode and every send resolves to failure.
	CredentialsJSON string        `envconfig:"PRECIOUS_FIREBASE_CREDENTIALS_JSON"`
	ProjectID       string        `envconfig:"PRECIOUS_FIREBASE_PROJECT_ID"`
	Title           string        `envconfig:"PRECIOUS_PUSH_TITLE" default:"precious.you"`
	SendTimeout     time.Duration `envconfig:"PRECIOUS_PUSH_SEND_TIMEOUT" default:"10s"`
}

type SchedulerConfig struct {
	Enabled bool `envconfig:"PRECIOUS_SCHEDULER_ENABLED" default:"true"`
	// Times lists the daily wall-clock trigger times (process-local timezone).
	Times   []string      `envconfig:"PRECIOUS_SCHEDULER_TIMES" default:"10:00,15:00,20:00"`
	LockTTL time.Duration `envconfig:"PRECIOUS_SCHEDULER_LOCK_TTL" default:"10m"`
}

func (s SchedulerConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if len(s.Times) == 0 {
		return fmt.Errorf("%s must list at least one HH:MM time", EnvSchedulerTimes)
	}
	for _, raw := range s.Times {
		if _, _, err := ParseTimeOfDay(raw); err != nil {
			return err
		}
	}
	return nil
}

// ParseTimeOfDay splits an HH:MM string into hour and minute components.
// Both parts must be plain decimal digits; trailing text is rejected.
func ParseTimeOfDay(raw string) (hour, minute int, err error) {
	hourPart, minutePart, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found {
		return 0, 0, fmt.Errorf("invalid time of day %q (expected HH:MM)", raw)
	}
	hour, hourErr := strconv.Atoi(hourPart)
	minute, minuteErr := strconv.Atoi(minutePart)
	if hourErr != nil || minuteErr != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q (expected HH:MM)", raw)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q out of range", raw)
	}
	return hour, minute, nil
}
