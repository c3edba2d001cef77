package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevelopmentSecret is the signing secret used when none is configured.
// It is rejected in production.
const DevelopmentSecret = "RAHASIA_DOCKER_2026"

type AppConfig struct {
	App        AppSettings        `mapstructure:"app"`
	Postgres   PostgresSettings   `mapstructure:"postgres"`
	Redis      RedisSettings      `mapstructure:"redis"`
	Kafka      KafkaSettings      `mapstructure:"kafka"`
	JWT        JWTSettings        `mapstructure:"jwt"`
	Admin      AdminSettings      `mapstructure:"admin"`
	Revocation RevocationSettings `mapstructure:"revocation"`
	Telemetry  TelemetrySettings  `mapstructure:"telemetry"`
	RateLimit  RateLimitSettings  `mapstructure:"rate_limit"`
	CORS       CORSSettings       `mapstructure:"cors"`
	Argon2     Argon2Settings     `mapstructure:"argon2"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// PostgresSettings configures the guest record store. DSN wins over the discrete fields.
type PostgresSettings struct {
	DSN               string        `mapstructure:"dsn"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	MigrateOnStart    bool          `mapstructure:"migrate_on_start"`
}

// RedisSettings configures Redis connection and TLS. URL wins over the discrete fields.
type RedisSettings struct {
	URL        string `mapstructure:"url"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the audit event producer. No brokers means events are only logged.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// AdminSettings holds the single administrative credential.
// PasswordHash (argon2id) takes precedence over Password.
type AdminSettings struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

type RevocationSettings struct {
	Backend       string        `mapstructure:"backend"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
	MaxEntries    int           `mapstructure:"max_entries"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// RateLimitSettings configures the login brute-force limiter.
type RateLimitSettings struct {
	WindowDuration   time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Argon2Settings configures Argon2id parameters used for the admin credential hash.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

const (
	RevocationBackendRedis  = "redis"
	RevocationBackendMemory = "memory"
)

// legacyEnv maps config keys to the environment names used by the docker-compose deployment.
var legacyEnv = map[string]string{
	"jwt.secret":        "API_SECRET_KEY",
	"postgres.dsn":      "DATABASE_URL",
	"postgres.user":     "POSTGRES_USER",
	"postgres.password": "POSTGRES_PASSWORD",
	"postgres.database": "POSTGRES_DB",
	"redis.url":         "REDIS_URL",
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GUESTBOOK")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.dsn",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.migrate_on_start",
		"redis.url",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.token_ttl",
		"admin.username",
		"admin.password",
		"admin.password_hash",
		"revocation.backend",
		"revocation.key_prefix",
		"revocation.timeout",
		"revocation.prune_interval",
		"revocation.max_entries",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"cors.allowed_origins",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot run safely with.
func (c *AppConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("jwt.secret must not be empty"))
	}
	if c.App.Env == "production" && c.JWT.Secret == DevelopmentSecret {
		errs = append(errs, errors.New("jwt.secret must be overridden in production"))
	}
	if c.JWT.TokenTTL <= 0 {
		errs = append(errs, errors.New("jwt.token_ttl must be positive"))
	}
	if strings.TrimSpace(c.Admin.Username) == "" {
		errs = append(errs, errors.New("admin.username must not be empty"))
	}
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("admin.password or admin.password_hash is required"))
	}

	switch c.Revocation.Backend {
	case RevocationBackendRedis, RevocationBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("revocation.backend %q is not supported", c.Revocation.Backend))
	}
	if c.Revocation.Timeout <= 0 {
		errs = append(errs, errors.New("revocation.timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "guestbook-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 5000)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.host", "db_server")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "guestbook")
	v.SetDefault("postgres.password", "guestbook")
	v.SetDefault("postgres.database", "guestbook")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.migrate_on_start", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.host", "redis_service")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "guestbook")

	v.SetDefault("jwt.secret", DevelopmentSecret)
	v.SetDefault("jwt.token_ttl", "24h")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "123")
	v.SetDefault("admin.password_hash", "")

	v.SetDefault("revocation.backend", RevocationBackendRedis)
	v.SetDefault("revocation.key_prefix", "guestbook:revoked")
	v.SetDefault("revocation.timeout", "2s")
	v.SetDefault("revocation.prune_interval", "1m")
	v.SetDefault("revocation.max_entries", 0)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "guestbook-api")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("argon2.memory", 64*1024)
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		names := []string{key, "GUESTBOOK_" + envKey, envKey}
		if legacy, ok := legacyEnv[key]; ok {
			names = append(names, legacy)
		}
		if err := v.BindEnv(names...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
