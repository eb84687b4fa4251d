package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Datastore DatastoreConfig `mapstructure:"datastore"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Report    ReportConfig    `mapstructure:"report"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// DatastoreConfig points at the remote data service.
type DatastoreConfig struct {
	URL             string        `mapstructure:"url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RedisConfig enables the shared revocation store. An empty URL keeps
// revocations in process memory.
type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type SessionConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	CookieDomain string        `mapstructure:"cookie_domain"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type RateLimitConfig struct {
	LoginRPS   float64       `mapstructure:"login_rps"`
	LoginBurst int           `mapstructure:"login_burst"`
	Idle       time.Duration `mapstructure:"idle"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ReportConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Secrets are read from CONSOLE_* variables and win over the file.
type Secrets struct {
	JWTSecret    string `envconfig:"JWT_SECRET"`
	DatastoreURL string `envconfig:"DATASTORE_URL"`
	RedisURL     string `envconfig:"REDIS_URL"`
}

const envPrefix = "console"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("datastore.url", "")
	v.SetDefault("datastore.timeout", 10*time.Second)
	v.SetDefault("datastore.breaker_failures", 5)
	v.SetDefault("datastore.breaker_timeout", 30*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "clinic-console")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_domain", "")
	v.SetDefault("session.cookie_secure", false)

	v.SetDefault("rate_limit.login_rps", 1.0)
	v.SetDefault("rate_limit.login_burst", 5)
	v.SetDefault("rate_limit.idle", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("report.timezone", "Local")
}

// LoadConfig reads config.yaml from the usual locations. A missing file is
// not an error; defaults and environment cover every key.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")
	return load(v)
}

// LoadFile reads an explicit config file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets Secrets
	if err := envconfig.Process(envPrefix, &secrets); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.applySecrets(secrets)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applySecrets(s Secrets) {
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.DatastoreURL != "" {
		c.Datastore.URL = s.DatastoreURL
	}
	if s.RedisURL != "" {
		c.Redis.URL = s.RedisURL
	}
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Datastore.URL == "" {
		return errors.New("datastore url is required")
	}
	if _, err := c.Report.Location(); err != nil {
		return fmt.Errorf("invalid report timezone: %w", err)
	}
	return nil
}

// Location resolves Timezone. "Local" and empty mean the host zone.
func (r ReportConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(r.Timezone)
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
