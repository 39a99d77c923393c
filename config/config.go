package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	HTTP     HTTPConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	Match    MatchConfig
	Log      LogConfig
}

type HTTPConfig struct {
	Addr string
}

type DBConfig struct {
	User     string
	Password string
	DBName   string
	SSLMode  string
	Host     string
	Port     string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTLMin int
}

// MatchConfig carries the matching thresholds. The backend source never
// pinned these numbers, so they are deployment configuration rather than
// code constants.
type MatchConfig struct {
	RadiusKm         float64
	TimeToleranceMin int
	GeohashPrecision uint
	Index            string // "rtree", "quadtree" or "geohash"
}

type LogConfig struct {
	Level string
}

// Load reads config.yaml from the working directory and applies
// CARPOOL_* environment overrides (CARPOOL_DB_HOST, CARPOOL_REDIS_ADDR...).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("env", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("rabbitmq.exchange", "carpool.events")
	v.SetDefault("auth.tokenttlmin", 24*60)
	v.SetDefault("match.radiuskm", 5.0)
	v.SetDefault("match.timetolerancemin", 30)
	v.SetDefault("match.geohashprecision", 5)
	v.SetDefault("match.index", "rtree")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("carpool")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine when everything comes from env/defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwtsecret is required")
	}
	return &cfg, nil
}

// Production reports whether error responses must omit stack traces.
func (c *Config) Production() bool {
	return c.Env == "production"
}
