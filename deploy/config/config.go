package config

import (
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Storage    Storage
	Redis      Redis
	HTTPServer HTTPServer
	Fetcher    Fetcher
	Cache      Cache
	RateLimit  RateLimit
	Client     Client
}

type Storage struct {
	Enabled  bool          `env:"BD_ENABLED" env-default:"false"`
	Timeout  time.Duration `env:"BD_TIMEOUT" env-default:"10s"`
	Host     string        `env:"BD_HOST" env-default:"localhost"`
	Port     int           `env:"BD_PORT" env-default:"5432"`
	User     string        `env:"BD_USER"`
	Password string        `env:"BD_PASSWORD"`
	DBName   string        `env:"BD_DBNAME" env-default:"currency_rates"`
	SSLMode  string        `env:"BD_SSL_MODE" env-default:"disable"`
	Schema   string        `env:"BD_SCHEMA" env-default:"public"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	Channel  string `env:"REDIS_CHANNEL" env-default:"currency_rates_updated"`
}

type HTTPServer struct {
	Port        string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Fetcher struct {
	PrimaryURL        string        `env:"FETCHER_PRIMARY_URL" env-default:"https://api.exchangerate.host/latest?base=TRY&symbols=USD,EUR,GBP"`
	FallbackURL       string        `env:"FETCHER_FALLBACK_URL" env-default:"https://open.er-api.com/v6/latest/TRY"`
	FallbackDirection string        `env:"FETCHER_FALLBACK_DIRECTION" env-default:"per_local"`
	Codes             string        `env:"FETCHER_CODES" env-default:"USD,EUR,GBP"`
	Timeout           time.Duration `env:"FETCHER_TIMEOUT" env-default:"10s"`
	WarmupInterval    time.Duration `env:"FETCHER_WARMUP_INTERVAL" env-default:"0s"`
}

type Cache struct {
	Backend string        `env:"CACHE_BACKEND" env-default:"memory"`
	TTL     time.Duration `env:"CACHE_TTL" env-default:"300s"`
}

type RateLimit struct {
	Rate string `env:"RATE_LIMIT" env-default:"120-M"`
}

type Client struct {
	APIURL  string        `env:"RATES_API_URL" env-default:"http://localhost:8080"`
	Locale  string        `env:"LOCALE" env-default:"tr"`
	Timeout time.Duration `env:"CLIENT_TIMEOUT" env-default:"10s"`
}

func Load() (*Config, error) {
	const op = "config.Load"

	cfg := &Config{}

	_ = godotenv.Load(".env")

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return cfg, nil
}

func NewConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal("Error reading env: ", err)
	}

	return cfg
}

// Split returns the comma separated values of a string field of Fetcher.
func (c *Config) Split(fieldName string) []string {
	v := reflect.ValueOf(&c.Fetcher).Elem()
	f := v.FieldByName(fieldName)
	if !f.IsValid() || f.Kind() != reflect.String {
		return nil
	}
	str := f.String()
	if str == "" {
		return nil
	}

	parts := strings.Split(str, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Storage.Host,
		c.Storage.Port,
		c.Storage.User,
		c.Storage.Password,
		c.Storage.DBName,
		c.Storage.SSLMode,
		c.Storage.Schema,
	)
}
