package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	EventsBackendNone     = "none"
	EventsBackendRedis    = "redis"
	EventsBackendRabbitMQ = "rabbitmq"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Events   EventsConfig   `yaml:"events"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	LINE     LINEConfig     `yaml:"line"`

	envErrs []error
}

type ServerConfig struct {
	Port          string `yaml:"port"`
	GRPCPort      string `yaml:"grpc_port"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StoreConfig struct {
	Driver         string `yaml:"driver"`
	DatabaseURL    string `yaml:"database_url"`
	MigrationsPath string `yaml:"migrations_path"`
}

type EventsConfig struct {
	Backend string `yaml:"backend"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type LINEConfig struct {
	AccessToken   string        `yaml:"access_token"`
	ChannelSecret string        `yaml:"channel_secret"`
	APIURL        string        `yaml:"api_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

// Load reads the optional YAML file at path, applies defaults and then
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.GRPCPort == "" {
		c.Server.GRPCPort = "9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverPostgres
	}
	if c.Store.MigrationsPath == "" {
		c.Store.MigrationsPath = "migrations"
	}
	if c.Events.Backend == "" {
		c.Events.Backend = EventsBackendNone
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "orders"
	}
	if c.LINE.Timeout == 0 {
		c.LINE.Timeout = 10 * time.Second
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Server.Port, "PORT")
	set(&c.Server.GRPCPort, "GRPC_PORT")
	set(&c.Server.AllowedOrigin, "ALLOWED_ORIGIN")
	set(&c.Log.Level, "LOG_LEVEL")
	set(&c.Store.Driver, "STORE_DRIVER")
	set(&c.Store.DatabaseURL, "DATABASE_URL")
	set(&c.Store.MigrationsPath, "MIGRATIONS_PATH")
	set(&c.Events.Backend, "EVENTS_BACKEND")
	set(&c.Redis.URL, "REDIS_URL")
	set(&c.RabbitMQ.URL, "RABBITMQ_URL")
	set(&c.RabbitMQ.Exchange, "RABBITMQ_EXCHANGE")
	set(&c.LINE.AccessToken, "LINE_ACCESS_TOKEN")
	set(&c.LINE.ChannelSecret, "LINE_CHANNEL_SECRET")
	set(&c.LINE.APIURL, "LINE_API_URL")

	if v := getenv("LINE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			c.envErrs = append(c.envErrs, fmt.Errorf("invalid LINE_TIMEOUT %q: %w", v, err))
		} else {
			c.LINE.Timeout = d
		}
	}
}

func (c *Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Events.Backend {
	case EventsBackendNone:
	case EventsBackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required"))
		}
	case EventsBackendRabbitMQ:
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events backend %q", c.Events.Backend))
	}

	if c.LINE.AccessToken == "" {
		errs = append(errs, errors.New("LINE_ACCESS_TOKEN is required"))
	}
	if c.LINE.Timeout < 0 {
		errs = append(errs, errors.New("line timeout must be positive"))
	}

	return errors.Join(errs...)
}
