package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type RatesConfig struct {
	Env        string `yaml:"env" env:"RATES_ENV" env-default:"local"`
	GRPCServer `yaml:"grpc_server"`
	OpsHTTP    `yaml:"ops_http"`
	RatesDB    `yaml:"rates_db"`
	Store      `yaml:"store"`
	LogConfig  `yaml:"log_config"`
	Fixer      `yaml:"fixer"`
	Sync       `yaml:"sync"`
	Kafka      `yaml:"kafka"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50061"`
}

type OpsHTTP struct {
	Host string `yaml:"host" env:"OPS_HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"OPS_HTTP_PORT" env-default:"9091"`
}

type RatesDB struct {
	Dsn            string        `yaml:"dsn" env:"RATES_DB_DSN"`
	MigrationsPath string        `yaml:"migrations_path" env:"RATES_DB_MIGRATIONS_PATH"`
	MaxOpenConns   int           `yaml:"max_open_conns" env-default:"8"`
	MaxIdleConns   int           `yaml:"max_idle_conns" env-default:"4"`
	ConnMaxLife    time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

// Store selects the rate store backend: "postgres" or "badger".
type Store struct {
	Driver     string `yaml:"driver" env:"RATES_STORE_DRIVER" env-default:"postgres"`
	BadgerPath string `yaml:"badger_path" env:"RATES_BADGER_PATH" env-default:"./data/rates"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type Fixer struct {
	BaseURL    string        `yaml:"base_url" env:"FIXER_BASE_URL" env-default:"http://data.fixer.io/api"`
	AccessKey  string        `yaml:"access_key" env:"FIXER_API_KEY"`
	Timeout    time.Duration `yaml:"timeout" env-default:"10s"`
	MaxRetries uint64        `yaml:"max_retries" env-default:"0"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"1s"`
}

type Sync struct {
	Interval          time.Duration `yaml:"interval" env:"SYNC_INTERVAL" env-default:"1h"`
	CycleTimeout      time.Duration `yaml:"cycle_timeout" env-default:"5m"`
	Concurrency       int           `yaml:"concurrency" env-default:"16"`
	MissingRatePolicy string        `yaml:"missing_rate_policy" env-default:"zero"`
	Currencies        []string      `yaml:"currencies" env:"SYNC_CURRENCIES" env-separator:","`
}

type Kafka struct {
	Enabled    bool   `yaml:"enabled" env:"KAFKA_ENABLED"`
	Host       string `yaml:"host" env:"KAFKA_HOST" env-default:"localhost"`
	Port       string `yaml:"port" env:"KAFKA_PORT" env-default:"9092"`
	Topic      string `yaml:"topic" env-default:"currency-rates"`
	Username   string `yaml:"username" env:"KAFKA_USERNAME"`
	Password   string `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism  string `yaml:"mechanism" env:"KAFKA_MECHANISM"`
	TLSEnabled bool   `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED"`
}

func MustLoad() *RatesConfig {

	// Processing env config variable and file
	configPath := os.Getenv("RATES_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("RATES_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return cfg
}

// Load reads the YAML file at path, applies env overrides and defaults
// and validates the result.
func Load(path string) (*RatesConfig, error) {
	var cfg RatesConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Sync.Currencies) == 0 {
		cfg.Sync.Currencies = DefaultCurrencies()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RatesConfig) Validate() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if c.Sync.Concurrency <= 0 {
		return fmt.Errorf("sync.concurrency must be positive, got %d", c.Sync.Concurrency)
	}
	switch c.Sync.MissingRatePolicy {
	case "zero", "keep":
	default:
		return fmt.Errorf("unknown sync.missing_rate_policy %q", c.Sync.MissingRatePolicy)
	}
	switch c.Store.Driver {
	case "postgres":
		if c.RatesDB.Dsn == "" {
			return fmt.Errorf("rates_db.dsn is required for the postgres store")
		}
	case "badger":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	seen := make(map[string]struct{}, len(c.Sync.Currencies))
	for _, code := range c.Sync.Currencies {
		if len(code) != 3 {
			return fmt.Errorf("invalid currency code %q", code)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("duplicate currency code %q", code)
		}
		seen[code] = struct{}{}
	}
	return nil
}
