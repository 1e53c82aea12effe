package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		User           string `yaml:"user"`
		Password       string `yaml:"password"`
		Name           string `yaml:"database"`
		MaxConns       int32  `yaml:"max_conns"`
		WorkerMaxConns int32  `yaml:"worker_max_conns"`
		Migrate        bool   `yaml:"migrate"`
	} `yaml:"database"`
	RabbitMQ struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		VHost    string `yaml:"vhost"`
		Prefetch int    `yaml:"prefetch"`
		// HandlerTimeout bounds one match job, deliveries included.
		HandlerTimeout time.Duration `yaml:"handler_timeout"`
	} `yaml:"rabbitmq"`
	HTTP struct {
		Port     int    `yaml:"port"`
		BasePath string `yaml:"base_path"`
	} `yaml:"http"`
	Matching struct {
		OfferWindow    time.Duration `yaml:"offer_window"`
		RequestWindow  time.Duration `yaml:"request_window"`
		DefaultLimit   int           `yaml:"default_limit"`
		VerifyCapacity bool          `yaml:"verify_capacity"`
	} `yaml:"matching"`
	Notify struct {
		WebhookURL    string        `yaml:"webhook_url"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxParallel   int           `yaml:"max_parallel"`
		SigningSecret string        `yaml:"signing_secret"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
	} `yaml:"notify"`
	Cloudinary struct {
		CloudName string `yaml:"cloud_name"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Folder    string `yaml:"folder"`
	} `yaml:"cloudinary"`
}

// LoadFromFile loads config from a YAML file to a Config struct, applies environment
// overrides and defaults, and validates required fields. A missing file is not an error:
// the configuration then comes from the environment alone.
func LoadFromFile(path string) (*Config, error) {
	var cfg Config

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.WorkerMaxConns == 0 {
		cfg.Database.WorkerMaxConns = 4
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}
	if cfg.RabbitMQ.VHost == "" {
		cfg.RabbitMQ.VHost = "/"
	}
	if cfg.RabbitMQ.Prefetch == 0 {
		cfg.RabbitMQ.Prefetch = 8
	}
	if cfg.RabbitMQ.HandlerTimeout == 0 {
		cfg.RabbitMQ.HandlerTimeout = 30 * time.Second
	}

	// HTTP
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8000
	}
	if cfg.HTTP.BasePath == "" {
		cfg.HTTP.BasePath = "/api/v1"
	}
	cfg.HTTP.BasePath = "/" + strings.Trim(cfg.HTTP.BasePath, "/")

	// Matching
	if cfg.Matching.OfferWindow == 0 {
		cfg.Matching.OfferWindow = 4 * time.Hour
	}
	if cfg.Matching.RequestWindow == 0 {
		cfg.Matching.RequestWindow = 48 * time.Hour
	}
	if cfg.Matching.DefaultLimit == 0 {
		cfg.Matching.DefaultLimit = 10
	}

	// Notify
	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = 10 * time.Second
	}
	if cfg.Notify.MaxParallel == 0 {
		cfg.Notify.MaxParallel = 8
	}
	if cfg.Notify.TokenTTL == 0 {
		cfg.Notify.TokenTTL = 5 * time.Minute
	}

	// Cloudinary
	if cfg.Cloudinary.Folder == "" {
		cfg.Cloudinary.Folder = "car_photos"
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.database is required")
	}
	if c.Database.MaxConns < 1 || c.Database.WorkerMaxConns < 1 {
		problems = append(problems, "database.max_conns and database.worker_max_conns must be >= 1")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}
	if c.RabbitMQ.Prefetch < 1 {
		problems = append(problems, "rabbitmq.prefetch must be >= 1")
	}

	// HTTP
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be in 1..65535")
	}

	// Matching
	if c.Matching.OfferWindow < 0 || c.Matching.RequestWindow < 0 {
		problems = append(problems, "matching windows cannot be negative")
	}
	if c.Matching.DefaultLimit < 1 || c.Matching.DefaultLimit > 100 {
		problems = append(problems, "matching.default_limit must be in 1..100")
	}

	// Notify
	if c.Notify.WebhookURL != "" {
		if u, err := url.Parse(c.Notify.WebhookURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, "notify.webhook_url must be an absolute URL")
		}
	}
	if c.Notify.Timeout < 0 {
		problems = append(problems, "notify.timeout cannot be negative")
	}
	if c.Notify.MaxParallel < 1 {
		problems = append(problems, "notify.max_parallel must be >= 1")
	}
	if c.RabbitMQ.HandlerTimeout <= 0 {
		problems = append(problems, "rabbitmq.handler_timeout must be > 0")
	} else if budget := c.DeliveryBudget(); budget >= c.RabbitMQ.HandlerTimeout {
		problems = append(problems, fmt.Sprintf(
			"rabbitmq.handler_timeout (%s) must exceed the worst-case delivery time %s: ceil(matching.default_limit/notify.max_parallel) x notify.timeout",
			c.RabbitMQ.HandlerTimeout, budget))
	}

	// Cloudinary: all or nothing
	set := 0
	for _, v := range []string{c.Cloudinary.CloudName, c.Cloudinary.APIKey, c.Cloudinary.APISecret} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		problems = append(problems, "cloudinary.cloud_name, api_key and api_secret must be set together")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// DeliveryBudget is the longest a job can spend delivering: one notification per match,
// at most default_limit matches, sent in waves of max_parallel, each bounded by notify.timeout.
func (c *Config) DeliveryBudget() time.Duration {
	if c.Notify.MaxParallel < 1 || c.Matching.DefaultLimit < 1 {
		return 0
	}
	waves := (c.Matching.DefaultLimit + c.Notify.MaxParallel - 1) / c.Notify.MaxParallel
	return time.Duration(waves) * c.Notify.Timeout
}

// MediaEnabled reports whether Cloudinary credentials are configured.
func (c *Config) MediaEnabled() bool {
	return c.Cloudinary.CloudName != "" && c.Cloudinary.APIKey != "" && c.Cloudinary.APISecret != ""
}
