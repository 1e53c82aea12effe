package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides file values with environment variables when they are set.
func applyEnv(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	setDuration := func(key string, dst *time.Duration) {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	setBool := func(key string, dst *bool) {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	// Database
	setString("POSTGRES_HOST", &cfg.Database.Host)
	setInt("POSTGRES_PORT", &cfg.Database.Port)
	setString("POSTGRES_USER", &cfg.Database.User)
	setString("POSTGRES_PASSWORD", &cfg.Database.Password)
	setString("POSTGRES_DB", &cfg.Database.Name)
	setBool("POSTGRES_MIGRATE", &cfg.Database.Migrate)

	// RabbitMQ
	setString("RABBITMQ_HOST", &cfg.RabbitMQ.Host)
	setInt("RABBITMQ_PORT", &cfg.RabbitMQ.Port)
	setString("RABBITMQ_USER", &cfg.RabbitMQ.User)
	setString("RABBITMQ_PASSWORD", &cfg.RabbitMQ.Password)
	setString("RABBITMQ_VHOST", &cfg.RabbitMQ.VHost)
	setDuration("RABBITMQ_HANDLER_TIMEOUT", &cfg.RabbitMQ.HandlerTimeout)

	// HTTP
	setInt("HTTP_PORT", &cfg.HTTP.Port)

	// Matching
	setDuration("MATCH_OFFER_WINDOW", &cfg.Matching.OfferWindow)
	setDuration("MATCH_REQUEST_WINDOW", &cfg.Matching.RequestWindow)
	setBool("MATCH_VERIFY_CAPACITY", &cfg.Matching.VerifyCapacity)

	// Notify
	setString("BOT_WEBHOOK_URL", &cfg.Notify.WebhookURL)
	setDuration("BOT_WEBHOOK_TIMEOUT", &cfg.Notify.Timeout)
	setString("WEBHOOK_SIGNING_SECRET", &cfg.Notify.SigningSecret)

	// Cloudinary
	setString("CLOUDINARY_CLOUD_NAME", &cfg.Cloudinary.CloudName)
	setString("CLOUDINARY_API_KEY", &cfg.Cloudinary.APIKey)
	setString("CLOUDINARY_API_SECRET", &cfg.Cloudinary.APISecret)

	return errors.Join(errs...)
}
