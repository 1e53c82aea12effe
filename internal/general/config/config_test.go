package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimal = `
database:
  user: app
  password: secret
  database: rides
rabbitmq:
  user: guest
  password: guest
`

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults: %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Matching.OfferWindow != 4*time.Hour || cfg.Matching.RequestWindow != 48*time.Hour {
		t.Errorf("windows: %s / %s", cfg.Matching.OfferWindow, cfg.Matching.RequestWindow)
	}
	if cfg.Matching.DefaultLimit != 10 {
		t.Errorf("default limit = %d", cfg.Matching.DefaultLimit)
	}
	if cfg.Notify.Timeout != 10*time.Second {
		t.Errorf("notify timeout = %s", cfg.Notify.Timeout)
	}
	if cfg.HTTP.BasePath != "/api/v1" {
		t.Errorf("base path = %q", cfg.HTTP.BasePath)
	}
	if cfg.MediaEnabled() {
		t.Error("media should be disabled without credentials")
	}
}

func TestLoadFromFileParsesDurations(t *testing.T) {
	body := minimal + `
matching:
  offer_window: 26h
  verify_capacity: true
notify:
  timeout: 1500ms
  webhook_url: https://bot.example/hook
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Matching.OfferWindow != 26*time.Hour {
		t.Errorf("offer window = %s", cfg.Matching.OfferWindow)
	}
	if !cfg.Matching.VerifyCapacity {
		t.Error("verify_capacity not read")
	}
	if cfg.Notify.Timeout != 1500*time.Millisecond {
		t.Errorf("timeout = %s", cfg.Notify.Timeout)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("BOT_WEBHOOK_URL", "http://bot:9000/notify")
	t.Setenv("MATCH_REQUEST_WINDOW", "72h")

	cfg, err := LoadFromFile(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6543 {
		t.Errorf("database = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Notify.WebhookURL != "http://bot:9000/notify" {
		t.Errorf("webhook = %q", cfg.Notify.WebhookURL)
	}
	if cfg.Matching.RequestWindow != 72*time.Hour {
		t.Errorf("request window = %s", cfg.Matching.RequestWindow)
	}
}

func TestMissingFileFallsBackToEnvironment(t *testing.T) {
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_DB", "d")
	t.Setenv("RABBITMQ_USER", "g")
	t.Setenv("RABBITMQ_PASSWORD", "g")

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	body := `
database:
  port: 70000
cloudinary:
  cloud_name: demo
`
	_, err := LoadFromFile(writeConfig(t, body))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"database.port", "database.user", "rabbitmq.user", "cloudinary"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestBadEnvironmentValue(t *testing.T) {
	t.Setenv("HTTP_PORT", "eighty")
	if _, err := LoadFromFile(writeConfig(t, minimal)); err == nil || !strings.Contains(err.Error(), "HTTP_PORT") {
		t.Fatalf("got %v, want HTTP_PORT error", err)
	}
}

func TestHandlerTimeoutMustCoverDeliveries(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	// ceil(10/8) waves of 10s
	if cfg.RabbitMQ.HandlerTimeout != 30*time.Second || cfg.DeliveryBudget() != 20*time.Second {
		t.Fatalf("handler timeout = %s, budget = %s", cfg.RabbitMQ.HandlerTimeout, cfg.DeliveryBudget())
	}

	// ceil(100/8) = 13 waves of 10s cannot fit in 30s
	tooSlow := minimal + `
matching:
  default_limit: 100
notify:
  max_parallel: 8
`
	_, err = LoadFromFile(writeConfig(t, tooSlow))
	if err == nil || !strings.Contains(err.Error(), "rabbitmq.handler_timeout") {
		t.Fatalf("got %v, want handler_timeout error", err)
	}

	t.Setenv("RABBITMQ_HANDLER_TIMEOUT", "3m")
	cfg, err = LoadFromFile(writeConfig(t, tooSlow))
	if err != nil {
		t.Fatalf("raised timeout: %v", err)
	}
	if cfg.DeliveryBudget() != 130*time.Second {
		t.Fatalf("budget = %s", cfg.DeliveryBudget())
	}
}
