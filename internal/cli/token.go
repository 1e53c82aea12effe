package cli

import (
	"errors"
	"fmt"
	"time"

	"gogogo/internal/general/jwt"
)

// GenerateWebhookToken mints a token the way the worker signs webhook calls, so the
// bot's verification can be exercised by hand. Dev use only.
func GenerateWebhookToken(secret, issuer, event string, ttl time.Duration) (string, *jwt.Claims, error) {
	if secret == "" {
		return "", nil, errors.New("signing secret is empty")
	}

	mgr := jwt.NewManager(secret, issuer, ttl)

	token, err := mgr.IssueWebhookToken(event)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	claims, err := mgr.ParseAndValidate(token)
	if err != nil {
		return "", nil, fmt.Errorf("verify token: %w", err)
	}
	return token, claims, nil
}
