package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Audience names the receiver of signed notification deliveries.
const Audience = "bot-webhook"

// Claims is the payload of a webhook delivery token.
type Claims struct {
	Event string `json:"event,omitempty"` // notification type being delivered
	jwtlib.RegisteredClaims
}

var _ jwtlib.Claims = (*Claims)(nil)

// NewWebhookClaims constructs short-lived claims for one delivery.
func NewWebhookClaims(issuer, event string, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Event: event,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwtlib.ClaimStrings{Audience},
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
