package ride

import (
	"strings"

	"github.com/google/uuid"
)

// ParseDriverID validates a driver's user id and returns its canonical form.
func ParseDriverID(raw string) (string, error) {
	return parseUserID("driver_id", raw, ErrDriverRequired)
}

// ParsePassengerID validates a passenger's user id and returns its canonical form.
func ParsePassengerID(raw string) (string, error) {
	return parseUserID("passenger_id", raw, ErrPassengerMissing)
}

func parseUserID(field, raw string, missing error) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", missing
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &ParseError{Field: field, Value: raw, Err: err}
	}
	return id.String(), nil
}
