package ride

import (
	"errors"
	"strings"
)

// Source is the client an offer or request was submitted from, as stored in the `request_source` enum.
type Source string

const (
	SourceTelegram Source = "telegram_app"
	SourceMobile   Source = "mobile_app"
)

var ErrInvalidSource = errors.New("invalid request source")

// ParseSource normalizes (lowercases+trims) and validates a source string.
// An empty value defaults to the chat-bot client.
func ParseSource(in string) (Source, error) {
	in = strings.ToLower(strings.TrimSpace(in))
	if in == "" {
		return SourceTelegram, nil
	}
	src := Source(in)
	if src.Valid() {
		return src, nil
	}
	return "", ErrInvalidSource
}

// Valid reports whether source is one of the allowed source constants.
func (source Source) Valid() bool {
	switch source {
	case SourceTelegram, SourceMobile:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Source.
func (source Source) String() string {
	return string(source)
}
