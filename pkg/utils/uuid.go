package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// NewRequestID returns an id for correlating one request's log lines
func NewRequestID() string {
	return uuid.New().String()
}

// NewNonce returns a random value for one OAuth round trip
func NewNonce() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
