package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PoolStreamName returns the conventional name for the n-th pool stream.
func PoolStreamName(n int) string {
	return fmt.Sprintf("Stream-%d", n)
}

// GenerateStreamName returns a unique, service-legal stream name with the
// given prefix. The prefix is sanitized first: spaces and any character
// outside [a-zA-Z0-9._-] are replaced with underscores.
func GenerateStreamName(prefix string) string {
	if prefix == "" {
		prefix = "stream"
	}
	prefix = sanitizeName(prefix)
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// GenerateRequestID generates a unique request ID
func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
