package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationOrDefault parses duration and returns def on empty or invalid value.
func ParseDurationOrDefault(value string, def time.Duration) time.Duration {
	parsed, err := ParseOptional(value)
	if err != nil || parsed == 0 {
		return def
	}
	return parsed
}

// ParseOptional parses a config duration. Empty means zero; negative values are rejected.
func ParseOptional(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", value)
	}
	return parsed, nil
}
