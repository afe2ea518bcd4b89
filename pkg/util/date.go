package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseMillis parses an optional epoch-milliseconds query value.
// An empty string yields (nil, nil).
func ParseMillis(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse millis %q: %w", s, err)
	}
	return &ms, nil
}

// MillisToTime converts epoch milliseconds to a UTC time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
