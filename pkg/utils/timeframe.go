// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeframe converts an MT-style timeframe code (M1, M5, M15, H1,
// H4, D1, W1) into its bar duration.
func ParseTimeframe(code string) (time.Duration, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", code)
	}

	n, err := strconv.Atoi(code[1:])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", code)
	}

	switch code[0] {
	case 'M':
		return time.Duration(n) * time.Minute, nil
	case 'H':
		return time.Duration(n) * time.Hour, nil
	case 'D':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'W':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid timeframe %q", code)
}

// ValidTimeframe reports whether code is a recognized timeframe.
func ValidTimeframe(code string) bool {
	_, err := ParseTimeframe(code)
	return err == nil
}

// BarsPerDay returns how many bars of the given timeframe fit in a
// 24-hour session.
func BarsPerDay(code string) (int, error) {
	d, err := ParseTimeframe(code)
	if err != nil {
		return 0, err
	}
	if d > 24*time.Hour {
		return 1, nil
	}
	return int((24 * time.Hour) / d), nil
}
