package models

import (
	"fmt"
	"time"
)

// ParseTimeframe maps a timeframe label to its bar period. Only
// divisors of one hour are accepted so that epoch-floored buckets line
// up with exchange-local clock boundaries.
func ParseTimeframe(tf string) (time.Duration, error) {
	switch tf {
	case "1min":
		return time.Minute, nil
	case "5min":
		return 5 * time.Minute, nil
	case "10min":
		return 10 * time.Minute, nil
	case "15min":
		return 15 * time.Minute, nil
	case "30min":
		return 30 * time.Minute, nil
	case "60min", "1h":
		return time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: unsupported timeframe %q", ErrInvalidConfig, tf)
	}
}

// Timeframes lists the supported timeframe labels in display order.
func Timeframes() []string {
	return []string{"1min", "5min", "10min", "15min", "30min", "60min"}
}
