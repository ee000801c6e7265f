package commands

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDuration = errors.New("commands: invalid duration")

var durationUnits = map[byte]time.Duration{
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseDuration resolves tokens like "30m", "1h", "2d" or "1w" against the
// current time.
func ParseDuration(token string) (time.Time, error) {
	return ParseDurationAt(token, time.Now())
}

// ParseDurationAt resolves token relative to now. The token must be a positive
// integer followed by exactly one of m, h, d or w.
func ParseDurationAt(token string, now time.Time) (time.Time, error) {
	d, err := parseRelative(token)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(d), nil
}

func parseRelative(token string) (time.Duration, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if len(token) < 2 {
		return 0, ErrInvalidDuration
	}

	unit, ok := durationUnits[token[len(token)-1]]
	if !ok {
		return 0, ErrInvalidDuration
	}

	digits := token[:len(token)-1]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, ErrInvalidDuration
		}
	}
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || value <= 0 {
		return 0, ErrInvalidDuration
	}
	if value > int64(math.MaxInt64/unit) {
		return 0, ErrInvalidDuration
	}
	return time.Duration(value) * unit, nil
}
