// Package timecode converts between second offsets and the HH:MM:SS literals
// users type and the bot displays.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"clipbot/internal/services"
)

// MaxSeconds bounds every parsed value, so sums and offsets stay well inside int.
const MaxSeconds = math.MaxInt32

// Format renders seconds as zero-padded HH:MM:SS. Negative values render as 00:00:00.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// Parse accepts HH:MM:SS, MM:SS, or bare seconds. Missing leading components
// default to zero. Components must be non-negative integers and the total
// may not exceed MaxSeconds.
func Parse(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty time", services.ErrInputFormat)
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: too many components in %q", services.ErrInputFormat, trimmed)
	}
	// h, m, s filled right to left
	values := [3]int64{}
	offset := 3 - len(parts)
	for i, part := range parts {
		n, err := parseComponent(part)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", services.ErrInputFormat, trimmed)
		}
		values[offset+i] = int64(n)
	}
	total := values[0]*3600 + values[1]*60 + values[2]
	if total > MaxSeconds {
		return 0, fmt.Errorf("%w: %q is out of range", services.ErrInputFormat, trimmed)
	}
	return int(total), nil
}

// ParseDuration accepts a positive whole number of seconds.
func ParseDuration(text string) (int, error) {
	n, err := parseComponent(strings.TrimSpace(text))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: duration %q must be a positive number of seconds", services.ErrInputFormat, strings.TrimSpace(text))
	}
	return n, nil
}

func parseComponent(part string) (int, error) {
	if part == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range part {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		return 0, err
	}
	if n > MaxSeconds {
		return 0, strconv.ErrRange
	}
	return n, nil
}
