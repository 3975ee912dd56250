package core

import (
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// ParseHumanDuration parses a human-readable duration ("0s", "30s", "5m",
// "1d") used for the duration-valued environment overrides in pkg/config.
// "0" and "" both mean zero duration (no debounce).
func ParseHumanDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return str2duration.ParseDuration(s)
}
