package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInterval understands the Yahoo style intervals and ranges:
// 1m, 15m, 1h, 1d, 5d, 1wk, 1mo.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	units := []struct {
		suffix string
		d      time.Duration
	}{
		{"wk", 7 * 24 * time.Hour},
		{"mo", 30 * 24 * time.Hour},
		{"m", time.Minute},
		{"h", time.Hour},
		{"d", 24 * time.Hour},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(s, u.suffix))
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("market: bad interval %q", s)
		}
		return time.Duration(n) * u.d, nil
	}
	return 0, fmt.Errorf("market: bad interval %q", s)
}
