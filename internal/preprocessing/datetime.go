package preprocessing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// parseTime reads s in any layout dateparse recognizes. Ambiguous numeric
// dates are read month first and retried day first when that fails. Values
// without a zone are taken as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse '%s' as a date: %w", s, err)
	}
	return t.UTC(), nil
}

// toTime converts a cell to a timestamp. Numbers are read as unix seconds.
func toTime(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return x, nil
	case string:
		return parseTime(x)
	case int64:
		return time.Unix(x, 0).UTC(), nil
	case float64:
		sec, frac := math.Modf(x)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	return nil, fmt.Errorf("value %v of type %T cannot be read as a date", v, v)
}
