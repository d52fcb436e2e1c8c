// internal/report/period.go
package report

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingDateRange is returned for custom periods without both bounds.
	ErrMissingDateRange = errors.New("report: custom period requires explicit start and end dates")
	// ErrUnsupportedPeriod is returned for unknown period values.
	ErrUnsupportedPeriod = errors.New("report: unsupported period")
)

// ResolvePeriod derives the reporting window for a period relative to now.
// Custom periods pass both bounds through unmodified.
func ResolvePeriod(period Period, start, end *time.Time) (Range, error) {
	return resolvePeriodAt(time.Now(), period, start, end)
}

func resolvePeriodAt(now time.Time, period Period, start, end *time.Time) (Range, error) {
	switch period {
	case PeriodDaily:
		return Range{Start: now.AddDate(0, 0, -1), End: now}, nil
	case PeriodWeekly:
		return Range{Start: now.AddDate(0, 0, -7), End: now}, nil
	case PeriodMonthly:
		return Range{Start: now.AddDate(0, -1, 0), End: now}, nil
	case PeriodCustom:
		if start == nil || end == nil {
			return Range{}, ErrMissingDateRange
		}
		return Range{Start: *start, End: *end}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnsupportedPeriod, period)
	}
}
