// Package query serves the read side: cache-backed history pages,
// the full analytics pipeline, and the import/export adapters.
package query

import (
	"time"

	"github.com/canalwise/irrigation-platform/internal/apperror"
)

const maxRangeDays = 365

// DateRange is a validated inclusive query range. From is anchored to
// 00:00:00 UTC, To to 23:59:59.999 UTC, so both boundary days are
// fully covered.
type DateRange struct {
	From time.Time
	To   time.Time

	// Original date strings, used for cache keys and response metadata
	FromDate string
	ToDate   string
}

// ParseRange validates the raw query parameters and expands them into
// an inclusive UTC range. Validation is fail-fast: the first violated
// rule decides the error.
func ParseRange(startDate, endDate string) (DateRange, error) {
	if startDate == "" || endDate == "" {
		return DateRange{}, apperror.Unprocessable("Missing query parameters")
	}

	from, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return DateRange{}, apperror.BadRequest("Invalid date format")
	}
	to, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return DateRange{}, apperror.BadRequest("Invalid date format")
	}

	if !from.Before(to) {
		return DateRange{}, apperror.BadRequest("Start date must be before end date")
	}
	if to.Sub(from).Hours()/24 > maxRangeDays {
		return DateRange{}, apperror.BadRequest("Date range too large")
	}

	return DateRange{
		From:     time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC),
		To:       time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999000000, time.UTC),
		FromDate: startDate,
		ToDate:   endDate,
	}, nil
}
