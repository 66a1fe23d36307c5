package models

import (
	"time"

	"github.com/pkg/errors"
)

// ErrDateTimePeriodOrder is returned when a period's start instant is after
// its end instant.
var ErrDateTimePeriodOrder = errors.New("period start is after period end")

// DateTimePeriod is a closed [start, end] interval of UTC instants. Moment
// resolution (daily reset, weekly reset, season starts) happens outside this
// package; the engine only ever sees resolved instants.
type DateTimePeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateTimePeriod validates and builds a period.
func NewDateTimePeriod(start, end time.Time) (*DateTimePeriod, error) {
	if start.After(end) {
		return nil, ErrDateTimePeriodOrder
	}

	return &DateTimePeriod{Start: start.UTC(), End: end.UTC()}, nil
}

// Contains reports whether the instant falls inside the period.
func (period *DateTimePeriod) Contains(instant time.Time) bool {
	return !instant.Before(period.Start) && !instant.After(period.End)
}
