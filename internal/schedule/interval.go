// Package schedule computes when recurring checklists are due.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

// IntervalType is the recurrence policy of a checklist.
type IntervalType string

const (
	Daily    IntervalType = "daily"
	Weekly   IntervalType = "weekly"
	Monthly  IntervalType = "monthly"
	Semi     IntervalType = "semi"
	Annually IntervalType = "annually"
	Custom   IntervalType = "custom"

	// annuallyLegacy is the spelling stored by older databases.
	annuallyLegacy IntervalType = "anually"
)

// Status values of a checklist.
const (
	StatusPlanned = "planned"
	StatusLate    = "late"
)

var (
	ErrUnknownInterval   = errors.New("unknown interval type")
	ErrInvalidCustomDays = errors.New("custom interval needs a positive number of days")
)

// Valid reports whether t is a recognised interval type.
func (t IntervalType) Valid() bool {
	switch t {
	case Daily, Weekly, Monthly, Semi, Annually, annuallyLegacy, Custom:
		return true
	}
	return false
}

// NextPlannedDate adds the interval to from.
func NextPlannedDate(interval IntervalType, customDays *int, from time.Time) (time.Time, error) {
	switch interval {
	case Daily:
		return from.AddDate(0, 0, 1), nil
	case Weekly:
		return from.AddDate(0, 0, 7), nil
	case Monthly:
		return from.AddDate(0, 1, 0), nil
	case Semi:
		return from.AddDate(0, 6, 0), nil
	case Annually, annuallyLegacy:
		return from.AddDate(1, 0, 0), nil
	case Custom:
		if customDays == nil || *customDays < 1 {
			return time.Time{}, ErrInvalidCustomDays
		}
		return from.AddDate(0, 0, *customDays), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownInterval, interval)
	}
}

// NormalizeCustomDays drops the day count unless the interval is custom.
func NormalizeCustomDays(interval IntervalType, customDays *int) *int {
	if interval != Custom {
		return nil
	}
	return customDays
}

// ChecklistStatus is late once the planned date has passed.
func ChecklistStatus(next *time.Time, now time.Time) string {
	if next != nil && !next.IsZero() && next.Before(now) {
		return StatusLate
	}
	return StatusPlanned
}
