// Package stats derives downtime and intervention statistics from tickets.
package stats

import (
	"fmt"
	"math"
	"time"
)

// maxDailyHours caps a single day's contribution.
const maxDailyHours = 8.5

// BusinessHours is the daily window, as offsets from midnight, that counts as downtime.
type BusinessHours struct {
	Start time.Duration
	End   time.Duration
}

// DefaultBusinessHours is 07:30 to 16:00.
var DefaultBusinessHours = BusinessHours{
	Start: 7*time.Hour + 30*time.Minute,
	End:   16 * time.Hour,
}

// ParseBusinessHours reads "HH:MM" bounds.
func ParseBusinessHours(start, end string) (BusinessHours, error) {
	s, err := parseClock(start)
	if err != nil {
		return BusinessHours{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return BusinessHours{}, err
	}
	if e <= s {
		return BusinessHours{}, fmt.Errorf("business hours end %s is not after start %s", end, start)
	}
	return BusinessHours{Start: s, End: e}, nil
}

func parseClock(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", v, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Downtime sums the weekday business hours between created and completed,
// rounded to two decimals. Times are evaluated in created's location.
func Downtime(created, completed time.Time, hours BusinessHours) float64 {
	completed = completed.In(created.Location())
	if !completed.After(created) {
		return 0
	}

	var total float64
	cursor := created
	for !cursor.After(completed) {
		if wd := cursor.Weekday(); wd >= time.Monday && wd <= time.Friday {
			midnight := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), 0, 0, 0, 0, cursor.Location())
			start := midnight.Add(hours.Start)
			end := midnight.Add(hours.End)

			if cursor.After(start) {
				start = cursor
			}
			if completed.Before(end) {
				end = completed
			}
			if start.Before(end) {
				total += math.Min(maxDailyHours, end.Sub(start).Hours())
			}
		}
		cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day()+1, 0, 0, 0, 0, cursor.Location())
	}
	return math.Round(total*100) / 100
}
