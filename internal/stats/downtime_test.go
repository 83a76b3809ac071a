package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, minute int) time.Time {
	// June 2024: the 3rd is a Monday.
	return time.Date(2024, time.June, day, hour, minute, 0, 0, time.UTC)
}

func TestDowntime(t *testing.T) {
	testCases := []struct {
		name      string
		created   time.Time
		completed time.Time
		expected  float64
	}{
		{name: "Same day inside hours", created: at(3, 9, 0), completed: at(3, 11, 30), expected: 2.5},
		{name: "Starts before opening", created: at(3, 6, 0), completed: at(3, 8, 0), expected: 0.5},
		{name: "Ends after closing", created: at(3, 15, 0), completed: at(3, 20, 0), expected: 1},
		{name: "Full working day", created: at(3, 0, 0), completed: at(3, 23, 59), expected: 8.5},
		{name: "Overnight", created: at(3, 15, 0), completed: at(4, 8, 30), expected: 2},
		{name: "Across weekend", created: at(7, 15, 0), completed: at(10, 8, 30), expected: 2},
		{name: "Weekend only", created: at(8, 9, 0), completed: at(9, 17, 0), expected: 0},
		{name: "Whole week", created: at(3, 7, 30), completed: at(7, 16, 0), expected: 42.5},
		{name: "Completed before created", created: at(4, 9, 0), completed: at(3, 9, 0), expected: 0},
		{name: "Fractional minutes", created: at(3, 9, 0), completed: at(3, 9, 20), expected: 0.33},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Downtime(tc.created, tc.completed, DefaultBusinessHours))
		})
	}
}

func TestParseBusinessHours(t *testing.T) {
	h, err := ParseBusinessHours("07:30", "16:00")
	require.NoError(t, err)
	assert.Equal(t, DefaultBusinessHours, h)

	_, err = ParseBusinessHours("16:00", "07:30")
	assert.Error(t, err)

	_, err = ParseBusinessHours("7h", "16:00")
	assert.Error(t, err)
}
