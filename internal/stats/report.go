package stats

import (
	"math"
	"sort"
	"time"

	"maintenance-backend/internal/model"
)

// CauseCount is the number of tickets filed under one root-cause category.
type CauseCount struct {
	Cause string `json:"cause"`
	Count int    `json:"count"`
}

// MonthCount is the number of interventions scheduled in a month.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthIntervention splits a month's interventions by who performed them.
type MonthIntervention struct {
	Month    string `json:"month"`
	Internal int    `json:"internal"`
	External int    `json:"external"`
}

// MonthDowntime is the business-hour downtime of tickets opened in a month.
type MonthDowntime struct {
	Month string  `json:"month"`
	Hours float64 `json:"hours"`
}

// Report aggregates ticket statistics for one machine or all of them.
type Report struct {
	TotalTickets      int                 `json:"totalTickets"`
	RootCauses        []CauseCount        `json:"rootCauses"`
	InterventionCount []MonthCount        `json:"interventionCount"`
	InterventionType  []MonthIntervention `json:"interventionType"`
	Downtime          []MonthDowntime     `json:"downtime"`
}

type monthKey struct {
	year  int
	month time.Month
}

func keyOf(t time.Time) monthKey { return monthKey{t.Year(), t.Month()} }

func (k monthKey) label() string {
	return time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC).Format("Jan/2006")
}

func (k monthKey) before(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

func sortedKeys[V any](m map[monthKey]V) []monthKey {
	keys := make([]monthKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	return keys
}

// Compute builds the statistics report. Tickets must have Category preloaded
// for root causes to be counted.
func Compute(tickets []model.Ticket, hours BusinessHours) Report {
	causes := make(map[string]int)
	counts := make(map[monthKey]int)
	types := make(map[monthKey]*MonthIntervention)
	downtime := make(map[monthKey]float64)

	for _, t := range tickets {
		if t.Category != nil && t.Category.Name != "" {
			causes[t.Category.Name]++
		}

		if !t.ScheduledDate.IsZero() {
			k := keyOf(t.ScheduledDate)
			counts[k]++
			mi, ok := types[k]
			if !ok {
				mi = &MonthIntervention{Month: k.label()}
				types[k] = mi
			}
			if t.InterventionType {
				mi.External++
			} else {
				mi.Internal++
			}
		}

		if t.CompletedDate != nil && !t.CreatedAt.IsZero() {
			downtime[keyOf(t.CreatedAt)] += Downtime(t.CreatedAt, *t.CompletedDate, hours)
		}
	}

	report := Report{
		TotalTickets:      len(tickets),
		RootCauses:        make([]CauseCount, 0, len(causes)),
		InterventionCount: make([]MonthCount, 0, len(counts)),
		InterventionType:  make([]MonthIntervention, 0, len(types)),
		Downtime:          make([]MonthDowntime, 0, len(downtime)),
	}

	for cause, n := range causes {
		report.RootCauses = append(report.RootCauses, CauseCount{Cause: cause, Count: n})
	}
	sort.Slice(report.RootCauses, func(i, j int) bool {
		a, b := report.RootCauses[i], report.RootCauses[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Cause < b.Cause
	})

	for _, k := range sortedKeys(counts) {
		report.InterventionCount = append(report.InterventionCount, MonthCount{Month: k.label(), Count: counts[k]})
	}
	for _, k := range sortedKeys(types) {
		report.InterventionType = append(report.InterventionType, *types[k])
	}
	for _, k := range sortedKeys(downtime) {
		report.Downtime = append(report.Downtime, MonthDowntime{Month: k.label(), Hours: math.Round(downtime[k]*100) / 100})
	}
	return report
}
