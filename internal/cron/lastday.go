package cron

import (
	"strconv"
	"time"

	"github.com/wasilibs/go-re2"
)

// maxLastDayMonths bounds the month-by-month search, matching the five year
// horizon robfig/cron uses before giving up.
const maxLastDayMonths = 60

// lastDayToken matches a standalone L so month names such as JUL and
// descriptors such as @hourly are left alone.
var lastDayToken = re2.MustCompile(`(?i)\bL\b`)

func hasLastDay(expr string) bool {
	return lastDayToken.MatchString(expr)
}

func substituteLastDay(expr string, day int) string {
	return lastDayToken.ReplaceAllString(expr, strconv.Itoa(day))
}

// daysIn returns the number of days in the month containing t.
func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// nextLastDay resolves an expression containing L one calendar month at a time.
// For each month L becomes that month's length; the first candidate that falls
// inside the month it was built for wins.
func (r *Resolver) nextLastDay(from time.Time, expr string, opts Options) (time.Time, bool) {
	loc := from.Location()
	year, month, _ := from.Date()

	ref := from
	for i := 0; i < maxLastDayMonths; i++ {
		monthStart := time.Date(year, month+time.Month(i), 1, 0, 0, 0, 0, loc)
		if opts.EndDate != nil && monthStart.After(*opts.EndDate) {
			return time.Time{}, false
		}
		if i > 0 {
			ref = monthStart.Add(-time.Nanosecond)
		}

		sched, err := r.parser.Parse(substituteLastDay(expr, daysIn(monthStart)))
		if err != nil {
			return time.Time{}, false
		}

		candidate := sched.Next(ref)
		if candidate.IsZero() {
			continue
		}
		if candidate.Year() == monthStart.Year() && candidate.Month() == monthStart.Month() {
			return bounded(candidate, opts)
		}
	}

	return time.Time{}, false
}
