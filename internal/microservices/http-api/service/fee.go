package service

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// StartOfDay truncates t to midnight UTC. Due dates and "today" are compared
// as calendar days so fee math is stable for a whole day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FeePolicy prices overdue days.
type FeePolicy struct {
	PerDayVND int64
}

// DaysOverdue = max(0, ceil((today - due) / 1 day)) over calendar days.
func (p FeePolicy) DaysOverdue(due, today time.Time) int {
	diff := StartOfDay(today).Sub(StartOfDay(due))
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / day.Hours()))
}

func (p FeePolicy) Amount(days int) int64 {
	if days <= 0 {
		return 0
	}
	return int64(days) * p.PerDayVND
}
