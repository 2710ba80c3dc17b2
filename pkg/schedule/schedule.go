package schedule

import (
	"fmt"
	"time"
)

// Schedule yields the next run time strictly after from.
type Schedule interface {
	Next(from time.Time) time.Time
	String() string
}

// Every waits d after each run. Non-positive durations become one minute.
func Every(d time.Duration) Schedule {
	if d <= 0 {
		d = time.Minute
	}
	return every(d)
}

type every time.Duration

func (e every) Next(from time.Time) time.Time { return from.Add(time.Duration(e)) }
func (e every) String() string                { return fmt.Sprintf("every %v", time.Duration(e)) }

// Aligned fires on UTC wall-clock multiples of period shifted by offset. Replicas using the same Aligned schedule tick
// together. Non-positive periods become one minute.
func Aligned(period, offset time.Duration) Schedule {
	if period <= 0 {
		period = time.Minute
	}
	return aligned{period: period, offset: offset % period}
}

type aligned struct {
	period time.Duration
	offset time.Duration
}

func (a aligned) Next(from time.Time) time.Time {
	next := from.Add(-a.offset).Truncate(a.period).Add(a.offset)
	for !next.After(from) {
		next = next.Add(a.period)
	}
	return next
}

func (a aligned) String() string {
	if a.offset == 0 {
		return fmt.Sprintf("aligned to %v", a.period)
	}
	return fmt.Sprintf("aligned to %v +%v", a.period, a.offset)
}
