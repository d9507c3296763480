package domain

import (
	"fmt"
	"time"
)

// Granularity is the closed set of temporal bucket sizes. Keeping the
// calendar arithmetic behind one variant keeps the switches exhaustive: a new
// granularity fails compilation everywhere it is not handled.
type Granularity int

const (
	Daily Granularity = iota
	Monthly
	Yearly
)

// GranularityOf maps a temporal entry type to its granularity.
func GranularityOf(t EntryType) (Granularity, bool) {
	switch t {
	case EntryTypeDaily:
		return Daily, true
	case EntryTypeMonthly:
		return Monthly, true
	case EntryTypeYearly:
		return Yearly, true
	default:
		return 0, false
	}
}

// EntryType returns the ledger entry type for this granularity.
func (g Granularity) EntryType() EntryType {
	switch g {
	case Daily:
		return EntryTypeDaily
	case Monthly:
		return EntryTypeMonthly
	case Yearly:
		return EntryTypeYearly
	default:
		panic(fmt.Sprintf("unknown granularity %d", g))
	}
}

// PeriodStart truncates t (UTC) to the start of the bucket containing it.
func (g Granularity) PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		panic(fmt.Sprintf("unknown granularity %d", g))
	}
}

// NextStart returns the start of the bucket following the one containing
// period. This is also the exclusive end of the covered range.
func (g Granularity) NextStart(period time.Time) time.Time {
	start := g.PeriodStart(period)
	switch g {
	case Daily:
		return start.AddDate(0, 0, 1)
	case Monthly:
		return start.AddDate(0, 1, 0)
	case Yearly:
		return start.AddDate(1, 0, 0)
	default:
		panic(fmt.Sprintf("unknown granularity %d", g))
	}
}

// Watermark returns the covered-range end of the most recent temporal entry:
// the boundary up to which the ledger is known-correct. ok is false when the
// ledger holds no temporal entry.
func Watermark(entries []UsageEntry) (time.Time, bool) {
	var mark time.Time
	for i := range entries {
		next, err := entries[i].NextPeriodStart()
		if err != nil {
			continue
		}
		if next.After(mark) {
			mark = next
		}
	}
	return mark, !mark.IsZero()
}

// LatestTemporal returns the temporal entry whose covered range ends last.
func LatestTemporal(entries []UsageEntry) *UsageEntry {
	var latest *UsageEntry
	var latestEnd time.Time
	for i := range entries {
		next, err := entries[i].NextPeriodStart()
		if err != nil {
			continue
		}
		if latest == nil || next.After(latestEnd) {
			latest = &entries[i]
			latestEnd = next
		}
	}
	return latest
}

type yearMonth struct {
	year  int
	month time.Month
}

// SumCoarserWins reduces entries to a single total under the coarser-bucket-
// wins rule: a yearly entry supersedes monthly and daily entries inside its
// year, a monthly entry supersedes daily entries inside its month, and
// replacement entries are always counted.
func SumCoarserWins(entries []UsageEntry) int64 {
	years := make(map[int]struct{})
	months := make(map[yearMonth]struct{})
	for i := range entries {
		p := entries[i].Period.UTC()
		switch entries[i].Type {
		case EntryTypeYearly:
			years[p.Year()] = struct{}{}
		case EntryTypeMonthly:
			months[yearMonth{p.Year(), p.Month()}] = struct{}{}
		}
	}

	var total int64
	for i := range entries {
		e := &entries[i]
		p := e.Period.UTC()
		switch e.Type {
		case EntryTypeYearly, EntryTypeReplacement:
			total += e.Delta
		case EntryTypeMonthly:
			if _, superseded := years[p.Year()]; superseded {
				continue
			}
			total += e.Delta
		case EntryTypeDaily:
			if _, superseded := years[p.Year()]; superseded {
				continue
			}
			if _, superseded := months[yearMonth{p.Year(), p.Month()}]; superseded {
				continue
			}
			total += e.Delta
		}
	}
	return total
}
