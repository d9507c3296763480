// Package domain contains the storage-accounting ledger model: per-user
// signed byte deltas over calendar buckets, plus instantaneous replacement
// corrections.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntryType identifies the bucket shape of a ledger row. The first three are
// temporal (they cover a calendar range); replacement is a point event.
type EntryType string

const (
	EntryTypeDaily       EntryType = "daily"
	EntryTypeMonthly     EntryType = "monthly"
	EntryTypeYearly      EntryType = "yearly"
	EntryTypeReplacement EntryType = "replacement"
)

// UsageEntry is one ledger row: the net byte change for a user within the
// bucket starting at Period. Rows are append-only; corrections are made by
// inserting compensating entries, never by mutation.
type UsageEntry struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_usage_entries_user_type_period,priority:1" json:"user_id"`
	Delta     int64        `gorm:"not null" json:"delta"`
	Period    time.Time    `gorm:"not null;uniqueIndex:ux_usage_entries_user_type_period,priority:3" json:"period"`
	Type      EntryType    `gorm:"type:text;not null;uniqueIndex:ux_usage_entries_user_type_period,priority:2" json:"type"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UsageEntry) TableName() string { return "usage_entries" }

// IsTemporal reports whether the entry covers a calendar range.
func (e *UsageEntry) IsTemporal() bool {
	_, ok := GranularityOf(e.Type)
	return ok
}

// NextPeriodStart returns the start of the bucket immediately following this
// entry's period, at the entry's own granularity. It fails on a replacement
// entry; callers must check IsTemporal first.
func (e *UsageEntry) NextPeriodStart() (time.Time, error) {
	g, ok := GranularityOf(e.Type)
	if !ok {
		return time.Time{}, ErrNonTemporalEntry
	}
	return g.NextStart(e.Period), nil
}

// CoversAtOrBefore reports whether t falls within or before this entry's
// covered range. A yearly entry for 2024 answers true for every instant in
// 2024 and earlier, false for anything in 2025 onward.
func (e *UsageEntry) CoversAtOrBefore(t time.Time) (bool, error) {
	next, err := e.NextPeriodStart()
	if err != nil {
		return false, err
	}
	return t.Before(next), nil
}
