package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Usage is the public read result consumed by quota enforcement.
type Usage struct {
	ID    snowflake.ID `json:"id"`
	Drive int64        `json:"drive"`
}

// FileRef carries the subset of a file's lifecycle fact needed by the
// replacement recorder.
type FileRef struct {
	ID        snowflake.ID `json:"id"`
	Size      int64        `json:"size"`
	CreatedAt time.Time    `json:"created_at"`
}

type Service interface {
	// GetUserUsage returns the user's current drive usage in bytes. It
	// backfills the ledger up to yesterday first, so the answer is exact
	// within the granularity of the last backfill.
	GetUserUsage(ctx context.Context, userID snowflake.ID) (Usage, error)

	// EnsureUpToDate backfills missing daily entries between the user's
	// watermark and yesterday. Idempotent; safe to retry after any failure.
	EnsureUpToDate(ctx context.Context, userID snowflake.ID) error

	// RecordReplacement records the size delta of an in-place content
	// replacement. Returns nil when there is nothing to record: zero delta,
	// no temporal entry yet, or a file not yet covered by any bucket (the
	// next backfill accounts for it wholesale).
	RecordReplacement(ctx context.Context, userID snowflake.ID, oldFile, newFile FileRef) (*UsageEntry, error)
}

type Repository interface {
	ListByUser(ctx context.Context, userID snowflake.ID) ([]UsageEntry, error)

	// InsertIfAbsent persists the entry unless a row with the same
	// (user_id, type, period) already exists. Reports whether a row was
	// written. Concurrent callers racing on the same bucket are resolved by
	// the database, never by read-then-write.
	InsertIfAbsent(ctx context.Context, entry *UsageEntry) (bool, error)

	// UserIDsWithDailyBefore lists users owning daily entries older than
	// cutoff, for rollup compaction. Results are ordered by user ID and
	// restricted to IDs greater than afterID, so callers page through the
	// full candidate set with a keyset cursor.
	UserIDsWithDailyBefore(ctx context.Context, cutoff time.Time, afterID snowflake.ID, limit int) ([]snowflake.ID, error)
}

var (
	ErrInvalidUser = errors.New("invalid_user")

	// ErrAggregationUnavailable signals a timeout or connection failure while
	// summing. Callers retry with backoff; the engine never substitutes zero.
	ErrAggregationUnavailable = errors.New("aggregation_unavailable")

	// ErrNonTemporalEntry is returned when bucket arithmetic is attempted on
	// a replacement entry. Programmer error, not user-facing.
	ErrNonTemporalEntry = errors.New("non_temporal_entry")
)

// BackfillError reports a failure partway through a multi-day backfill.
// Days committed before the failure remain valid; a retry resumes from the
// advanced watermark.
type BackfillError struct {
	Day time.Time
	Err error
}

func (e *BackfillError) Error() string {
	return fmt.Sprintf("backfill day %s: %v", e.Day.UTC().Format("2006-01-02"), e.Err)
}

func (e *BackfillError) Unwrap() error { return e.Err }
