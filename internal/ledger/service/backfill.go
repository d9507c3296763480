package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	"go.uber.org/zap"
)

// EnsureUpToDate catches the user's ledger up to the end of yesterday (UTC).
//
// With no entries at all it writes one cumulative daily entry for yesterday
// holding the user's entire footprint as of today's start. Otherwise it walks
// the missing days between the watermark and yesterday in chronological
// order, computing each day's net delta from the file feed and writing it
// with a conflict-safe insert. Each day is one atomic step: a failure leaves
// every committed day valid and a retry resumes from the advanced watermark.
func (s *Service) EnsureUpToDate(ctx context.Context, userID snowflake.ID) error {
	if userID == 0 {
		return ledgerdomain.ErrInvalidUser
	}

	now := s.clock.Now().UTC()
	todayStart := ledgerdomain.Daily.PeriodStart(now)

	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	entries, err := s.repo.ListByUser(qctx, userID)
	cancel()
	if err != nil {
		return aggregationErr(err)
	}

	mark, ok := ledgerdomain.Watermark(entries)
	if !ok {
		return s.writeFirstCumulative(ctx, userID, todayStart)
	}

	// A yearly watermark lands on Jan 1, so a granularity downgrade from a
	// stale yearly snapshot naturally replays every day since the start of
	// the first uncovered year.
	for day := mark; day.Before(todayStart); day = day.AddDate(0, 0, 1) {
		if err := s.backfillDay(ctx, userID, day, todayStart); err != nil {
			if s.metrics != nil {
				s.metrics.IncBackfillFailure()
			}
			return &ledgerdomain.BackfillError{Day: day, Err: err}
		}
	}
	return nil
}

// writeFirstCumulative records everything the user stored before today as a
// single daily entry dated yesterday. Files created today stay in the live
// tail. The deletion boundary is exact: a file deleted at today 00:00:00
// still counts, one deleted any earlier does not.
func (s *Service) writeFirstCumulative(ctx context.Context, userID snowflake.ID, todayStart time.Time) error {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	yesterday := todayStart.AddDate(0, 0, -1)

	delta, err := s.filefeed.NetSizeChange(qctx, userID, nil, &todayStart)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncBackfillFailure()
		}
		return &ledgerdomain.BackfillError{Day: yesterday, Err: err}
	}

	inserted, err := s.repo.InsertIfAbsent(qctx, s.newDailyEntry(userID, yesterday, delta))
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncBackfillFailure()
		}
		return &ledgerdomain.BackfillError{Day: yesterday, Err: err}
	}
	if inserted {
		s.log.Info("wrote first cumulative usage entry",
			zap.String("user_id", userID.String()),
			zap.Time("period", yesterday),
			zap.Int64("delta", delta),
		)
		if s.metrics != nil {
			s.metrics.IncBackfillDay()
		}
	}
	return nil
}

// backfillDay computes and persists the net delta for one missing day.
// Interior zero-delta days are skipped; the final day is always written so
// the watermark advances past the whole gap.
func (s *Service) backfillDay(ctx context.Context, userID snowflake.ID, day, todayStart time.Time) error {
	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	next := day.AddDate(0, 0, 1)

	delta, err := s.filefeed.NetSizeChange(qctx, userID, &day, &next)
	if err != nil {
		return err
	}
	if delta == 0 && next.Before(todayStart) {
		return nil
	}

	inserted, err := s.repo.InsertIfAbsent(qctx, s.newDailyEntry(userID, day, delta))
	if err != nil {
		return err
	}
	if inserted && s.metrics != nil {
		s.metrics.IncBackfillDay()
	}
	return nil
}

func (s *Service) newDailyEntry(userID snowflake.ID, period time.Time, delta int64) *ledgerdomain.UsageEntry {
	now := s.clock.Now().UTC()
	return &ledgerdomain.UsageEntry{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Delta:     delta,
		Period:    period,
		Type:      ledgerdomain.EntryTypeDaily,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
