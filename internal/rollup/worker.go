// Package rollup compacts fully backfilled calendar ranges into coarser
// ledger buckets: dailies of a finished month into one monthly entry, a
// finished year into one yearly entry. Aggregation then reads one row where
// it would have read hundreds, and the coarser-wins rule keeps totals
// identical because the superseded rows stop counting the moment the coarser
// row exists.
package rollup

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/driftbyte/skyvault/internal/clock"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	obsmetrics "github.com/driftbyte/skyvault/internal/observability/metrics"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    ledgerdomain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
	Config  Config              `optional:"true"`
}

type Worker struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    ledgerdomain.Repository
	metrics *obsmetrics.Metrics
	cfg     Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:     p.Log.Named("rollup"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
		cfg:     p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("rollup run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, w.cfg.RunTimeout)
	defer cancel()

	_, err := w.processBatch(ctx, w.cfg.BatchSize)
	return err
}

// processBatch pages through every candidate user with a keyset cursor, so
// users past the first page still get compacted even when superseded dailies
// keep old users matching the candidate predicate.
func (w *Worker) processBatch(ctx context.Context, limit int) (int, error) {
	now := w.clock.Now().UTC()
	monthStart := ledgerdomain.Monthly.PeriodStart(now)

	log := w.log.With(zap.String("run_id", uuid.NewString()))

	processed := 0
	var after snowflake.ID
	for {
		userIDs, err := w.repo.UserIDsWithDailyBefore(ctx, monthStart, after, limit)
		if err != nil {
			return processed, err
		}
		if len(userIDs) == 0 {
			return processed, nil
		}

		for _, userID := range userIDs {
			userCtx, cancel := context.WithTimeout(ctx, w.cfg.UserTimeout)
			err := w.compactUser(userCtx, userID, now)
			cancel()

			if err != nil {
				log.Warn("rollup user failed",
					zap.Error(err),
					zap.String("user_id", userID.String()),
				)
				continue
			}
			processed++
		}

		after = userIDs[len(userIDs)-1]
		if len(userIDs) < limit {
			return processed, nil
		}
	}
}

// compactUser writes monthly entries for the user's finished months, then
// yearly entries for finished years. Only ranges wholly at or below the
// watermark are compacted: a yearly snapshot must guarantee correctness
// through the end of its year.
func (w *Worker) compactUser(ctx context.Context, userID snowflake.ID, now time.Time) error {
	if err := w.compactMonths(ctx, userID, now); err != nil {
		return err
	}
	return w.compactYears(ctx, userID, now)
}

func (w *Worker) compactMonths(ctx context.Context, userID snowflake.ID, now time.Time) error {
	entries, err := w.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	mark, ok := ledgerdomain.Watermark(entries)
	if !ok {
		return nil
	}
	currentMonth := ledgerdomain.Monthly.PeriodStart(now)

	coveredYears := make(map[time.Time]struct{})
	coveredMonths := make(map[time.Time]struct{})
	for i := range entries {
		switch entries[i].Type {
		case ledgerdomain.EntryTypeYearly:
			coveredYears[ledgerdomain.Yearly.PeriodStart(entries[i].Period)] = struct{}{}
		case ledgerdomain.EntryTypeMonthly:
			coveredMonths[ledgerdomain.Monthly.PeriodStart(entries[i].Period)] = struct{}{}
		}
	}

	sums := make(map[time.Time]int64)
	for i := range entries {
		if entries[i].Type != ledgerdomain.EntryTypeDaily {
			continue
		}
		month := ledgerdomain.Monthly.PeriodStart(entries[i].Period)
		if !month.Before(currentMonth) {
			continue
		}
		if ledgerdomain.Monthly.NextStart(month).After(mark) {
			continue
		}
		if _, done := coveredMonths[month]; done {
			continue
		}
		if _, done := coveredYears[ledgerdomain.Yearly.PeriodStart(month)]; done {
			continue
		}
		sums[month] += entries[i].Delta
	}

	for month, delta := range sums {
		if err := w.insertRollup(ctx, userID, ledgerdomain.EntryTypeMonthly, month, delta); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) compactYears(ctx context.Context, userID snowflake.ID, now time.Time) error {
	// Reload so months compacted moments ago participate.
	entries, err := w.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	mark, ok := ledgerdomain.Watermark(entries)
	if !ok {
		return nil
	}
	currentYear := ledgerdomain.Yearly.PeriodStart(now)

	coveredYears := make(map[time.Time]struct{})
	for i := range entries {
		if entries[i].Type == ledgerdomain.EntryTypeYearly {
			coveredYears[ledgerdomain.Yearly.PeriodStart(entries[i].Period)] = struct{}{}
		}
	}

	sums := make(map[time.Time]int64)
	for i := range entries {
		e := &entries[i]
		g, temporal := ledgerdomain.GranularityOf(e.Type)
		if !temporal || g == ledgerdomain.Yearly {
			continue
		}
		year := ledgerdomain.Yearly.PeriodStart(e.Period)
		if !year.Before(currentYear) {
			continue
		}
		if ledgerdomain.Yearly.NextStart(year).After(mark) {
			continue
		}
		if _, done := coveredYears[year]; done {
			continue
		}
		// compactMonths already superseded this year's dailies with monthly
		// rows; any daily still counting here belongs to a month that was
		// not compacted, so monthly-wins within the year keeps this sum
		// equal to the aggregation's view.
		if g == ledgerdomain.Daily {
			month := ledgerdomain.Monthly.PeriodStart(e.Period)
			if hasMonthly(entries, userID, month) {
				continue
			}
		}
		sums[year] += e.Delta
	}

	for year, delta := range sums {
		if err := w.insertRollup(ctx, userID, ledgerdomain.EntryTypeYearly, year, delta); err != nil {
			return err
		}
	}
	return nil
}

func hasMonthly(entries []ledgerdomain.UsageEntry, userID snowflake.ID, month time.Time) bool {
	for i := range entries {
		if entries[i].UserID != userID {
			continue
		}
		if entries[i].Type != ledgerdomain.EntryTypeMonthly {
			continue
		}
		if ledgerdomain.Monthly.PeriodStart(entries[i].Period).Equal(month) {
			return true
		}
	}
	return false
}

func (w *Worker) insertRollup(ctx context.Context, userID snowflake.ID, entryType ledgerdomain.EntryType, period time.Time, delta int64) error {
	now := w.clock.Now().UTC()
	inserted, err := w.repo.InsertIfAbsent(ctx, &ledgerdomain.UsageEntry{
		ID:        w.genID.Generate(),
		UserID:    userID,
		Delta:     delta,
		Period:    period,
		Type:      entryType,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}
	if inserted {
		w.log.Debug("compacted usage range",
			zap.String("user_id", userID.String()),
			zap.String("type", string(entryType)),
			zap.Time("period", period),
			zap.Int64("delta", delta),
		)
		if w.metrics != nil {
			w.metrics.IncRollupCompaction()
		}
	}
	return nil
}
