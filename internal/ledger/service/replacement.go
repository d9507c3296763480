package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	"go.uber.org/zap"
)

// RecordReplacement records the instantaneous delta of an in-place content
// replacement. It declines (nil entry) whenever the next backfill would
// account for the file anyway, so the same bytes are never counted twice.
func (s *Service) RecordReplacement(ctx context.Context, userID snowflake.ID, oldFile, newFile ledgerdomain.FileRef) (*ledgerdomain.UsageEntry, error) {
	if userID == 0 {
		return nil, ledgerdomain.ErrInvalidUser
	}

	delta := newFile.Size - oldFile.Size
	if delta == 0 {
		return nil, nil
	}

	qctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	entries, err := s.repo.ListByUser(qctx, userID)
	if err != nil {
		return nil, aggregationErr(err)
	}

	latest := ledgerdomain.LatestTemporal(entries)
	if latest == nil {
		return nil, nil
	}

	covered, err := latest.CoversAtOrBefore(newFile.CreatedAt)
	if err != nil {
		return nil, err
	}
	if !covered {
		// The file was created past the watermark: no bucket has counted it
		// yet, so the next backfill picks up its current size directly.
		return nil, nil
	}

	now := s.clock.Now().UTC()
	entry := &ledgerdomain.UsageEntry{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Delta:     delta,
		Period:    now,
		Type:      ledgerdomain.EntryTypeReplacement,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.repo.InsertIfAbsent(qctx, entry); err != nil {
		return nil, err
	}

	s.log.Debug("recorded replacement delta",
		zap.String("user_id", userID.String()),
		zap.String("file_id", newFile.ID.String()),
		zap.Int64("delta", delta),
	)
	if s.metrics != nil {
		s.metrics.IncReplacementEntry()
	}
	return entry, nil
}
