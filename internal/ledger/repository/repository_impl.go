package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
	"github.com/driftbyte/skyvault/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) ledgerdomain.Repository {
	return &repo{db: conn}
}

func (r *repo) ListByUser(ctx context.Context, userID snowflake.ID) ([]ledgerdomain.UsageEntry, error) {
	var entries []ledgerdomain.UsageEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, entry *ledgerdomain.UsageEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "type"},
				{Name: "period"},
			},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		// Dialects without conflict-target support surface the race as a
		// duplicate-key error; the invariant holds either way.
		if db.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) UserIDsWithDailyBefore(ctx context.Context, cutoff time.Time, afterID snowflake.ID, limit int) ([]snowflake.ID, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&ledgerdomain.UsageEntry{}).
		Distinct("user_id").
		Where("type = ?", ledgerdomain.EntryTypeDaily).
		Where("period < ?", cutoff.UTC()).
		Where("user_id > ?", afterID).
		Order("user_id ASC").
		Limit(limit).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
