package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	filefeeddomain "github.com/driftbyte/skyvault/internal/filefeed/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) filefeeddomain.Repository {
	return &repo{db: db}
}

func (r *repo) Record(ctx context.Context, fact *filefeeddomain.FileFact) error {
	if fact == nil || fact.ID == 0 {
		return filefeeddomain.ErrInvalidFile
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"size", "status", "metadata", "updated_at"}),
		}).
		Create(fact).Error
}

// NetSizeChange evaluates the window as two sums. Boundary convention is
// half-open throughout: a transition stamped exactly at the window end
// belongs to the next window.
func (r *repo) NetSizeChange(ctx context.Context, userID snowflake.ID, from, to *time.Time) (int64, error) {
	added, err := r.sumCreatedAlive(ctx, userID, from, to)
	if err != nil {
		return 0, err
	}

	// Nothing existed before the beginning of time, so an unbounded start
	// has no deletions to subtract.
	if from == nil {
		return added, nil
	}

	removed, err := r.sumDeletedExistedBefore(ctx, userID, *from, to)
	if err != nil {
		return 0, err
	}
	return added - removed, nil
}

// sumCreatedAlive sums sizes of files created inside the window that still
// exist at the window end.
func (r *repo) sumCreatedAlive(ctx context.Context, userID snowflake.ID, from, to *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&filefeeddomain.FileFact{}).
		Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("created_at >= ?", from.UTC())
	}
	if to != nil {
		q = q.Where("created_at < ?", to.UTC()).
			Where("(status <> ? OR updated_at >= ?)", filefeeddomain.FileStatusDeleted, to.UTC())
	} else {
		q = q.Where("status <> ?", filefeeddomain.FileStatusDeleted)
	}

	var total int64
	err := q.Select("COALESCE(SUM(size), 0)").Scan(&total).Error
	return total, err
}

// sumDeletedExistedBefore sums sizes of files created before the window that
// were deleted inside it.
func (r *repo) sumDeletedExistedBefore(ctx context.Context, userID snowflake.ID, from time.Time, to *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&filefeeddomain.FileFact{}).
		Where("user_id = ?", userID).
		Where("status = ?", filefeeddomain.FileStatusDeleted).
		Where("created_at < ?", from.UTC()).
		Where("updated_at >= ?", from.UTC())
	if to != nil {
		q = q.Where("updated_at < ?", to.UTC())
	}

	var total int64
	err := q.Select("COALESCE(SUM(size), 0)").Scan(&total).Error
	return total, err
}
