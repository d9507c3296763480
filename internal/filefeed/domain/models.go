// Package domain models the file-lifecycle feed at its interface boundary.
// The accounting engine reads these facts; the file services own them.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type FileStatus string

const (
	FileStatusExists  FileStatus = "EXISTS"
	FileStatusTrashed FileStatus = "TRASHED"
	FileStatusDeleted FileStatus = "DELETED"
)

// Valid reports whether s is a known lifecycle status.
func (s FileStatus) Valid() bool {
	switch s {
	case FileStatusExists, FileStatusTrashed, FileStatusDeleted:
		return true
	default:
		return false
	}
}

// FileFact is the latest known lifecycle state of one file. For a DELETED
// fact, UpdatedAt is the deletion instant. Trashed files still occupy
// storage and count toward usage.
type FileFact struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID      `gorm:"not null;index:idx_file_facts_user_created,priority:1" json:"user_id"`
	Size      int64             `gorm:"not null" json:"size"`
	Status    FileStatus        `gorm:"type:text;not null" json:"status"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;index:idx_file_facts_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (FileFact) TableName() string { return "file_facts" }

type Repository interface {
	// Record upserts the latest lifecycle state of a file.
	Record(ctx context.Context, fact *FileFact) error

	// NetSizeChange returns the net byte change of the user's file set over
	// the half-open window [from, to): sizes of files created in the window
	// and still existing at its end, minus sizes of files that existed at
	// its start and were deleted inside it. A nil from extends the window to
	// the beginning of time (yielding the bytes existing at to); a nil to
	// extends it to now.
	NetSizeChange(ctx context.Context, userID snowflake.ID, from, to *time.Time) (int64, error)
}

var (
	ErrInvalidFile   = errors.New("invalid_file")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrInvalidSize   = errors.New("invalid_size")
)
