package service

import (
	"context"
	"testing"
	"time"

	filefeeddomain "github.com/driftbyte/skyvault/internal/filefeed/domain"
	ledgerdomain "github.com/driftbyte/skyvault/internal/ledger/domain"
)

func TestRecordReplacementZeroDelta(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc, db, _, node := newTestService(t, now)
	user := node.Generate()

	insertEntry(t, db, node, user, ledgerdomain.EntryTypeDaily, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), 500)

	created := now.AddDate(0, 0, -5)
	fileID := node.Generate()
	old := ledgerdomain.FileRef{ID: fileID, Size: 800, CreatedAt: created}
	replacement := ledgerdomain.FileRef{ID: fileID, Size: 800, CreatedAt: created}

	entry, err := svc.RecordReplacement(context.Background(), user, old, replacement)
	if err != nil {
		t.Fatalf("RecordReplacement: %v", err)
	}
	if entry != nil {
		t.Fatalf("entry = %+v, want nil for zero delta", entry)
	}
	if got := len(listEntries(t, db, user)); got != 1 {
		t.Fatalf("entries = %d, want 1 (nothing recorded)", got)
	}
}

func TestRecordReplacementWithoutLedger(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc, db, _, node := newTestService(t, now)
	user := node.Generate()

	created := now.AddDate(0, 0, -5)
	fileID := node.Generate()
	old := ledgerdomain.FileRef{ID: fileID, Size: 800, CreatedAt: created}
	replacement := ledgerdomain.FileRef{ID: fileID, Size: 1000, CreatedAt: created}

	entry, err := svc.RecordReplacement(context.Background(), user, old, replacement)
	if err != nil {
		t.Fatalf("RecordReplacement: %v", err)
	}
	if entry != nil {
		t.Fatalf("entry = %+v, want nil when no temporal entry exists", entry)
	}
	if got := len(listEntries(t, db, user)); got != 0 {
		t.Fatalf("entries = %d, want 0", got)
	}
}

func TestRecordReplacementSkipsFilePastWatermark(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc, db, _, node := newTestService(t, now)
	user := node.Generate()

	// Watermark at 2026-03-10 00:00.
	insertEntry(t, db, node, user, ledgerdomain.EntryTypeDaily, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), 500)

	// The file was created today, past the watermark: no bucket has counted
	// it, so the next backfill reads its current size directly.
	fileID := node.Generate()
	created := now.Add(-time.Hour)
	old := ledgerdomain.FileRef{ID: fileID, Size: 800, CreatedAt: created}
	replacement := ledgerdomain.FileRef{ID: fileID, Size: 1000, CreatedAt: created}

	entry, err := svc.RecordReplacement(context.Background(), user, old, replacement)
	if err != nil {
		t.Fatalf("RecordReplacement: %v", err)
	}
	if entry != nil {
		t.Fatalf("entry = %+v, want nil for a file past the watermark", entry)
	}
}

func TestRecordReplacementKeepsUsageExact(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc, db, _, node := newTestService(t, now)
	user := node.Generate()

	created := now.AddDate(0, 0, -2)
	fileID := insertFact(t, db, node, user, 800, filefeeddomain.FileStatusExists, created, created)

	if err := svc.EnsureUpToDate(context.Background(), user); err != nil {
		t.Fatalf("EnsureUpToDate: %v", err)
	}

	// The file's content is replaced in place and grows by 200 bytes.
	if err := db.Model(&filefeeddomain.FileFact{}).Where("id = ?", fileID).
		Updates(map[string]any{"size": 1000, "updated_at": now}).Error; err != nil {
		t.Fatalf("update fact: %v", err)
	}

	old := ledgerdomain.FileRef{ID: fileID, Size: 800, CreatedAt: created}
	replacement := ledgerdomain.FileRef{ID: fileID, Size: 1000, CreatedAt: created}

	entry, err := svc.RecordReplacement(context.Background(), user, old, replacement)
	if err != nil {
		t.Fatalf("RecordReplacement: %v", err)
	}
	if entry == nil {
		t.Fatal("entry = nil, want a recorded replacement")
	}
	if entry.Type != ledgerdomain.EntryTypeReplacement {
		t.Fatalf("type = %s, want replacement", entry.Type)
	}
	if entry.Delta != 200 {
		t.Fatalf("delta = %d, want 200", entry.Delta)
	}

	usage, err := svc.GetUserUsage(context.Background(), user)
	if err != nil {
		t.Fatalf("GetUserUsage: %v", err)
	}
	if usage.Drive != 1000 {
		t.Fatalf("drive = %d, want 1000 (snapshot 800 + correction 200)", usage.Drive)
	}
}

func TestRecordReplacementRejectsZeroUser(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc, _, _, node := newTestService(t, now)

	fileID := node.Generate()
	ref := ledgerdomain.FileRef{ID: fileID, Size: 100, CreatedAt: now}
	if _, err := svc.RecordReplacement(context.Background(), 0, ref, ref); err != ledgerdomain.ErrInvalidUser {
		t.Fatalf("err = %v, want ErrInvalidUser", err)
	}
}
