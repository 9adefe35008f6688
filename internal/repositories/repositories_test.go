package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

func TestCreateAndList(t *testing.T) {
	repo := NewExportHistoryRepository(newTestDB(t))

	records := []models.ExportRecord{
		{BatchID: "batch1", PlaylistID: "pl1", PlaylistName: "First", Format: "csv", Status: "done", TrackCount: 10, FileCount: 1, CreatedAt: time.Now().Add(-2 * time.Hour)},
		{BatchID: "batch1", PlaylistID: "pl2", PlaylistName: "Second", Format: "csv", Status: "failed", Error: "playlist not found", CreatedAt: time.Now().Add(-time.Hour)},
		{BatchID: "batch2", PlaylistID: "pl3", PlaylistName: "Third", Format: "json", Status: "done", TrackCount: 5, FileCount: 1, CreatedAt: time.Now()},
	}
	for i := range records {
		if err := repo.Create(&records[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if records[i].ID == "" {
			t.Error("expected a generated record ID")
		}
	}

	listed, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 records, got %d", len(listed))
	}

	// Newest first
	if listed[0].PlaylistName != "Third" || listed[2].PlaylistName != "First" {
		t.Errorf("unexpected order: %s, %s, %s", listed[0].PlaylistName, listed[1].PlaylistName, listed[2].PlaylistName)
	}
	if listed[1].Error != "playlist not found" {
		t.Errorf("error text = %q", listed[1].Error)
	}
}

func TestListLimit(t *testing.T) {
	repo := NewExportHistoryRepository(newTestDB(t))

	for i := 0; i < 5; i++ {
		rec := models.ExportRecord{BatchID: "b", PlaylistID: "p", Format: "txt", Status: "done"}
		if err := repo.Create(&rec); err != nil {
			t.Fatal(err)
		}
	}

	listed, err := repo.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Errorf("expected 2 records, got %d", len(listed))
	}
}

func TestPurgeOlderThan(t *testing.T) {
	repo := NewExportHistoryRepository(newTestDB(t))

	old := models.ExportRecord{BatchID: "b", PlaylistID: "old", Format: "csv", Status: "done", CreatedAt: time.Now().AddDate(0, 0, -120)}
	recent := models.ExportRecord{BatchID: "b", PlaylistID: "recent", Format: "csv", Status: "done", CreatedAt: time.Now()}
	if err := repo.Create(&old); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(&recent); err != nil {
		t.Fatal(err)
	}

	removed, err := repo.PurgeOlderThan(time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("PurgeOlderThan() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	listed, err := repo.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].PlaylistID != "recent" {
		t.Errorf("unexpected remaining records %v", listed)
	}
}

func TestRecordBatch(t *testing.T) {
	repo := NewExportHistoryRepository(newTestDB(t))

	result := &models.BatchResult{
		Jobs: []models.JobResult{
			{PlaylistID: "pl1", PlaylistName: "Alpha", Status: models.StatusDone, TrackCount: 12, Files: []string{"out/Alpha.json"}},
			{PlaylistID: "pl2", PlaylistName: "Beta", Status: models.StatusFailed, Err: errors.New("boom")},
			{PlaylistID: "pl3", PlaylistName: "Gamma", Status: models.StatusCancelled},
		},
		FinishedAt: time.Now(),
	}

	if err := repo.RecordBatch("batch-xyz", "json", result); err != nil {
		t.Fatalf("RecordBatch() error = %v", err)
	}

	listed, err := repo.List(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 records, got %d", len(listed))
	}

	byPlaylist := make(map[string]models.ExportRecord)
	for _, rec := range listed {
		if rec.BatchID != "batch-xyz" || rec.Format != "json" {
			t.Errorf("unexpected record %+v", rec)
		}
		byPlaylist[rec.PlaylistID] = rec
	}

	if rec := byPlaylist["pl1"]; rec.Status != "done" || rec.TrackCount != 12 || rec.FileCount != 1 {
		t.Errorf("pl1 record = %+v", rec)
	}
	if rec := byPlaylist["pl2"]; rec.Status != "failed" || rec.Error != "boom" {
		t.Errorf("pl2 record = %+v", rec)
	}
	if rec := byPlaylist["pl3"]; rec.Status != "cancelled" {
		t.Errorf("pl3 record = %+v", rec)
	}
}
