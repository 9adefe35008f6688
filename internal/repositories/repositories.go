// package repositories provides the persistence layer for export history.
//
// The export engine itself never touches the database; the CLI wires a
// [ExportHistoryRepository] in as the engine's recorder so finished batches
// can be reviewed later with `spx history`.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

// ExportHistoryRepository persists per-playlist export outcomes.
type ExportHistoryRepository struct {
	db *sql.DB
}

// NewExportHistoryRepository creates a repository with the given database connection
func NewExportHistoryRepository(db *sql.DB) *ExportHistoryRepository {
	return &ExportHistoryRepository{db: db}
}

// Create inserts a new export record with a generated ID when none is set.
func (r *ExportHistoryRepository) Create(record *models.ExportRecord) error {
	if record.ID == "" {
		record.ID = shared.GenerateID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO export_history (id, batch_id, playlist_id, playlist_name, format, status, error, file_count, track_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.BatchID,
		record.PlaylistID,
		record.PlaylistName,
		record.Format,
		record.Status,
		record.Error,
		record.FileCount,
		record.TrackCount,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert export record: %w", err)
	}

	return nil
}

// List retrieves the most recent export records, newest first.
func (r *ExportHistoryRepository) List(limit int) ([]models.ExportRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, batch_id, playlist_id, playlist_name, format, status, error, file_count, track_count, created_at
		FROM export_history
		ORDER BY created_at DESC, id
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query export history: %w", err)
	}
	defer rows.Close()

	var records []models.ExportRecord
	for rows.Next() {
		var rec models.ExportRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.BatchID,
			&rec.PlaylistID,
			&rec.PlaylistName,
			&rec.Format,
			&rec.Status,
			&rec.Error,
			&rec.FileCount,
			&rec.TrackCount,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PurgeOlderThan deletes records created before the cutoff and reports how
// many were removed.
func (r *ExportHistoryRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec("DELETE FROM export_history WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge export history: %w", err)
	}
	return res.RowsAffected()
}

// RecordBatch persists one row per job. Implements the engine's Recorder.
func (r *ExportHistoryRepository) RecordBatch(batchID, format string, result *models.BatchResult) error {
	for _, job := range result.Jobs {
		errText := ""
		if job.Err != nil {
			errText = job.Err.Error()
		}

		rec := models.ExportRecord{
			BatchID:      batchID,
			PlaylistID:   job.PlaylistID,
			PlaylistName: job.PlaylistName,
			Format:       format,
			Status:       job.Status.String(),
			Error:        errText,
			FileCount:    len(job.Files),
			TrackCount:   job.TrackCount,
			CreatedAt:    result.FinishedAt,
		}
		if err := r.Create(&rec); err != nil {
			return err
		}
	}
	return nil
}
