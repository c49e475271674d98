package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"kwmetrics/internal/models"
)

const uploadColumns = `id, project_name, filename, db_path, row_count, category_counts, persisted, error, created_at`

// RecordUpload inserts an upload record. A nil ID is assigned a new UUID,
// and CreatedAt is set from the database.
func (d *DB) RecordUpload(ctx context.Context, u *models.Upload) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	counts := u.CategoryCounts
	if counts == nil {
		counts = map[string]int{}
	}

	err := d.Pool.QueryRow(ctx, `
		INSERT INTO uploads (id, project_name, filename, db_path, row_count, category_counts, persisted, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, u.ID, u.ProjectName, u.Filename, u.DBPath, u.RowCount, counts, u.Persisted, u.Error).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// GetUpload retrieves an upload by ID.
func (d *DB) GetUpload(ctx context.Context, id uuid.UUID) (*models.Upload, error) {
	row := d.Pool.QueryRow(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id)
	u, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListUploadsByProject returns a project's uploads, newest first.
func (d *DB) ListUploadsByProject(ctx context.Context, project string, limit int) ([]models.Upload, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+uploadColumns+`
		FROM uploads
		WHERE project_name = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []models.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *u)
	}
	return uploads, rows.Err()
}

// CountUploadsByOutcome returns upload totals grouped by project and outcome for metrics export.
func (d *DB) CountUploadsByOutcome(ctx context.Context) ([]models.UploadCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT project_name,
		       CASE WHEN persisted THEN $1 ELSE $2 END AS outcome,
		       COUNT(*)
		FROM uploads
		GROUP BY project_name, outcome
	`, models.OutcomePersisted, models.OutcomePersistFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.UploadCount
	for rows.Next() {
		var c models.UploadCount
		if err := rows.Scan(&c.ProjectName, &c.Outcome, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func scanUpload(row pgx.Row) (*models.Upload, error) {
	var u models.Upload
	err := row.Scan(
		&u.ID, &u.ProjectName, &u.Filename, &u.DBPath, &u.RowCount,
		&u.CategoryCounts, &u.Persisted, &u.Error, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
