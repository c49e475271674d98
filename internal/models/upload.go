package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload outcome constants
const (
	OutcomePersisted     = "persisted"
	OutcomePersistFailed = "persist_failed"
	OutcomeRejected      = "rejected"
)

// Upload records one processed keyword export.
type Upload struct {
	ID             uuid.UUID      `json:"id"`
	ProjectName    string         `json:"project_name"`
	Filename       string         `json:"filename"`
	DBPath         string         `json:"db_path"`
	RowCount       int            `json:"row_count"`
	CategoryCounts map[string]int `json:"category_counts"`
	Persisted      bool           `json:"persisted"`
	Error          *string        `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Outcome returns the outcome label for metrics and history.
func (u *Upload) Outcome() string {
	if u.Persisted {
		return OutcomePersisted
	}
	return OutcomePersistFailed
}

// UploadCount is the number of uploads for a project with a given outcome.
type UploadCount struct {
	ProjectName string
	Outcome     string
	Count       int64
}
