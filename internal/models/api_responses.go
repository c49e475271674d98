package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryCount is the number of keywords written to one category table.
type CategoryCount struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// UploadAPIResponse contains the result of processing an upload.
type UploadAPIResponse struct {
	UploadID     uuid.UUID       `json:"upload_id"`
	Project      string          `json:"project"`
	Database     string          `json:"database"`
	Rows         int             `json:"rows"`
	Categories   []CategoryCount `json:"categories"`
	Persisted    bool            `json:"persisted"`
	PersistError string          `json:"persist_error,omitempty"`
	Message      string          `json:"message"`
	ProcessedAt  time.Time       `json:"processed_at"`
}
