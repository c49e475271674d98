// Package ingest runs an uploaded keyword export through parsing, scoring
// and persistence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"kwmetrics/internal/analysis"
	"kwmetrics/internal/metrics"
	"kwmetrics/internal/models"
	"kwmetrics/internal/store"
	"kwmetrics/internal/validation"
)

var (
	ErrInvalidProject = errors.New("project name must be 1-100 letters, digits, hyphens or underscores")
	ErrMissingInput   = errors.New("missing file or project name")
	ErrPersistence    = errors.New("failed to save project database")
)

// Recorder stores upload history.
type Recorder interface {
	RecordUpload(ctx context.Context, u *models.Upload) error
}

// Config configures a Service.
type Config struct {
	Store       *store.Store
	Transformer *analysis.Transformer
	ReadOptions analysis.ReadOptions

	// Recorder is optional.
	Recorder Recorder
	// UploadDir keeps a copy of every upload when set.
	UploadDir string
	// Strict fails the request when the project database cannot be written.
	Strict bool
}

// Service processes uploads.
type Service struct {
	store       *store.Store
	transformer *analysis.Transformer
	readOpts    analysis.ReadOptions
	recorder    Recorder
	uploadDir   string
	strict      bool
}

// Request is one upload.
type Request struct {
	Project  string
	Filename string
	Body     io.Reader
}

// Result summarizes a processed upload.
type Result struct {
	UploadID     uuid.UUID
	Project      string
	Database     string
	Path         string
	Rows         int
	Categories   []models.CategoryCount
	Persisted    bool
	PersistError string
	Duration     time.Duration
}

// Message is the confirmation shown to the user.
func (r *Result) Message() string {
	return fmt.Sprintf("Database %s created successfully.", r.Database)
}

// New creates a Service.
func New(cfg Config) *Service {
	t := cfg.Transformer
	if t == nil {
		t = analysis.NewTransformer(analysis.DefaultOptions())
	}
	return &Service{
		store:       cfg.Store,
		transformer: t,
		readOpts:    cfg.ReadOptions,
		recorder:    cfg.Recorder,
		uploadDir:   cfg.UploadDir,
		strict:      cfg.Strict,
	}
}

// Process parses, scores and stores one upload.
//
// A failed database write is logged and reported through Result.Persisted.
// It is only returned as an error (wrapping ErrPersistence) in strict mode.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	project := validation.NormalizeProjectName(req.Project)
	if project == "" || req.Body == nil {
		return nil, ErrMissingInput
	}
	if !validation.ValidateProjectName(project) {
		return nil, ErrInvalidProject
	}

	id := uuid.New()
	body := req.Body
	if s.uploadDir != "" {
		f, err := s.retain(id, req.Filename)
		if err != nil {
			slog.Warn("failed to retain upload", "project", project, "error", err)
		} else {
			defer f.Close()
			body = io.TeeReader(body, f)
		}
	}

	df, err := analysis.ReadCSV(body, s.readOpts)
	if err != nil {
		metrics.RecordUpload(models.OutcomeRejected, 0, time.Since(start))
		return nil, err
	}
	processed, err := s.transformer.Process(df)
	if err != nil {
		metrics.RecordUpload(models.OutcomeRejected, 0, time.Since(start))
		return nil, err
	}

	res := &Result{
		UploadID:   id,
		Project:    project,
		Database:   store.FileName(project),
		Path:       s.store.Path(project),
		Rows:       processed.Rows(),
		Categories: make([]models.CategoryCount, len(processed.Categories)),
	}
	counts := make(map[string]int, len(processed.Categories))
	for i, c := range processed.Categories {
		res.Categories[i] = models.CategoryCount{Name: c.Name, Rows: c.Rows()}
		counts[c.Name] = c.Rows()
	}

	if err := s.store.WriteCategories(ctx, project, processed.Categories); err != nil {
		slog.Error("failed to write project database", "project", project, "path", res.Path, "error", err)
		res.PersistError = err.Error()
	} else {
		res.Persisted = true
	}
	res.Duration = time.Since(start)

	upload := &models.Upload{
		ID:             id,
		ProjectName:    project,
		Filename:       req.Filename,
		DBPath:         res.Path,
		RowCount:       res.Rows,
		CategoryCounts: counts,
		Persisted:      res.Persisted,
	}
	if !res.Persisted {
		upload.Error = &res.PersistError
	}
	s.record(ctx, upload)
	metrics.RecordUpload(upload.Outcome(), res.Rows, res.Duration)

	slog.Info("processed upload",
		"project", project,
		"rows", res.Rows,
		"persisted", res.Persisted,
		"duration", res.Duration,
	)

	if !res.Persisted && s.strict {
		return res, fmt.Errorf("%w: %s", ErrPersistence, res.PersistError)
	}
	return res, nil
}

func (s *Service) record(ctx context.Context, u *models.Upload) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordUpload(ctx, u); err != nil {
		slog.Error("failed to record upload", "project", u.ProjectName, "id", u.ID, "error", err)
	}
}

func (s *Service) retain(id uuid.UUID, filename string) (*os.File, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, err
	}
	name := id.String() + "-" + validation.SanitizeFilename(filename)
	return os.Create(filepath.Join(s.uploadDir, name))
}
