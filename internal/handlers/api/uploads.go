package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"kwmetrics/internal/handlers"
	"kwmetrics/internal/ingest"
	"kwmetrics/internal/models"
)

// UploadLookup fetches a recorded upload.
type UploadLookup interface {
	GetUpload(ctx context.Context, id uuid.UUID) (*models.Upload, error)
}

// UploadHandler accepts keyword exports via JSON API.
type UploadHandler struct {
	svc    *ingest.Service
	lookup UploadLookup
}

// NewUploadHandler creates a new API upload handler. lookup may be nil.
func NewUploadHandler(svc *ingest.Service, lookup UploadLookup) *UploadHandler {
	return &UploadHandler{svc: svc, lookup: lookup}
}

// Create processes a multipart upload and returns the per-category row counts.
func (h *UploadHandler) Create(c fiber.Ctx) error {
	req, err := handlers.ReadUploadRequest(c)
	if err != nil {
		code, msg := handlers.ErrorStatus(err)
		return jsonError(c, code, msg)
	}
	defer req.Close()

	res, err := h.svc.Process(c.Context(), req.Request)
	if err != nil {
		code, msg := handlers.ErrorStatus(err)
		return jsonError(c, code, msg)
	}

	return jsonSuccess(c, models.UploadAPIResponse{
		UploadID:     res.UploadID,
		Project:      res.Project,
		Database:     res.Database,
		Rows:         res.Rows,
		Categories:   res.Categories,
		Persisted:    res.Persisted,
		PersistError: res.PersistError,
		Message:      res.Message(),
		ProcessedAt:  time.Now().UTC(),
	})
}

// Get returns one recorded upload by ID.
func (h *UploadHandler) Get(c fiber.Ctx) error {
	if h.lookup == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "upload history is not enabled")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid upload id")
	}

	upload, err := h.lookup.GetUpload(c.Context(), id)
	if err != nil {
		code, msg := handlers.ErrorStatus(err)
		return jsonError(c, code, msg)
	}
	return jsonSuccess(c, upload)
}
