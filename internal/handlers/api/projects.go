package api

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"kwmetrics/internal/handlers"
	"kwmetrics/internal/models"
	"kwmetrics/internal/store"
	"kwmetrics/internal/validation"
)

// ProjectHandler exposes project databases via JSON API.
type ProjectHandler struct {
	store   *store.Store
	history handlers.History
}

// NewProjectHandler creates a new API project handler. history may be nil.
func NewProjectHandler(st *store.Store, history handlers.History) *ProjectHandler {
	return &ProjectHandler{store: st, history: history}
}

// List returns the project databases in the data directory.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.store.List()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to list projects")
	}
	return jsonSuccess(c, projects)
}

// Get returns the row count of every table in a project database.
func (h *ProjectHandler) Get(c fiber.Ctx) error {
	name := c.Params("name")
	if !validation.ValidateProjectName(name) {
		return jsonError(c, fiber.StatusBadRequest, "invalid project name")
	}

	counts, err := h.store.TableCounts(c.Context(), name)
	if err != nil {
		code, msg := handlers.ErrorStatus(err)
		return jsonError(c, code, msg)
	}

	return jsonSuccess(c, fiber.Map{
		"project":  name,
		"database": store.FileName(name),
		"tables":   counts,
	})
}

// Uploads returns the recorded upload history of a project.
func (h *ProjectHandler) Uploads(c fiber.Ctx) error {
	if h.history == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "upload history is not enabled")
	}

	name := c.Params("name")
	if !validation.ValidateProjectName(name) {
		return jsonError(c, fiber.StatusBadRequest, "invalid project name")
	}

	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	uploads, err := h.history.ListUploadsByProject(c.Context(), name, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch uploads")
	}
	if uploads == nil {
		uploads = []models.Upload{}
	}
	return jsonSuccess(c, uploads)
}
