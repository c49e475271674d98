package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"kwmetrics/internal/config"
	"kwmetrics/internal/models"
	"kwmetrics/internal/store"
	"kwmetrics/internal/validation"
)

const (
	previewRows  = 10
	historyLimit = 20
)

// History lists recorded uploads for a project.
type History interface {
	ListUploadsByProject(ctx context.Context, project string, limit int) ([]models.Upload, error)
}

// ProjectHandler renders the project database pages.
type ProjectHandler struct {
	store   *store.Store
	history History
	cfg     *config.Config
}

// NewProjectHandler creates a new project handler. history may be nil.
func NewProjectHandler(st *store.Store, history History, cfg *config.Config) *ProjectHandler {
	return &ProjectHandler{store: st, history: history, cfg: cfg}
}

// List renders every project database in the data directory.
func (h *ProjectHandler) List(c fiber.Ctx) error {
	projects, err := h.store.List()
	if err != nil {
		return err
	}
	return c.Render("projects", MergeBranding(fiber.Map{
		"Title":    "Projects",
		"Projects": projects,
	}, h.cfg))
}

// Show renders row counts, a preview of each category table and recent uploads.
func (h *ProjectHandler) Show(c fiber.Ctx) error {
	name := c.Params("name")
	if !validation.ValidateProjectName(name) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid project name")
	}

	ctx := c.Context()
	counts, err := h.store.TableCounts(ctx, name)
	if err != nil {
		return toFiberError(err)
	}

	previews := make([]*store.TablePreview, 0, len(counts))
	for _, tc := range counts {
		p, err := h.store.Preview(ctx, name, tc.Name, previewRows)
		if err != nil {
			return toFiberError(err)
		}
		previews = append(previews, p)
	}

	var uploads []models.Upload
	if h.history != nil {
		uploads, err = h.history.ListUploadsByProject(ctx, name, historyLimit)
		if err != nil {
			slog.Warn("failed to load upload history", "project", name, "error", err)
			uploads = nil
		}
	}

	return c.Render("project", MergeBranding(fiber.Map{
		"Title":    name,
		"Project":  name,
		"Database": store.FileName(name),
		"Counts":   counts,
		"Previews": previews,
		"Uploads":  uploads,
	}, h.cfg))
}
