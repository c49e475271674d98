package handlers

import (
	"github.com/gofiber/fiber/v3"

	"kwmetrics/internal/config"
	"kwmetrics/internal/ingest"
	"kwmetrics/internal/validation"
)

// UploadHandler serves the upload form and processes submitted exports.
type UploadHandler struct {
	svc *ingest.Service
	cfg *config.Config
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(svc *ingest.Service, cfg *config.Config) *UploadHandler {
	return &UploadHandler{svc: svc, cfg: cfg}
}

// Home renders the upload form.
func (h *UploadHandler) Home(c fiber.Ctx) error {
	return c.Render("index", MergeBranding(fiber.Map{
		"Title": "Upload",
	}, h.cfg))
}

// Upload processes a multipart form with a "file" and a "project_name".
func (h *UploadHandler) Upload(c fiber.Ctx) error {
	req, err := ReadUploadRequest(c)
	if err != nil {
		return err
	}
	defer req.Close()

	res, err := h.svc.Process(c.Context(), req.Request)
	if err != nil {
		return toFiberError(err)
	}

	return c.Render("result", MergeBranding(fiber.Map{
		"Title":   "Upload complete",
		"Message": res.Message(),
		"Result":  res,
	}, h.cfg))
}

// UploadRequest is an ingest request backed by an open multipart file.
type UploadRequest struct {
	ingest.Request
	close func()
}

// Close releases the uploaded file.
func (r *UploadRequest) Close() {
	r.close()
}

// ReadUploadRequest extracts the upload form fields. A missing file or project
// name yields a 400 before any processing happens.
func ReadUploadRequest(c fiber.Ctx) (*UploadRequest, error) {
	project := validation.NormalizeProjectName(c.FormValue("project_name"))
	fh, err := c.FormFile("file")
	if err != nil || project == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, MsgMissingInput)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	return &UploadRequest{
		Request: ingest.Request{
			Project:  project,
			Filename: fh.Filename,
			Body:     f,
		},
		close: func() { f.Close() },
	}, nil
}
