// Package handlers serves the HTML pages and operational probes.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"kwmetrics/internal/analysis"
	"kwmetrics/internal/db"
	"kwmetrics/internal/ingest"
	"kwmetrics/internal/store"
)

// MsgMissingInput is returned when the upload form lacks a file or project name.
const MsgMissingInput = "Missing file or project name"

// ErrorStatus maps a domain error to an HTTP status and a user-facing message.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ingest.ErrMissingInput):
		return fiber.StatusBadRequest, MsgMissingInput
	case errors.Is(err, ingest.ErrInvalidProject):
		return fiber.StatusBadRequest, ingest.ErrInvalidProject.Error()
	case errors.Is(err, analysis.ErrEmptyInput),
		errors.Is(err, analysis.ErrMissingColumns),
		errors.Is(err, analysis.ErrMalformedCSV):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, analysis.ErrDegenerateInput):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, store.ErrProjectNotFound):
		return fiber.StatusNotFound, "project not found"
	case errors.Is(err, store.ErrTableNotFound):
		return fiber.StatusNotFound, "table not found"
	case errors.Is(err, db.ErrUploadNotFound):
		return fiber.StatusNotFound, "upload not found"
	case errors.Is(err, ingest.ErrPersistence):
		return fiber.StatusInternalServerError, ingest.ErrPersistence.Error()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "Internal Server Error"
}

// toFiberError converts err for the central error handler.
func toFiberError(err error) error {
	code, msg := ErrorStatus(err)
	return fiber.NewError(code, msg)
}
