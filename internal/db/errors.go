package db

import "errors"

// Domain-level database error sentinels.
var (
	ErrUploadNotFound = errors.New("upload not found")
)
