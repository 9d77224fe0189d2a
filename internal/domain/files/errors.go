package files

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidName       = errors.New("invalid name")
	ErrTenantRequired    = errors.New("tenant is required")
	ErrNotFound          = errors.New("file or folder not found")
	ErrIsDirectory       = errors.New("path is a directory")
	ErrAlreadyExists     = errors.New("file or folder already exists")
	ErrNoFilesProvided   = errors.New("no files provided")
	ErrTooManyFiles      = errors.New("too many files requested")
	ErrTotalSizeExceeded = errors.New("total size exceeds limit")
	ErrNoValidFiles      = errors.New("no valid files to archive")
	ErrInternal          = errors.New("internal storage error")
)

type errorKind struct {
	err    error
	code   string
	status int
}

// Ordered so the first match wins when an error wraps more than one sentinel.
var errorKinds = []errorKind{
	{ErrTenantRequired, "TENANT_REQUIRED", http.StatusUnauthorized},
	{ErrInvalidPath, "INVALID_PATH", http.StatusBadRequest},
	{ErrInvalidName, "INVALID_NAME", http.StatusBadRequest},
	{ErrNoFilesProvided, "NO_FILES_PROVIDED", http.StatusBadRequest},
	{ErrTooManyFiles, "TOO_MANY_FILES", http.StatusBadRequest},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound},
	{ErrIsDirectory, "IS_DIRECTORY", http.StatusBadRequest},
	{ErrAlreadyExists, "ALREADY_EXISTS", http.StatusConflict},
	{ErrTotalSizeExceeded, "TOTAL_SIZE_EXCEEDED", http.StatusRequestEntityTooLarge},
	{ErrNoValidFiles, "NO_VALID_FILES", http.StatusUnprocessableEntity},
}

// Code returns the stable error code callers render messages from.
// Anything unclassified is INTERNAL_ERROR.
func Code(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "INTERNAL_ERROR"
}

func HTTPStatus(err error) int {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage is safe to show to untrusted callers. Storage faults never
// leak their underlying cause.
func PublicMessage(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return "internal storage error"
}
