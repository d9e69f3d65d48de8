// Package client implements the HTTP surface the table engine talks to: the
// list/mutation endpoints of a resource, the analytics endpoint, the image
// upload collaborator, and dynamic option sources for cascading selects.
package client

import (
	"fmt"

	"github.com/matthewbaird/backoffice/internal/schema"
)

// Query carries the serialized table state of one list request.
type Query struct {
	Page    int
	PerPage int
	// SortField and SortOrder are comma-joined parallel lists when sorting
	// spans multiple keys.
	SortField string
	SortOrder string
	// Filter is the JSON-encoded {columnKey: {value, operator}} object, or
	// "" when no filters are active.
	Filter      string
	ShowDeleted bool
}

// Pagination is the list endpoint's paging metadata.
type Pagination struct {
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// ListResult is a successful list response.
type ListResult struct {
	Items      []schema.Row `json:"items"`
	Pagination Pagination   `json:"pagination"`
}

// DeleteOptions distinguish soft delete (neither flag), restore, and
// permanent delete on paranoid tables.
type DeleteOptions struct {
	Restore bool
	Force   bool
}

// UploadRequest is one image-upload invocation: the binary file, target
// directory, resize bounds, and the path of the image it replaces.
type UploadRequest struct {
	File      schema.File
	Dir       string
	MaxWidth  int
	MaxHeight int
	OldPath   string
}

// UploadResult is the upload collaborator's response.
type UploadResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// OptionsResult is a dynamic option source response.
type OptionsResult struct {
	Options []schema.Option `json:"options"`
}

// APIError is a structured backend error. Validation failures carry a
// per-field message map routed into the form's field-error display; anything
// else surfaces as a general error banner.
type APIError struct {
	Status           int
	Message          string
	ValidationErrors map[string]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsValidation reports whether the error carries field-level messages.
func (e *APIError) IsValidation() bool { return len(e.ValidationErrors) > 0 }
