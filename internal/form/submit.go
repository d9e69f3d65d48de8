package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/backoffice/internal/client"
	"github.com/matthewbaird/backoffice/internal/schema"
	"github.com/matthewbaird/backoffice/internal/validate"
)

// SubmitAPI is the backend surface one form submission drives.
// *client.Client satisfies it; tests substitute fakes.
type SubmitAPI interface {
	Create(ctx context.Context, endpoint string, payload map[string]any) (schema.Row, error)
	Update(ctx context.Context, endpoint, id string, payload map[string]any) (schema.Row, error)
	UploadImage(ctx context.Context, path string, req client.UploadRequest) (client.UploadResult, error)
}

// SubmitError separates the two failure surfaces of a submission: Fields
// carries per-field validation messages for the form's field-error display,
// Message is the general banner error. Exactly one of the two is set — an
// upload failure or transport error never masquerades as a field error.
type SubmitError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface.
func (e *SubmitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed for %d fields", len(e.Fields))
}

// IsValidation reports whether the error carries field-level messages.
func (e *SubmitError) IsValidation() bool { return len(e.Fields) > 0 }

const (
	defaultUploadPath = "/api/admin/upload"
	defaultMaxWidth   = 1920
	defaultMaxHeight  = 1080
)

// Submitter runs the create/edit submit path for one table: client-side
// validation, image uploads for every binary file value, the wire
// transformation, and the backend request, with backend validation errors
// routed back to their fields.
type Submitter struct {
	api   SubmitAPI
	table schema.Table
	log   logrus.FieldLogger

	uploadPath string
	uploadDir  string
	maxWidth   int
	maxHeight  int
}

// SubmitOption configures a Submitter during construction.
type SubmitOption func(*Submitter)

// WithUploadPath overrides the upload collaborator endpoint.
func WithUploadPath(path string) SubmitOption {
	return func(s *Submitter) { s.uploadPath = path }
}

// WithUploadDir sets the storage directory uploads are filed under; the
// table name is the default.
func WithUploadDir(dir string) SubmitOption {
	return func(s *Submitter) { s.uploadDir = dir }
}

// WithUploadSize sets the resize bounds passed with each upload.
func WithUploadSize(maxWidth, maxHeight int) SubmitOption {
	return func(s *Submitter) { s.maxWidth, s.maxHeight = maxWidth, maxHeight }
}

// WithSubmitLogger sets the submission logger.
func WithSubmitLogger(log logrus.FieldLogger) SubmitOption {
	return func(s *Submitter) { s.log = log }
}

// NewSubmitter builds the submit path for one table configuration.
func NewSubmitter(table schema.Table, api SubmitAPI, opts ...SubmitOption) *Submitter {
	s := &Submitter{
		api:        api,
		table:      table,
		log:        logrus.StandardLogger(),
		uploadPath: defaultUploadPath,
		uploadDir:  table.Name,
		maxWidth:   defaultMaxWidth,
		maxHeight:  defaultMaxHeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and submits a new row.
func (s *Submitter) Create(ctx context.Context, values map[string]any) (schema.Row, error) {
	return s.submit(ctx, schema.ModeCreate, "", nil, values)
}

// Edit validates and submits changes to an existing row. The existing row
// supplies the old image paths replaced uploads are reported with.
func (s *Submitter) Edit(ctx context.Context, id string, existing schema.Row, values map[string]any) (schema.Row, error) {
	return s.submit(ctx, schema.ModeEdit, id, existing, values)
}

func (s *Submitter) submit(ctx context.Context, mode schema.FormMode, id string, existing schema.Row, values map[string]any) (schema.Row, error) {
	coerced, errs := validate.SchemaFor(s.table.Columns, mode).Apply(values)
	if len(errs) > 0 {
		return nil, &SubmitError{Fields: errs}
	}

	if err := s.uploadFiles(ctx, coerced, existing); err != nil {
		s.log.WithError(err).Warn("image upload failed")
		return nil, &SubmitError{Message: err.Error()}
	}

	payload := ToWireValues(coerced, s.table.Columns)

	var (
		row schema.Row
		err error
	)
	if mode == schema.ModeCreate {
		row, err = s.api.Create(ctx, s.table.Endpoint, payload)
	} else {
		row, err = s.api.Update(ctx, s.table.Endpoint, id, payload)
	}
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.IsValidation() {
			return nil, &SubmitError{Fields: apiErr.ValidationErrors}
		}
		return nil, &SubmitError{Message: err.Error()}
	}
	return row, nil
}

// uploadFiles pushes every binary file value through the upload collaborator
// and substitutes the stored URL in place, so the create/update payload never
// carries raw bytes. Flat image columns and compound image subfields are both
// scanned; fields already holding a URL or path string pass untouched.
func (s *Submitter) uploadFiles(ctx context.Context, values map[string]any, existing schema.Row) error {
	for _, key := range imageKeys(s.table.Columns) {
		var file schema.File
		switch x := values[key].(type) {
		case schema.File:
			file = x
		case *schema.File:
			file = *x
		default:
			continue
		}

		req := client.UploadRequest{
			File:      file,
			Dir:       s.uploadDir,
			MaxWidth:  s.maxWidth,
			MaxHeight: s.maxHeight,
		}
		if existing != nil {
			if old, ok := existing.Path(key); ok {
				if path, ok := old.(string); ok {
					req.OldPath = path
				}
			}
		}

		result, err := s.api.UploadImage(ctx, s.uploadPath, req)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", key, err)
		}
		values[key] = result.URL
	}
	return nil
}

// imageKeys collects the field keys that may hold a binary upload.
func imageKeys(columns []schema.Column) []string {
	var keys []string
	for _, c := range columns {
		switch {
		case c.Type == schema.TypeImage:
			keys = append(keys, c.Key)
		case c.Type == schema.TypeCompound && c.Compound != nil && c.Compound.Image != nil:
			keys = append(keys, c.Compound.Image.Key)
		}
	}
	return keys
}
