package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/matthewbaird/backoffice/internal/schema"
	"github.com/matthewbaird/backoffice/internal/validate"
)

// Server serves the admin table contract for a fixed set of table
// definitions. Each resource is validated with the same column-derived
// schema the client builds, so both sides agree on what a valid row is.
type Server struct {
	store  *RecordStore
	tables map[string]schema.Table
	log    logrus.FieldLogger
}

// New builds a server over a record store. Tables are keyed by the last
// segment of their endpoint, e.g. /api/admin/posts -> posts.
func New(store *RecordStore, tables []schema.Table, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	byResource := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		byResource[resourceName(t.Endpoint)] = t
	}
	return &Server{store: store, tables: byResource, log: log}
}

func resourceName(endpoint string) string {
	endpoint = strings.TrimRight(endpoint, "/")
	if i := strings.LastIndex(endpoint, "/"); i >= 0 {
		return endpoint[i+1:]
	}
	return endpoint
}

// Router registers all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/analysis", s.handleAnalysis)
		r.Post("/upload", s.handleUpload)

		r.Get("/{resource}", s.handleList)
		r.Post("/{resource}", s.handleCreate)
		r.Delete("/{resource}", s.handleBulkDelete)
		r.Put("/{resource}/{id}", s.handleUpdate)
		r.Delete("/{resource}/{id}", s.handleDelete)
	})

	return r
}

func (s *Server) table(w http.ResponseWriter, r *http.Request) (schema.Table, bool) {
	name := chi.URLParam(r, "resource")
	t, ok := s.tables[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown resource: "+name)
	}
	return t, ok
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}

	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, total, err := s.store.List(r.Context(), resourceName(t.Endpoint), q)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if rows == nil {
		rows = []schema.Row{}
	}

	perPage := q.PerPage
	if perPage < 1 {
		perPage = 10
	}
	totalPages := (total + perPage - 1) / perPage

	writeJSON(w, http.StatusOK, map[string]any{
		"items": rows,
		"pagination": map[string]int{
			"totalItems": total,
			"totalPages": totalPages,
		},
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}

	var values map[string]any
	if err := decodeJSON(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	clean, errs := validate.SchemaFor(t.Columns, schema.ModeCreate).Apply(values)
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	row := schema.Row(clean)
	row["id"] = uuid.NewString()
	if err := s.store.Insert(r.Context(), resourceName(t.Endpoint), row); err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var values map[string]any
	if err := decodeJSON(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	clean, errs := validate.SchemaFor(t.Columns, schema.ModeEdit).Apply(values)
	if errs != nil {
		writeValidationErrors(w, errs)
		return
	}

	row, err := s.store.Update(r.Context(), resourceName(t.Endpoint), id, clean)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	resource := resourceName(t.Endpoint)

	var err error
	switch {
	case r.URL.Query().Get("restore") == "true":
		err = s.store.Restore(r.Context(), resource, id)
	case r.URL.Query().Get("force") == "true" || !t.IsParanoid:
		err = s.store.ForceDelete(r.Context(), resource, id)
	default:
		err = s.store.SoftDelete(r.Context(), resource, id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resource := resourceName(t.Endpoint)
	restore := r.URL.Query().Get("restore") == "true"
	force := r.URL.Query().Get("force") == "true" || !t.IsParanoid

	for _, id := range body.IDs {
		var err error
		switch {
		case restore:
			err = s.store.Restore(r.Context(), resource, id)
		case force:
			err = s.store.ForceDelete(r.Context(), resource, id)
		default:
			err = s.store.SoftDelete(r.Context(), resource, id)
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.internalError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(body.IDs)})
}

// parseListQuery decodes page, perPage, sortField, sortOrder, filter and
// showDeleted into a store query.
func parseListQuery(r *http.Request) (ListQuery, error) {
	q := ListQuery{Page: 1, PerPage: 10}
	params := r.URL.Query()

	if v := params.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("invalid page parameter")
		}
		q.Page = n
	}
	if v := params.Get("perPage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, errors.New("invalid perPage parameter")
		}
		q.PerPage = n
	}
	if v := params.Get("sortField"); v != "" {
		q.SortFields = strings.Split(v, ",")
		for _, order := range strings.Split(params.Get("sortOrder"), ",") {
			q.SortDesc = append(q.SortDesc, order == "desc")
		}
	}
	if v := params.Get("filter"); v != "" {
		if err := json.Unmarshal([]byte(v), &q.Filters); err != nil {
			return q, errors.New("invalid filter parameter")
		}
	}
	q.ShowDeleted = params.Get("showDeleted") == "true"
	return q, nil
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("encoding response failed")
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeValidationErrors writes the per-field validation failure envelope.
func writeValidationErrors(w http.ResponseWriter, errs map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":            "validation failed",
		"validationErrors": errs,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
