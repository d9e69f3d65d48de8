package server

import (
	"net/http"
	"path"

	"github.com/google/uuid"
)

// maxUploadBytes bounds in-memory multipart parsing.
const maxUploadBytes = 16 << 20

// handleUpload accepts a multipart image upload and returns the path the
// stored file would be served from. The reference backend does not keep the
// bytes; it validates the request shape and answers the contract.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	file.Close()

	dir := r.FormValue("dir")
	if dir == "" {
		dir = "uploads"
	}

	ext := path.Ext(header.Filename)
	url := path.Join("/uploads", dir, uuid.NewString()+ext)

	s.log.WithField("name", header.Filename).Debug("upload accepted")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     url,
	})
}
