package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/hoteldistro/internal/chapter"
	"github.com/dgallion1/hoteldistro/internal/parser"
	"github.com/dgallion1/hoteldistro/internal/pipeline"
	"github.com/dgallion1/hoteldistro/internal/registry"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.imports == nil {
		jsonError(w, "manuscript import unavailable", http.StatusServiceUnavailable)
		return
	}

	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	slug := strings.TrimSpace(r.FormValue("slug"))
	if slug == "" {
		slug = chapter.Slugify(strings.TrimSuffix(filename, filepath.Ext(filename)))
	}
	if !registry.ValidSlug(slug) {
		jsonError(w, fmt.Sprintf("invalid slug %q", slug), http.StatusBadRequest)
		return
	}

	req := pipeline.Request{
		Slug:        slug,
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Force:       r.FormValue("force") == "true",
		Filename:    filename,
	}
	if v := strings.TrimSpace(r.FormValue("number")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "number must be a non-negative integer", http.StatusBadRequest)
			return
		}
		req.Number = &n
	}

	req.Data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(req.Data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(req)
	if err := s.imports.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("import queued", "job_id", job.ID, "slug", slug, "filename", filename, "bytes", len(req.Data))
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"slug":     slug,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/admin/import/%s/status", job.ID),
	})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	if s.imports == nil {
		jsonError(w, "manuscript import unavailable", http.StatusServiceUnavailable)
		return
	}
	job := s.imports.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
