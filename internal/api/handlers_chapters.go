package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/hoteldistro/internal/chapter"
	"github.com/dgallion1/hoteldistro/internal/metrics"
	"github.com/dgallion1/hoteldistro/internal/pipeline"
	"github.com/dgallion1/hoteldistro/internal/render"
	"github.com/go-chi/chi/v5"
)

type chapterListing struct {
	chapter.Meta
	Part chapter.Part `json:"part"`
}

type chapterResponse struct {
	*render.Page
	Prev *chapter.Meta `json:"prev"`
	Next *chapter.Meta `json:"next"`
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	metas, err := s.chapters.ListAll(r.Context())
	if err != nil {
		s.log.Error("list chapters", "error", err)
		jsonError(w, "failed to list chapters", http.StatusInternalServerError)
		return
	}
	out := make([]chapterListing, 0, len(metas))
	for _, m := range metas {
		out = append(out, chapterListing{Meta: m, Part: chapter.PartFor(m.Number)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": out})
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	ctx := r.Context()

	doc, err := s.chapters.Get(ctx, slug)
	if err != nil {
		s.log.Error("load chapter", "slug", slug, "error", err)
		jsonError(w, "failed to load chapter", http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}

	page, err := s.renderPage(doc)
	if err != nil {
		s.log.Error("render chapter", "slug", slug, "error", err)
		jsonError(w, "failed to render chapter", http.StatusInternalServerError)
		return
	}

	resp := chapterResponse{Page: page}
	if metas, err := s.chapters.ListAll(ctx); err != nil {
		s.log.Warn("list chapters for navigation", "error", err)
	} else {
		resp.Prev, resp.Next = chapter.Adjacent(metas, slug)
	}

	metrics.ChapterViews.WithLabelValues(slug).Inc()
	writeJSON(w, http.StatusOK, resp)
}

// renderPage returns the rendered page for doc, reusing an earlier render
// of identical content.
func (s *Server) renderPage(doc *chapter.Document) (*render.Page, error) {
	key := doc.Slug + ":" + pipeline.ContentHashHex([]byte(doc.Title+"\x00"+doc.Description+"\x00"+doc.Body))
	if page, ok := s.pages.Get(key); ok {
		metrics.RenderCache.WithLabelValues("hit").Inc()
		return page, nil
	}
	metrics.RenderCache.WithLabelValues("miss").Inc()

	page, err := s.renderer.Chapter(doc, chapter.Process(doc.Body))
	if err != nil {
		return nil, err
	}
	s.pages.Add(key, page)
	return page, nil
}

func (s *Server) handleChapterSections(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, err := s.chapters.Get(r.Context(), slug)
	if err != nil {
		s.log.Error("load chapter", "slug", slug, "error", err)
		jsonError(w, "failed to load chapter", http.StatusInternalServerError)
		return
	}
	if doc == nil {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slug":     slug,
		"sections": chapter.Process(doc.Body).Sections,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
