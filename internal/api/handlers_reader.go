package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dgallion1/hoteldistro/internal/chat"
	"github.com/dgallion1/hoteldistro/internal/contact"
	"github.com/dgallion1/hoteldistro/internal/glossary"
	"github.com/dgallion1/hoteldistro/internal/metrics"
)

const maxJSONBody = 1 << 20

type glossaryEntry struct {
	glossary.Term
	Links []glossary.Link `json:"links"`
}

func (s *Server) handleGlossary(w http.ResponseWriter, r *http.Request) {
	if s.glossary == nil {
		writeJSON(w, http.StatusOK, map[string]any{"terms": []glossaryEntry{}, "letters": []string{}})
		return
	}

	slugs, err := s.chapters.SlugsByNumber(r.Context())
	if err != nil {
		s.log.Error("map chapter numbers", "error", err)
		jsonError(w, "failed to load chapters", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	terms := s.glossary.Filter(q.Get("q"), q.Get("letter"))
	out := make([]glossaryEntry, 0, len(terms))
	for _, t := range terms {
		links := s.glossary.Links(t, slugs)
		if links == nil {
			links = []glossary.Link{}
		}
		out = append(out, glossaryEntry{Term: t, Links: links})
	}

	letters := s.glossary.Letters()
	if letters == nil {
		letters = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"terms": out, "letters": letters})
}

// handleChat streams the assistant's reply as plain text. Errors before the
// first byte are reported as JSON; after that the stream is cut short.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		jsonError(w, "assistant unavailable", http.StatusServiceUnavailable)
		return
	}

	var in chat.Input
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	req, err := s.chat.Prepare(ctx, in)
	var inputErr *chat.InputError
	if errors.As(err, &inputErr) {
		metrics.ChatRequests.WithLabelValues("rejected").Inc()
		jsonError(w, inputErr.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Error("prepare chat", "error", err)
		jsonError(w, "failed to prepare request", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	started := false
	err = s.chat.Reply(ctx, req, func(text string) error {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
		return nil
	})
	if err != nil && !started {
		jsonError(w, "assistant unavailable", http.StatusBadGateway)
	}
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if s.contact == nil {
		jsonError(w, "contact form unavailable", http.StatusServiceUnavailable)
		return
	}

	var sub contact.Submission
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		metrics.ContactSubmissions.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid request body"})
		return
	}

	if err := s.contact.Submit(r.Context(), sub); err != nil {
		metrics.ContactSubmissions.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	metrics.ContactSubmissions.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
