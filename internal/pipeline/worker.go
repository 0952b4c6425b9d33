package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/hoteldistro/internal/chapter"
	"github.com/dgallion1/hoteldistro/internal/metrics"
	"github.com/dgallion1/hoteldistro/internal/parser"
	"github.com/dgallion1/hoteldistro/internal/registry"
	"gopkg.in/yaml.v3"
)

// Worker processes a single import job.
type Worker struct {
	store      registry.Store
	parserOpts parser.Options
	log        *slog.Logger
}

func NewWorker(store registry.Store, opts parser.Options, log *slog.Logger) *Worker {
	return &Worker{store: store, parserOpts: opts, log: log}
}

// chapterFrontMatter is written ahead of every imported chapter body.
type chapterFrontMatter struct {
	Number      int    `yaml:"number"`
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
}

// Process runs parse, convert, validate and store for job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "slug", job.Slug, "filename", job.Filename)
	req := job.request()

	fail := func(phase string, err error) {
		log.Error("import failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		metrics.ImportJobs.WithLabelValues(string(StatusFailed)).Inc()
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(req.Filename, w.parserOpts)
	if err != nil {
		fail("parsing", err)
		return
	}
	draft, err := p.Parse(bytes.NewReader(req.Data), req.Filename)
	if err != nil {
		fail("parsing", err)
		return
	}

	// Phase 2: Convert to chapter markup
	job.SetStatus(StatusConverting, "converting")
	body := draft.Markdown()
	if strings.TrimSpace(body) == "" {
		fail("converting", errors.New("no extractable content"))
		return
	}
	meta := resolveMeta(req, draft)
	job.SetChapter(meta.Title, meta.Number)

	// Phase 3: Validate structure
	job.SetStatus(StatusValidating, "validating")
	processed := chapter.Process(body)
	job.SetStructure(processed.Found(), len(processed.Sections))
	if len(processed.FrontSections) == 0 {
		job.AddWarning("no level-2 or level-3 section headings found")
	}
	if processed.KeyTerms == nil {
		job.AddWarning("no Key Terms section found")
	}
	log.Info("chapter structure", "found", processed.Found(), "sections", len(processed.Sections))

	// Phase 4: Dedup and store
	doc, err := compose(meta, body)
	if err != nil {
		fail("storing", err)
		return
	}
	hash := ContentHashHex(doc)
	job.SetContentHash(hash)
	if !req.Force {
		dup, err := w.sameAsStored(ctx, req.Slug, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if dup {
			log.Info("chapter unchanged, skipping")
			job.SetStatus(StatusDupSkipped, "dedup")
			metrics.ImportJobs.WithLabelValues(string(StatusDupSkipped)).Inc()
			return
		}
	}

	job.SetStatus(StatusStoring, "storing")
	if err := w.store.Write(ctx, req.Slug, doc); err != nil {
		fail("storing", err)
		return
	}

	log.Info("chapter imported", "number", meta.Number, "title", meta.Title, "bytes", len(doc))
	job.SetStatus(StatusCompleted, "done")
	metrics.ImportJobs.WithLabelValues(string(StatusCompleted)).Inc()
}

// resolveMeta prefers submitted metadata, then what the manuscript declares,
// then the slug.
func resolveMeta(req Request, d *parser.Draft) chapterFrontMatter {
	meta := chapterFrontMatter{
		Title:       req.Title,
		Description: req.Description,
	}
	if meta.Title == "" {
		meta.Title = d.Title
	}
	if meta.Title == "" {
		meta.Title = req.Slug
	}
	if meta.Description == "" {
		meta.Description = d.Description
	}
	switch {
	case req.Number != nil:
		meta.Number = *req.Number
	case d.Number != nil:
		meta.Number = *d.Number
	}
	return meta
}

// compose renders a chapter document: YAML front matter then the body.
func compose(meta chapterFrontMatter, body string) ([]byte, error) {
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// sameAsStored reports whether the stored document for slug, front matter
// included, hashes to hash.
func (w *Worker) sameAsStored(ctx context.Context, slug, hash string) (bool, error) {
	raw, err := w.store.Read(ctx, slug)
	if errors.Is(err, registry.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ContentHashHex(raw) == hash, nil
}
