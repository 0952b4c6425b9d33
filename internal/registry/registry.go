package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/dgallion1/hoteldistro/internal/chapter"
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// ValidSlug reports whether id can name a chapter.
func ValidSlug(id string) bool {
	return len(id) <= 128 && slugRe.MatchString(id)
}

// frontMatter is the metadata block at the top of a chapter document.
type frontMatter struct {
	Number      *int   `yaml:"number"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Registry loads chapter documents from a Store. Every call reads the store
// again; nothing is cached here.
type Registry struct {
	store        Store
	descriptions map[string]string
	log          *slog.Logger
}

// New creates a registry. descriptions supplies listing blurbs for chapters
// whose front matter has none; it may be nil.
func New(store Store, descriptions map[string]string, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{store: store, descriptions: descriptions, log: log}
}

// OpenDir opens a chapter directory on the local filesystem, with listing
// blurbs from its descriptions file.
func OpenDir(dir string, log *slog.Logger) (*Registry, error) {
	store := NewDirStore(dir)
	descriptions, err := LoadDescriptions(store.Fs(), path.Join(store.Dir(), DescriptionsFile))
	if err != nil {
		return nil, err
	}
	return New(store, descriptions, log), nil
}

// Store returns the underlying document store.
func (r *Registry) Store() Store {
	return r.store
}

// ListAll returns every chapter's metadata ordered by chapter number.
// Chapters sharing a number keep the store's listing order.
func (r *Registry) ListAll(ctx context.Context) ([]chapter.Meta, error) {
	ids, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}

	metas := make([]chapter.Meta, 0, len(ids))
	for _, id := range ids {
		doc, err := r.load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		metas = append(metas, doc.Meta)
	}

	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].Number < metas[j].Number
	})
	return metas, nil
}

// Get returns the chapter with the given id. A nil document with a nil error
// means the chapter does not exist.
func (r *Registry) Get(ctx context.Context, id string) (*chapter.Document, error) {
	if !ValidSlug(id) {
		return nil, nil
	}
	doc, err := r.load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SlugsByNumber maps chapter numbers to slugs for cross-linking.
func (r *Registry) SlugsByNumber(ctx context.Context) (map[int]string, error) {
	metas, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(metas))
	for _, m := range metas {
		if _, dup := out[m.Number]; !dup {
			out[m.Number] = m.Slug
		}
	}
	return out, nil
}

func (r *Registry) load(ctx context.Context, id string) (*chapter.Document, error) {
	raw, err := r.store.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(id, raw)
	if err != nil {
		r.log.Warn("unreadable front matter, using defaults", "chapter", id, "error", err)
		doc = &chapter.Document{
			Meta: chapter.Meta{Slug: id, Title: id},
			Body: stripFrontMatter(normalizeNewlines(string(raw))),
		}
	}
	if doc.Description == "" {
		doc.Description = r.descriptions[id]
	}
	return doc, nil
}

// Parse splits a raw chapter document into metadata and body. A document
// without front matter gets number 0 and its id as title.
func Parse(id string, raw []byte) (*chapter.Document, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}

	doc := &chapter.Document{
		Meta: chapter.Meta{
			Slug:        id,
			Title:       strings.TrimSpace(fm.Title),
			Description: strings.TrimSpace(fm.Description),
		},
		Body: normalizeNewlines(string(body)),
	}
	if fm.Number != nil {
		doc.Number = *fm.Number
	}
	if doc.Title == "" {
		doc.Title = id
	}
	return doc, nil
}

// stripFrontMatter drops a leading "---" delimited block. An unclosed block
// is left in place.
func stripFrontMatter(s string) string {
	if !strings.HasPrefix(s, "---\n") {
		return s
	}
	rest := s[len("---\n"):]
	for {
		line, tail, found := strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == "---" {
			return tail
		}
		if !found {
			return s
		}
		rest = tail
	}
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
