// Package render turns a processed chapter into HTML fragments for the
// reader: the body with anchored headings plus one fragment per callout.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgallion1/hoteldistro/internal/chapter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// VignetteExcerptBudget is the soft character budget for vignette teasers.
const VignetteExcerptBudget = 600

// Page is everything the chapter reader shows for one chapter.
type Page struct {
	Chapter chapter.Meta `json:"chapter"`
	Part    chapter.Part `json:"part"`

	IntroTitle      string   `json:"intro_title,omitempty"`
	Objectives      string   `json:"learning_objectives_html,omitempty"`
	Vignette        string   `json:"vignette_html,omitempty"`
	VignetteExcerpt string   `json:"vignette_excerpt,omitempty"`
	Summary         string   `json:"summary_html,omitempty"`
	Questions       string   `json:"discussion_questions_html,omitempty"`
	KeyTerms        string   `json:"key_terms_html,omitempty"`
	References      []string `json:"references_html,omitempty"`
	Body            string   `json:"body_html"`

	Sections []chapter.Section `json:"sections"`
	Contents []chapter.Section `json:"table_of_contents"`
}

// Renderer converts chapter markup to HTML. It is safe for concurrent use.
type Renderer struct {
	markdown goldmark.Markdown
	callout  goldmark.Markdown
}

// New builds a renderer with GitHub-flavored markdown and raw HTML
// passthrough; chapter content is authored, not user supplied.
func New() *Renderer {
	return &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithASTTransformers(util.Prioritized(headingIDs{}, 100)),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
				renderer.WithNodeRenderers(util.Prioritized(&headingRenderer{}, 100)),
			),
		),
		callout: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe(), html.WithHardWraps()),
		),
	}
}

// Chapter renders a processed chapter into a Page.
func (r *Renderer) Chapter(doc *chapter.Document, p *chapter.Processed) (*Page, error) {
	page := &Page{
		Chapter:  doc.Meta,
		Part:     chapter.PartFor(doc.Number),
		Sections: p.Sections,
		Contents: chapter.TableOfContents(p.Sections),
	}
	if p.IntroTitle != nil {
		page.IntroTitle = *p.IntroTitle
	}

	var err error
	if page.Body, err = r.body(p.DisplayBody, p.FrontSections); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	callouts := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"learning objectives", p.LearningObjectives, &page.Objectives},
		{"vignette", p.Vignette, &page.Vignette},
		{"chapter summary", p.Summary, &page.Summary},
		{"discussion questions", p.DiscussionQuestions, &page.Questions},
	}
	for _, c := range callouts {
		if c.src == nil {
			continue
		}
		if *c.dst, err = r.Callout(*c.src); err != nil {
			return nil, fmt.Errorf("render %s: %w", c.name, err)
		}
	}
	if p.Vignette != nil {
		page.VignetteExcerpt = Excerpt(*p.Vignette, VignetteExcerptBudget)
	}

	if p.KeyTerms != nil {
		if page.KeyTerms, err = r.KeyTerms(*p.KeyTerms); err != nil {
			return nil, fmt.Errorf("render key terms: %w", err)
		}
	}
	if p.References != nil {
		if page.References, err = r.References(*p.References); err != nil {
			return nil, fmt.Errorf("render references: %w", err)
		}
	}
	return page, nil
}

// Body renders the display body. Headings get the same ids as the
// navigation list; JSX-style className attributes become class.
func (r *Renderer) Body(src string) (string, error) {
	return r.body(src, chapter.ScanSections(src))
}

func (r *Renderer) body(src string, sections []chapter.Section) (string, error) {
	pc := parser.NewContext()
	pc.Set(sectionsKey, sections)
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf, parser.WithContext(pc)); err != nil {
		return "", err
	}
	return cleanMarkup(buf.String(), false)
}

// Callout renders a callout block. Single newlines are kept as line breaks
// so one-objective-per-line text reads as authored.
func (r *Renderer) Callout(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.callout.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// KeyTerms renders the key-terms block, which is usually a raw HTML table.
// Bold markers are dropped since markdown does not apply inside HTML blocks.
func (r *Renderer) KeyTerms(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.callout.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return cleanMarkup(buf.String(), true)
}

// References renders each reference entry as an inline fragment with bare
// URLs linked.
func (r *Renderer) References(src string) ([]string, error) {
	entries := chapter.ReferenceEntries(src)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		var buf bytes.Buffer
		if err := r.markdown.Convert([]byte(e), &buf); err != nil {
			return nil, err
		}
		s := strings.TrimSpace(buf.String())
		s = strings.TrimPrefix(s, "<p>")
		s = strings.TrimSuffix(s, "</p>")
		out = append(out, s)
	}
	return out, nil
}

// Excerpt keeps whole paragraphs of text while they fit within budget
// characters. The first paragraph is always kept.
func Excerpt(text string, budget int) string {
	var kept []string
	total := 0
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(kept) > 0 && total+len(para) > budget {
			break
		}
		kept = append(kept, para)
		total += len(para)
	}
	return strings.Join(kept, "\n\n")
}
