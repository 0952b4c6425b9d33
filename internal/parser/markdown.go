package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser passes markdown manuscripts through as chapter markup.
// Front matter supplies metadata and the first level-1 heading becomes the
// title.
type MarkdownParser struct{}

type manuscriptMeta struct {
	Number      *int   `yaml:"number"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Draft, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var meta manuscriptMeta
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse front matter: %w", err)
	}
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))

	d := &Draft{
		Title:       strings.TrimSpace(meta.Title),
		Number:      meta.Number,
		Description: strings.TrimSpace(meta.Description),
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			continue
		}
		if d.Title == "" {
			d.Title = headingText(h, body)
		}
		body = cutHeading(body, h)
		break
	}

	d.Raw(string(body))
	if d.Title == "" {
		d.Title = stem(filename)
	}
	return d, nil
}

func headingText(h *ast.Heading, src []byte) string {
	var buf bytes.Buffer
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimSpace(buf.String())
}

// cutHeading removes the source lines of h, including a setext underline.
func cutHeading(src []byte, h *ast.Heading) []byte {
	lines := h.Lines()
	if lines.Len() == 0 {
		return src
	}
	start := bytes.LastIndexByte(src[:lines.At(0).Start], '\n') + 1
	end := lineEnd(src, lines.At(lines.Len()-1).Stop)
	if src[start] != '#' {
		end = lineEnd(src, end)
	}
	out := make([]byte, 0, len(src)-(end-start))
	out = append(out, src[:start]...)
	return append(out, src[end:]...)
}

func lineEnd(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	i := bytes.IndexByte(src[pos:], '\n')
	if i < 0 {
		return len(src)
	}
	return pos + i + 1
}
