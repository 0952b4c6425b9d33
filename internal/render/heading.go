package render

import (
	"bytes"
	"strconv"

	"github.com/dgallion1/hoteldistro/internal/chapter"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const attrSectionNumber = "data-section-number"

var sectionsKey = parser.NewContextKey()

// headingIDs gives each h2/h3 the anchor of the next unused scanned section
// with the same level and title, so every rendered id is one the
// navigation list knows about. Headings the scanner never saw get a fresh
// anchor that cannot collide with a scanned one.
type headingIDs struct{}

func (headingIDs) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	src := reader.Source()
	sections, ok := pc.Get(sectionsKey).([]chapter.Section)
	if !ok {
		sections = chapter.ScanSections(string(src))
	}

	anchors := chapter.NewAnchorSet()
	for _, s := range sections {
		anchors.Reserve(s.ID)
	}
	used := make([]bool, len(sections))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level != 2 && h.Level != 3 {
			return ast.WalkSkipChildren, nil
		}

		title := headingTitle(h, src)
		if !chapter.Navigable(title) {
			return ast.WalkSkipChildren, nil
		}
		id := ""
		for i, s := range sections {
			if !used[i] && s.Level == h.Level && s.Title == title {
				used[i] = true
				id = s.ID
				break
			}
		}
		if id == "" {
			id = anchors.Unique(chapter.Slugify(title))
		}
		h.SetAttributeString("id", []byte(id))

		if h.Level == 2 {
			if num, _, ok := chapter.SplitNumbered(title); ok {
				h.SetAttributeString(attrSectionNumber, []byte(num))
				trimNumberPrefix(h, src, num)
			}
		}
		return ast.WalkSkipChildren, nil
	})
}

func headingTitle(h *ast.Heading, src []byte) string {
	var buf bytes.Buffer
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return string(bytes.TrimSpace(buf.Bytes()))
}

// trimNumberPrefix drops "7.1 " from the heading's leading text so the
// number can be rendered separately from the title. The number may span
// several text nodes.
func trimNumberPrefix(h *ast.Heading, src []byte, num string) {
	rest := []byte(num)
	for n := h.FirstChild(); n != nil; n = n.NextSibling() {
		t, ok := n.(*ast.Text)
		if !ok {
			return
		}
		value := t.Segment.Value(src)
		k := min(len(rest), len(value))
		if !bytes.Equal(value[:k], rest[:k]) {
			return
		}
		rest = rest[k:]
		trimmed := bytes.TrimLeft(value[k:], " \t")
		t.Segment = t.Segment.WithStart(t.Segment.Stop - len(trimmed))
		if len(rest) == 0 && len(trimmed) > 0 {
			return
		}
	}
}

// headingRenderer links every anchored heading to itself and renders
// numbered h2s as a stacked number/title block.
type headingRenderer struct{}

func (r *headingRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
}

func (r *headingRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	tag := "h" + strconv.Itoa(n.Level)
	id := attrBytes(n, "id")
	num := attrBytes(n, attrSectionNumber)

	if entering {
		switch {
		case num != nil:
			_, _ = w.WriteString(`<div id="`)
			_, _ = w.Write(util.EscapeHTML(id))
			_, _ = w.WriteString(`" class="numbered-heading"><a href="#`)
			_, _ = w.Write(util.EscapeHTML(id))
			_, _ = w.WriteString(`"><span class="section-number">`)
			_, _ = w.Write(util.EscapeHTML(num))
			_, _ = w.WriteString(`</span><span class="section-title">`)
		case id != nil:
			_, _ = w.WriteString("<" + tag + ` id="`)
			_, _ = w.Write(util.EscapeHTML(id))
			_, _ = w.WriteString(`"><a href="#`)
			_, _ = w.Write(util.EscapeHTML(id))
			_, _ = w.WriteString(`">`)
		default:
			_, _ = w.WriteString("<" + tag + ">")
		}
		return ast.WalkContinue, nil
	}

	switch {
	case num != nil:
		_, _ = w.WriteString("</span></a></div>\n")
	case id != nil:
		_, _ = w.WriteString("</a></" + tag + ">\n")
	default:
		_, _ = w.WriteString("</" + tag + ">\n")
	}
	return ast.WalkContinue, nil
}

func attrBytes(n ast.Node, name string) []byte {
	v, ok := n.AttributeString(name)
	if !ok {
		return nil
	}
	b, _ := v.([]byte)
	return b
}
