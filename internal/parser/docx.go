package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles Word manuscripts. Heading and list styles map to
// chapter markup; unstyled paragraphs go through label promotion.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Draft, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	d := &Draft{}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		style := docxStyle(para)
		switch {
		case style == "title":
			if d.Title == "" {
				d.Title = text
			}
		case strings.HasPrefix(style, "heading"):
			level := 2
			if n := strings.TrimSpace(strings.TrimPrefix(style, "heading")); len(n) == 1 && n[0] >= '1' && n[0] <= '6' {
				level = int(n[0] - '0')
			}
			d.Heading(level, text)
		case strings.HasPrefix(style, "list"):
			d.Item(text)
		default:
			d.Paragraph(text)
		}
	}

	if d.Title == "" {
		d.Title = stem(filename)
	}
	return d, nil
}

// docxStyle returns the paragraph style id lowercased, e.g. "heading2",
// "heading 2", "listparagraph".
func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(para.Properties.Style.Val))
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
