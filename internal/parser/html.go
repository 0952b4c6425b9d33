package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles HTML manuscripts, such as word-processor exports.
// Tables are kept as raw HTML since the key-terms section is authored as one.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Draft, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Draft{}
	var walkErr error

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.DataAtom); level > 0 {
				d.Heading(level, textContent(n))
				return
			}

			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Footer, atom.Header, atom.Head:
				return
			case atom.P, atom.Blockquote:
				d.Paragraph(textContent(n))
				return
			case atom.Li:
				d.Item(textContent(n))
				return
			case atom.Hr:
				d.Rule()
				return
			case atom.Table:
				var buf bytes.Buffer
				if err := html.Render(&buf, n); err != nil && walkErr == nil {
					walkErr = err
				}
				d.Raw(buf.String())
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, atom.Body); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	if walkErr != nil {
		return nil, fmt.Errorf("render table: %w", walkErr)
	}

	if d.Title == "" {
		if t := findElement(doc, atom.Title); t != nil {
			d.Title = textContent(t)
		}
	}
	if d.Title == "" {
		d.Title = stem(filename)
	}
	return d, nil
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// textContent joins descendant text with runs of whitespace collapsed.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
