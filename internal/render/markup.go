package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// cleanMarkup rewrites JSX-flavored HTML into plain HTML: className
// becomes class, and with stripBold any literal ** markers are removed
// from text.
func cleanMarkup(fragment string, stripBold bool) (string, error) {
	if !strings.Contains(fragment, "className") && !(stripBold && strings.Contains(fragment, "**")) {
		return fragment, nil
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		rewrite(n, stripBold)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewrite(n *html.Node, stripBold bool) {
	switch n.Type {
	case html.ElementNode:
		n.Attr = renameClassName(n.Attr)
	case html.TextNode:
		if stripBold {
			n.Data = strings.ReplaceAll(n.Data, "**", "")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewrite(c, stripBold)
	}
}

// renameClassName folds className into class. The tokenizer lowercases
// attribute names, so the JSX spelling arrives as "classname".
func renameClassName(attrs []html.Attribute) []html.Attribute {
	classIdx := -1
	for i, a := range attrs {
		if a.Namespace == "" && a.Key == "class" {
			classIdx = i
		}
	}

	out := attrs[:0]
	var extra []string
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == "classname" {
			if classIdx >= 0 {
				extra = append(extra, a.Val)
				continue
			}
			a.Key = "class"
		}
		out = append(out, a)
	}
	if len(extra) > 0 {
		for i := range out {
			if out[i].Key == "class" {
				out[i].Val = strings.TrimSpace(out[i].Val + " " + strings.Join(extra, " "))
			}
		}
	}
	return out
}
