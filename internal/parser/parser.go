// Package parser converts chapter manuscripts into chapter markup.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Parser converts raw manuscript bytes into a Draft.
type Parser interface {
	Parse(r io.Reader, filename string) (*Draft, error)
}

// Options tune format-specific behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists manuscript formats the importer accepts.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".mdx":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the parser for filename's extension.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown", ".mdx":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// stem is filename without directory or extension.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
