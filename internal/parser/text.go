package parser

import (
	"io"
)

// TextParser handles plain text manuscripts.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Draft, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d := &Draft{Title: stem(filename)}
	d.addPlainText(string(data))
	return d, nil
}
