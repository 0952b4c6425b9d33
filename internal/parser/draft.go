package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// BlockKind classifies a Draft block.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockItem      BlockKind = "item"
	BlockRule      BlockKind = "rule"
	BlockRaw       BlockKind = "raw" // already chapter markup; emitted verbatim
)

// Block is one unit of manuscript content.
type Block struct {
	Kind  BlockKind
	Level int // headings only: 2, 3 or 4
	Text  string
}

// Draft is a manuscript flattened into chapter-markup blocks. Metadata
// fields are filled when the source carries them.
type Draft struct {
	Title       string
	Number      *int
	Description string
	Blocks      []Block
}

var numberedLineRe = regexp.MustCompile(`^\d+\.\d+[ \t]+\S`)

// sectionLabels are headings the chapter processor recognizes by name.
var sectionLabels = []string{
	"Learning Objectives",
	"Opening Vignette",
	"Chapter Summary",
	"Key Terms",
	"Discussion Questions",
	"References",
}

// promote reports whether a standalone line reads as a section heading:
// "7.1 Title" or one of the named chapter sections.
func promote(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if t == "" || len(t) > 120 || strings.Contains(t, "\n") {
		return "", false
	}
	t = strings.TrimSpace(strings.TrimSuffix(t, ":"))
	for _, label := range sectionLabels {
		if strings.EqualFold(t, label) {
			return label, true
		}
	}
	if numberedLineRe.MatchString(t) && !strings.HasSuffix(t, ".") {
		return t, true
	}
	return "", false
}

// Heading adds a heading. The first level-1 heading names the draft;
// later ones are demoted into the body.
func (d *Draft) Heading(level int, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if level <= 1 {
		if d.Title == "" {
			d.Title = text
			return
		}
		if text == d.Title {
			return
		}
	}
	d.Blocks = append(d.Blocks, Block{Kind: BlockHeading, Level: min(max(level, 2), 4), Text: text})
}

// Paragraph adds body text, promoting single-line section labels.
func (d *Draft) Paragraph(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if title, ok := promote(text); ok {
		d.Blocks = append(d.Blocks, Block{Kind: BlockHeading, Level: 2, Text: title})
		return
	}
	d.Blocks = append(d.Blocks, Block{Kind: BlockParagraph, Text: text})
}

func (d *Draft) Item(text string) {
	if text = strings.TrimSpace(text); text != "" {
		d.Blocks = append(d.Blocks, Block{Kind: BlockItem, Text: text})
	}
}

func (d *Draft) Rule() {
	d.Blocks = append(d.Blocks, Block{Kind: BlockRule})
}

func (d *Draft) Raw(text string) {
	if text = strings.TrimSpace(text); text != "" {
		d.Blocks = append(d.Blocks, Block{Kind: BlockRaw, Text: text})
	}
}

// Empty reports whether the draft has no body content.
func (d *Draft) Empty() bool {
	return len(d.Blocks) == 0
}

// Markdown renders the blocks as chapter markup. Consecutive list items
// stay in one list; every other block is separated by a blank line.
func (d *Draft) Markdown() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			if b.Kind == BlockItem && d.Blocks[i-1].Kind == BlockItem {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		switch b.Kind {
		case BlockHeading:
			sb.WriteString(strings.Repeat("#", b.Level) + " " + b.Text)
		case BlockItem:
			sb.WriteString("- " + b.Text)
		case BlockRule:
			sb.WriteString("---")
		default:
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

var listPrefixes = []string{"- ", "* ", "• ", "– ", "▪ "}

// addPlainText classifies lines of extracted text: rules, bullet items,
// promoted headings, and paragraphs split on blank lines.
func (d *Draft) addPlainText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n\n")

	var para []string
	flush := func() {
		if len(para) > 0 {
			d.Paragraph(strings.Join(para, "\n"))
			para = para[:0]
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case t == "":
			flush()
		case t == "---" || t == "***" || t == "___":
			flush()
			d.Rule()
		case hasListPrefix(t):
			flush()
			d.Item(trimListPrefix(t))
		default:
			// Only a line that opens a paragraph can be a heading, and not
			// when the next line carries on its sentence.
			if len(para) == 0 && (i+1 == len(lines) || !continuesSentence(lines[i+1])) {
				if title, ok := promote(t); ok {
					d.Blocks = append(d.Blocks, Block{Kind: BlockHeading, Level: 2, Text: title})
					continue
				}
			}
			para = append(para, t)
		}
	}
	flush()
}

// continuesSentence reports whether line reads as the wrapped tail of the
// line before it.
func continuesSentence(line string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(line))
	return unicode.IsLower(r)
}

func hasListPrefix(s string) bool {
	for _, p := range listPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func trimListPrefix(s string) string {
	for _, p := range listPrefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimPrefix(s, p)
		}
	}
	return s
}
