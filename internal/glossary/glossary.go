// Package glossary serves the textbook's key-term glossary: loading,
// search, and deep links into the chapters that define each term.
package glossary

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// DefaultAnchor is linked when a term has no recorded anchor in a chapter.
const DefaultAnchor = "key-terms"

// Term is one glossary entry. Chapters is the authored list, e.g. "1, 8".
type Term struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Chapters   string `json:"chapters"`
}

// Link points at the place a chapter discusses a term.
type Link struct {
	Chapter int    `json:"chapter"`
	Href    string `json:"href"`
}

// Glossary holds all terms plus per-chapter anchors keyed by term, then by
// chapter number as a string.
type Glossary struct {
	Terms   []Term
	Anchors map[string]map[string]string
}

// Load reads terms from termsPath (.csv, otherwise JSON) and anchors from
// anchorsPath. A missing anchors file means every link uses DefaultAnchor.
func Load(fs afero.Fs, termsPath, anchorsPath string) (*Glossary, error) {
	f, err := fs.Open(termsPath)
	if err != nil {
		return nil, fmt.Errorf("open glossary: %w", err)
	}
	defer f.Close()

	var terms []Term
	if strings.EqualFold(path.Ext(termsPath), ".csv") {
		terms, err = readCSV(f)
	} else {
		err = json.NewDecoder(f).Decode(&terms)
	}
	if err != nil {
		return nil, fmt.Errorf("parse glossary %s: %w", termsPath, err)
	}

	g := &Glossary{Anchors: map[string]map[string]string{}}
	for _, t := range terms {
		t.Term = strings.TrimSpace(t.Term)
		if t.Term == "" {
			continue
		}
		g.Terms = append(g.Terms, t)
	}

	if anchorsPath == "" {
		return g, nil
	}
	data, err := afero.ReadFile(fs, anchorsPath)
	if errors.Is(err, os.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read glossary anchors: %w", err)
	}
	if err := json.Unmarshal(data, &g.Anchors); err != nil {
		return nil, fmt.Errorf("parse glossary anchors: %w", err)
	}
	return g, nil
}

// readCSV accepts term,definition,chapters rows with an optional header.
func readCSV(r io.Reader) ([]Term, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && len(records[0]) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "term") {
		records = records[1:]
	}

	terms := make([]Term, 0, len(records))
	for _, row := range records {
		var t Term
		if len(row) > 0 {
			t.Term = row[0]
		}
		if len(row) > 1 {
			t.Definition = row[1]
		}
		if len(row) > 2 {
			t.Chapters = row[2]
		}
		terms = append(terms, t)
	}
	return terms, nil
}

// Filter returns terms whose term or definition contains query
// (case-insensitive) and whose first letter is letter. Empty arguments
// match everything.
func (g *Glossary) Filter(query, letter string) []Term {
	q := strings.ToLower(strings.TrimSpace(query))
	letter = strings.ToUpper(strings.TrimSpace(letter))

	out := make([]Term, 0, len(g.Terms))
	for _, t := range g.Terms {
		if q != "" && !strings.Contains(strings.ToLower(t.Term), q) && !strings.Contains(strings.ToLower(t.Definition), q) {
			continue
		}
		if letter != "" && initial(t.Term) != letter {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Letters returns the distinct uppercase initials of all terms, sorted.
func (g *Glossary) Letters() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range g.Terms {
		l := initial(t.Term)
		if l != "" && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Strings(out)
	return out
}

func initial(term string) string {
	r, _ := utf8.DecodeRuneInString(term)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// ParseChapters reads a comma-separated chapter list. Each item contributes
// its leading digits; items without any are ignored.
func ParseChapters(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		if end == 0 {
			continue
		}
		n, err := strconv.Atoi(part[:end])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Anchor returns the section anchor for term in chapter n.
func (g *Glossary) Anchor(term string, n int) string {
	if a := g.Anchors[term][strconv.Itoa(n)]; a != "" {
		return a
	}
	return DefaultAnchor
}

// Links resolves a term's chapters to reader URLs. Chapters missing from
// slugs are skipped.
func (g *Glossary) Links(t Term, slugs map[int]string) []Link {
	var out []Link
	for _, n := range ParseChapters(t.Chapters) {
		slug, ok := slugs[n]
		if !ok {
			continue
		}
		out = append(out, Link{
			Chapter: n,
			Href:    "/chapters/" + slug + "#" + g.Anchor(t.Term, n),
		})
	}
	return out
}

// Dangling is a recorded anchor that names no section of its chapter.
type Dangling struct {
	Term    string `json:"term"`
	Chapter int    `json:"chapter"`
	Anchor  string `json:"anchor"`
}

// Verify checks every term/chapter pair against the section ids of that
// chapter. Chapters absent from ids are reported with an empty anchor.
func (g *Glossary) Verify(ids map[int]map[string]bool) []Dangling {
	var out []Dangling
	for _, t := range g.Terms {
		for _, n := range ParseChapters(t.Chapters) {
			sections, ok := ids[n]
			if !ok {
				out = append(out, Dangling{Term: t.Term, Chapter: n})
				continue
			}
			if a := g.Anchor(t.Term, n); !sections[a] {
				out = append(out, Dangling{Term: t.Term, Chapter: n, Anchor: a})
			}
		}
	}
	return out
}
