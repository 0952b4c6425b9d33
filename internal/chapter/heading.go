package chapter

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^(#{2,3})\s+(.+)`)
	numberedRe = regexp.MustCompile(`^(\d+\.\d+)\s+(.+)$`)

	slugStripRe = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
	slugDashRe  = regexp.MustCompile(`-+`)
)

// reservedTitles are end-of-chapter headings owned by dedicated extractors.
var reservedTitles = map[string]bool{
	"Key Terms":            true,
	"References":           true,
	"Discussion Questions": true,
}

// Slugify derives a URL-fragment-safe identifier from heading text.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = slugDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// AnchorSet hands out unique anchors. The zero value is not usable; create
// one per document scan or render with NewAnchorSet.
type AnchorSet struct {
	seen   map[string]int
	issued map[string]bool
}

func NewAnchorSet() *AnchorSet {
	return &AnchorSet{seen: make(map[string]int), issued: make(map[string]bool)}
}

// Unique returns base on first use and base-1, base-2, ... afterwards. A
// suffixed candidate that collides with an anchor already issued (a heading
// literally titled "Overview 1", say) keeps counting.
func (a *AnchorSet) Unique(base string) string {
	for {
		count := a.seen[base]
		a.seen[base] = count + 1
		id := base
		if count > 0 {
			id = base + "-" + strconv.Itoa(count)
		}
		if !a.issued[id] {
			a.issued[id] = true
			return id
		}
	}
}

// Reserve marks id as taken so Unique never hands it out.
func (a *AnchorSet) Reserve(id string) {
	a.issued[id] = true
}

// Navigable reports whether a heading title belongs in generic navigation.
func Navigable(title string) bool {
	if title == "" || reservedTitles[title] {
		return false
	}
	return !strings.HasPrefix(title, "<")
}

// SplitNumbered splits "7.1 The Architecture of Loyalty" into its section
// number and remaining title. ok is false for unnumbered titles.
func SplitNumbered(title string) (number, rest string, ok bool) {
	m := numberedRe.FindStringSubmatch(title)
	if m == nil {
		return "", title, false
	}
	return m[1], m[2], true
}

// ScanSections walks body line by line and returns its level-2 and level-3
// headings in document order. Anchors are unique within the returned slice.
func ScanSections(body string) []Section {
	anchors := NewAnchorSet()
	var sections []Section

	for _, line := range strings.Split(body, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[2])
		if !Navigable(title) {
			continue
		}

		s := Section{
			ID:    anchors.Unique(Slugify(title)),
			Title: title,
			Level: len(m[1]),
		}
		if num, _, ok := SplitNumbered(title); ok {
			s.SectionNumber = num
		}
		sections = append(sections, s)
	}

	return sections
}
