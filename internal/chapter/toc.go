package chapter

import (
	"regexp"
	"strings"
)

var tocNumberRe = regexp.MustCompile(`^\d+\.\d+`)

// TableOfContents filters the navigation list down to what the in-page
// table of contents shows: numbered sections and industry spotlights.
func TableOfContents(sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if strings.Contains(s.Title, "Opening Vignette") {
			continue
		}
		if tocNumberRe.MatchString(s.Title) || strings.Contains(s.Title, "Industry Spotlight") {
			out = append(out, s)
		}
	}
	return out
}

// Part groups consecutive chapters of the book.
type Part struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	First  int    `json:"first_chapter"`
	Last   int    `json:"last_chapter"`
	Accent string `json:"accent"`
}

var parts = []Part{
	{Number: 1, Name: "Introduction", First: 1, Last: 3, Accent: "#001E3E"},
	{Number: 2, Name: "Direct Channels", First: 4, Last: 7, Accent: "#00244B"},
	{Number: 3, Name: "Indirect Channels", First: 8, Last: 10, Accent: "#002D5E"},
	{Number: 4, Name: "The Future", First: 11, Last: 13, Accent: "#00336B"},
}

// PartFor returns the part a chapter number belongs to. Numbers outside
// every part fall back to the first one.
func PartFor(number int) Part {
	for _, p := range parts {
		if number >= p.First && number <= p.Last {
			return p
		}
	}
	return parts[0]
}

// Adjacent returns the chapters before and after slug in an ordered list.
func Adjacent(chapters []Meta, slug string) (prev, next *Meta) {
	for i := range chapters {
		if chapters[i].Slug != slug {
			continue
		}
		if i > 0 {
			prev = &chapters[i-1]
		}
		if i < len(chapters)-1 {
			next = &chapters[i+1]
		}
		return prev, next
	}
	return nil, nil
}
