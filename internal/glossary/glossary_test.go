package glossary

import (
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

const termsJSON = `[
  {"term": "ADR", "definition": "Average daily rate.", "chapters": "1, 3"},
  {"term": "Agency model", "definition": "The OTA collects commission after the stay.", "chapters": "8"},
  {"term": "Brand.com", "definition": "A hotel's own booking website.", "chapters": "4"},
  {"term": "  ", "definition": "dropped", "chapters": ""}
]`

const anchorsJSON = `{"ADR": {"3": "31-rate-basics"}}`

func loadTest(t *testing.T) *Glossary {
	t.Helper()
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/glossary.json", []byte(termsJSON), 0o644)
	_ = afero.WriteFile(fs, "/anchors.json", []byte(anchorsJSON), 0o644)

	g, err := Load(fs, "/glossary.json", "/anchors.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

func TestLoad_JSON(t *testing.T) {
	g := loadTest(t)
	if len(g.Terms) != 3 {
		t.Fatalf("expected 3 terms, got %d", len(g.Terms))
	}
	if g.Anchors["ADR"]["3"] != "31-rate-basics" {
		t.Errorf("unexpected anchors: %v", g.Anchors)
	}
}

func TestLoad_CSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	csvData := "term,definition,chapters\nRevPAR,\"Revenue per available room, a KPI.\",\"2, 3\"\nGDS,Global distribution system,9\n"
	_ = afero.WriteFile(fs, "/glossary.csv", []byte(csvData), 0o644)

	g, err := Load(fs, "/glossary.csv", "/missing.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(g.Terms))
	}
	if g.Terms[0].Definition != "Revenue per available room, a KPI." {
		t.Errorf("unexpected definition %q", g.Terms[0].Definition)
	}
	if g.Terms[0].Chapters != "2, 3" {
		t.Errorf("unexpected chapters %q", g.Terms[0].Chapters)
	}
}

func TestLoad_MissingTerms(t *testing.T) {
	if _, err := Load(afero.NewMemMapFs(), "/nope.json", ""); err == nil {
		t.Fatal("expected error for missing glossary")
	}
}

func TestFilter(t *testing.T) {
	g := loadTest(t)
	tests := []struct {
		name   string
		query  string
		letter string
		want   []string
	}{
		{"all", "", "", []string{"ADR", "Agency model", "Brand.com"}},
		{"query matches term", "adr", "", []string{"ADR"}},
		{"query matches definition", "commission", "", []string{"Agency model"}},
		{"letter", "", "a", []string{"ADR", "Agency model"}},
		{"query and letter", "booking", "A", []string{}},
		{"no match", "zzz", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, term := range g.Filter(tt.query, tt.letter) {
				got = append(got, term.Term)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.query, tt.letter, got, tt.want)
			}
		})
	}
}

func TestLetters(t *testing.T) {
	got := loadTest(t).Letters()
	want := []string{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseChapters(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"1, 3", []int{1, 3}},
		{"8", []int{8}},
		{"", nil},
		{"x, 4, ", []int{4}},
		{"12a", []int{12}},
	}
	for _, tt := range tests {
		if got := ParseChapters(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseChapters(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLinks(t *testing.T) {
	g := loadTest(t)
	slugs := map[int]string{1: "distribution-101", 3: "value-of-a-guest"}

	got := g.Links(g.Terms[0], slugs)
	want := []Link{
		{Chapter: 1, Href: "/chapters/distribution-101#key-terms"},
		{Chapter: 3, Href: "/chapters/value-of-a-guest#31-rate-basics"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if links := g.Links(g.Terms[1], slugs); len(links) != 0 {
		t.Errorf("expected unknown chapter to be skipped, got %v", links)
	}
}

func TestVerify(t *testing.T) {
	g := loadTest(t)
	ids := map[int]map[string]bool{
		1: {"key-terms": true},
		3: {"key-terms": true},
		4: {"key-terms": true},
	}
	got := g.Verify(ids)
	want := []Dangling{
		{Term: "ADR", Chapter: 3, Anchor: "31-rate-basics"},
		{Term: "Agency model", Chapter: 8},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
