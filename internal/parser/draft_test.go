package parser

import (
	"testing"
)

func TestDraft_Markdown(t *testing.T) {
	d := &Draft{}
	d.Heading(1, "Distribution 101")
	d.Paragraph("Learning Objectives")
	d.Item("Explain channels")
	d.Item("Compare costs")
	d.Rule()
	d.Heading(2, "1.1 What Is Distribution")
	d.Paragraph("Hotels sell rooms through many channels.")
	d.Heading(3, "Direct")
	d.Heading(5, "Deep")

	if d.Title != "Distribution 101" {
		t.Errorf("expected title from first h1, got %q", d.Title)
	}
	want := "## Learning Objectives\n\n- Explain channels\n- Compare costs\n\n---\n\n## 1.1 What Is Distribution\n\nHotels sell rooms through many channels.\n\n### Direct\n\n#### Deep\n"
	if got := d.Markdown(); got != want {
		t.Errorf("unexpected markdown\nwant: %q\ngot:  %q", want, got)
	}
}

func TestDraft_RepeatedTitleDropped(t *testing.T) {
	d := &Draft{Title: "OTAs"}
	d.Heading(1, "OTAs")
	d.Heading(1, "Another Part")
	if len(d.Blocks) != 1 || d.Blocks[0].Level != 2 {
		t.Errorf("expected one demoted heading, got %+v", d.Blocks)
	}
}

func TestPromote(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"7.1 The Architecture of Loyalty", "7.1 The Architecture of Loyalty", true},
		{"key terms:", "Key Terms", true},
		{"  Opening Vignette  ", "Opening Vignette", true},
		{"1.5 million rooms were sold.", "", false},
		{"Chapter Summary of the week", "", false},
		{"Plain sentence", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := promote(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("promote(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDraft_EmptyMarkdown(t *testing.T) {
	d := &Draft{}
	if !d.Empty() || d.Markdown() != "" {
		t.Error("expected empty draft to render nothing")
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.txt", "a.md", "a.MDX", "a.html", "a.pdf", "a.docx"} {
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("%s: expected supported", name)
		}
	}
	if _, err := ForFile("a.csv", Options{}); err == nil {
		t.Error("expected csv to be unsupported")
	}
	p, _ := ForFile("a.pdf", Options{PDFFallbackPdftotext: true})
	if pp, ok := p.(*PDFParser); !ok || !pp.FallbackPdftotext {
		t.Errorf("expected pdf fallback option to carry through, got %#v", p)
	}
}
