package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_Structure(t *testing.T) {
	input := `<html><head><title>Export</title><style>p{}</style></head><body>
<nav>skip me</nav>
<h1>Metasearch Deep Dive</h1>
<h2>Learning Objectives</h2>
<ul><li>Explain   metasearch</li><li>Compare CPC and CPA</li></ul>
<hr>
<h2>10.1 How Metasearch Works</h2>
<p>Guests compare <b>prices</b>.</p>
<p>Key Terms</p>
<table class="kt"><tr><td>CPC</td><td>Cost per click</td></tr></table>
</body></html>`

	d, err := (&HTMLParser{}).Parse(strings.NewReader(input), "ch10.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "Metasearch Deep Dive" {
		t.Errorf("expected h1 title, got %q", d.Title)
	}

	got := d.Markdown()
	wantPrefix := "## Learning Objectives\n\n- Explain metasearch\n- Compare CPC and CPA\n\n---\n\n## 10.1 How Metasearch Works\n\nGuests compare prices.\n\n## Key Terms\n\n<table class=\"kt\">"
	if !strings.HasPrefix(got, wantPrefix) {
		t.Errorf("unexpected markdown\nwant prefix: %q\ngot:         %q", wantPrefix, got)
	}
	if strings.Contains(got, "skip me") {
		t.Errorf("expected nav to be skipped, got %q", got)
	}
	if !strings.Contains(got, "<td>Cost per click</td>") {
		t.Errorf("expected table kept as html, got %q", got)
	}
}

func TestHTMLParser_TitleFallbacks(t *testing.T) {
	d, err := (&HTMLParser{}).Parse(strings.NewReader("<html><head><title>From Title Tag</title></head><body><p>x</p></body></html>"), "a.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "From Title Tag" {
		t.Errorf("expected title tag, got %q", d.Title)
	}

	d, err = (&HTMLParser{}).Parse(strings.NewReader("<p>x</p>"), "fallback.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "fallback" {
		t.Errorf("expected filename title, got %q", d.Title)
	}
}
