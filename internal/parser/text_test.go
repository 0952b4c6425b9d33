package parser

import (
	"strings"
	"testing"
)

func TestTextParser_PromotesSections(t *testing.T) {
	input := "Learning Objectives\n• Explain channels\n• Compare costs\n\n" +
		"8.1 Online Travel Agencies\nOTAs are intermediaries\nthat sell rooms.\n\n" +
		"1.5 million rooms were sold.\n\n" +
		"Key Terms:\nOTA: online travel agency\n"

	d, err := (&TextParser{}).Parse(strings.NewReader(input), "otas.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Title != "otas" {
		t.Errorf("expected title %q, got %q", "otas", d.Title)
	}

	want := "## Learning Objectives\n\n" +
		"- Explain channels\n- Compare costs\n\n" +
		"## 8.1 Online Travel Agencies\n\n" +
		"OTAs are intermediaries\nthat sell rooms.\n\n" +
		"1.5 million rooms were sold.\n\n" +
		"## Key Terms\n\n" +
		"OTA: online travel agency\n"
	if got := d.Markdown(); got != want {
		t.Errorf("unexpected markdown\nwant: %q\ngot:  %q", want, got)
	}
}

func TestTextParser_RulesAndPages(t *testing.T) {
	input := "First page.\f---\r\nSecond page.\r\n"
	d, err := (&TextParser{}).Parse(strings.NewReader(input), "doc.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "First page.\n\n---\n\nSecond page.\n"
	if got := d.Markdown(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTextParser_Empty(t *testing.T) {
	d, err := (&TextParser{}).Parse(strings.NewReader("\n\n  \n"), "blank.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Empty() {
		t.Errorf("expected empty draft, got %+v", d.Blocks)
	}
}

func TestTextParser_WrappedNumbersStayProse(t *testing.T) {
	input := "Indirect channels grew over the last decade and\n" +
		"2.5 million rooms were booked through the GDS in\n" +
		"the first quarter alone.\n\n" +
		"3.5 percent of bookings came from metasearch\n" +
		"in the same period.\n\n" +
		"2.6 Metasearch\n" +
		"Guests compare rates.\n"

	d, err := (&TextParser{}).Parse(strings.NewReader(input), "gds.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Indirect channels grew over the last decade and\n" +
		"2.5 million rooms were booked through the GDS in\n" +
		"the first quarter alone.\n\n" +
		"3.5 percent of bookings came from metasearch\n" +
		"in the same period.\n\n" +
		"## 2.6 Metasearch\n\n" +
		"Guests compare rates.\n"
	if got := d.Markdown(); got != want {
		t.Errorf("unexpected markdown\nwant: %q\ngot:  %q", want, got)
	}
}
