package chapter

import (
	"strings"
	"testing"
)

func TestExtractVignette_NumberedWithSubtitle(t *testing.T) {
	body := "## 2.1 Opening Vignette: Arrival\nPara one.\n\nPara two.\n\n## 2.2 The Market\nBody text."

	ex, ok := ExtractVignette(body)
	if !ok {
		t.Fatal("expected vignette to be found")
	}
	if ex.Content != "Para one.\n\nPara two." {
		t.Errorf("expected %q, got %q", "Para one.\n\nPara two.", ex.Content)
	}
	if ex.Residual != "## 2.2 The Market\nBody text." {
		t.Errorf("expected residual %q, got %q", "## 2.2 The Market\nBody text.", ex.Residual)
	}
}

func TestExtractVignette_H3StopsAtNextH2Only(t *testing.T) {
	body := "Intro.\n### Opening Vignette\nScene one.\n\n### A Subheading\nScene two.\n## 1.1 Next\nRest."

	ex, ok := ExtractVignette(body)
	if !ok {
		t.Fatal("expected vignette to be found")
	}
	if !strings.Contains(ex.Content, "### A Subheading") || !strings.Contains(ex.Content, "Scene two.") {
		t.Errorf("expected h3 content to stay inside the vignette, got %q", ex.Content)
	}
	if ex.Residual != "Intro.\n## 1.1 Next\nRest." {
		t.Errorf("unexpected residual %q", ex.Residual)
	}
}

func TestExtractVignette_DropsSeparators(t *testing.T) {
	body := "## Opening Vignette\n\nFirst.\n\n---\n\nSecond.\n\n## Next"

	ex, ok := ExtractVignette(body)
	if !ok {
		t.Fatal("expected vignette to be found")
	}
	if ex.Content != "First.\n\nSecond." {
		t.Errorf("expected %q, got %q", "First.\n\nSecond.", ex.Content)
	}
}

func TestExtractIntroTitle_RemovesSeparator(t *testing.T) {
	body := "## The Technology Stack\n\n---\n\n## 2.1 Intro\nText"

	ex, ok := ExtractIntroTitle(body)
	if !ok {
		t.Fatal("expected intro title")
	}
	if ex.Content != "The Technology Stack" {
		t.Errorf("expected %q, got %q", "The Technology Stack", ex.Content)
	}
	if ex.Residual != "\n## 2.1 Intro\nText" {
		t.Errorf("unexpected residual %q", ex.Residual)
	}
}

func TestExtractIntroTitle_WithoutSeparator(t *testing.T) {
	body := "Preamble\n## Big Idea\nBody\n## 1.1 Next"

	ex, ok := ExtractIntroTitle(body)
	if !ok {
		t.Fatal("expected intro title")
	}
	if ex.Content != "Big Idea" {
		t.Errorf("expected %q, got %q", "Big Idea", ex.Content)
	}
	if ex.Residual != "Preamble\nBody\n## 1.1 Next" {
		t.Errorf("unexpected residual %q", ex.Residual)
	}
}

func TestExtractIntroTitle_OnlyFirstH2Considered(t *testing.T) {
	tests := []string{
		"## 1.1 Foundations\n## A Later Title",
		"## Learning Objectives\n- a\n## Real Title",
		"## Opening Vignette\nScene\n## Title",
		"## Key Terms\n## Title",
		"## References\n## Title",
		"## Discussion Questions\n## Title",
	}
	for _, body := range tests {
		if _, ok := ExtractIntroTitle(body); ok {
			t.Errorf("expected no intro title for %q", body)
		}
	}
}

func TestExtractIntroTitle_IgnoresH3(t *testing.T) {
	ex, ok := ExtractIntroTitle("### Learning Objectives\n- a\n## Distribution Basics\nText")
	if !ok {
		t.Fatal("expected intro title")
	}
	if ex.Content != "Distribution Basics" {
		t.Errorf("expected %q, got %q", "Distribution Basics", ex.Content)
	}
}

func TestExtractLearningObjectives(t *testing.T) {
	body := "## Learning Objectives\n\n---\n1. Explain **GDS**.\n2. Compare channels.\n---\n\n## 1.1 Start\nBody"

	ex, ok := ExtractLearningObjectives(body)
	if !ok {
		t.Fatal("expected objectives")
	}
	want := "1. Explain **GDS**.\n2. Compare channels."
	if ex.Content != want {
		t.Errorf("expected %q, got %q", want, ex.Content)
	}
	if ex.Residual != "## 1.1 Start\nBody" {
		t.Errorf("unexpected residual %q", ex.Residual)
	}
}

func TestExtractLearningObjectives_H3KeepsNestedH3(t *testing.T) {
	body := "### Learning Objectives\nA\n### Other\nB\n## Next\nC"

	ex, ok := ExtractLearningObjectives(body)
	if !ok {
		t.Fatal("expected objectives")
	}
	if ex.Content != "A\n### Other\nB" {
		t.Errorf("unexpected content %q", ex.Content)
	}
	if ex.Residual != "## Next\nC" {
		t.Errorf("unexpected residual %q", ex.Residual)
	}
}

func TestEndOfChapterExtractors_H2Only(t *testing.T) {
	extractors := map[string]Extractor{
		"Chapter Summary":      ExtractChapterSummary,
		"Key Terms":            ExtractKeyTerms,
		"Discussion Questions": ExtractDiscussionQuestions,
		"References":           ExtractReferences,
	}
	for label, extract := range extractors {
		if _, ok := extract("### " + label + "\ntext"); ok {
			t.Errorf("%s: expected h3 heading to be ignored", label)
		}
		ex, ok := extract("Body.\n## " + label + "\n\n  text  \n\n## Next\nMore")
		if !ok {
			t.Errorf("%s: expected match", label)
			continue
		}
		if ex.Content != "text" {
			t.Errorf("%s: expected %q, got %q", label, "text", ex.Content)
		}
		if ex.Residual != "Body.\n## Next\nMore" {
			t.Errorf("%s: unexpected residual %q", label, ex.Residual)
		}
	}
}

func TestExtractKeyTerms_PassesMarkupThrough(t *testing.T) {
	markup := `<table className="w-full"><tr><td>**PMS**</td></tr></table>`
	ex, ok := ExtractKeyTerms("## Key Terms\n\n" + markup + "\n")
	if !ok {
		t.Fatal("expected key terms")
	}
	if ex.Content != markup {
		t.Errorf("expected markup untouched, got %q", ex.Content)
	}
}

func TestExtract_HeadingOnLastLine(t *testing.T) {
	ex, ok := ExtractReferences("Body\n## References")
	if !ok {
		t.Fatal("expected references heading to match")
	}
	if ex.Content != "" {
		t.Errorf("expected empty content, got %q", ex.Content)
	}
	if ex.Residual != "Body\n" {
		t.Errorf("unexpected residual %q", ex.Residual)
	}
}

func TestExtract_EmptySectionFollowedByHeading(t *testing.T) {
	ex, ok := ExtractKeyTerms("## Key Terms\n## Next\nX")
	if !ok {
		t.Fatal("expected key terms heading to match")
	}
	if ex.Content != "" {
		t.Errorf("expected empty content, got %q", ex.Content)
	}
	if ex.Residual != "## Next\nX" {
		t.Errorf("expected following section to survive, got %q", ex.Residual)
	}
}

func TestExtractors_AbsentIsNoMatch(t *testing.T) {
	body := "## 1.1 Only Content\nNothing special here."
	for _, s := range Stages() {
		if _, ok := s.Extract(body); ok {
			t.Errorf("%s: expected no match", s.Name)
		}
	}
}

func TestExtractors_Conservation(t *testing.T) {
	for _, s := range Stages() {
		ex, ok := s.Extract(sampleChapter)
		if !ok {
			t.Errorf("%s: expected match in sample chapter", s.Name)
			continue
		}
		if len(ex.Residual) > len(sampleChapter) {
			t.Errorf("%s: residual grew", s.Name)
		}
		if ex.Residual != sampleChapter[:ex.Start]+sampleChapter[ex.End:] {
			t.Errorf("%s: residual does not match removed span", s.Name)
		}
		rebuilt := ex.Residual[:ex.Start] + sampleChapter[ex.Start:ex.End] + ex.Residual[ex.Start:]
		if rebuilt != sampleChapter {
			t.Errorf("%s: span plus residual does not rebuild input", s.Name)
		}
	}
}

func TestReferenceEntries(t *testing.T) {
	got := ReferenceEntries("Smith, J. (2020).\n\n  Doe, A. (2021).  \n")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[1] != "Doe, A. (2021)." {
		t.Errorf("expected trimmed entry, got %q", got[1])
	}
}
