package chapter

import (
	"regexp"
	"strings"
)

// Extraction is the result of removing one named region from a body.
// body[Start:End] is the removed span (heading line included) and
// Residual == body[:Start] + body[End:].
type Extraction struct {
	Content  string
	Residual string
	Start    int
	End      int
}

// Extractor locates one named region. ok is false when the body has no such
// region; callers then keep the body unchanged.
type Extractor func(body string) (ex Extraction, ok bool)

var (
	h2LineRe    = regexp.MustCompile(`^##\s+(.+)`)
	introSkipRe = regexp.MustCompile(`^##\s+(Opening Vignette|Learning Objectives|Key Terms|References|Discussion Questions|\d)`)
	nextH2Re    = regexp.MustCompile(`(?m)^## `)

	objectivesRe = regexp.MustCompile(`(?m)^#{2,3}[ \t]+Learning Objectives[^\n]*(?:\n|$)`)
	vignetteRe   = regexp.MustCompile(`(?m)^#{2,3}[ \t]+(?:\d+\.\d+[ \t]+)?Opening Vignette[^\n]*(?:\n|$)`)
	summaryRe    = h2Named("Chapter Summary")
	keyTermsRe   = h2Named("Key Terms")
	questionsRe  = h2Named("Discussion Questions")
	referencesRe = h2Named("References")
)

func h2Named(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^##[ \t]+` + regexp.QuoteMeta(label) + `[^\n]*(?:\n|$)`)
}

const separator = "---"

// ExtractIntroTitle removes a standalone, unnumbered title heading that opens
// the chapter. Only the first level-2 heading is considered.
func ExtractIntroTitle(body string) (Extraction, bool) {
	lines := strings.Split(body, "\n")
	offset := 0
	offsets := make([]int, len(lines))
	for i, line := range lines {
		offsets[i] = offset
		offset += len(line) + 1
	}

	for i, line := range lines {
		m := h2LineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if introSkipRe.MatchString(line) {
			return Extraction{}, false
		}

		// Blank lines and a single separator directly under the title go with it.
		removeEnd := i + 1
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j < len(lines) && strings.TrimSpace(lines[j]) == separator {
			removeEnd = j + 1
		}

		start := offsets[i]
		end := len(body)
		if removeEnd < len(lines) {
			end = offsets[removeEnd]
		}
		return Extraction{
			Content:  strings.TrimSpace(m[1]),
			Residual: body[:start] + body[end:],
			Start:    start,
			End:      end,
		}, true
	}
	return Extraction{}, false
}

// ExtractLearningObjectives removes the Learning Objectives section (h2 or h3).
func ExtractLearningObjectives(body string) (Extraction, bool) {
	return extractSection(body, objectivesRe, func(text string) string {
		var kept []string
		for _, l := range strings.Split(text, "\n") {
			if strings.TrimSpace(l) != separator {
				kept = append(kept, l)
			}
		}
		return strings.TrimSpace(strings.Join(kept, "\n"))
	})
}

// ExtractVignette removes the Opening Vignette section. All paragraphs are
// kept; shortening for display is left to the presentation layer.
func ExtractVignette(body string) (Extraction, bool) {
	return extractSection(body, vignetteRe, func(text string) string {
		var paragraphs []string
		for _, p := range strings.Split(text, "\n\n") {
			if strings.TrimSpace(p) == "" || strings.HasPrefix(p, separator) {
				continue
			}
			paragraphs = append(paragraphs, p)
		}
		return strings.Join(paragraphs, "\n\n")
	})
}

func ExtractChapterSummary(body string) (Extraction, bool) {
	return extractSection(body, summaryRe, nil)
}

// ExtractKeyTerms removes the Key Terms section. Its content usually carries
// embedded markup and is passed through untouched.
func ExtractKeyTerms(body string) (Extraction, bool) {
	return extractSection(body, keyTermsRe, nil)
}

func ExtractDiscussionQuestions(body string) (Extraction, bool) {
	return extractSection(body, questionsRe, nil)
}

func ExtractReferences(body string) (Extraction, bool) {
	return extractSection(body, referencesRe, nil)
}

// ReferenceEntries splits extracted references into one citation per
// non-blank line.
func ReferenceEntries(text string) []string {
	var entries []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			entries = append(entries, l)
		}
	}
	return entries
}

// extractSection cuts from the first heading matching re up to the next line
// starting a level-2 heading, or the end of body. The content is trimmed
// before post is applied.
func extractSection(body string, re *regexp.Regexp, post func(string) string) (Extraction, bool) {
	loc := re.FindStringIndex(body)
	if loc == nil {
		return Extraction{}, false
	}
	start, afterHeading := loc[0], loc[1]

	end := len(body)
	if next := nextH2Re.FindStringIndex(body[afterHeading:]); next != nil {
		end = afterHeading + next[0]
	}

	content := strings.TrimSpace(body[afterHeading:end])
	if post != nil {
		content = post(content)
	}
	return Extraction{
		Content:  content,
		Residual: body[:start] + body[end:],
		Start:    start,
		End:      end,
	}, true
}
