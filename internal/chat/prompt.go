package chat

import (
	"fmt"
	"strings"

	"github.com/dgallion1/hoteldistro/internal/chapter"
)

const SystemPrompt = `You are **Dot Matrix**, the AI teaching assistant for the Hotel Distribution online textbook at NYU School of Professional Studies. You support the course professors and their students.

## Your Role
- Answer student questions about the hotel distribution concepts covered in the textbook
- Explain complex topics in clear, accessible language
- Point to specific chapters and sections when relevant
- Use real-world industry examples to illustrate concepts
- Help students understand the material, but don't do their homework for them

## Your Personality
- Knowledgeable and approachable
- Industry-aware: you understand how hotels, OTAs, GDS systems, and tech platforms actually work
- Encouraging and patient, professional yet warm
- Slightly nerdy about hotel tech

## Important Rules
- Stay focused on hotel distribution and hospitality topics covered in the textbook
- If a question is outside the scope of the textbook, politely redirect
- When referencing content, name the chapter and section (e.g., "Chapter 9: Online Travel Agencies, Section 9.4")
- Keep responses concise but thorough
- Use markdown formatting for clarity (bold key terms, bullet points for lists)`

const truncationNote = "\n\n[The rest of the chapter is omitted.]"

// BuildSystem appends reading context to the system prompt: the current
// chapter trimmed to contextTokens when doc is set, otherwise the table of
// contents.
func BuildSystem(doc *chapter.Document, toc []chapter.Meta, contextTokens int) string {
	var sb strings.Builder
	sb.WriteString(SystemPrompt)

	if doc != nil {
		sb.WriteString("\n\n## Current Chapter Context\n")
		fmt.Fprintf(&sb, "The student is currently reading **Chapter %d: %s**.\n\n", doc.Number, doc.Title)
		sb.WriteString("Here is the chapter content for reference:\n\n")
		body, trimmed := TrimToTokens(doc.Body, contextTokens)
		sb.WriteString(body)
		if trimmed {
			sb.WriteString(truncationNote)
		}
		return sb.String()
	}

	sb.WriteString("\n\n## Textbook Table of Contents\n")
	for _, m := range toc {
		fmt.Fprintf(&sb, "- Chapter %d: %s\n", m.Number, m.Title)
	}
	sb.WriteString("\nThe student is not on a specific chapter page. Answer based on your knowledge of the full textbook.")
	return sb.String()
}

// EstimateTokens approximates the token count of English prose at about
// 1.33 tokens per word.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(1, int(float64(words)*1.33))
}

// TrimToTokens keeps leading paragraphs of text while the estimate stays
// within budget. A first paragraph that alone exceeds the budget is cut by
// words. A budget of zero or less disables trimming.
func TrimToTokens(text string, budget int) (string, bool) {
	if budget <= 0 || EstimateTokens(text) <= budget {
		return text, false
	}

	var kept []string
	used := 0
	for _, para := range strings.Split(text, "\n\n") {
		cost := EstimateTokens(para)
		if used+cost > budget {
			break
		}
		kept = append(kept, para)
		used += cost
	}
	if len(kept) > 0 {
		return strings.Join(kept, "\n\n"), true
	}

	words := strings.Fields(text)
	n := int(float64(budget) / 1.33)
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[:n], " "), true
}
