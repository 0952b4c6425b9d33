package chapter

// Meta is the listing view of a chapter.
type Meta struct {
	Slug        string `json:"slug"`
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Document is one loaded chapter: metadata plus the body with front matter stripped.
type Document struct {
	Meta
	Body string // Raw chapter markup, treated as opaque until processed
}

// Section is a navigable heading in a chapter.
type Section struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Level         int    `json:"level"`                    // 2 or 3
	SectionNumber string `json:"section_number,omitempty"` // "7.1" for numbered headings
}

// Processed is the structured decomposition of a chapter body.
// Nil pointers mean the chapter has no such section.
type Processed struct {
	DisplayBody string `json:"-"`

	IntroTitle          *string `json:"intro_title,omitempty"`
	LearningObjectives  *string `json:"learning_objectives,omitempty"`
	Vignette            *string `json:"vignette,omitempty"`
	Summary             *string `json:"summary,omitempty"`
	KeyTerms            *string `json:"key_terms,omitempty"`
	DiscussionQuestions *string `json:"discussion_questions,omitempty"`
	References          *string `json:"references,omitempty"`

	FrontSections []Section `json:"-"`
	EndSections   []Section `json:"-"`
	Sections      []Section `json:"sections"` // FrontSections followed by EndSections
}
