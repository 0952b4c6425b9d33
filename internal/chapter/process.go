package chapter

import "slices"

// Stage is one step of the decomposition pipeline.
type Stage struct {
	Name    string
	Extract Extractor
	field   func(p *Processed) **string
}

// stages run in this order; each sees only what earlier stages left behind,
// so front-of-chapter regions are taken before back-of-chapter ones.
var stages = []Stage{
	{Name: "intro_title", Extract: ExtractIntroTitle, field: func(p *Processed) **string { return &p.IntroTitle }},
	{Name: "learning_objectives", Extract: ExtractLearningObjectives, field: func(p *Processed) **string { return &p.LearningObjectives }},
	{Name: "vignette", Extract: ExtractVignette, field: func(p *Processed) **string { return &p.Vignette }},
	{Name: "chapter_summary", Extract: ExtractChapterSummary, field: func(p *Processed) **string { return &p.Summary }},
	{Name: "key_terms", Extract: ExtractKeyTerms, field: func(p *Processed) **string { return &p.KeyTerms }},
	{Name: "discussion_questions", Extract: ExtractDiscussionQuestions, field: func(p *Processed) **string { return &p.DiscussionQuestions }},
	{Name: "references", Extract: ExtractReferences, field: func(p *Processed) **string { return &p.References }},
}

// endSections lists the navigation entries appended after the body headings.
var endSections = []struct {
	title string
	field func(p *Processed) *string
}{
	{"Chapter Summary", func(p *Processed) *string { return p.Summary }},
	{"Discussion Questions", func(p *Processed) *string { return p.DiscussionQuestions }},
	{"Key Terms", func(p *Processed) *string { return p.KeyTerms }},
	{"References", func(p *Processed) *string { return p.References }},
}

// Stages returns the pipeline stages in application order.
func Stages() []Stage {
	return slices.Clone(stages)
}

// Apply runs the stage against body and returns the remaining body. When
// the region is absent body is returned unchanged and p is not touched.
func (s Stage) Apply(p *Processed, body string) string {
	ex, ok := s.Extract(body)
	if !ok {
		return body
	}
	content := ex.Content
	*s.field(p) = &content
	return ex.Residual
}

// Process decomposes a chapter body. It is a pure function of its input.
func Process(body string) *Processed {
	p := &Processed{}
	for _, s := range stages {
		body = s.Apply(p, body)
	}
	p.DisplayBody = body

	p.FrontSections = ScanSections(body)
	for _, es := range endSections {
		if es.field(p) != nil {
			p.EndSections = append(p.EndSections, Section{ID: Slugify(es.title), Title: es.title, Level: 2})
		}
	}
	p.Sections = make([]Section, 0, len(p.FrontSections)+len(p.EndSections))
	p.Sections = append(p.Sections, p.FrontSections...)
	p.Sections = append(p.Sections, p.EndSections...)

	return p
}

// Found returns the names of the stages that matched, in pipeline order.
func (p *Processed) Found() []string {
	var names []string
	for _, s := range stages {
		if *s.field(p) != nil {
			names = append(names, s.Name)
		}
	}
	return names
}
