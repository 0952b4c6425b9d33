package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/hoteldistro/internal/chapter"
)

func TestValidate(t *testing.T) {
	turns, err := Validate([]Message{
		{Role: "user", Content: "What is an OTA?"},
		{Role: "assistant", Parts: []Part{{Type: "text", Text: "An online "}, {Type: "text", Text: "travel agency."}}},
		{Role: "User", Parts: []Part{{Type: "step-start"}, {Type: "text", Text: "And a GDS?"}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[1].Content != "An online travel agency." {
		t.Errorf("expected joined parts, got %q", turns[1].Content)
	}
	if turns[2].Role != "user" || turns[2].Content != "And a GDS?" {
		t.Errorf("unexpected last turn: %+v", turns[2])
	}
}

func TestValidate_Rejects(t *testing.T) {
	tooMany := make([]Message, MaxMessages+1)
	for i := range tooMany {
		tooMany[i] = Message{Role: "user", Content: "q"}
	}

	tests := []struct {
		name string
		msgs []Message
	}{
		{"empty", nil},
		{"system role", []Message{{Role: "system", Content: "x"}}},
		{"blank content", []Message{{Role: "user", Content: "  "}}},
		{"ends with assistant", []Message{{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"}}},
		{"too long", []Message{{Role: "user", Content: strings.Repeat("a", MaxMessageLength+1)}}},
		{"too many", tooMany},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Validate(tt.msgs); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBuildSystem_ChapterContext(t *testing.T) {
	doc := &chapter.Document{
		Meta: chapter.Meta{Slug: "otas-deep-dive", Number: 8, Title: "OTAs"},
		Body: "## 8.1 Merchant Model\nText.",
	}
	got := BuildSystem(doc, nil, 0)
	if !strings.HasPrefix(got, SystemPrompt) {
		t.Error("expected persona prompt first")
	}
	if !strings.Contains(got, "**Chapter 8: OTAs**") || !strings.Contains(got, "## 8.1 Merchant Model") {
		t.Errorf("missing chapter context: %s", got[len(SystemPrompt):])
	}
}

func TestBuildSystem_TableOfContents(t *testing.T) {
	got := BuildSystem(nil, []chapter.Meta{{Number: 1, Title: "Distribution 101"}, {Number: 2, Title: "Hotel Technology"}}, 0)
	if !strings.Contains(got, "- Chapter 1: Distribution 101\n- Chapter 2: Hotel Technology\n") {
		t.Errorf("missing table of contents: %s", got[len(SystemPrompt):])
	}
}

func TestTrimToTokens(t *testing.T) {
	para := strings.Repeat("word ", 30) // ~39 tokens
	text := para + "\n\n" + para + "\n\n" + para

	got, trimmed := TrimToTokens(text, 80)
	if !trimmed {
		t.Fatal("expected trimming")
	}
	if strings.Count(got, "\n\n") != 1 {
		t.Errorf("expected two paragraphs kept, got %q", got)
	}

	got, trimmed = TrimToTokens(text, 0)
	if trimmed || got != text {
		t.Error("zero budget should disable trimming")
	}

	got, trimmed = TrimToTokens(strings.Repeat("word ", 100), 10)
	if !trimmed || len(strings.Fields(got)) != 7 {
		t.Errorf("expected word cut to 7 words, got %d", len(strings.Fields(got)))
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 for empty text")
	}
	if EstimateTokens("one") != 1 {
		t.Errorf("expected 1, got %d", EstimateTokens("one"))
	}
	if got := EstimateTokens(strings.Repeat("w ", 100)); got != 133 {
		t.Errorf("expected 133, got %d", got)
	}
}

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, nil)
	}
	stats.Record(time.Second, errors.New("upstream"))

	snap := stats.Snapshot()
	if snap.Count != 5 || snap.Errors != 1 {
		t.Fatalf("expected count=5 errors=1, got %d/%d", snap.Count, snap.Errors)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 || snap.AvgMs != 300 {
		t.Fatalf("unexpected min/max/avg: %+v", snap)
	}
	if snap.P50Ms != 300 || snap.P95Ms != 480 || snap.P99Ms != 496 {
		t.Fatalf("unexpected percentiles: %+v", snap)
	}
}

func TestStatsExpiresOldObservations(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stats := NewStats(time.Minute)
	stats.now = func() time.Time { return now }

	stats.Record(100*time.Millisecond, nil)
	now = now.Add(2 * time.Minute)
	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected expired sample, got count=%d", snap.Count)
	}

	stats.Record(-time.Second, nil)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Fatalf("expected one clamped sample, got %+v", snap)
	}
}

type fakeChapters struct {
	docs map[string]*chapter.Document
}

func (f fakeChapters) Get(_ context.Context, id string) (*chapter.Document, error) {
	return f.docs[id], nil
}

func (f fakeChapters) ListAll(context.Context) ([]chapter.Meta, error) {
	var out []chapter.Meta
	for _, d := range f.docs {
		out = append(out, d.Meta)
	}
	return out, nil
}

type fakeStreamer struct {
	got   Request
	reply []string
	err   error
}

func (f *fakeStreamer) Stream(_ context.Context, req Request, onText func(string) error) error {
	f.got = req
	for _, s := range f.reply {
		if err := onText(s); err != nil {
			return err
		}
	}
	return f.err
}

func TestService_PrepareAndReply(t *testing.T) {
	chapters := fakeChapters{docs: map[string]*chapter.Document{
		"otas": {Meta: chapter.Meta{Slug: "otas", Number: 8, Title: "OTAs"}, Body: "Body text."},
	}}
	streamer := &fakeStreamer{reply: []string{"Hello", " there"}}
	svc := NewService(streamer, chapters, nil, 1024, 0, nil)
	ctx := context.Background()

	req, err := svc.Prepare(ctx, Input{
		Messages:    []Message{{Role: "user", Content: "Hi"}},
		ChapterSlug: "otas",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.MaxTokens != 1024 || !strings.Contains(req.System, "Chapter 8: OTAs") {
		t.Errorf("unexpected request: %+v", req)
	}

	var sb strings.Builder
	if err := svc.Reply(ctx, req, func(s string) error { sb.WriteString(s); return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.String() != "Hello there" {
		t.Errorf("expected streamed reply, got %q", sb.String())
	}
	if svc.Stats().Snapshot().Count != 1 {
		t.Error("expected reply latency to be recorded")
	}

	// Unknown chapter falls back to the table of contents.
	req, err = svc.Prepare(ctx, Input{
		Messages:    []Message{{Role: "user", Content: "Hi"}},
		ChapterSlug: "missing",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(req.System, "Textbook Table of Contents") {
		t.Error("expected table of contents context")
	}
}

func TestService_PrepareRejectsInput(t *testing.T) {
	svc := NewService(&fakeStreamer{}, fakeChapters{}, nil, 1024, 0, nil)
	_, err := svc.Prepare(context.Background(), Input{
		Messages: []Message{{Role: "user", Content: "q"}, {Role: "assistant", Content: "a"}},
	})
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected *InputError, got %v", err)
	}
	if !errors.Is(err, ErrLastNotUser) {
		t.Errorf("expected ErrLastNotUser, got %v", err)
	}
}
