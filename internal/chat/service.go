package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/hoteldistro/internal/chapter"
	"github.com/dgallion1/hoteldistro/internal/metrics"
)

// Chapters is the part of the chapter registry the assistant reads.
type Chapters interface {
	Get(ctx context.Context, id string) (*chapter.Document, error)
	ListAll(ctx context.Context) ([]chapter.Meta, error)
}

// Input is a chat request from the reader.
type Input struct {
	Messages    []Message `json:"messages"`
	ChapterSlug string    `json:"chapterSlug"`
}

// Service answers reader questions with chapter-aware context.
type Service struct {
	streamer      Streamer
	chapters      Chapters
	stats         *Stats
	maxTokens     int
	contextTokens int
	log           *slog.Logger
}

func NewService(streamer Streamer, chapters Chapters, stats *Stats, maxTokens, contextTokens int, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Service{
		streamer:      streamer,
		chapters:      chapters,
		stats:         stats,
		maxTokens:     maxTokens,
		contextTokens: contextTokens,
		log:           log,
	}
}

func (s *Service) Stats() *Stats {
	return s.stats
}

// Prepare validates in and builds the completion request. Validation errors
// are returned as *InputError.
func (s *Service) Prepare(ctx context.Context, in Input) (Request, error) {
	turns, err := Validate(in.Messages)
	if err != nil {
		return Request{}, &InputError{Err: err}
	}

	var doc *chapter.Document
	if in.ChapterSlug != "" {
		doc, err = s.chapters.Get(ctx, in.ChapterSlug)
		if err != nil {
			return Request{}, fmt.Errorf("load chapter context: %w", err)
		}
	}
	var toc []chapter.Meta
	if doc == nil {
		if toc, err = s.chapters.ListAll(ctx); err != nil {
			return Request{}, fmt.Errorf("load table of contents: %w", err)
		}
	}

	return Request{
		System:    BuildSystem(doc, toc, s.contextTokens),
		Messages:  turns,
		MaxTokens: s.maxTokens,
	}, nil
}

// Reply streams the assistant's answer to req through onText.
func (s *Service) Reply(ctx context.Context, req Request, onText func(string) error) error {
	start := time.Now()
	err := s.streamer.Stream(ctx, req, onText)
	elapsed := time.Since(start)
	s.stats.Record(elapsed, err)
	metrics.ChatDuration.Observe(elapsed.Seconds())
	if err != nil {
		metrics.ChatRequests.WithLabelValues("error").Inc()
		s.log.Error("chat reply failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return err
	}
	metrics.ChatRequests.WithLabelValues("ok").Inc()
	s.log.Info("chat reply streamed", "turns", len(req.Messages), "duration_ms", elapsed.Milliseconds())
	return nil
}
