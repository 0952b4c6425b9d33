// Package contact handles reader messages from the site's contact form.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrMissingFields is returned when name, email or message is blank.
var ErrMissingFields = errors.New("All fields required")

const maxFieldLength = 10000

// Submission is one contact-form post.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Validate trims every field and checks that none is empty.
func (s *Submission) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Message = strings.TrimSpace(s.Message)
	if s.Name == "" || s.Email == "" || s.Message == "" {
		return ErrMissingFields
	}
	if len(s.Name) > 200 || len(s.Email) > 320 || len(s.Message) > maxFieldLength {
		return fmt.Errorf("submission too long")
	}
	return nil
}

// Email is an outgoing notification.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Mailer delivers an email.
type Mailer interface {
	Send(ctx context.Context, e Email) error
}

// Service logs every submission and forwards it by email when a mailer is
// configured. Delivery failures are logged, never returned: the submission
// is already on record in the log.
type Service struct {
	mailer     Mailer
	from       string
	recipients []string
	log        *slog.Logger
}

// NewService creates a contact service. mailer may be nil.
func NewService(mailer Mailer, from string, recipients []string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{mailer: mailer, from: from, recipients: recipients, log: log}
}

// Submit validates s and records it. Only validation errors are returned.
func (svc *Service) Submit(ctx context.Context, s Submission) error {
	if err := s.Validate(); err != nil {
		return err
	}

	svc.log.Info("contact submission",
		"name", s.Name,
		"email", s.Email,
		"message", s.Message,
		"ts", time.Now().UTC().Format(time.RFC3339),
	)

	if svc.mailer == nil || len(svc.recipients) == 0 {
		return nil
	}
	err := svc.mailer.Send(ctx, Email{
		From:    svc.from,
		To:      svc.recipients,
		ReplyTo: s.Email,
		Subject: fmt.Sprintf("[hoteldistro.com] New message from %s", s.Name),
		Text:    fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", s.Name, s.Email, s.Message),
	})
	if err != nil {
		svc.log.Error("failed to send contact email", "error", err)
	}
	return nil
}
