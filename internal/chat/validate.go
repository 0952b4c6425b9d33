package chat

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxMessages      = 40
	MaxMessageLength = 8000
)

var (
	ErrNoMessages   = errors.New("messages required")
	ErrLastNotUser  = errors.New("last message must come from the user")
	ErrTooManyTurns = fmt.Errorf("at most %d messages allowed", MaxMessages)
)

// InputError reports a conversation the reader sent that cannot be answered.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// Part is one piece of a UI message. Only text parts carry content.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is a conversation message as sent by the reader UI, either with
// plain content or with a parts list.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Parts   []Part `json:"parts,omitempty"`
}

// Text returns the message content, joining text parts when Content is empty.
func (m Message) Text() string {
	if strings.TrimSpace(m.Content) != "" {
		return m.Content
	}
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == "text" || p.Type == "" {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// Validate converts UI messages into model turns. Roles must be user or
// assistant, every turn needs text, and the conversation must end with the
// user.
func Validate(msgs []Message) ([]Turn, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	if len(msgs) > MaxMessages {
		return nil, ErrTooManyTurns
	}

	turns := make([]Turn, 0, len(msgs))
	for i, m := range msgs {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			return nil, fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
		text := strings.TrimSpace(m.Text())
		if text == "" {
			return nil, fmt.Errorf("message %d: empty content", i)
		}
		if len(text) > MaxMessageLength {
			return nil, fmt.Errorf("message %d: longer than %d characters", i, MaxMessageLength)
		}
		turns = append(turns, Turn{Role: role, Content: text})
	}
	if turns[len(turns)-1].Role != "user" {
		return nil, ErrLastNotUser
	}
	return turns, nil
}
