// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER / KIND
// =============================================================================

// Sender identifies who authored a turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// DisplayName returns a human-readable label for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderBot:
		return "Assistant"
	default:
		return string(s)
	}
}

// Kind is the shape of a turn's content.
type Kind string

const (
	KindText    Kind = "text"
	KindChart   Kind = "chart"
	KindPending Kind = "pending"
)

// =============================================================================
// TURN
// =============================================================================

// Turn is a single transcript entry.
type Turn struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	// Text is the message body, or the caption of a chart turn.
	Text string `json:"text,omitempty"`

	// ChartSpec is the declarative chart specification, passed through
	// verbatim from the inference service. Only set on chart turns.
	ChartSpec json.RawMessage `json:"chart_spec,omitempty"`
}

func newTurn(sender Sender, kind Kind, text string) Turn {
	return Turn{
		ID:        "turn_" + uuid.NewString(),
		Sender:    sender,
		Kind:      kind,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// UserText creates a user-authored text turn.
func UserText(text string) Turn {
	return newTurn(SenderUser, KindText, text)
}

// BotText creates a bot-authored text turn.
func BotText(text string) Turn {
	return newTurn(SenderBot, KindText, text)
}

// BotChart creates a bot-authored chart turn with a caption.
func BotChart(spec json.RawMessage, caption string) Turn {
	t := newTurn(SenderBot, KindChart, caption)
	t.ChartSpec = append(json.RawMessage(nil), spec...)
	return t
}

// Pending creates the in-progress placeholder shown while a request is in flight.
func Pending() Turn {
	return newTurn(SenderBot, KindPending, "")
}

// IsPending reports whether the turn is a placeholder.
func (t Turn) IsPending() bool {
	return t.Kind == KindPending
}

// IsChart reports whether the turn carries a chart specification.
func (t Turn) IsChart() bool {
	return t.Kind == KindChart
}
