// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/transcript"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// Fixed reply texts.
const (
	ChartCaptionFallback = "Here is the chart based on your request."
	NoContentFallback    = "Unable to process your request."
	ServerErrorFallback  = "An error occurred."
	TransportFailure     = "An error occurred while processing your request."
)

// =============================================================================
// REQUEST CYCLE
// =============================================================================

// CycleStatus is the lifecycle state of one prompt submission.
type CycleStatus int

const (
	CycleIdle CycleStatus = iota
	CycleInFlight
	CycleCompleted
	CycleFailed
)

// String returns the status name.
func (c CycleStatus) String() string {
	switch c {
	case CycleIdle:
		return "idle"
	case CycleInFlight:
		return "inFlight"
	case CycleCompleted:
		return "completed"
	case CycleFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// cycle never leaves the goroutine that runs it.
type cycle struct {
	id      string
	prompt  string
	status  CycleStatus
	started time.Time
	logger  *zap.Logger
}

func (c *cycle) transition(to CycleStatus, fields ...zap.Field) {
	from := c.status
	c.status = to
	fields = append(fields,
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if to == CycleCompleted || to == CycleFailed {
		fields = append(fields, zap.Duration("elapsed", time.Since(c.started)))
	}
	c.logger.Info("request cycle", fields...)
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit sends one prompt to the inference service. A prompt that is empty
// after trimming is ignored. Otherwise the user turn and a pending
// placeholder are appended together before the request starts, and exactly
// one reply turn replaces the placeholder when the request ends.
//
// The returned channel is closed when the cycle is over; it is already
// closed for ignored prompts.
func (s *Session) Submit(ctx context.Context, prompt string) <-chan struct{} {
	return s.submit(ctx, prompt, false)
}

// SubmitInput submits the pending input field. The field is cleared when the
// request cycle ends, whatever its outcome.
func (s *Session) SubmitInput(ctx context.Context) <-chan struct{} {
	return s.submit(ctx, s.Input(), true)
}

func (s *Session) submit(ctx context.Context, prompt string, fromInput bool) <-chan struct{} {
	done := make(chan struct{})

	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		close(done)
		return done
	}

	c := &cycle{
		id:      "cyc_" + uuid.NewString(),
		prompt:  trimmed,
		started: time.Now(),
	}
	c.logger = s.logger.With(zap.String("cycle", c.id))

	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	s.wg.Add(1)

	s.transcript.AppendExchange(transcript.UserText(trimmed))
	c.transition(CycleInFlight, zap.Int("prompt_len", len(trimmed)))

	go func() {
		defer s.wg.Done()
		defer close(done)

		reply := s.run(ctx, c)
		s.transcript.Resolve(reply)

		s.mu.Lock()
		s.inFlight--
		if fromInput {
			s.input = ""
		}
		s.mu.Unlock()
		s.publish()
	}()

	return done
}

func (s *Session) run(ctx context.Context, c *cycle) transcript.Turn {
	res, err := s.inference.Query(ctx, c.prompt)
	if err != nil {
		c.transition(CycleFailed, zap.Error(err))
		return replyTurn(nil, err)
	}

	fields := []zap.Field{zap.Int("status", res.StatusCode)}
	if !res.Decoded {
		fields = append(fields, zap.Bool("undecodable_body", true))
	}
	c.transition(CycleCompleted, fields...)
	return replyTurn(res, nil)
}

// replyTurn picks the reply for a finished request. A nil result with an
// error means no HTTP response was obtained.
func replyTurn(res *vizapi.QueryResult, err error) transcript.Turn {
	if err != nil || res == nil {
		return transcript.BotText(TransportFailure)
	}

	p := res.Payload
	if !res.OK() {
		if p.Detail != "" {
			return transcript.BotText(p.Detail)
		}
		return transcript.BotText(ServerErrorFallback)
	}

	if p.HasChart() {
		caption := p.Summary
		if caption == "" {
			caption = ChartCaptionFallback
		}
		return transcript.BotChart(p.Response, caption)
	}
	if p.Message != "" {
		return transcript.BotText(p.Message)
	}
	return transcript.BotText(NoContentFallback)
}
