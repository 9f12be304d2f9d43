// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/dataset"
	"github.com/jeranaias/chartchat/internal/transcript"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Inference answers natural-language prompts. *vizapi.Client implements it.
type Inference interface {
	Query(ctx context.Context, prompt string) (*vizapi.QueryResult, error)
}

// Uploader forwards raw dataset files. *vizapi.Client implements it.
type Uploader interface {
	UploadDataset(ctx context.Context, filename string, data []byte) error
}

// Options configures a Session.
type Options struct {
	// Inference is required.
	Inference Inference

	// Uploader receives every accepted file. Nil disables forwarding.
	Uploader Uploader

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Extensions lists accepted file extensions (default: .csv).
	Extensions []string

	// MaxBytes rejects larger files at read time. Zero means no limit.
	MaxBytes int64
}

// ErrNoInference is returned by New when Options.Inference is nil.
var ErrNoInference = errors.New("session: inference client is required")

// =============================================================================
// SESSION
// =============================================================================

// Session is the chat and dataset state for one user.
type Session struct {
	id        string
	startTime time.Time

	inference  Inference
	uploader   Uploader
	logger     *zap.Logger
	extensions []string
	maxBytes   int64

	transcript *transcript.Transcript
	store      *dataset.Store

	mu             sync.Mutex
	errMsg         string
	previewVisible bool
	input          string
	inFlight       int
	ingesting      int
	ingestSeq      uint64

	wg sync.WaitGroup

	pubMu     sync.Mutex
	subMu     sync.Mutex
	observers map[int]func(State)
	nextSub   int
	unsub     func()
}

// New creates a session with an empty transcript and no dataset.
func New(opts Options) (*Session, error) {
	if opts.Inference == nil {
		return nil, ErrNoInference
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".csv"}
	}

	s := &Session{
		id:             generateSessionID(),
		startTime:      time.Now(),
		inference:      opts.Inference,
		uploader:       opts.Uploader,
		extensions:     append([]string(nil), exts...),
		maxBytes:       opts.MaxBytes,
		transcript:     transcript.New(),
		store:          dataset.NewStore(),
		previewVisible: true,
		observers:      make(map[int]func(State)),
	}
	s.logger = logger.With(zap.String("module", "session"), zap.String("session", s.id))
	s.unsub = s.transcript.Subscribe(func([]transcript.Turn) { s.publish() })
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Extensions returns the accepted file extensions.
func (s *Session) Extensions() []string {
	return append([]string(nil), s.extensions...)
}

// Wait blocks until every outstanding request cycle and ingestion is done.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close waits for outstanding work and drops all observers.
func (s *Session) Close() {
	s.wg.Wait()
	s.unsub()
	s.subMu.Lock()
	s.observers = make(map[int]func(State))
	s.subMu.Unlock()
}

// =============================================================================
// COMMANDS
// =============================================================================

// ClearMessages empties the transcript. The dataset is left alone.
func (s *Session) ClearMessages() {
	s.transcript.Clear()
	s.logger.Debug("transcript cleared")
}

// TogglePreview flips the preview visibility flag and returns the new value.
func (s *Session) TogglePreview() bool {
	s.mu.Lock()
	s.previewVisible = !s.previewVisible
	visible := s.previewVisible
	s.mu.Unlock()

	s.publish()
	return visible
}

// DismissError clears the user-visible error string.
func (s *Session) DismissError() {
	s.mu.Lock()
	changed := s.errMsg != ""
	s.errMsg = ""
	s.mu.Unlock()

	if changed {
		s.publish()
	}
}

// SetInput replaces the pending input field.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
	s.publish()
}

// Input returns the pending input field.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
	s.publish()
}

// =============================================================================
// OBSERVABLE STATE
// =============================================================================

// State is a point-in-time snapshot of a session. It shares no mutable
// memory with the session; Dataset is treated as read-only.
type State struct {
	Turns          []transcript.Turn
	Dataset        *dataset.Dataset
	Generation     uint64
	Error          string
	PreviewVisible bool
	Input          string
	InFlight       int
	Ingesting      bool
}

// Busy reports whether any request or ingestion is outstanding.
func (st State) Busy() bool {
	return st.InFlight > 0 || st.Ingesting
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	st := State{
		Error:          s.errMsg,
		PreviewVisible: s.previewVisible,
		Input:          s.input,
		InFlight:       s.inFlight,
		Ingesting:      s.ingesting > 0,
	}
	s.mu.Unlock()

	st.Turns = s.transcript.Snapshot()
	st.Dataset = s.store.Current()
	st.Generation = s.store.Generation()
	return st
}

// Turns returns a snapshot of the transcript.
func (s *Session) Turns() []transcript.Turn {
	return s.transcript.Snapshot()
}

// Dataset returns the current dataset, or nil.
func (s *Session) Dataset() *dataset.Dataset {
	return s.store.Current()
}

// Generation identifies the current dataset for render caching.
func (s *Session) Generation() uint64 {
	return s.store.Generation()
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unregisters it. fn runs on the goroutine that made the
// change and must not call session commands synchronously.
func (s *Session) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.observers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.observers, id)
		s.subMu.Unlock()
	}
}

func (s *Session) publish() {
	s.subMu.Lock()
	if len(s.observers) == 0 {
		s.subMu.Unlock()
		return
	}
	fns := make([]func(State), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	// Serialized so observers never receive snapshots out of order.
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	st := s.State()
	for _, fn := range fns {
		fn(st)
	}
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status summarizes the session for status displays.
type Status struct {
	SessionID string
	StartTime time.Time
	Duration  time.Duration
	Turns     int
	Charts    int
	Rows      int
	Dataset   string
	InFlight  int
	Error     string
}

// GetStatus returns the current session status.
func (s *Session) GetStatus() Status {
	s.mu.Lock()
	st := Status{
		SessionID: s.id,
		StartTime: s.startTime,
		Duration:  time.Since(s.startTime),
		InFlight:  s.inFlight,
		Error:     s.errMsg,
	}
	s.mu.Unlock()

	st.Turns = s.transcript.Len()
	st.Charts = len(s.transcript.Charts())
	if ds := s.store.Current(); ds != nil {
		st.Rows = ds.Len()
		st.Dataset = ds.Name
	}
	return st
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return strconv.Itoa(int(d.Seconds())) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return strconv.Itoa(mins) + "m"
	}
	return strconv.Itoa(mins) + "m " + strconv.Itoa(secs) + "s"
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + time.Now().Format("20060102_150405")
}
