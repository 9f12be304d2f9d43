// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/chartchat/internal/dataset"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// Fixed ingestion error texts.
const (
	InvalidFileMessage = "Please upload a valid CSV file."
	uploadErrorPrefix  = "Error uploading file: "
	parseErrorPrefix   = "Error parsing file: "
)

// ErrSuperseded is reported by an Ingestion that a newer one replaced before
// it could finish.
var ErrSuperseded = errors.New("ingestion superseded by a newer file")

// =============================================================================
// INGESTION HANDLE
// =============================================================================

// Ingestion tracks one file through parsing and upload.
type Ingestion struct {
	Name string

	seq      uint64
	parsed   chan struct{}
	uploaded chan struct{}

	mu        sync.Mutex
	rejected  bool
	dataset   *dataset.Dataset
	parseErr  error
	uploadErr error
}

func newIngestion(name string, seq uint64) *Ingestion {
	return &Ingestion{
		Name:     name,
		seq:      seq,
		parsed:   make(chan struct{}),
		uploaded: make(chan struct{}),
	}
}

// Parsed is closed once parsing finished or was skipped.
func (in *Ingestion) Parsed() <-chan struct{} {
	return in.parsed
}

// Uploaded is closed once the upload finished or was skipped.
func (in *Ingestion) Uploaded() <-chan struct{} {
	return in.uploaded
}

// Done is closed once both parsing and upload are over.
func (in *Ingestion) Done() <-chan struct{} {
	return in.uploaded
}

// Rejected reports whether the file was refused by extension.
func (in *Ingestion) Rejected() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.rejected
}

// Dataset returns the parsed dataset, or nil. Valid after Parsed.
func (in *Ingestion) Dataset() *dataset.Dataset {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.dataset
}

// ParseErr returns the parse outcome. Valid after Parsed.
func (in *Ingestion) ParseErr() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.parseErr
}

// UploadErr returns the upload outcome. Valid after Uploaded.
func (in *Ingestion) UploadErr() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.uploadErr
}

// =============================================================================
// INGEST
// =============================================================================

// Ingest loads a dataset file. Files whose extension is not accepted only set
// the error string. Accepted files clear the current dataset at once, then
// are read, parsed and forwarded to the uploader in the background. If r is
// an io.Closer it is closed after reading.
//
// A newer Ingest call supersedes this one: a superseded ingestion never
// changes the dataset or the error string.
func (s *Session) Ingest(ctx context.Context, name string, r io.Reader) *Ingestion {
	if !dataset.HasExtension(name, s.extensions) {
		in := newIngestion(name, 0)
		in.rejected = true
		close(in.parsed)
		close(in.uploaded)
		if c, ok := r.(io.Closer); ok {
			c.Close()
		}
		s.logger.Info("ingest rejected", zap.String("file", name))
		s.setError(InvalidFileMessage)
		return in
	}

	s.mu.Lock()
	s.ingestSeq++
	in := newIngestion(name, s.ingestSeq)
	s.ingesting++
	s.store.Clear()
	s.mu.Unlock()
	s.wg.Add(1)
	s.publish()

	s.logger.Info("ingest started", zap.String("file", name), zap.Uint64("seq", in.seq))

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.ingesting--
			s.mu.Unlock()
			s.publish()
		}()
		s.runIngest(ctx, in, r)
	}()

	return in
}

// IngestFile ingests the file at path.
func (s *Session) IngestFile(ctx context.Context, path string) *Ingestion {
	name := filepath.Base(path)
	if !dataset.HasExtension(name, s.extensions) {
		return s.Ingest(ctx, name, nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return s.Ingest(ctx, name, failingReader{err})
	}
	return s.Ingest(ctx, name, f)
}

func (s *Session) runIngest(ctx context.Context, in *Ingestion, r io.Reader) {
	data, err := s.readAll(r)
	if err != nil {
		in.mu.Lock()
		in.parseErr = err
		in.uploadErr = err
		in.mu.Unlock()
		s.finishParse(in, nil, err)
		close(in.parsed)
		close(in.uploaded)
		return
	}

	ds, err := dataset.Parse(bytes.NewReader(data), dataset.DelimiterFor(in.Name))
	if ds != nil {
		ds.Name = in.Name
	}
	in.mu.Lock()
	in.dataset = ds
	in.parseErr = err
	in.mu.Unlock()
	s.finishParse(in, ds, err)
	close(in.parsed)

	uploadErr := s.upload(ctx, in, data)
	in.mu.Lock()
	in.uploadErr = uploadErr
	in.mu.Unlock()
	close(in.uploaded)
}

func (s *Session) readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, errors.New("no file content")
	}
	if c, ok := r.(io.Closer); ok {
		defer c.Close()
	}

	if s.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("file is larger than %d bytes", s.maxBytes)
	}
	return data, nil
}

// finishParse publishes a parse outcome if in is still the newest ingestion.
func (s *Session) finishParse(in *Ingestion, ds *dataset.Dataset, err error) {
	s.mu.Lock()
	current := in.seq == s.ingestSeq
	if current {
		if err != nil {
			s.errMsg = parseErrorPrefix + err.Error()
		} else {
			s.store.Set(ds)
			s.errMsg = ""
			s.previewVisible = true
		}
	}
	s.mu.Unlock()

	log := s.logger.With(zap.String("file", in.Name), zap.Uint64("seq", in.seq))
	switch {
	case !current:
		log.Info("ingest superseded before parse completed")
		if err == nil {
			in.mu.Lock()
			in.parseErr = ErrSuperseded
			in.mu.Unlock()
		}
	case err != nil:
		log.Warn("dataset parse failed", zap.Error(err))
	default:
		log.Info("dataset loaded", zap.Int("rows", ds.Len()), zap.Strings("columns", ds.Columns()))
	}
	if current {
		s.publish()
	}
}

func (s *Session) upload(ctx context.Context, in *Ingestion, data []byte) error {
	if s.uploader == nil {
		return nil
	}

	err := s.uploader.UploadDataset(ctx, in.Name, data)
	log := s.logger.With(zap.String("file", in.Name), zap.Uint64("seq", in.seq))
	if err == nil {
		log.Info("dataset uploaded", zap.Int("bytes", len(data)))
		return nil
	}

	s.mu.Lock()
	current := in.seq == s.ingestSeq
	if current {
		s.errMsg = uploadErrorPrefix + uploadReason(err)
	}
	s.mu.Unlock()

	if current {
		log.Warn("dataset upload failed", zap.Error(err))
		s.publish()
	} else {
		log.Info("superseded upload failed", zap.Error(err))
	}
	return err
}

func uploadReason(err error) string {
	var clientErr *vizapi.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Message
	}
	return err.Error()
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }
