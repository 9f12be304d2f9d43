// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the client-side state machine behind every chartchat
// surface.
//
// A Session owns one transcript, one dataset store, a user-visible error
// string, the preview visibility flag and the pending input field. It exposes
// commands (Submit, Ingest, ClearMessages, TogglePreview) and observable state
// (State, Subscribe). Rendering layers only read snapshots.
//
// # Key Types
//
//   - Session: the state machine
//   - Ingestion: handle for one dataset ingestion with completion signals
//   - State: immutable snapshot handed to observers
//   - CycleStatus: lifecycle of one prompt submission
//
// # Usage
//
//	s, err := session.New(session.Options{
//	    Inference: client,
//	    Uploader:  client,
//	    Logger:    logger,
//	})
//	in := s.Ingest(ctx, "sales.csv", file)
//	<-in.Parsed()
//	<-s.Submit(ctx, "total revenue per month as a line chart")
//	turns := s.State().Turns
//
// # Concurrency
//
// Submit and Ingest return immediately. Several submissions may be in flight
// at once; their replies land in whichever order the server answers. Only the
// most recent ingestion may change the dataset or the error string.
package session
