// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"time"

	"github.com/jeranaias/chartchat/internal/dataset"
	"github.com/jeranaias/chartchat/internal/transcript"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// DatasetInfo describes the dataset a transcript was produced against.
type DatasetInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// Document is the exportable form of a session.
type Document struct {
	SessionID  string            `json:"session_id"`
	ExportedAt time.Time         `json:"exported_at"`
	Dataset    *DatasetInfo      `json:"dataset,omitempty"`
	Turns      []transcript.Turn `json:"turns"`
}

// NewDocument builds a document from a transcript snapshot. Pending
// placeholders are dropped. ds may be nil.
func NewDocument(sessionID string, turns []transcript.Turn, ds *dataset.Dataset) *Document {
	doc := &Document{
		SessionID:  sessionID,
		ExportedAt: time.Now(),
		Turns:      make([]transcript.Turn, 0, len(turns)),
	}
	for _, turn := range turns {
		if turn.IsPending() {
			continue
		}
		doc.Turns = append(doc.Turns, turn)
	}
	if ds != nil {
		doc.Dataset = &DatasetInfo{
			Name:    ds.Name,
			Columns: ds.Columns(),
			Rows:    ds.Len(),
		}
	}
	return doc
}

// Charts counts the chart turns in the document.
func (d *Document) Charts() int {
	n := 0
	for _, turn := range d.Turns {
		if turn.IsChart() {
			n++
		}
	}
	return n
}

// title names the document after its dataset, or its first prompt.
func (d *Document) title() string {
	if d.Dataset != nil && d.Dataset.Name != "" {
		return d.Dataset.Name
	}
	for _, turn := range d.Turns {
		if turn.Sender == transcript.SenderUser {
			return turn.Text
		}
	}
	return "conversation"
}
