// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vizapi

import (
	"bytes"
	"encoding/json"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Prompt string `json:"prompt"`
}

// QueryResponse holds the fields of a /query response body that the client
// consumes. Response is an opaque chart specification and is never inspected.
type QueryResponse struct {
	Response json.RawMessage `json:"response,omitempty"`
	Summary  string          `json:"summary,omitempty"`
	Message  string          `json:"message,omitempty"`
	Detail   string          `json:"detail,omitempty"`
}

// HasChart reports whether the payload carries a chart specification.
// Only a JSON object counts; null, strings, numbers, booleans and arrays do not.
func (r QueryResponse) HasChart() bool {
	trimmed := bytes.TrimSpace(r.Response)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// DecodeQueryResponse decodes a /query body field by field. A consumed field
// of the wrong type is dropped on its own. ok is false when raw is not a JSON
// object.
func DecodeQueryResponse(raw []byte) (resp QueryResponse, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return QueryResponse{}, false
	}
	if spec, found := fields["response"]; found {
		resp.Response = spec
	}
	resp.Summary = stringField(fields, "summary")
	resp.Message = stringField(fields, "message")
	resp.Detail = stringField(fields, "detail")
	return resp, true
}

func stringField(fields map[string]json.RawMessage, name string) string {
	var s string
	if raw, found := fields[name]; found {
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
	}
	return s
}

// QueryResult is what the server answered to one query.
type QueryResult struct {
	StatusCode int
	Payload    QueryResponse

	// Decoded is false when the body was not a JSON object.
	Decoded bool
}

// OK reports whether the server answered with a 2xx status.
func (r *QueryResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// UploadResponse is the optional acknowledgement body of /upload_data.
type UploadResponse struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
