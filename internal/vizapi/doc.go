// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vizapi provides the HTTP client for the chart inference server.
//
// The server exposes two endpoints:
//
//   - POST /query        JSON {"prompt": "..."} → chart spec, summary, message or detail
//   - POST /upload_data  multipart form with one "file" field
//
// # Error Model
//
// Query distinguishes "the server answered" from "no answer at all". Any HTTP
// response, success or not, comes back as a QueryResult with a nil error so the
// caller can read the status and the server's detail string. Only transport
// failures (refused connection, timeout, DNS) return a *ClientError.
//
// UploadDataset returns a *ClientError for both transport failures and
// non-2xx responses.
//
// Neither call retries.
//
// # Usage
//
//	client := vizapi.NewClientWithConfig(&vizapi.ClientConfig{BaseURL: "http://localhost:8000"})
//	res, err := client.Query(ctx, "average price per region as a bar chart")
//	if err != nil {
//	    // transport failure
//	}
//	if res.OK() && res.Payload.HasChart() {
//	    render(res.Payload.Response)
//	}
package vizapi
