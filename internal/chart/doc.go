// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chart turns an opaque chart specification plus dataset rows into
// something a person can look at.
//
// Specifications are Vega-Lite documents produced by the inference server.
// They reference columns of the uploaded dataset by name and never carry the
// rows themselves, so every renderer first binds the current rows into the
// specification with Bind.
//
// # Renderers
//
//   - HTMLRenderer writes a standalone page that draws the chart with
//     vega-embed in any browser
//   - Describe produces a terminal summary of the mark and encodings
package chart
