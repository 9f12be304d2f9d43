// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var homeDir = os.UserHomeDir

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and file arguments.
type Completer struct {
	registry *Registry

	// FilesFn returns paths matching a prefix. Defaults to a glob.
	FilesFn func(prefix string) []string
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry, FilesFn: globFiles}
}

// Complete returns full-line candidates for input. Lines that are not
// commands have no completions.
func (c *Completer) Complete(input string) []string {
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	// Still typing the command name?
	if !strings.ContainsAny(input, " \t") {
		return c.completeCommands(strings.ToLower(input))
	}

	parts := splitCommandLine(input)
	cmd := c.registry.Get(strings.ToLower(parts[0]))
	if cmd == nil || len(cmd.Args) == 0 {
		return nil
	}

	argIndex := len(parts) - 2
	partial := ""
	if strings.HasSuffix(input, " ") {
		argIndex++
	} else {
		partial = parts[len(parts)-1]
	}
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	prefix := strings.TrimSuffix(input, partial)
	var out []string
	switch cmd.Args[argIndex].Type {
	case ArgTypeFile:
		for _, f := range c.FilesFn(partial) {
			out = append(out, prefix+quoteIfNeeded(f))
		}
	case ArgTypeEnum:
		for _, v := range cmd.Args[argIndex].Values {
			if strings.HasPrefix(v, strings.ToLower(partial)) {
				out = append(out, prefix+v)
			}
		}
	}
	return out
}

func (c *Completer) completeCommands(partial string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, cmd := range c.registry.All() {
		if strings.HasPrefix(cmd.Name, partial) && !seen[cmd.Name] {
			seen[cmd.Name] = true
			out = append(out, cmd.Name)
		}
	}
	// Aliases only when no primary name matches.
	if len(out) == 0 {
		for _, cmd := range c.registry.All() {
			for _, alias := range cmd.Aliases {
				if strings.HasPrefix(alias, partial) {
					out = append(out, alias)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// globFiles lists directories and data files that start with prefix.
func globFiles(prefix string) []string {
	pattern := expandHome(prefix) + "*"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}

	var out []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if info.IsDir() {
			out = append(out, m+string(filepath.Separator))
			continue
		}
		switch strings.ToLower(filepath.Ext(m)) {
		case ".csv", ".tsv", ".txt", ".md", ".json":
			out = append(out, m)
		}
	}
	sort.Strings(out)
	if len(out) > 50 {
		out = out[:50]
	}
	return out
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
