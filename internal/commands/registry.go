// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"

	"github.com/jeranaias/chartchat/internal/session"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/chart [n]")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler executes the command
	Handler func(c *Context, args []string) Result

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeFile                  // File path
	ArgTypeEnum                  // One of predefined values
	ArgTypeNumber                // Positive integer
)

// Result is what a command produced.
type Result struct {
	// Output is text to show the user. It may be empty.
	Output string

	// Err is a failure to show the user.
	Err error

	// Quit asks the caller to exit.
	Quit bool

	// Wait is closed when background work started by the command is done.
	// Nil when the command finished synchronously.
	Wait <-chan struct{}

	// Chart is set when a chart page was written.
	Chart *Rendered

	// Ingestion is set when the command started loading a dataset.
	Ingestion *session.Ingestion
}

// Rendered identifies a chart page written by /chart.
type Rendered struct {
	TurnID string
	Path   string
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	return r.aliases[name]
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute runs input if it is a slash command. ok is false when input is
// not a command and should be sent as a prompt instead.
func (r *Registry) Execute(c *Context, input string) (res Result, ok bool) {
	parsed := NewParser(r).Parse(input)
	if !parsed.IsCommand {
		return Result{}, false
	}
	if parsed.Command == nil {
		return Result{Err: fmt.Errorf("unknown command %s (type /help)", parsed.CommandName)}, true
	}
	if err := ValidateArgs(parsed.Command, parsed.Args); err != nil {
		return Result{Err: err}, true
	}
	return parsed.Command.Handler(c, parsed.Args), true
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/upload",
		Aliases:     []string{"/load", "/u"},
		Description: "Load a dataset file and send it to the server",
		Usage:       "/upload <path>",
		Args:        []ArgDef{{Name: "path", Required: true, Type: ArgTypeFile, Description: "CSV file"}},
		Handler:     handleUpload,
		Category:    "Data",
	})
	r.Register(&Command{
		Name:        "/watch",
		Description: "Reload a dataset whenever the file is saved",
		Usage:       "/watch <path>|off",
		Args:        []ArgDef{{Name: "path", Required: true, Type: ArgTypeFile, Description: "CSV file or off"}},
		Handler:     handleWatch,
		Category:    "Data",
	})
	r.Register(&Command{
		Name:        "/preview",
		Aliases:     []string{"/p"},
		Description: "Toggle the dataset preview",
		Usage:       "/preview",
		Handler:     handlePreview,
		Category:    "Data",
	})
	r.Register(&Command{
		Name:        "/data",
		Description: "Show the loaded dataset",
		Usage:       "/data",
		Handler:     handleData,
		Category:    "Data",
	})
	r.Register(&Command{
		Name:        "/chart",
		Aliases:     []string{"/c"},
		Description: "Render a chart to HTML (default: the latest)",
		Usage:       "/chart [n]",
		Args:        []ArgDef{{Name: "n", Type: ArgTypeNumber, Description: "chart number"}},
		Handler:     handleChart,
		Category:    "Conversation",
	})
	r.Register(&Command{
		Name:        "/clear",
		Description: "Clear the conversation",
		Usage:       "/clear",
		Handler:     handleClear,
		Category:    "Conversation",
	})
	r.Register(&Command{
		Name:        "/export",
		Aliases:     []string{"/e"},
		Description: "Export the conversation (.md or .json)",
		Usage:       "/export [path]",
		Args:        []ArgDef{{Name: "path", Type: ArgTypeFile, Description: "output file"}},
		Handler:     handleExport,
		Category:    "Conversation",
	})
	r.Register(&Command{
		Name:        "/status",
		Aliases:     []string{"/s"},
		Description: "Show session and server status",
		Usage:       "/status",
		Handler:     handleStatus,
		Category:    "General",
	})
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help",
		Handler:     r.handleHelp,
		Category:    "General",
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/exit", "/q"},
		Description: "Exit chartchat",
		Usage:       "/quit",
		Handler:     func(*Context, []string) Result { return Result{Quit: true} },
		Category:    "General",
	})
}
