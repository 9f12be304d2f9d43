// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name used in JSON output.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdStatus:
		return "status"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	NoColor bool

	// Server overrides server.url for this run.
	Server string

	// ConfigPath loads configuration from an explicit file.
	ConfigPath string

	// Ask
	Query string
	File  string

	// Chat and TUI: dataset to load before the first prompt.
	Dataset string

	// Mode is "tui" or "chat" when named on the command line, "" when the
	// configured default applies.
	Mode string

	// Config
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw holds the arguments after the command name.
	Raw []string
}

const usageText = `chartchat %s - Ask questions about your data, get charts back

USAGE:
  chartchat [flags] [command] [args]

COMMANDS:
  tui                    Full-screen chat (default)
  ask <prompt>           Send one prompt and print the reply
  chat                   Line-based chat with history
  status, s              Check the server and show settings
  config <sub>           Manage configuration (show, path, init, get, set, keys)
  version                Show version information
  help                   Show this help

GLOBAL FLAGS:
  -q, --quiet            Minimal output
  -v, --verbose          Verbose output
  --json                 Machine-readable output (ask, status, config, version)
  --no-color             Disable colored output
  --server <url>         Server base URL for this run
  --config <file>        Load configuration from a specific file

ASK FLAGS:
  -f, --file <path>      Load a CSV file before sending the prompt

CHAT / TUI FLAGS:
  -d, --data <path>      Load a CSV file on startup

EXAMPLES:
  chartchat
  chartchat --data sales.csv
  chartchat ask -f sales.csv "revenue by month as a bar chart"
  chartchat chat --server http://10.0.0.5:8000
  chartchat config set server.url http://localhost:9000
  chartchat status --json

ENVIRONMENT:
  CHARTCHAT_SERVER_URL   Server base URL
  CHARTCHAT_LOG_LEVEL    debug, info, warn or error
  CHARTCHAT_CHART_DIR    Where chart pages are written
  CHARTCHAT_MODE         Default surface: tui or chat
  NO_COLOR               Disable colored output
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "chartchat version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		parsedArgs.Mode = "tui"
		parseSessionArgs(&parsedArgs, remaining)
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat":
		parsedArgs.Mode = "chat"
		parseSessionArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Anything else is a prompt: "chartchat show revenue by month".
		parsedArgs.Raw = append([]string{first}, remaining...)
		parseAskArgs(&parsedArgs, parsedArgs.Raw)
		return CmdAsk, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--no-color":
			parsedArgs.NoColor = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.Server = args[i]
			}
		case "--config":
			if i+1 < len(args) {
				i++
				parsedArgs.ConfigPath = args[i]
			}
		case "-d", "--data":
			if i+1 < len(args) {
				i++
				parsedArgs.Dataset = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--server="):
				parsedArgs.Server = strings.TrimPrefix(arg, "--server=")
			case strings.HasPrefix(arg, "--config="):
				parsedArgs.ConfigPath = strings.TrimPrefix(arg, "--config=")
			case strings.HasPrefix(arg, "--data="):
				parsedArgs.Dataset = strings.TrimPrefix(arg, "--data=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "--":
			query = append(query, remaining[i+1:]...)
			i = len(remaining)
		default:
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
	}

	args.Query = strings.Join(query, " ")
}

// parseSessionArgs parses chat and tui arguments.
func parseSessionArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-d", "--data", "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.Dataset = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--data=") {
				args.Dataset = strings.TrimPrefix(arg, "--data=")
			}
		}
	}
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}
	args.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

// HandleVersion prints version information.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse(CmdVersion.String(), map[string]string{
			"version":    Version,
			"git_commit": GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		}).Write(os.Stdout)
	}
	PrintVersion(os.Stdout)
	return nil
}

// HandleHelp prints the usage text.
func HandleHelp() {
	PrintUsage(os.Stdout)
}
