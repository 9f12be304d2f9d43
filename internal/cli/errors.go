// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for CLI commands.
//
// STANDARDIZED PATTERN:
//   - Handlers return errors and never exit
//   - main decides how to display them and which exit code to use
//   - Structured error types carry what the JSON output needs

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/chartchat/internal/config"
	"github.com/jeranaias/chartchat/internal/vizapi"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the server could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "config")
	Action  string // Action being performed (e.g., "set")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   string // Value that was provided
	Reason  string // Why validation failed
	Example string // Example of valid value (optional)
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "file", "config key")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{Field: argName, Reason: "required argument missing", Example: usage}
}

// =============================================================================
// ERROR DISPLAY HELPERS
// =============================================================================

// DisplayError writes err to w in a consistent format.
// In JSON mode the error is written as a JSONResponse.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(w, command, err)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[X]"), err.Error())
}

// DisplayErrorJSON writes err as JSON with its structured details.
func DisplayErrorJSON(w io.Writer, command string, err error) {
	resp := NewJSONErrorResponse(command, err)
	details := map[string]interface{}{"exit_code": GetExitCode(err)}

	var cmdErr *CommandError
	var valErr *ValidationError
	var nfErr *NotFoundError
	switch {
	case errors.As(err, &valErr):
		details["error_type"] = "validation_error"
		details["field"] = valErr.Field
		if valErr.Example != "" {
			details["example"] = valErr.Example
		}
	case errors.As(err, &nfErr):
		details["error_type"] = "not_found_error"
		details["resource"] = nfErr.Resource
		details["id"] = nfErr.ID
	case errors.As(err, &cmdErr):
		details["error_type"] = "command_error"
		details["action"] = cmdErr.Action
	case vizapi.IsNotReachable(err):
		details["error_type"] = "not_reachable"
	case vizapi.IsTimeout(err):
		details["error_type"] = "timeout"
	default:
		details["error_type"] = "generic_error"
	}
	resp.Data = details

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(resp)
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ExitUsageError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}

	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	if errors.As(err, &cfgErrs) || errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	if vizapi.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}
	if vizapi.IsNotReachable(err) {
		return ExitNetworkError
	}

	return ExitGeneralError
}
