// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by every command.
//
// Commands always return errors; Execute prints them once and maps them to
// an exit code.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/config"
	"github.com/jeranaias/sofia-tui/internal/ui/styles"
)

// errNoCache is returned by commands that only read the local cache.
var errNoCache = errors.New("cache local indisponível")

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitPaymentError  = 6
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed command with context.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ValidationError is bad user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += "\nExample: " + e.Example
	}
	return msg
}

// NewCommandError wraps err with the command and action that failed.
func NewCommandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// invalidArg builds a ValidationError for a positional argument.
func invalidArg(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var configErrs config.ValidateErrors
	var ttyErr *TTYRequiredError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.As(err, &configErrs):
		return ExitConfigError
	case errors.Is(err, api.ErrNoToken),
		errors.Is(err, api.ErrTokenExpired),
		errors.Is(err, api.ErrUnauthorized):
		return ExitAuthError
	case errors.Is(err, api.ErrPaymentRequired):
		return ExitPaymentError
	case errors.Is(err, api.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.Is(err, api.ErrRateLimited):
		return ExitNetworkError
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 500 {
		return ExitNetworkError
	}
	return ExitGeneralError
}

// =============================================================================
// DISPLAY
// =============================================================================

var errorLabel = lipgloss.NewStyle().Foreground(styles.Danger).Bold(true)

// DisplayError writes err to w, as a JSON object in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(NewJSONErrorResponse("", err))
		return
	}

	fmt.Fprintf(w, "%s %s\n", errorLabel.Render("Erro:"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(w, hint)
	}
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, api.ErrNoToken), errors.Is(err, api.ErrTokenExpired), errors.Is(err, api.ErrUnauthorized):
		return "Entre com: sofia login"
	case errors.Is(err, api.ErrPaymentRequired):
		return "Recarregue com: sofia buy <pacote>"
	}
	return ""
}
