// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting.

package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the envelope every --json command writes.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes the response to w, indented.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// output runs handler and renders its result: as a JSON envelope in JSON
// mode, otherwise through text. A failing handler writes nothing; the error
// is printed once by Execute.
func output[T any](w io.Writer, jsonMode bool, command string, handler func() (T, error), text func(io.Writer, T)) error {
	data, err := handler()
	if err != nil {
		return err
	}
	if jsonMode {
		return NewJSONResponse(command, data).Write(w)
	}
	text(w, data)
	return nil
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// BalanceData is the data of `sofia balance`.
type BalanceData struct {
	Tokens  int64  `json:"tokens"`
	Display string `json:"display"`
}

// ChatData is one row of `sofia chats`.
type ChatData struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Project string `json:"project,omitempty"`
}

// ProjectData is one row of `sofia projects`.
type ProjectData struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Collapsed bool    `json:"collapsed"`
	Chats     []int64 `json:"chats"`
}

// CreditData is one row of `sofia history --local`.
type CreditData struct {
	PaymentHash string    `json:"payment_hash"`
	Tokens      int64     `json:"tokens"`
	CreditedAt  time.Time `json:"credited_at"`
}

// PackageData is one row of `sofia packages`.
type PackageData struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	USD     float64 `json:"usd"`
	Tokens  int64   `json:"tokens"`
	Sats    int64   `json:"sats"`
	Popular bool    `json:"popular,omitempty"`
	Custom  bool    `json:"custom,omitempty"`
}

