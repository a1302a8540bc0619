// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package payment

// Status is the lifecycle state of a payment session.
type Status int

const (
	StatusCreated Status = iota
	StatusPolling
	StatusSettled
	StatusCredited
	StatusCancelled
	StatusExpired
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusPolling:
		return "polling"
	case StatusSettled:
		return "settled"
	case StatusCredited:
		return "credited"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Pending reports whether the invoice may still be paid.
func (s Status) Pending() bool {
	return s == StatusCreated || s == StatusPolling
}

// Terminal reports whether the session can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCredited || s == StatusCancelled || s == StatusExpired
}
