// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeranaias/sofia-tui/internal/util"
)

// expirySkew treats a token as expired slightly early so a request does not
// race the backend's own check.
const expirySkew = 30 * time.Second

// TokenHolder keeps the bearer credential for the gateway.
//
// Issuing tokens is the backend's job; the holder only stores one and, when
// it is a JWT, reads its exp claim so an expired session fails before any
// network round trip. The signature is not verified here.
type TokenHolder struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	subject   string
}

// NewTokenHolder creates a holder for token (which may be empty).
func NewTokenHolder(token string) *TokenHolder {
	h := &TokenHolder{}
	h.Set(token)
	return h
}

// Set replaces the token and re-reads its claims.
func (h *TokenHolder) Set(token string) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "Bearer ")

	var (
		expiresAt time.Time
		subject   string
	)
	if token != "" {
		claims := jwt.MapClaims{}
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				expiresAt = exp.Time
			}
			if sub, err := claims.GetSubject(); err == nil {
				subject = sub
			}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
	h.expiresAt = expiresAt
	h.subject = subject
}

// Clear forgets the token.
func (h *TokenHolder) Clear() { h.Set("") }

// Token returns the current bearer token.
func (h *TokenHolder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// ExpiresAt returns the token's exp claim, if it has one.
func (h *TokenHolder) ExpiresAt() (time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.expiresAt, !h.expiresAt.IsZero()
}

// Subject returns the token's sub claim (the backend user id), if any.
func (h *TokenHolder) Subject() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subject
}

// Check returns ErrNoToken or ErrTokenExpired when the token cannot be used
// at now.
func (h *TokenHolder) Check(now time.Time) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == "" {
		return ErrNoToken
	}
	if !h.expiresAt.IsZero() && !now.Add(expirySkew).Before(h.expiresAt) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, h.expiresAt.Format(time.RFC3339))
	}
	return nil
}

// =============================================================================
// TOKEN FILE
// =============================================================================

// LoadTokenFile reads a token saved by SaveTokenFile. A missing file yields
// an empty token and no error.
func LoadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveTokenFile stores token at path, readable by the owner only.
func SaveTokenFile(path, token string) error {
	if err := util.AtomicWriteFile(path, []byte(strings.TrimSpace(token)+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// RemoveTokenFile deletes the stored token. A missing file is not an error.
func RemoveTokenFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}
