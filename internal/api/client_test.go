// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(server.URL, NewTokenHolder("test-token")).WithMaxRetries(2)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "17",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestClient_SetsBearerAndRequestID(t *testing.T) {
	var auth, reqID, ua string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		ua = r.Header.Get("User-Agent")
		w.Write([]byte(`{"balance": 1500000}`))
	}))

	balance, err := client.Balance(context.Background())
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 1500000 {
		t.Errorf("balance = %d", balance)
	}
	if auth != "Bearer test-token" {
		t.Errorf("Authorization = %q", auth)
	}
	if len(reqID) != 36 {
		t.Errorf("X-Request-ID should be a uuid, got %q", reqID)
	}
	if !strings.HasPrefix(ua, "sofia-tui/") {
		t.Errorf("User-Agent = %q", ua)
	}
}

func TestClient_NoTokenFailsWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, NewTokenHolder(""))
	_, err := client.ListChats(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if hits.Load() != 0 {
		t.Error("no request should reach the server without a token")
	}
}

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel error
		message  string
	}{
		{http.StatusUnauthorized, `{"error": "Token inválido"}`, ErrUnauthorized, "Token inválido"},
		{http.StatusPaymentRequired, `{"error": "Saldo insuficiente"}`, ErrPaymentRequired, "Saldo insuficiente"},
		{http.StatusNotFound, `{"error": "Chat não encontrado"}`, ErrNotFound, "Chat não encontrado"},
		{http.StatusBadRequest, `{"error": "Nome do projeto é obrigatório"}`, nil, "Nome do projeto é obrigatório"},
		{http.StatusForbidden, `not json`, nil, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			err := client.RenameChat(context.Background(), 1, "x")
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d", apiErr.StatusCode)
			}
			if apiErr.Message != tt.message {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.message)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("expected errors.Is(%v)", tt.sentinel)
			}
		})
	}
}

func TestSendMessage_ErrorPayloadOn200(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Modelo indisponível"}`))
	}))

	_, err := client.SendMessage(context.Background(), 42, SendRequest{Message: "oi", Model: "gpt-5"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "Modelo indisponível" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

// =============================================================================
// RETRY TESTS
// =============================================================================

func TestClient_RetriesReadsOn5xx(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id": 1, "chat_name": "a"}]`))
	}))

	chats, err := client.ListChats(context.Background())
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 1 || hits.Load() != 2 {
		t.Errorf("chats=%v hits=%d", chats, hits.Load())
	}
}

func TestClient_NeverRetriesWrites(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Erro ao creditar"}`))
	}))

	err := client.CreditTokens(context.Background(), "hash", 1000)
	if err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Errorf("credit call sent %d times, want 1", hits.Load())
	}
}

func TestCalculateBackoff(t *testing.T) {
	if calculateBackoff(1) != retryBaseDelay {
		t.Errorf("first retry = %v", calculateBackoff(1))
	}
	if calculateBackoff(2) != 2*retryBaseDelay {
		t.Errorf("second retry = %v", calculateBackoff(2))
	}
	if calculateBackoff(20) != retryMaxDelay {
		t.Errorf("cap = %v", calculateBackoff(20))
	}
}

// =============================================================================
// MESSAGE ENCODING TESTS
// =============================================================================

func TestSendMessage_JSONBody(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats/42/message" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"role": "assistant", "content": "Hi there", "tokens_used": 12}`))
	}))

	reply, err := client.SendMessage(context.Background(), 42, SendRequest{Message: "Hello", Model: "gpt-5"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply.Content != "Hi there" || reply.TokensUsed != 12 {
		t.Errorf("reply = %+v", reply)
	}
	if got["message"] != "Hello" || got["model"] != "gpt-5" {
		t.Errorf("body = %v", got)
	}
}

func TestSendMessage_MultipartWithImage(t *testing.T) {
	img, err := NewAttachment("cat.png", pngHeader)
	if err != nil {
		t.Fatalf("NewAttachment: %v", err)
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("message") != "Analise esta imagem" || r.FormValue("model") != "gpt-5" {
			t.Errorf("fields = %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "cat.png" || len(data) != len(pngHeader) {
			t.Errorf("file = %s (%d bytes)", hdr.Filename, len(data))
		}
		if hdr.Header.Get("Content-Type") != "image/png" {
			t.Errorf("part content type = %s", hdr.Header.Get("Content-Type"))
		}
		w.Write([]byte(`{"content": "Um gato"}`))
	}))

	reply, err := client.SendMessage(context.Background(), 7, SendRequest{Message: "Analise esta imagem", Model: "gpt-5", Image: img})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply.Content != "Um gato" {
		t.Errorf("content = %q", reply.Content)
	}
}

// =============================================================================
// ATTACHMENT TESTS
// =============================================================================

func TestNewAttachment_RejectsNonImage(t *testing.T) {
	_, err := NewAttachment("notes.png", []byte("just some text pretending"))
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}
}

func TestLoadAttachment_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	data := make([]byte, MaxAttachmentSize+1)
	copy(data, pngHeader)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAttachment(path); !errors.Is(err, ErrAttachmentTooLarge) {
		t.Errorf("expected ErrAttachmentTooLarge, got %v", err)
	}
}

func TestLoadAttachment_OK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(path, pngHeader, 0600); err != nil {
		t.Fatal(err)
	}
	att, err := LoadAttachment(path)
	if err != nil {
		t.Fatalf("LoadAttachment: %v", err)
	}
	if att.MIMEType != "image/png" || att.Name != "pic.png" {
		t.Errorf("attachment = %+v", att)
	}
}

// =============================================================================
// TOKEN TESTS
// =============================================================================

func TestTokenHolder_ReadsJWTExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	h := NewTokenHolder("Bearer " + signedToken(t, exp))

	got, ok := h.ExpiresAt()
	if !ok || !got.Equal(exp) {
		t.Errorf("ExpiresAt = %v, %v; want %v", got, ok, exp)
	}
	if h.Subject() != "17" {
		t.Errorf("Subject = %q", h.Subject())
	}
	if err := h.Check(time.Now()); err != nil {
		t.Errorf("fresh token rejected: %v", err)
	}
	if err := h.Check(exp.Add(time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenHolder_OpaqueTokenHasNoExpiry(t *testing.T) {
	h := NewTokenHolder("opaque-session-token")
	if _, ok := h.ExpiresAt(); ok {
		t.Error("opaque token should have no expiry")
	}
	if err := h.Check(time.Now().Add(100 * 24 * time.Hour)); err != nil {
		t.Errorf("opaque token rejected: %v", err)
	}
	h.Clear()
	if err := h.Check(time.Now()); !errors.Is(err, ErrNoToken) {
		t.Errorf("expected ErrNoToken after Clear, got %v", err)
	}
}

func TestTokenFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sofia", "token")

	tok, err := LoadTokenFile(path)
	if err != nil || tok != "" {
		t.Fatalf("missing file should be empty, got %q, %v", tok, err)
	}
	if err := SaveTokenFile(path, "  abc  "); err != nil {
		t.Fatalf("SaveTokenFile: %v", err)
	}
	tok, err = LoadTokenFile(path)
	if err != nil || tok != "abc" {
		t.Errorf("LoadTokenFile = %q, %v", tok, err)
	}
	if err := RemoveTokenFile(path); err != nil {
		t.Errorf("RemoveTokenFile: %v", err)
	}
	if err := RemoveTokenFile(path); err != nil {
		t.Errorf("second RemoveTokenFile: %v", err)
	}
}
