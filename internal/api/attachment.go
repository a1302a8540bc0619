// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxAttachmentSize is the largest image the backend accepts.
const MaxAttachmentSize = 10 * 1024 * 1024

var (
	// ErrNotImage indicates the attachment is not an image.
	ErrNotImage = errors.New("attachment is not an image")

	// ErrAttachmentTooLarge indicates the attachment exceeds MaxAttachmentSize.
	ErrAttachmentTooLarge = errors.New("attachment exceeds 10MB")
)

// Attachment is an image sent with a message.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the attachment size in bytes.
func (a *Attachment) Size() int { return len(a.Data) }

// NewAttachment validates data as an image by sniffing its content, not
// trusting the name.
func NewAttachment(name string, data []byte) (*Attachment, error) {
	if len(data) > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	if name == "" {
		name = "image" + mt.Extension()
	}
	return &Attachment{
		Name:     filepath.Base(name),
		MIMEType: mt.String(),
		Data:     data,
	}, nil
}

// LoadAttachment reads and validates the image at path.
func LoadAttachment(path string) (*Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.Size() > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return NewAttachment(filepath.Base(path), data)
}
