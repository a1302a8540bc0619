// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/session"
)

// Sender delivers a message to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge implements session.View on top of a Bubble Tea program.
//
// The controller calls View methods with its lock held, and Program.Send
// blocks until the event loop takes the message. Bridge therefore never
// sends inline: it queues, and a single pump goroutine delivers the queue in
// order. Messages posted before Attach are held until a program exists.
type Bridge struct {
	mu     sync.Mutex
	queue  []tea.Msg
	sender Sender

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

var _ session.View = (*Bridge)(nil)

// NewBridge creates a bridge with no program attached.
func NewBridge() *Bridge {
	return &Bridge{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Attach starts delivering to s. Only the first call has an effect.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	if b.sender != nil {
		b.mu.Unlock()
		return
	}
	b.sender = s
	b.mu.Unlock()

	go b.pump()
	b.signal()
}

// Close stops delivery. Queued messages are dropped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// Post queues msg for the program. It never blocks.
func (b *Bridge) Post(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()
	b.signal()
}

func (b *Bridge) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Bridge) pump() {
	for {
		select {
		case <-b.done:
			return
		case <-b.wake:
		}

		b.mu.Lock()
		batch := b.queue
		b.queue = nil
		sender := b.sender
		b.mu.Unlock()

		for _, msg := range batch {
			select {
			case <-b.done:
				return
			default:
			}
			sender.Send(msg)
		}
	}
}

// =============================================================================
// session.View
// =============================================================================

func (b *Bridge) ClearMessages() { b.Post(ClearMessagesMsg{}) }

func (b *Bridge) SetMessages(msgs []model.Message) {
	cp := make([]model.Message, len(msgs))
	copy(cp, msgs)
	b.Post(SetMessagesMsg{Messages: cp})
}

func (b *Bridge) AppendMessage(msg model.Message) { b.Post(AppendMessageMsg{Message: msg}) }
func (b *Bridge) SetTitle(title string)           { b.Post(TitleMsg{Title: title}) }
func (b *Bridge) SetPending(pending bool)         { b.Post(PendingMsg{Pending: pending}) }
func (b *Bridge) SetSendEnabled(enabled bool)     { b.Post(SendEnabledMsg{Enabled: enabled}) }
func (b *Bridge) Notify(msg string)               { b.Post(NoticeMsg{Text: msg}) }
