// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/pricing"
	"github.com/jeranaias/sofia-tui/internal/tasks"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNoSession       = errors.New("no payment session")
	ErrNotSettled      = errors.New("payment is not settled")
	ErrAlreadyCredited = errors.New("payment already credited")
	ErrCreditInFlight  = errors.New("credit request already in flight")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the payment half of the API. *api.Client satisfies it.
type Backend interface {
	PurchaseTokens(ctx context.Context, pr api.PurchaseRequest) (*api.Invoice, error)
	CheckPayment(ctx context.Context, hash string) (bool, error)
	CreditTokens(ctx context.Context, hash string, tokens int64) error
}

// Ledger remembers which payment references were credited.
// *storage.Store satisfies it.
type Ledger interface {
	IsCredited(ctx context.Context, hash string) (bool, error)
	MarkCredited(ctx context.Context, hash string, tokens int64) error
}

// Config tunes the polling loop.
type Config struct {
	// PollInterval is the delay between payment probes.
	PollInterval time.Duration

	// Timeout expires a session that stays unpaid this long. Zero disables.
	Timeout time.Duration
}

// DefaultConfig returns a 3s probe and a 15 minute timeout.
func DefaultConfig() Config {
	return Config{PollInterval: 3 * time.Second, Timeout: 15 * time.Minute}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is a snapshot of one purchase.
type Session struct {
	Reference      string
	QRCode         string
	PaymentRequest string
	Package        string
	Tokens         int64
	Sats           int64
	USD            float64
	Status         Status
	CreatedAt      time.Time
	SettledAt      time.Time

	// CreditErr is the last credit failure while settled.
	CreditErr error
}

// =============================================================================
// MACHINE
// =============================================================================

// Machine runs the payment state machine.
type Machine struct {
	backend Backend
	ledger  Ledger
	cfg     Config
	slot    tasks.Slot
	now     func() time.Time

	mu           sync.Mutex
	session      *Session
	creditingRef string

	onChange   func(Session)
	onCredited func(Session)
}

// New creates a machine.
func New(backend Backend, cfg Config) *Machine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Machine{backend: backend, cfg: cfg, now: time.Now}
}

// WithLedger enables the persistent credited ledger.
func (m *Machine) WithLedger(l Ledger) *Machine {
	m.ledger = l
	return m
}

// OnChange registers a callback for every status change.
func (m *Machine) OnChange(fn func(Session)) *Machine {
	m.onChange = fn
	return m
}

// OnCredited registers a callback run once a session is credited. The UI
// closes the payment surface and refreshes the balance here.
func (m *Machine) OnCredited(fn func(Session)) *Machine {
	m.onCredited = fn
	return m
}

// Current returns the session, if any.
func (m *Machine) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Polling reports whether a probe timer is running.
func (m *Machine) Polling() bool {
	return m.slot.Running()
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Purchase creates an invoice for q and starts polling it. A session that is
// still pending is cancelled first.
func (m *Machine) Purchase(ctx context.Context, q pricing.Quote) (Session, error) {
	inv, err := m.backend.PurchaseTokens(ctx, api.PurchaseRequest{
		Package: q.Package.ID,
		Tokens:  q.Tokens,
		Sats:    q.Sats,
	})
	if err != nil {
		return Session{}, err
	}

	sess := &Session{
		Reference:      inv.PaymentHash,
		QRCode:         inv.QRCode,
		PaymentRequest: inv.PaymentRequest,
		Package:        q.Package.ID,
		Tokens:         q.Tokens,
		Sats:           q.Sats,
		USD:            q.USD,
		Status:         StatusCreated,
		CreatedAt:      m.now(),
	}

	m.mu.Lock()
	var replaced *Session
	if m.session != nil && m.session.Status.Pending() {
		m.session.Status = StatusCancelled
		cp := *m.session
		replaced = &cp
	}
	m.session = sess
	created := *sess
	sess.Status = StatusPolling
	polling := *sess
	ref := sess.Reference
	// Start under the lock so a concurrent Purchase cannot interleave its
	// own Start between our state change and our timer. self is written
	// under the same lock the probe takes first.
	var self *tasks.Handle
	self = m.slot.Start(context.Background(), m.cfg.PollInterval, func(ctx context.Context) bool {
		if m.probe(ctx, ref) {
			return true
		}
		m.mu.Lock()
		h := self
		m.mu.Unlock()
		m.slot.StopIf(h)
		return false
	})
	m.mu.Unlock()

	if replaced != nil {
		log.Printf("payment: %s cancelled by new purchase", replaced.Reference)
		m.emit(*replaced)
	}
	log.Printf("payment: %s created (%d tokens, %d sats)", ref, q.Tokens, q.Sats)
	m.emit(created)
	m.emit(polling)
	return polling, nil
}

// Cancel closes the payment surface. A pending session becomes cancelled and
// its timer stops; no credit call is ever made for it. Cancel reports whether
// a pending session was cancelled.
func (m *Machine) Cancel() bool {
	m.mu.Lock()
	if m.session == nil || !m.session.Status.Pending() {
		m.mu.Unlock()
		return false
	}
	m.session.Status = StatusCancelled
	snap := *m.session
	m.slot.Stop()
	m.mu.Unlock()

	log.Printf("payment: %s cancelled", snap.Reference)
	m.emit(snap)
	return true
}

// RetryCredit resends the credit request for a settled, uncredited session.
func (m *Machine) RetryCredit(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	ref := m.session.Reference
	m.mu.Unlock()

	return m.credit(ctx, ref)
}

// probe runs on the timer. It returns false to stop polling.
func (m *Machine) probe(ctx context.Context, ref string) bool {
	m.mu.Lock()
	if m.session == nil || m.session.Reference != ref || m.session.Status != StatusPolling {
		m.mu.Unlock()
		return false
	}
	if m.cfg.Timeout > 0 && m.now().Sub(m.session.CreatedAt) >= m.cfg.Timeout {
		m.session.Status = StatusExpired
		snap := *m.session
		m.mu.Unlock()

		log.Printf("payment: %s expired after %s", ref, m.cfg.Timeout)
		m.emit(snap)
		return false
	}
	m.mu.Unlock()

	paid, err := m.backend.CheckPayment(ctx, ref)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("payment: check %s: %v", ref, err)
		}
		return ctx.Err() == nil
	}
	if !paid {
		return true
	}

	m.mu.Lock()
	if m.session == nil || m.session.Reference != ref || m.session.Status != StatusPolling {
		// Cancelled while the probe was in flight.
		m.mu.Unlock()
		return false
	}
	m.session.Status = StatusSettled
	m.session.SettledAt = m.now()
	snap := *m.session
	m.mu.Unlock()

	log.Printf("payment: %s settled", ref)
	m.emit(snap)

	// The credit outlives the timer: closing the surface now must not
	// abort it.
	if err := m.credit(context.WithoutCancel(ctx), ref); err != nil {
		log.Printf("payment: credit %s: %v", ref, err)
	}
	return false
}

// credit sends one credit request for ref.
func (m *Machine) credit(ctx context.Context, ref string) error {
	m.mu.Lock()
	if m.session == nil || m.session.Reference != ref {
		m.mu.Unlock()
		return ErrNoSession
	}
	switch {
	case m.session.Status == StatusCredited:
		m.mu.Unlock()
		return ErrAlreadyCredited
	case m.session.Status != StatusSettled:
		m.mu.Unlock()
		return ErrNotSettled
	case m.creditingRef == ref:
		m.mu.Unlock()
		return ErrCreditInFlight
	}
	m.creditingRef = ref
	tokens := m.session.Tokens
	m.mu.Unlock()

	if m.ledger != nil {
		done, err := m.ledger.IsCredited(ctx, ref)
		if err != nil {
			log.Printf("payment: ledger lookup %s: %v", ref, err)
		}
		if done {
			log.Printf("payment: %s already in ledger, skipping credit call", ref)
			m.finishCredit(ref, nil)
			return nil
		}
	}

	err := m.backend.CreditTokens(ctx, ref, tokens)
	if err == nil && m.ledger != nil {
		if lerr := m.ledger.MarkCredited(ctx, ref, tokens); lerr != nil {
			log.Printf("payment: ledger record %s: %v", ref, lerr)
		}
	}
	m.finishCredit(ref, err)
	if err != nil {
		return fmt.Errorf("credit %s: %w", ref, err)
	}
	return nil
}

func (m *Machine) finishCredit(ref string, err error) {
	m.mu.Lock()
	if m.creditingRef == ref {
		m.creditingRef = ""
	}
	if m.session == nil || m.session.Reference != ref {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.session.CreditErr = err
	} else {
		m.session.Status = StatusCredited
		m.session.CreditErr = nil
	}
	snap := *m.session
	m.mu.Unlock()

	m.emit(snap)
	if err == nil {
		log.Printf("payment: %s credited (%d tokens)", ref, snap.Tokens)
		if m.onCredited != nil {
			m.onCredited(snap)
		}
	}
}

func (m *Machine) emit(s Session) {
	if m.onChange != nil {
		m.onChange(s)
	}
}

// Stop cancels any timer without changing the session. Used on shutdown.
func (m *Machine) Stop() {
	m.slot.Stop()
}
