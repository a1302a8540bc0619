// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/billing"
	"github.com/jeranaias/sofia-tui/internal/model"
	"github.com/jeranaias/sofia-tui/internal/registry"
	"github.com/jeranaias/sofia-tui/internal/util"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the conversation half of the API. *api.Client satisfies it.
type Backend interface {
	CreateChat(ctx context.Context, name string) (model.ChatSummary, error)
	GetChat(ctx context.Context, id model.ChatID) (*model.Conversation, error)
	RenameChat(ctx context.Context, id model.ChatID, name string) error
	DeleteChat(ctx context.Context, id model.ChatID) error
	SendMessage(ctx context.Context, id model.ChatID, sr api.SendRequest) (*api.Reply, error)

	CreateProject(ctx context.Context, name string) (model.ProjectID, error)
	UpdateProject(ctx context.Context, id model.ProjectID, update api.ProjectUpdate) error
	DeleteProject(ctx context.Context, id model.ProjectID) error
	AddChatToProject(ctx context.Context, id model.ProjectID, chatID model.ChatID) error
	RemoveChatFromProject(ctx context.Context, id model.ProjectID, chatID model.ChatID) error
}

// =============================================================================
// OPTIONS AND STATE
// =============================================================================

// Text used for sends that carry only an image.
const (
	ImageOnlyPrompt  = "Analise esta imagem"
	ImageOnlyDisplay = "📷 Imagem"
)

// Options tunes the controller.
type Options struct {
	PlaceholderName string
	TitleMaxRunes   int
	DefaultModel    string
}

// DefaultOptions returns the stock options.
func DefaultOptions() Options {
	return Options{
		PlaceholderName: model.PlaceholderName,
		TitleMaxRunes:   50,
		DefaultModel:    "gpt-5",
	}
}

// State is a snapshot of the session.
type State struct {
	Active     model.ChatID
	Title      string
	Loading    bool
	Sending    bool
	Model      string
	Attachment *api.Attachment
}

// HasActive reports whether a conversation is active.
func (s State) HasActive() bool { return !s.Active.IsZero() }

// Outcome reports what happened to a submission.
type Outcome int

const (
	// OutcomeIgnored means there was nothing to send.
	OutcomeIgnored Outcome = iota
	// OutcomeAccepted means the reply was appended to the active conversation.
	OutcomeAccepted
	// OutcomeDiscarded means the user left the conversation before the reply
	// arrived; the reply was dropped.
	OutcomeDiscarded
	// OutcomeFailed means an error message was shown instead of a reply.
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller sequences everything that touches the active conversation.
type Controller struct {
	backend Backend
	view    View
	opts    Options

	registry *registry.Registry
	marks    *registry.Marks
	balance  *billing.Tracker

	mu    sync.Mutex
	state State
	// epoch changes on every selection; hydration results from an older
	// selection are dropped.
	epoch uint64
	// pendingFor is the conversation the in-flight send belongs to.
	pendingFor model.ChatID
}

// NewController creates a controller with no active conversation.
func NewController(backend Backend, view View, opts Options) *Controller {
	def := DefaultOptions()
	if opts.PlaceholderName == "" {
		opts.PlaceholderName = def.PlaceholderName
	}
	if opts.TitleMaxRunes <= 0 {
		opts.TitleMaxRunes = def.TitleMaxRunes
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = def.DefaultModel
	}
	if view == nil {
		view = NopView{}
	}
	return &Controller{
		backend: backend,
		view:    view,
		opts:    opts,
		marks:   registry.NewMarks(),
		state:   State{Model: opts.DefaultModel},
	}
}

// WithRegistry sets the registry refreshed after every change.
func (c *Controller) WithRegistry(r *registry.Registry) *Controller {
	c.registry = r
	return c
}

// WithMarks shares a mark store with the renderer.
func (c *Controller) WithMarks(m *registry.Marks) *Controller {
	if m != nil {
		c.marks = m
	}
	return c
}

// WithBalance sets the balance tracker refreshed after accepted replies.
func (c *Controller) WithBalance(t *billing.Tracker) *Controller {
	c.balance = t
	return c
}

// SetView replaces the rendering surface.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v == nil {
		v = NopView{}
	}
	c.view = v
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Marks returns the mark store.
func (c *Controller) Marks() *registry.Marks {
	return c.marks
}

// =============================================================================
// SELECTION
// =============================================================================

// SelectConversation makes id the active conversation, clears the view and
// hydrates its history. The active mark moves in one step, so no observer
// ever sees two conversations marked active.
func (c *Controller) SelectConversation(ctx context.Context, id model.ChatID) {
	if id.IsZero() {
		return
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.state.Active = id
	c.state.Loading = true
	c.state.Title = c.knownTitle(id)
	c.marks.SetActive(id)
	c.view.ClearMessages()
	c.view.SetPending(c.state.Sending && c.pendingFor == id)
	c.view.SetTitle(c.state.Title)
	c.mu.Unlock()

	conv, err := c.backend.GetChat(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		log.Printf("session: dropping history for chat %s, selection moved on", id)
		return
	}
	c.state.Loading = false
	if err != nil {
		log.Printf("session: load chat %s: %v", id, err)
		c.view.AppendMessage(model.NewErrorMessage(FormatError(err)))
		return
	}
	c.state.Title = conv.Chat.Title()
	c.view.SetTitle(c.state.Title)
	c.view.SetMessages(conv.Messages)
}

// knownTitle returns the registry title for id, or an empty string.
func (c *Controller) knownTitle(id model.ChatID) string {
	if c.registry == nil {
		return ""
	}
	if chat, ok := c.registry.Chat(id); ok {
		return chat.Title()
	}
	return ""
}

// adoptLocked makes a just-created conversation active without hydrating it.
// Caller holds c.mu.
func (c *Controller) adoptLocked(chat model.ChatSummary) {
	c.epoch++
	c.state.Active = chat.ID
	c.state.Loading = false
	c.state.Title = chat.Title()
	c.marks.SetActive(chat.ID)
	c.view.ClearMessages()
	c.view.SetPending(false)
	c.view.SetTitle(c.state.Title)
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitMessage sends text, plus the pending attachment if any, to the active
// conversation, creating one first if none is active.
//
// The reply is appended only if the same conversation is still active when it
// arrives. The send affordance is re-enabled on every path.
func (c *Controller) SubmitMessage(ctx context.Context, text string) (Outcome, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.state.Sending {
		c.mu.Unlock()
		return OutcomeIgnored, ErrSendInFlight
	}
	if c.state.Loading {
		c.mu.Unlock()
		return OutcomeIgnored, ErrLoading
	}
	att := c.state.Attachment
	if text == "" && att == nil {
		c.mu.Unlock()
		return OutcomeIgnored, nil
	}
	c.state.Sending = true
	c.state.Attachment = nil
	modelID := c.state.Model
	active := c.state.Active
	c.view.SetSendEnabled(false)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Sending = false
		c.pendingFor = 0
		c.view.SetPending(false)
		c.view.SetSendEnabled(true)
		c.mu.Unlock()
	}()

	if active.IsZero() {
		chat, err := c.backend.CreateChat(ctx, c.opts.PlaceholderName)
		if err != nil {
			log.Printf("session: create chat before send: %v", err)
			c.mu.Lock()
			c.view.Notify("Erro ao criar conversa: " + err.Error())
			c.mu.Unlock()
			return OutcomeFailed, nil
		}

		c.mu.Lock()
		if !c.state.Active.IsZero() {
			// The user picked a conversation while we were creating one.
			c.mu.Unlock()
			log.Printf("session: abandoning send, chat %s selected during creation", c.State().Active)
			c.refreshRegistry(ctx)
			return OutcomeDiscarded, nil
		}
		c.adoptLocked(chat)
		c.mu.Unlock()
		c.refreshRegistry(ctx)
	}

	sendText, displayText := text, text
	if text == "" {
		sendText, displayText = ImageOnlyPrompt, ImageOnlyDisplay
	}

	// Snapshot: from here on the send belongs to sendID, whatever becomes
	// active later.
	c.mu.Lock()
	sendID := c.state.Active
	c.pendingFor = sendID
	c.view.AppendMessage(model.NewUserMessage(displayText))
	c.view.SetPending(true)
	c.mu.Unlock()

	reply, err := c.backend.SendMessage(ctx, sendID, api.SendRequest{
		Message: sendText,
		Model:   modelID,
		Image:   att,
	})

	c.mu.Lock()
	if c.state.Active != sendID {
		current := c.state.Active
		c.mu.Unlock()
		if err != nil {
			log.Printf("session: discarding error for chat %s (active is %s): %v", sendID, current, err)
		} else {
			log.Printf("session: discarding reply for chat %s (active is %s)", sendID, current)
		}
		return OutcomeDiscarded, nil
	}
	if err != nil {
		c.view.SetPending(false)
		c.view.AppendMessage(model.NewErrorMessage(FormatError(err)))
		c.mu.Unlock()
		log.Printf("session: send to chat %s: %v", sendID, err)
		return OutcomeFailed, nil
	}
	c.view.SetPending(false)
	if reply.Content == "" {
		c.mu.Unlock()
		log.Printf("session: empty reply for chat %s", sendID)
		return OutcomeFailed, nil
	}
	c.view.AppendMessage(model.NewAssistantMessage(reply.Content))
	renameDue := c.state.Title == c.opts.PlaceholderName && text != ""
	c.mu.Unlock()

	if renameDue {
		c.autoRename(ctx, sendID, text)
	}

	c.refreshRegistry(ctx)
	c.refreshBalance(ctx)
	return OutcomeAccepted, nil
}

// autoRename names a placeholder conversation after its first message. The
// title only changes once the backend accepted the rename.
func (c *Controller) autoRename(ctx context.Context, id model.ChatID, text string) {
	title := util.TitleFromText(text, c.opts.TitleMaxRunes)
	if title == "" {
		return
	}
	if err := c.backend.RenameChat(ctx, id, title); err != nil {
		log.Printf("session: auto-rename chat %s: %v", id, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Active == id {
		c.state.Title = title
		c.view.SetTitle(title)
	}
}

func (c *Controller) refreshRegistry(ctx context.Context) {
	if c.registry == nil {
		return
	}
	if err := c.registry.Refresh(ctx); err != nil {
		log.Printf("session: refresh registry: %v", err)
	}
}

func (c *Controller) refreshBalance(ctx context.Context) {
	if c.balance == nil {
		return
	}
	if _, err := c.balance.Refresh(ctx); err != nil {
		log.Printf("session: refresh balance: %v", err)
	}
}

// =============================================================================
// MODEL AND ATTACHMENT
// =============================================================================

// SetModel selects the model used for the next sends.
func (c *Controller) SetModel(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Model = id
}

// Model returns the selected model.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Model
}

// Attach sets the pending attachment, replacing any previous one.
func (c *Controller) Attach(att *api.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Attachment = att
}

// AttachFile loads path as the pending attachment.
func (c *Controller) AttachFile(path string) (*api.Attachment, error) {
	att, err := api.LoadAttachment(path)
	if err != nil {
		return nil, err
	}
	c.Attach(att)
	return att, nil
}

// ClearAttachment drops the pending attachment.
func (c *Controller) ClearAttachment() {
	c.Attach(nil)
}
