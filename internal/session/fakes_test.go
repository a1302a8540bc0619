// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"

	"github.com/jeranaias/sofia-tui/internal/api"
	"github.com/jeranaias/sofia-tui/internal/model"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type sendCall struct {
	ID  model.ChatID
	Req api.SendRequest
}

type fakeBackend struct {
	mu       sync.Mutex
	nextID   int64
	chats    map[model.ChatID]*model.Conversation
	projects map[model.ProjectID]*model.Project
	order    []model.ProjectID

	sends     []sendCall
	renames   []string
	creates   int
	updates   []api.ProjectUpdate
	createErr error
	renameErr error

	// onSend computes the reply. It may block.
	onSend func(id model.ChatID, req api.SendRequest) (*api.Reply, error)
	// onGet runs before GetChat answers. It may block.
	onGet func(id model.ChatID)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:   100,
		chats:    make(map[model.ChatID]*model.Conversation),
		projects: make(map[model.ProjectID]*model.Project),
		onSend: func(_ model.ChatID, req api.SendRequest) (*api.Reply, error) {
			return &api.Reply{Content: "re: " + req.Message}, nil
		},
	}
}

func (f *fakeBackend) addChat(id model.ChatID, name string, msgs ...model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[id] = &model.Conversation{Chat: model.ChatSummary{ID: id, Name: name}, Messages: msgs}
}

func (f *fakeBackend) CreateChat(_ context.Context, name string) (model.ChatSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return model.ChatSummary{}, f.createErr
	}
	f.nextID++
	id := model.ChatID(f.nextID)
	f.chats[id] = &model.Conversation{Chat: model.ChatSummary{ID: id, Name: name}}
	return f.chats[id].Chat, nil
}

func (f *fakeBackend) GetChat(_ context.Context, id model.ChatID) (*model.Conversation, error) {
	f.mu.Lock()
	hook := f.onGet
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.chats[id]
	if !ok {
		return nil, &api.APIError{StatusCode: 404, Message: "Chat não encontrado"}
	}
	cp := *conv
	cp.Messages = append([]model.Message(nil), conv.Messages...)
	return &cp, nil
}

func (f *fakeBackend) RenameChat(_ context.Context, id model.ChatID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renames = append(f.renames, name)
	if f.renameErr != nil {
		return f.renameErr
	}
	if c, ok := f.chats[id]; ok {
		c.Chat.Name = name
	}
	return nil
}

func (f *fakeBackend) DeleteChat(_ context.Context, id model.ChatID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.chats, id)
	return nil
}

func (f *fakeBackend) SendMessage(_ context.Context, id model.ChatID, req api.SendRequest) (*api.Reply, error) {
	f.mu.Lock()
	f.sends = append(f.sends, sendCall{ID: id, Req: req})
	hook := f.onSend
	f.mu.Unlock()
	return hook(id, req)
}

func (f *fakeBackend) CreateProject(_ context.Context, name string) (model.ProjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := model.ProjectID(f.nextID)
	f.projects[id] = &model.Project{ID: id, Name: name}
	f.order = append(f.order, id)
	return id, nil
}

func (f *fakeBackend) UpdateProject(_ context.Context, id model.ProjectID, u api.ProjectUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	p, ok := f.projects[id]
	if !ok {
		return &api.APIError{StatusCode: 404, Message: "Projeto não encontrado"}
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Collapsed != nil {
		p.Collapsed = model.Flag(*u.Collapsed)
	}
	return nil
}

func (f *fakeBackend) DeleteProject(_ context.Context, id model.ProjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.projects, id)
	for i, pid := range f.order {
		if pid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) AddChatToProject(_ context.Context, id model.ProjectID, chatID model.ChatID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return &api.APIError{StatusCode: 404, Message: "Projeto não encontrado"}
	}
	if !p.Contains(chatID) {
		p.ChatIDs = append(p.ChatIDs, chatID)
	}
	return nil
}

func (f *fakeBackend) RemoveChatFromProject(_ context.Context, id model.ProjectID, chatID model.ChatID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil
	}
	out := p.ChatIDs[:0]
	for _, c := range p.ChatIDs {
		if c != chatID {
			out = append(out, c)
		}
	}
	p.ChatIDs = out
	return nil
}

// Registry source methods.

func (f *fakeBackend) ListChats(context.Context) ([]model.ChatSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ChatSummary, 0, len(f.chats))
	for _, c := range f.chats {
		out = append(out, c.Chat)
	}
	return out, nil
}

func (f *fakeBackend) ListProjects(context.Context) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Project, 0, len(f.order))
	for _, id := range f.order {
		p := *f.projects[id]
		p.ChatIDs = append([]model.ChatID(nil), p.ChatIDs...)
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeBackend) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeBackend) renameCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.renames...)
}

// =============================================================================
// RECORDING VIEW
// =============================================================================

type recordingView struct {
	mu          sync.Mutex
	messages    []model.Message
	title       string
	pending     bool
	sendEnabled bool
	notices     []string
	clears      int
}

func newRecordingView() *recordingView {
	return &recordingView{sendEnabled: true}
}

func (v *recordingView) ClearMessages() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = nil
	v.clears++
}

func (v *recordingView) SetMessages(msgs []model.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append([]model.Message(nil), msgs...)
}

func (v *recordingView) AppendMessage(msg model.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.messages = append(v.messages, msg)
}

func (v *recordingView) SetTitle(title string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.title = title
}

func (v *recordingView) SetPending(p bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = p
}

func (v *recordingView) SetSendEnabled(e bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sendEnabled = e
}

func (v *recordingView) Notify(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, msg)
}

func (v *recordingView) snapshot() (msgs []model.Message, title string, pending, enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Message(nil), v.messages...), v.title, v.pending, v.sendEnabled
}

func (v *recordingView) contents() []string {
	msgs, _, _, _ := v.snapshot()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Role) + ":" + m.Content
	}
	return out
}
