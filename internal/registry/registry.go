// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/sofia-tui/internal/model"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Source lists conversations and projects. *api.Client satisfies it.
type Source interface {
	ListChats(ctx context.Context) ([]model.ChatSummary, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Cache persists the last successful listing between runs.
type Cache interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
}

// ErrNoSnapshot is returned by a Cache that has nothing stored yet.
var ErrNoSnapshot = errors.New("no registry snapshot")

// Snapshot is a point-in-time listing.
type Snapshot struct {
	Chats     []model.ChatSummary `json:"chats"`
	Projects  []model.Project     `json:"projects"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// View is what renderers draw: the partitioned sidebar plus the capped
// quick-access list of unfiled chats.
type View struct {
	Partitioned
	Recent    []model.ChatSummary
	FetchedAt time.Time
	Stale     bool
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is the in-memory projection of the backend listing.
type Registry struct {
	mu          sync.RWMutex
	src         Source
	cache       Cache
	recentLimit int

	chats     []model.ChatSummary
	projects  []model.Project
	fetchedAt time.Time
	stale     bool

	subMu  sync.Mutex
	subs   map[int]func(View)
	nextID int
}

// New creates an empty registry reading from src.
func New(src Source) *Registry {
	return &Registry{
		src:         src,
		recentLimit: DefaultRecentLimit,
		subs:        make(map[int]func(View)),
	}
}

// WithCache enables warm start and persistence of each refresh.
func (r *Registry) WithCache(c Cache) *Registry {
	r.cache = c
	return r
}

// WithRecentLimit changes the quick-access list size.
func (r *Registry) WithRecentLimit(n int) *Registry {
	if n > 0 {
		r.recentLimit = n
	}
	return r
}

// WarmStart loads the cached snapshot, if any, so the sidebar has content
// before the first network refresh. The loaded view is marked stale.
func (r *Registry) WarmStart(ctx context.Context) bool {
	if r.cache == nil {
		return false
	}
	snap, err := r.cache.LoadSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			log.Printf("registry: load snapshot: %v", err)
		}
		return false
	}

	r.mu.Lock()
	if !r.fetchedAt.IsZero() && !r.stale {
		// A live refresh already landed.
		r.mu.Unlock()
		return false
	}
	r.chats = snap.Chats
	r.projects = snap.Projects
	r.fetchedAt = snap.FetchedAt
	r.stale = true
	r.mu.Unlock()

	r.notify()
	return true
}

// Refresh fetches chats and projects. On failure the previous listing is
// kept untouched.
func (r *Registry) Refresh(ctx context.Context) error {
	chats, err := r.src.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("refresh chats: %w", err)
	}
	projects, err := r.src.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("refresh projects: %w", err)
	}

	now := time.Now()
	r.mu.Lock()
	r.chats = chats
	r.projects = projects
	r.fetchedAt = now
	r.stale = false
	r.mu.Unlock()

	if r.cache != nil {
		snap := &Snapshot{Chats: chats, Projects: projects, FetchedAt: now}
		if err := r.cache.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("registry: save snapshot: %v", err)
		}
	}

	r.notify()
	return nil
}

// SetCollapsed flips a project's collapsed flag in the projection after the
// backend accepted the change.
func (r *Registry) SetCollapsed(id model.ProjectID, collapsed bool) {
	r.mu.Lock()
	changed := false
	for i := range r.projects {
		if r.projects[i].ID == id {
			r.projects[i].Collapsed = model.Flag(collapsed)
			changed = true
			break
		}
	}
	r.mu.Unlock()

	if changed {
		r.notify()
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// View returns the current sidebar layout.
func (r *Registry) View() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewLocked()
}

func (r *Registry) viewLocked() View {
	p := Partition(r.chats, r.projects)
	return View{
		Partitioned: p,
		Recent:      Recent(p.Unfiled, r.recentLimit),
		FetchedAt:   r.fetchedAt,
		Stale:       r.stale,
	}
}

// Chats returns every known conversation in backend order.
func (r *Registry) Chats() []model.ChatSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ChatSummary, len(r.chats))
	copy(out, r.chats)
	return out
}

// Projects returns every known project in backend order.
func (r *Registry) Projects() []model.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Chat looks up a conversation by id.
func (r *Registry) Chat(id model.ChatID) (model.ChatSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.chats {
		if c.ID == id {
			return c, true
		}
	}
	return model.ChatSummary{}, false
}

// Project looks up a project by id.
func (r *Registry) Project(id model.ProjectID) (model.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

// ProjectOf returns the project a conversation is filed under.
func (r *Registry) ProjectOf(id model.ChatID) (model.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.Contains(id) {
			return p, true
		}
	}
	return model.Project{}, false
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe registers fn to receive the view after every change. The
// returned function unsubscribes.
func (r *Registry) Subscribe(fn func(View)) func() {
	r.subMu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

func (r *Registry) notify() {
	view := r.View()

	r.subMu.Lock()
	fns := make([]func(View), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(view)
	}
}
