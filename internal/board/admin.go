package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ideabridge.org/internal/market"
)

// AdminAPI is what the admin dashboard needs from the backend.
type AdminAPI interface {
	AdminStats(ctx context.Context) (market.Stats, error)
	PendingIdeas(ctx context.Context) ([]market.Idea, error)
	ListUsers(ctx context.Context) ([]market.User, error)
	ApproveIdea(ctx context.Context, id int64, feedback string) error
	RejectIdea(ctx context.Context, id int64, feedback string) error
	AdminDeleteIdea(ctx context.Context, id int64) error
	AdminDeleteUser(ctx context.Context, id int64) error
}

// Admin is the moderation dashboard. Aggregates are never adjusted locally;
// every transition drops what the server confirmed gone and then reloads
// stats, pending ideas and users.
type Admin struct {
	api AdminAPI

	mu      sync.Mutex
	stats   market.Stats
	pending []market.Idea
	users   []market.User
}

func NewAdmin(api AdminAPI) *Admin {
	return &Admin{api: api}
}

// Load fetches stats, pending ideas and users, sequentially. Nothing is
// replaced unless all three succeed.
func (a *Admin) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats, err := a.api.AdminStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	pending, err := a.api.PendingIdeas(ctx)
	if err != nil {
		return fmt.Errorf("load pending ideas: %w", err)
	}
	users, err := a.api.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	a.stats, a.pending, a.users = stats, pending, users
	return nil
}

func (a *Admin) Stats() market.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *Admin) Pending() []market.Idea {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]market.Idea(nil), a.pending...)
}

func (a *Admin) Users() []market.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]market.User(nil), a.users...)
}

// Approve moves a pending idea to approved.
func (a *Admin) Approve(ctx context.Context, id int64, feedback string) error {
	return a.moderate(ctx, id, feedback, a.api.ApproveIdea)
}

// Reject moves a pending idea to rejected.
func (a *Admin) Reject(ctx context.Context, id int64, feedback string) error {
	return a.moderate(ctx, id, feedback, a.api.RejectIdea)
}

func (a *Admin) moderate(ctx context.Context, id int64, feedback string, call func(context.Context, int64, string) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	i := a.pendingIndex(id)
	if i < 0 {
		return fmt.Errorf("idea %d is not pending: %w", id, market.ErrInvalidTransition)
	}
	if !a.pending[i].Status.CanModerate() {
		return fmt.Errorf("idea %d is %s: %w", id, a.pending[i].Status, market.ErrInvalidTransition)
	}
	if err := call(ctx, id, feedback); err != nil {
		return fmt.Errorf("moderate idea: %w", err)
	}
	a.pending = removeIdeas(a.pending, func(idea market.Idea) bool { return idea.ID == id })
	return a.refresh(ctx)
}

// DeleteIdea removes an idea after confirm accepted.
func (a *Admin) DeleteIdea(ctx context.Context, id int64, confirm Confirm) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !confirmed(confirm, "Are you sure you want to delete this idea?") {
		return ErrCancelled
	}
	if err := a.api.AdminDeleteIdea(ctx, id); err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	a.pending = removeIdeas(a.pending, func(idea market.Idea) bool { return idea.ID == id })
	return a.refresh(ctx)
}

// DeleteUser removes a user, and every idea they authored, from the local
// lists after confirm accepted.
func (a *Admin) DeleteUser(ctx context.Context, id int64, confirm Confirm) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !confirmed(confirm, "Are you sure you want to delete this user?") {
		return ErrCancelled
	}
	if err := a.api.AdminDeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	users := a.users[:0:0]
	for _, u := range a.users {
		if u.ID != id {
			users = append(users, u)
		}
	}
	a.users = users
	a.pending = removeIdeas(a.pending, func(idea market.Idea) bool { return idea.OwnerID() == id })
	return a.refresh(ctx)
}

// refresh reloads every resource after a confirmed mutation. Each one is
// replaced on its own success, so one failing call leaves the others fresh.
func (a *Admin) refresh(ctx context.Context) error {
	var errs []error
	if stats, err := a.api.AdminStats(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reload stats: %w", err))
	} else {
		a.stats = stats
	}
	if pending, err := a.api.PendingIdeas(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reload pending ideas: %w", err))
	} else {
		a.pending = pending
	}
	if users, err := a.api.ListUsers(ctx); err != nil {
		errs = append(errs, fmt.Errorf("reload users: %w", err))
	} else {
		a.users = users
	}
	return errors.Join(errs...)
}

func (a *Admin) pendingIndex(id int64) int {
	for i := range a.pending {
		if a.pending[i].ID == id {
			return i
		}
	}
	return -1
}

func removeIdeas(ideas []market.Idea, drop func(market.Idea) bool) []market.Idea {
	out := make([]market.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if !drop(idea) {
			out = append(out, idea)
		}
	}
	return out
}
