package board

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ideabridge.org/internal/market"
)

// MyInterestsAPI is what the investor's interest list needs.
type MyInterestsAPI interface {
	MyInterests(ctx context.Context) ([]market.Interest, error)
	DeleteInterest(ctx context.Context, id int64) error
}

// Filter narrows the rendered interests. A zero Filter matches everything.
type Filter struct {
	IdeaStatus market.IdeaStatus
	Query      string
}

// Match reports whether in passes f. Fields are read from the embedded idea.
func (f Filter) Match(in market.Interest) bool {
	if f.IdeaStatus != "" {
		if in.Idea == nil || in.Idea.Status != f.IdeaStatus {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if in.Idea == nil {
		return false
	}
	return strings.Contains(strings.ToLower(in.Idea.Title), q) ||
		strings.Contains(strings.ToLower(in.Idea.Description), q)
}

// MyInterests is the investor's own interest list.
type MyInterests struct {
	api MyInterestsAPI

	mu        sync.Mutex
	interests []market.Interest
}

func NewMyInterests(api MyInterestsAPI) *MyInterests {
	return &MyInterests{api: api}
}

func (m *MyInterests) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

func (m *MyInterests) load(ctx context.Context) error {
	interests, err := m.api.MyInterests(ctx)
	if err != nil {
		return fmt.Errorf("load interests: %w", err)
	}
	m.interests = append([]market.Interest(nil), interests...)
	return nil
}

// Interests returns the loaded interests that pass f.
func (m *MyInterests) Interests(f Filter) []market.Interest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]market.Interest, 0, len(m.interests))
	for _, in := range m.interests {
		if f.Match(in) {
			out = append(out, in)
		}
	}
	return out
}

// Remove deletes one interest after confirm accepted, then reloads.
func (m *MyInterests) Remove(ctx context.Context, id int64, confirm Confirm) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for _, in := range m.interests {
		if in.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("interest %d: %w", id, market.ErrNotFound)
	}
	if !confirmed(confirm, "Remove this idea from your interests?") {
		return ErrCancelled
	}
	if err := m.api.DeleteInterest(ctx, id); err != nil {
		return fmt.Errorf("remove interest: %w", err)
	}
	return m.load(ctx)
}
