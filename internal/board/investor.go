package board

import (
	"context"
	"fmt"
	"sync"

	"ideabridge.org/internal/market"
)

// InvestorAPI is what the investor dashboard needs from the backend.
type InvestorAPI interface {
	ListIdeas(ctx context.Context) ([]market.Idea, error)
	ListInterests(ctx context.Context) ([]market.Interest, error)
	ExpressInterest(ctx context.Context, ideaID int64) (market.Interest, error)
	ListComments(ctx context.Context, ideaID int64) ([]market.Comment, error)
}

// Investor is the investor dashboard: approved ideas enriched with the
// viewer's interest status and the total interest count.
type Investor struct {
	api          InvestorAPI
	viewer       market.User
	withComments bool

	mu      sync.Mutex
	ideas   []market.EnrichedIdea
	warning error
}

type InvestorOption func(*Investor)

// WithComments embeds each idea's comments so counts come from the rendered list.
func WithComments() InvestorOption {
	return func(b *Investor) { b.withComments = true }
}

func NewInvestor(api InvestorAPI, viewer market.User, opts ...InvestorOption) *Investor {
	b := &Investor{api: api, viewer: viewer}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load fetches ideas, then interests. An interest failure degrades to zero
// enrichment and is kept as LoadWarning; an idea failure keeps the previous state.
func (b *Investor) Load(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ideas, err := b.api.ListIdeas(ctx)
	if err != nil {
		return fmt.Errorf("load ideas: %w", err)
	}
	var warning error
	interests, err := b.api.ListInterests(ctx)
	if err != nil {
		warning = fmt.Errorf("load interests: %w", err)
		interests = nil
	}
	enriched := market.Enrich(ideas, interests, b.viewer.ID)

	if b.withComments {
		for i := range enriched {
			comments, err := b.api.ListComments(ctx, enriched[i].ID)
			if err != nil {
				if warning == nil {
					warning = fmt.Errorf("load comments for idea %d: %w", enriched[i].ID, err)
				}
				comments = nil
			}
			enriched[i].Comments = comments
			enriched[i].CommentCount = len(comments)
		}
	}

	b.ideas = enriched
	b.warning = warning
	return nil
}

// LoadWarning reports a non-fatal failure from the last successful Load.
func (b *Investor) LoadWarning() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.warning
}

// Ideas returns a copy of the rendered list.
func (b *Investor) Ideas() []market.EnrichedIdea {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]market.EnrichedIdea, len(b.ideas))
	copy(out, b.ideas)
	return out
}

// Idea returns one rendered idea.
func (b *Investor) Idea(id int64) (market.EnrichedIdea, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexOf(id); i >= 0 {
		return b.ideas[i], true
	}
	return market.EnrichedIdea{}, false
}

// CanExpress is the render-time guard for the express-interest control.
func (b *Investor) CanExpress(id int64) bool {
	e, ok := b.Idea(id)
	return ok && !e.Interested()
}

// ExpressInterest records interest once. The local copy is patched only
// after the server accepted the request.
func (b *Investor) ExpressInterest(ctx context.Context, ideaID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(ideaID)
	if i < 0 {
		return fmt.Errorf("idea %d: %w", ideaID, market.ErrNotFound)
	}
	if b.ideas[i].Interested() {
		return ErrAlreadyInterested
	}
	if _, err := b.api.ExpressInterest(ctx, ideaID); err != nil {
		return fmt.Errorf("express interest: %w", err)
	}
	st := market.InterestPending
	b.ideas[i].InterestStatus = &st
	b.ideas[i].InterestCount++
	return nil
}

func (b *Investor) indexOf(id int64) int {
	for i := range b.ideas {
		if b.ideas[i].ID == id {
			return i
		}
	}
	return -1
}
