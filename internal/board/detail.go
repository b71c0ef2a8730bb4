package board

import (
	"context"
	"fmt"
	"sync"

	"ideabridge.org/internal/market"
)

// DetailAPI is what the idea detail page needs from the backend.
type DetailAPI interface {
	CommentAPI
	GetIdea(ctx context.Context, id int64) (market.Idea, error)
	ListInterests(ctx context.Context) ([]market.Interest, error)
	ExpressInterest(ctx context.Context, ideaID int64) (market.Interest, error)
}

// IdeaDetail is one idea with its enrichment and comment thread. Unlike the
// dashboard it reloads after expressing interest.
type IdeaDetail struct {
	api    DetailAPI
	viewer market.User
	thread *Thread

	mu      sync.Mutex
	idea    market.EnrichedIdea
	loaded  bool
	warning error
}

func NewIdeaDetail(api DetailAPI, ideaID int64, viewer market.User) *IdeaDetail {
	return &IdeaDetail{
		api:    api,
		viewer: viewer,
		thread: NewThread(api, ideaID, viewer),
		idea:   market.EnrichedIdea{Idea: market.Idea{ID: ideaID}},
	}
}

// Load fetches the idea, the viewer's interests and the comments, in that order.
func (d *IdeaDetail) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ctx, false)
}

// load refreshes the page. With keepEnrichment a failed interest fetch keeps
// the current status and count instead of zeroing them.
func (d *IdeaDetail) load(ctx context.Context, keepEnrichment bool) error {
	idea, err := d.api.GetIdea(ctx, d.thread.IdeaID())
	if err != nil {
		return fmt.Errorf("load idea: %w", err)
	}
	var warning error
	interests, interestsErr := d.api.ListInterests(ctx)
	if interestsErr != nil {
		warning = fmt.Errorf("load interests: %w", interestsErr)
		interests = nil
	}
	if err := d.thread.Load(ctx); err != nil && warning == nil {
		warning = err
	}
	enriched := market.Enrich([]market.Idea{idea}, interests, d.viewer.ID)[0]
	if interestsErr != nil && keepEnrichment {
		enriched.InterestStatus, enriched.InterestCount = d.idea.InterestStatus, d.idea.InterestCount
	}
	d.idea = enriched
	d.loaded = true
	d.warning = warning
	return nil
}

// Idea returns the rendered idea with the thread's current comments.
func (d *IdeaDetail) Idea() (market.EnrichedIdea, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idea := d.idea
	idea.Comments = d.thread.Comments()
	idea.CommentCount = len(idea.Comments)
	return idea, d.loaded
}

func (d *IdeaDetail) LoadWarning() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.warning
}

// Thread is the idea's comment thread.
func (d *IdeaDetail) Thread() *Thread { return d.thread }

// ExpressInterest posts the interest, patches the local copy and then reloads
// the page. A failed reload keeps the patch and is reported by LoadWarning.
func (d *IdeaDetail) ExpressInterest(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return fmt.Errorf("idea %d: %w", d.idea.ID, market.ErrNotFound)
	}
	if d.idea.Interested() {
		return ErrAlreadyInterested
	}
	if _, err := d.api.ExpressInterest(ctx, d.idea.ID); err != nil {
		return fmt.Errorf("express interest: %w", err)
	}
	st := market.InterestPending
	d.idea.InterestStatus = &st
	d.idea.InterestCount++
	if err := d.load(ctx, true); err != nil {
		d.warning = fmt.Errorf("reload after interest: %w", err)
	}
	return nil
}
