package board

import (
	"context"
	"fmt"
	"sync"

	"ideabridge.org/internal/market"
)

// ExpressionsAPI is what the expressions-of-interest page needs.
type ExpressionsAPI interface {
	ListInterests(ctx context.Context) ([]market.Interest, error)
	UpdateInterestStatus(ctx context.Context, id int64, status market.InterestStatus) (market.Interest, error)
}

// Expressions lists interests on the viewer's ideas for review.
type Expressions struct {
	api ExpressionsAPI

	mu        sync.Mutex
	interests []market.Interest
}

func NewExpressions(api ExpressionsAPI) *Expressions {
	return &Expressions{api: api}
}

func (e *Expressions) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(ctx)
}

func (e *Expressions) load(ctx context.Context) error {
	interests, err := e.api.ListInterests(ctx)
	if err != nil {
		return fmt.Errorf("load interests: %w", err)
	}
	e.interests = append([]market.Interest(nil), interests...)
	return nil
}

func (e *Expressions) Interests() []market.Interest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]market.Interest(nil), e.interests...)
}

// Accept moves a pending interest to accepted and reloads.
func (e *Expressions) Accept(ctx context.Context, id int64) error {
	return e.review(ctx, id, market.InterestAccepted)
}

// Reject moves a pending interest to rejected and reloads.
func (e *Expressions) Reject(ctx context.Context, id int64) error {
	return e.review(ctx, id, market.InterestRejected)
}

// Review applies a decision given as text ("accept" or "reject").
func (e *Expressions) Review(ctx context.Context, id int64, decision string) error {
	target, err := market.ParseReviewDecision(decision)
	if err != nil {
		return err
	}
	return e.review(ctx, id, target)
}

func (e *Expressions) review(ctx context.Context, id int64, target market.InterestStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var current *market.Interest
	for i := range e.interests {
		if e.interests[i].ID == id {
			current = &e.interests[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("interest %d: %w", id, market.ErrNotFound)
	}
	if !current.Status.CanReview() {
		return fmt.Errorf("interest %d is %s: %w", id, current.Status, market.ErrInvalidTransition)
	}
	if _, err := e.api.UpdateInterestStatus(ctx, id, target); err != nil {
		return fmt.Errorf("review interest: %w", err)
	}
	return e.load(ctx)
}
