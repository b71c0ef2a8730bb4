package board

import (
	"context"
	"fmt"
	"sync"

	"ideabridge.org/internal/market"
)

// GeneratorAPI is what the idea generator dashboard needs from the backend.
type GeneratorAPI interface {
	ListIdeas(ctx context.Context) ([]market.Idea, error)
	CreateIdea(ctx context.Context, in market.NewIdea) (market.Idea, error)
}

// Summary is the header of the generator dashboard.
type Summary struct {
	Total     int
	Pending   int
	Approved  int
	Rejected  int
	Interests int
}

// Generator lists the viewer's own ideas.
type Generator struct {
	api    GeneratorAPI
	viewer market.User

	mu    sync.Mutex
	ideas []market.Idea
}

func NewGenerator(api GeneratorAPI, viewer market.User) *Generator {
	return &Generator{api: api, viewer: viewer}
}

func (g *Generator) Load(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load(ctx)
}

func (g *Generator) load(ctx context.Context) error {
	ideas, err := g.api.ListIdeas(ctx)
	if err != nil {
		return fmt.Errorf("load ideas: %w", err)
	}
	own := make([]market.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if owner := idea.OwnerID(); owner != 0 && owner != g.viewer.ID {
			continue
		}
		own = append(own, idea)
	}
	g.ideas = own
	return nil
}

func (g *Generator) Ideas() []market.Idea {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]market.Idea(nil), g.ideas...)
}

// Summary is computed from the rendered list only.
func (g *Generator) Summary() Summary {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Summary{Total: len(g.ideas)}
	for _, idea := range g.ideas {
		switch idea.Status {
		case market.IdeaPending:
			s.Pending++
		case market.IdeaApproved:
			s.Approved++
		case market.IdeaRejected:
			s.Rejected++
		}
		s.Interests += idea.InterestCount
	}
	return s
}

// Submit validates and posts a new idea, then reloads the list.
func (g *Generator) Submit(ctx context.Context, in market.NewIdea) (market.Idea, error) {
	in, err := in.Normalize()
	if err != nil {
		return market.Idea{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	created, err := g.api.CreateIdea(ctx, in)
	if err != nil {
		return market.Idea{}, fmt.Errorf("submit idea: %w", err)
	}
	if err := g.load(ctx); err != nil {
		return created, err
	}
	return created, nil
}
