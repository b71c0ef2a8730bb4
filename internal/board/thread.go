package board

import (
	"context"
	"fmt"
	"sync"

	"ideabridge.org/internal/market"
)

// CommentAPI is what a comment thread needs from the backend.
type CommentAPI interface {
	ListComments(ctx context.Context, ideaID int64) ([]market.Comment, error)
	CreateComment(ctx context.Context, ideaID int64, content string) (market.Comment, error)
	UpdateComment(ctx context.Context, id int64, content string) (market.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// Thread is the comment list of one idea, newest first.
type Thread struct {
	api    CommentAPI
	ideaID int64
	viewer market.User

	mu       sync.Mutex
	comments []market.Comment
}

func NewThread(api CommentAPI, ideaID int64, viewer market.User) *Thread {
	return &Thread{api: api, ideaID: ideaID, viewer: viewer}
}

// IdeaID is the idea this thread belongs to.
func (t *Thread) IdeaID() int64 { return t.ideaID }

// Load replaces the list with the server's.
func (t *Thread) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	comments, err := t.api.ListComments(ctx, t.ideaID)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	t.comments = append([]market.Comment(nil), comments...)
	return nil
}

// Comments returns a copy of the rendered list.
func (t *Thread) Comments() []market.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]market.Comment(nil), t.comments...)
}

// Count is always the length of the rendered list.
func (t *Thread) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.comments)
}

// CanModify gates the edit and delete controls.
func (t *Thread) CanModify(c market.Comment) bool {
	return c.OwnedBy(t.viewer.ID)
}

// Add posts a comment and prepends the server's copy.
func (t *Thread) Add(ctx context.Context, raw string) (market.Comment, error) {
	content, err := market.CommentContent(raw)
	if err != nil {
		return market.Comment{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	created, err := t.api.CreateComment(ctx, t.ideaID, content)
	if err != nil {
		return market.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	if created.IdeaID == 0 {
		created.IdeaID = t.ideaID
	}
	if created.UserID == 0 {
		created.UserID = t.viewer.ID
	}
	t.comments = append([]market.Comment{created}, t.comments...)
	return created, nil
}

// Edit replaces one comment's content. Only the owner may edit.
func (t *Thread) Edit(ctx context.Context, id int64, raw string) (market.Comment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return market.Comment{}, fmt.Errorf("comment %d: %w", id, market.ErrNotFound)
	}
	current := t.comments[i]
	if !current.OwnedBy(t.viewer.ID) {
		return market.Comment{}, market.ErrNotOwner
	}
	content, err := market.CommentContent(raw)
	if err != nil {
		return market.Comment{}, err
	}

	updated, err := t.api.UpdateComment(ctx, id, content)
	if err != nil {
		return market.Comment{}, fmt.Errorf("edit comment: %w", err)
	}
	if updated.ID != id {
		updated = current
		updated.Content = content
	}
	t.comments[i] = updated
	return updated, nil
}

// Delete removes one comment after confirm accepted. Only the owner may delete.
func (t *Thread) Delete(ctx context.Context, id int64, confirm Confirm) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.indexOf(id)
	if i < 0 {
		return fmt.Errorf("comment %d: %w", id, market.ErrNotFound)
	}
	if !t.comments[i].OwnedBy(t.viewer.ID) {
		return market.ErrNotOwner
	}
	if !confirmed(confirm, "Delete this comment?") {
		return ErrCancelled
	}
	if err := t.api.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	t.comments = append(t.comments[:i:i], t.comments[i+1:]...)
	return nil
}

func (t *Thread) indexOf(id int64) int {
	for i := range t.comments {
		if t.comments[i].ID == id {
			return i
		}
	}
	return -1
}
