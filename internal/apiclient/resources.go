package apiclient

import (
	"context"
	"net/http"

	"ideabridge.org/internal/market"
)

// Ideas

func (c *Client) ListIdeas(ctx context.Context) ([]market.Idea, error) {
	return getList[market.Idea](ctx, c, c.paths.Ideas, "ideas")
}

func (c *Client) GetIdea(ctx context.Context, id int64) (market.Idea, error) {
	return sendOne[market.Idea](ctx, c, http.MethodGet, expand(c.paths.Idea, id), nil, "idea")
}

func (c *Client) CreateIdea(ctx context.Context, in market.NewIdea) (market.Idea, error) {
	return sendOne[market.Idea](ctx, c, http.MethodPost, c.paths.Ideas, in, "idea")
}

// Interests

// ListInterests returns the interests visible to the caller.
func (c *Client) ListInterests(ctx context.Context) ([]market.Interest, error) {
	return getList[market.Interest](ctx, c, c.paths.Interests, "interests")
}

// MyInterests returns only the caller's own interests.
func (c *Client) MyInterests(ctx context.Context) ([]market.Interest, error) {
	return getList[market.Interest](ctx, c, c.paths.MyInterests, "interests")
}

func (c *Client) ExpressInterest(ctx context.Context, ideaID int64) (market.Interest, error) {
	body := struct {
		IdeaID int64 `json:"ideaId"`
	}{ideaID}
	return sendOne[market.Interest](ctx, c, http.MethodPost, c.paths.CreateInterest, body, "interest")
}

func (c *Client) UpdateInterestStatus(ctx context.Context, id int64, status market.InterestStatus) (market.Interest, error) {
	body := struct {
		Status market.InterestStatus `json:"status"`
	}{status}
	return sendOne[market.Interest](ctx, c, http.MethodPut, expand(c.paths.Interest, id), body, "interest")
}

func (c *Client) DeleteInterest(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, expand(c.paths.Interest, id), nil)
	return err
}

// Comments

func (c *Client) ListComments(ctx context.Context, ideaID int64) ([]market.Comment, error) {
	return getList[market.Comment](ctx, c, expand(c.paths.IdeaComments, ideaID), "comments")
}

func (c *Client) CreateComment(ctx context.Context, ideaID int64, content string) (market.Comment, error) {
	body := struct {
		IdeaID  int64  `json:"ideaId"`
		Content string `json:"content"`
	}{ideaID, content}
	return sendOne[market.Comment](ctx, c, http.MethodPost, c.paths.Comments, body, "comment")
}

func (c *Client) UpdateComment(ctx context.Context, id int64, content string) (market.Comment, error) {
	body := struct {
		Content string `json:"content"`
	}{content}
	return sendOne[market.Comment](ctx, c, http.MethodPut, expand(c.paths.Comment, id), body, "comment")
}

func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, expand(c.paths.Comment, id), nil)
	return err
}

// Auth

func (c *Client) Login(ctx context.Context, creds market.Credentials) (market.AuthResult, error) {
	return sendOne[market.AuthResult](ctx, c, http.MethodPost, c.paths.Login, creds, "")
}

func (c *Client) Register(ctx context.Context, reg market.Registration) (market.AuthResult, error) {
	return sendOne[market.AuthResult](ctx, c, http.MethodPost, c.paths.Register, reg, "")
}

func (c *Client) Me(ctx context.Context) (market.User, error) {
	return sendOne[market.User](ctx, c, http.MethodGet, c.paths.Me, nil, "user")
}

// Admin

func (c *Client) AdminStats(ctx context.Context) (market.Stats, error) {
	return sendOne[market.Stats](ctx, c, http.MethodGet, c.paths.AdminStats, nil, "stats")
}

func (c *Client) PendingIdeas(ctx context.Context) ([]market.Idea, error) {
	return getList[market.Idea](ctx, c, c.paths.AdminPending, "ideas")
}

func (c *Client) ApproveIdea(ctx context.Context, id int64, feedback string) error {
	return c.moderate(ctx, c.paths.AdminApprove, id, feedback)
}

func (c *Client) RejectIdea(ctx context.Context, id int64, feedback string) error {
	return c.moderate(ctx, c.paths.AdminReject, id, feedback)
}

func (c *Client) moderate(ctx context.Context, tmpl string, id int64, feedback string) error {
	body := struct {
		Feedback string `json:"feedback,omitempty"`
	}{feedback}
	_, err := c.do(ctx, http.MethodPut, expand(tmpl, id), body)
	return err
}

func (c *Client) AdminDeleteIdea(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, expand(c.paths.AdminIdea, id), nil)
	return err
}

func (c *Client) AdminDeleteUser(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, expand(c.paths.AdminUser, id), nil)
	return err
}

func (c *Client) ListUsers(ctx context.Context) ([]market.User, error) {
	return getList[market.User](ctx, c, c.paths.AdminUsers, "users")
}
