package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"ideabridge.org/internal/market"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) (*apiClient, *Server) {
	t.Helper()
	srv, err := New(Config{
		BasePath:      "/api",
		Secret:        "test-secret",
		TokenTTL:      time.Hour,
		AdminEmail:    "admin@test.local",
		AdminPassword: "admin-pw",
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &apiClient{baseURL: ts.URL, client: ts.Client(), t: t}, srv
}

func (c *apiClient) do(method, path, token string, body any) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) expect(resp *http.Response, code int) {
	c.t.Helper()
	if resp.StatusCode != code {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		c.t.Fatalf("unexpected status: got %d want %d (%v)", resp.StatusCode, code, body)
	}
}

func (c *apiClient) register(username string, role market.Role) market.AuthResult {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/auth/register", "", market.Registration{
		Username: username,
		Email:    username + "@test.local",
		Password: "pw-" + username,
		Role:     role,
	})
	c.expect(resp, http.StatusCreated)
	res := decode[market.AuthResult](c.t, resp)
	if res.Token == "" || res.User.ID == 0 {
		c.t.Fatalf("incomplete auth result: %+v", res)
	}
	return res
}

func (c *apiClient) login(email, password string) string {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/auth/login", "", market.Credentials{Email: email, Password: password})
	c.expect(resp, http.StatusOK)
	return decode[market.AuthResult](c.t, resp).Token
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func TestAuthFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	gen := api.register("gina", market.RoleIdeaGenerator)
	if gen.User.Role != market.RoleIdeaGenerator {
		t.Fatalf("unexpected role: %s", gen.User.Role)
	}

	token := api.login("GINA@test.local", "pw-gina")
	resp := api.do(http.MethodGet, "/api/auth/me", token, nil)
	api.expect(resp, http.StatusOK)
	me := decode[map[string]market.User](t, resp)
	if me["user"].ID != gen.User.ID {
		t.Fatalf("me returned %+v", me["user"])
	}

	resp = api.do(http.MethodPost, "/api/auth/login", "", market.Credentials{Email: "gina@test.local", Password: "wrong"})
	api.expect(resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = api.do(http.MethodPost, "/api/auth/register", "", market.Registration{Username: "g2", Email: "gina@test.local", Password: "x", Role: market.RoleInvestor})
	api.expect(resp, http.StatusConflict)
	resp.Body.Close()

	resp = api.do(http.MethodPost, "/api/auth/register", "", market.Registration{Username: "boss", Email: "boss@test.local", Password: "x", Role: market.RoleAdmin})
	api.expect(resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = api.do(http.MethodGet, "/api/auth/me", "", nil)
	api.expect(resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = api.do(http.MethodGet, "/api/auth/me", "not-a-token", nil)
	api.expect(resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestIdeaVisibilityAndModeration(t *testing.T) {
	api, _ := newTestAPI(t)
	gen := api.register("gina", market.RoleIdeaGenerator)
	inv := api.register("ivan", market.RoleInvestor)
	admin := api.login("admin@test.local", "admin-pw")

	resp := api.do(http.MethodPost, "/api/idea", gen.Token, market.NewIdea{Title: " Solar ", Description: "panels"})
	api.expect(resp, http.StatusCreated)
	created := decode[struct {
		Idea market.Idea `json:"idea"`
	}](t, resp).Idea
	if created.Status != market.IdeaPending || created.Title != "Solar" {
		t.Fatalf("unexpected idea: %+v", created)
	}

	resp = api.do(http.MethodPost, "/api/idea", inv.Token, market.NewIdea{Title: "x", Description: "y"})
	api.expect(resp, http.StatusForbidden)
	resp.Body.Close()

	resp = api.do(http.MethodPost, "/api/idea", gen.Token, market.NewIdea{Title: "  ", Description: "y"})
	api.expect(resp, http.StatusBadRequest)
	if msg := decode[map[string]string](t, resp)["error"]; msg != "title is required" {
		t.Fatalf("unexpected error message %q", msg)
	}

	resp = api.do(http.MethodGet, "/api/idea", inv.Token, nil)
	api.expect(resp, http.StatusOK)
	if ideas := decode[[]market.Idea](t, resp); len(ideas) != 0 {
		t.Fatalf("investor sees pending ideas: %+v", ideas)
	}
	resp = api.do(http.MethodGet, "/api/idea/"+itoa(created.ID), inv.Token, nil)
	api.expect(resp, http.StatusNotFound)
	resp.Body.Close()

	resp = api.do(http.MethodPut, "/api/admin/ideas/"+itoa(created.ID)+"/approve", gen.Token, map[string]string{})
	api.expect(resp, http.StatusForbidden)
	resp.Body.Close()

	resp = api.do(http.MethodPut, "/api/admin/ideas/"+itoa(created.ID)+"/approve", admin, map[string]string{"feedback": "nice"})
	api.expect(resp, http.StatusOK)
	resp.Body.Close()

	resp = api.do(http.MethodPut, "/api/admin/ideas/"+itoa(created.ID)+"/reject", admin, nil)
	api.expect(resp, http.StatusConflict)
	resp.Body.Close()

	resp = api.do(http.MethodGet, "/api/idea", inv.Token, nil)
	api.expect(resp, http.StatusOK)
	ideas := decode[[]market.Idea](t, resp)
	if len(ideas) != 1 || ideas[0].Feedback != "nice" || ideas[0].Author == nil || ideas[0].Author.Username != "gina" {
		t.Fatalf("unexpected investor view: %+v", ideas)
	}
}

func TestInterestRules(t *testing.T) {
	api, srv := newTestAPI(t)
	gen := api.register("gina", market.RoleIdeaGenerator)
	inv := api.register("ivan", market.RoleInvestor)
	other := api.register("olga", market.RoleInvestor)

	idea, err := srv.Store().CreateIdea(gen.User.ID, market.NewIdea{Title: "t", Description: "d"})
	if err != nil {
		t.Fatalf("create idea: %v", err)
	}

	resp := api.do(http.MethodPost, "/api/interest", inv.Token, map[string]int64{"ideaId": idea.ID})
	api.expect(resp, http.StatusBadRequest)
	resp.Body.Close()

	if _, err := srv.Store().Moderate(idea.ID, market.IdeaApproved, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	resp = api.do(http.MethodPost, "/api/interest", gen.Token, map[string]int64{"ideaId": idea.ID})
	api.expect(resp, http.StatusForbidden)
	resp.Body.Close()

	resp = api.do(http.MethodPost, "/api/interest", inv.Token, map[string]int64{"ideaId": idea.ID})
	api.expect(resp, http.StatusCreated)
	in := decode[market.Interest](t, resp)

	resp = api.do(http.MethodPost, "/api/interest", inv.Token, map[string]int64{"ideaId": idea.ID})
	api.expect(resp, http.StatusConflict)
	if msg := decode[map[string]string](t, resp)["error"]; msg != "interest already expressed" {
		t.Fatalf("unexpected conflict message %q", msg)
	}

	resp = api.do(http.MethodGet, "/api/interest/my-interests", other.Token, nil)
	api.expect(resp, http.StatusOK)
	if mine := decode[map[string][]market.Interest](t, resp)["interests"]; len(mine) != 0 {
		t.Fatalf("other investor sees foreign interests as own: %+v", mine)
	}
	resp = api.do(http.MethodGet, "/api/interest", other.Token, nil)
	api.expect(resp, http.StatusOK)
	if all := decode[[]market.Interest](t, resp); len(all) != 1 || all[0].Idea == nil {
		t.Fatalf("unexpected interest listing: %+v", all)
	}

	rogue := api.register("rex", market.RoleIdeaGenerator)
	resp = api.do(http.MethodPut, "/api/interest/"+itoa(in.ID), rogue.Token, map[string]string{"status": "accepted"})
	api.expect(resp, http.StatusForbidden)
	resp.Body.Close()

	resp = api.do(http.MethodPut, "/api/interest/"+itoa(in.ID), gen.Token, map[string]string{"status": "accepted"})
	api.expect(resp, http.StatusOK)
	reviewed := decode[map[string]market.Interest](t, resp)["interest"]
	if reviewed.Status != market.InterestAccepted {
		t.Fatalf("unexpected status %s", reviewed.Status)
	}
	resp = api.do(http.MethodPut, "/api/interest/"+itoa(in.ID), gen.Token, map[string]string{"status": "rejected"})
	api.expect(resp, http.StatusConflict)
	resp.Body.Close()

	resp = api.do(http.MethodDelete, "/api/interest/"+itoa(in.ID), other.Token, nil)
	api.expect(resp, http.StatusForbidden)
	resp.Body.Close()
	resp = api.do(http.MethodDelete, "/api/interest/"+itoa(in.ID), inv.Token, nil)
	api.expect(resp, http.StatusOK)
	resp.Body.Close()
}

func TestCommentOwnership(t *testing.T) {
	api, srv := newTestAPI(t)
	gen := api.register("gina", market.RoleIdeaGenerator)
	inv := api.register("ivan", market.RoleInvestor)
	idea, _ := srv.Store().CreateIdea(gen.User.ID, market.NewIdea{Title: "t", Description: "d"})
	_, _ = srv.Store().Moderate(idea.ID, market.IdeaApproved, "")

	resp := api.do(http.MethodPost, "/api/comment", inv.Token, map[string]any{"ideaId": idea.ID, "content": "   "})
	api.expect(resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = api.do(http.MethodPost, "/api/comment", inv.Token, map[string]any{"ideaId": idea.ID, "content": " hello "})
	api.expect(resp, http.StatusCreated)
	c := decode[map[string]market.Comment](t, resp)["comment"]
	if c.Content != "hello" || c.User.Username != "ivan" || c.AuthorRole != market.RoleInvestor {
		t.Fatalf("unexpected comment: %+v", c)
	}

	resp = api.do(http.MethodPut, "/api/comment/"+itoa(c.ID), gen.Token, map[string]string{"content": "hijack"})
	api.expect(resp, http.StatusForbidden)
	resp.Body.Close()
	resp = api.do(http.MethodDelete, "/api/comment/"+itoa(c.ID), gen.Token, nil)
	api.expect(resp, http.StatusForbidden)
	resp.Body.Close()

	resp = api.do(http.MethodPut, "/api/comment/"+itoa(c.ID), inv.Token, map[string]string{"content": "edited"})
	api.expect(resp, http.StatusOK)
	resp.Body.Close()

	resp = api.do(http.MethodGet, "/api/comment/idea/"+itoa(idea.ID), gen.Token, nil)
	api.expect(resp, http.StatusOK)
	list := decode[[]market.Comment](t, resp)
	if len(list) != 1 || list[0].Content != "edited" {
		t.Fatalf("unexpected comments: %+v", list)
	}

	resp = api.do(http.MethodDelete, "/api/comment/"+itoa(c.ID), inv.Token, nil)
	api.expect(resp, http.StatusNoContent)
	resp.Body.Close()
}

func TestAdminDeleteUserCascades(t *testing.T) {
	api, srv := newTestAPI(t)
	gen := api.register("gina", market.RoleIdeaGenerator)
	inv := api.register("ivan", market.RoleInvestor)
	admin := api.login("admin@test.local", "admin-pw")
	idea, _ := srv.Store().CreateIdea(gen.User.ID, market.NewIdea{Title: "t", Description: "d"})
	_, _ = srv.Store().Moderate(idea.ID, market.IdeaApproved, "")
	if _, err := srv.Store().CreateInterest(idea.ID, inv.User.ID); err != nil {
		t.Fatalf("interest: %v", err)
	}

	resp := api.do(http.MethodGet, "/api/admin/stats", admin, nil)
	api.expect(resp, http.StatusOK)
	before := decode[map[string]market.Stats](t, resp)["stats"]
	if before.Ideas.Approved != 1 || before.Users.Total != 3 || before.Engagement.TotalInterests != 1 {
		t.Fatalf("unexpected stats: %+v", before)
	}

	resp = api.do(http.MethodDelete, "/api/admin/users/"+itoa(gen.User.ID), admin, nil)
	api.expect(resp, http.StatusOK)
	resp.Body.Close()

	after := srv.Store().Stats()
	if after.Ideas.Total != 0 || after.Engagement.TotalInterests != 0 || after.Users.Total != 2 {
		t.Fatalf("cascade incomplete: %+v", after)
	}

	resp = api.do(http.MethodGet, "/api/auth/me", gen.Token, nil)
	api.expect(resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = api.do(http.MethodDelete, "/api/admin/users/"+itoa(gen.User.ID), admin, nil)
	api.expect(resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestErrorEnvelopeAndRequestID(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.do(http.MethodGet, "/api/nope", "", nil)
	api.expect(resp, http.StatusNotFound)
	rid := resp.Header.Get("X-Request-ID")
	body := decode[map[string]string](t, resp)
	if rid == "" || body["request_id"] != rid {
		t.Fatalf("request id not echoed: header=%q body=%v", rid, body)
	}

	req, _ := http.NewRequest(http.MethodGet, api.baseURL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "caller-id" {
		t.Fatalf("caller request id replaced: %q", got)
	}

	resp = api.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "a", "password": "b", "extra": 1})
	api.expect(resp, http.StatusBadRequest)
	if msg := decode[map[string]string](t, resp)["error"]; !strings.Contains(msg, "unknown field") {
		t.Fatalf("unexpected decode error %q", msg)
	}
}

func TestRateLimit(t *testing.T) {
	srv, err := New(Config{Secret: "s", RatePerSec: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	h := srv.Handler()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, err := New(Config{Secret: "s"})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/idea", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
