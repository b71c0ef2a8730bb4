package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"ideabridge.org/internal/config"
	"ideabridge.org/internal/devserver"
	"ideabridge.org/internal/market"
	"ideabridge.org/internal/session"
)

type harness struct {
	t     *testing.T
	srv   *devserver.Server
	ts    *httptest.Server
	store session.Store
	out   bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv, err := devserver.New(devserver.Config{
		BasePath:      "/api",
		Secret:        "cli-secret",
		TokenTTL:      time.Hour,
		AdminEmail:    "admin@test.local",
		AdminPassword: "admin-pw",
	})
	if err != nil {
		t.Fatalf("devserver: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{t: t, srv: srv, ts: ts, store: session.NewMemoryStore()}
}

// app builds a fresh App over the shared session store, like a new process would.
func (h *harness) app(stdin string, yes bool) *App {
	h.t.Helper()
	cfg := &config.Config{}
	cfg.API.BaseURL = h.ts.URL + "/api"
	cfg.API.Timeout = 5 * time.Second
	cfg.Log.Level = "error"
	a, err := New(context.Background(), cfg, Options{
		Stdout:     &h.out,
		Stdin:      strings.NewReader(stdin),
		HTTPClient: h.ts.Client(),
		Store:      h.store,
		Yes:        yes,
	})
	if err != nil {
		h.t.Fatalf("new app: %v", err)
	}
	return a
}

func (h *harness) run(args ...string) string {
	h.t.Helper()
	h.out.Reset()
	if err := h.app("", true).Execute(context.Background(), args); err != nil {
		h.t.Fatalf("%v: %v", args, err)
	}
	return h.out.String()
}

func TestProtectedCommandsNeedSession(t *testing.T) {
	h := newHarness(t)
	err := h.app("", false).Execute(context.Background(), []string{"ideas"})
	if !errors.Is(err, session.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if err := h.app("", false).Execute(context.Background(), []string{"bogus"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := h.app("", false).Execute(context.Background(), []string{"login", "only-email"}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestInvestorJourney(t *testing.T) {
	h := newHarness(t)
	gen, err := h.srv.Store().Register(market.Registration{Username: "gina", Email: "gina@test.local", Password: "pw", Role: market.RoleIdeaGenerator})
	if err != nil {
		t.Fatalf("seed generator: %v", err)
	}
	idea, _ := h.srv.Store().CreateIdea(gen.ID, market.NewIdea{Title: "Solar roof", Description: "cheap panels"})
	_, _ = h.srv.Store().Moderate(idea.ID, market.IdeaApproved, "")
	ideaID := strconv.FormatInt(idea.ID, 10)

	out := h.run("signup", "ivan", "ivan@test.local", "pw", "investor")
	if !strings.Contains(out, "/investor/dashboard") {
		t.Fatalf("unexpected signup output: %q", out)
	}
	if out := h.run("whoami"); !strings.Contains(out, "ivan <ivan@test.local> investor") {
		t.Fatalf("unexpected whoami output: %q", out)
	}

	out = h.run("ideas")
	if !strings.Contains(out, "Solar roof") || !strings.Contains(out, "YOUR INTEREST") {
		t.Fatalf("unexpected ideas output: %q", out)
	}

	if out := h.run("interest", ideaID); !strings.Contains(out, "1 interested") {
		t.Fatalf("unexpected interest output: %q", out)
	}
	err = h.app("", true).Execute(context.Background(), []string{"interest", ideaID})
	if err == nil || !strings.Contains(err.Error(), "interest already expressed") {
		t.Fatalf("expected duplicate interest error, got %v", err)
	}

	h.run("comment", "add", ideaID, "how", "much?")
	out = h.run("idea", ideaID)
	if !strings.Contains(out, "Comments (1)") || !strings.Contains(out, "how much?") || !strings.Contains(out, "(you)") {
		t.Fatalf("unexpected idea output: %q", out)
	}

	if out := h.run("my-interests", "-q", "solar"); !strings.Contains(out, "Solar roof") {
		t.Fatalf("unexpected my-interests output: %q", out)
	}

	mine := h.srv.Store().Interests(nil)
	if len(mine) != 1 {
		t.Fatalf("unexpected interests: %+v", mine)
	}
	interestID := strconv.FormatInt(mine[0].ID, 10)

	h.out.Reset()
	err = h.app("n\n", false).Execute(context.Background(), []string{"remove-interest", interestID})
	if err == nil || !strings.Contains(h.out.String(), "Remove this idea from your interests? [y/N]") {
		t.Fatalf("expected a declined prompt, got %v / %q", err, h.out.String())
	}
	h.out.Reset()
	if err := h.app("y\n", false).Execute(context.Background(), []string{"remove-interest", interestID}); err != nil {
		t.Fatalf("remove interest: %v", err)
	}
	if len(h.srv.Store().Interests(nil)) != 0 {
		t.Fatal("interest not removed")
	}

	h.run("logout")
	if err := h.app("", false).Execute(context.Background(), []string{"ideas"}); !errors.Is(err, session.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestGeneratorAndAdminJourney(t *testing.T) {
	h := newHarness(t)
	h.run("signup", "gina", "gina@test.local", "pw", "idea-generator")
	out := h.run("submit", "Wind farm", "Offshore turbines", "energy costs")
	if !strings.Contains(out, "status pending") {
		t.Fatalf("unexpected submit output: %q", out)
	}
	if err := h.app("", true).Execute(context.Background(), []string{"ideas"}); err == nil || !strings.Contains(err.Error(), "investor accounts") {
		t.Fatalf("expected role error, got %v", err)
	}
	if out := h.run("my-ideas"); !strings.Contains(out, "1 ideas: 1 pending") {
		t.Fatalf("unexpected my-ideas output: %q", out)
	}

	ideas := h.srv.Store().Ideas(nil)
	ideaID := strconv.FormatInt(ideas[0].ID, 10)

	h.run("login", "admin@test.local", "admin-pw")
	if out := h.run("admin", "pending"); !strings.Contains(out, "Wind farm") {
		t.Fatalf("unexpected pending output: %q", out)
	}
	out = h.run("admin", "approve", ideaID, "great", "idea")
	if !strings.Contains(out, "Ideas: 1 total, 0 pending, 1 approved") {
		t.Fatalf("unexpected approve output: %q", out)
	}
	if got, _ := h.srv.Store().Idea(ideas[0].ID); got.Feedback != "great idea" {
		t.Fatalf("feedback not stored: %+v", got)
	}

	h.run("signup", "ivan", "ivan@test.local", "pw", "investor")
	h.run("interest", ideaID)

	h.run("login", "gina@test.local", "pw")
	if out := h.run("expressions"); !strings.Contains(out, "pending") {
		t.Fatalf("unexpected expressions output: %q", out)
	}
	interestID := strconv.FormatInt(h.srv.Store().Interests(nil)[0].ID, 10)
	if out := h.run("review", interestID, "accept"); !strings.Contains(out, "is now accepted") {
		t.Fatalf("unexpected review output: %q", out)
	}

	h.run("login", "admin@test.local", "admin-pw")
	users := h.srv.Store().Users()
	var genID int64
	for _, u := range users {
		if u.Username == "gina" {
			genID = u.ID
		}
	}
	out = h.run("admin", "delete-user", strconv.FormatInt(genID, 10))
	if !strings.Contains(out, "Ideas: 0 total") {
		t.Fatalf("unexpected delete-user output: %q", out)
	}
}

func TestRawDump(t *testing.T) {
	h := newHarness(t)
	h.run("login", "admin@test.local", "admin-pw")
	h.out.Reset()
	a := h.app("", true)
	a.raw = true
	if err := a.Execute(context.Background(), []string{"admin", "stats"}); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(h.out.String(), "TotalInterests") {
		t.Fatalf("expected a struct dump, got %q", h.out.String())
	}
}
