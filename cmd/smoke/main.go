package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ideabridge.org/internal/apiclient"
	"ideabridge.org/internal/board"
	"ideabridge.org/internal/market"
)

func main() {
	var (
		baseURL    = flag.String("base-url", "http://localhost:8080/api", "API base URL")
		adminEmail = flag.String("admin-email", "admin@ideabridge.local", "Admin account email")
		adminPass  = flag.String("admin-password", "admin123", "Admin account password")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	anon := mustClient(*baseURL, "")
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]

	gen, genAPI := signup(ctx, anon, *baseURL, "smoke-gen-"+suffix, market.RoleIdeaGenerator)
	inv, invAPI := signup(ctx, anon, *baseURL, "smoke-inv-"+suffix, market.RoleInvestor)

	g := board.NewGenerator(genAPI, gen)
	idea, err := g.Submit(ctx, market.NewIdea{Title: "Smoke idea " + suffix, Description: "created by the smoke test"})
	if err != nil {
		log.Fatalf("submit idea: %v", err)
	}

	adminRes, err := anon.Login(ctx, market.Credentials{Email: *adminEmail, Password: *adminPass})
	if err != nil {
		log.Fatalf("admin login: %v", err)
	}
	admin := board.NewAdmin(mustClient(*baseURL, adminRes.Token))
	if err := admin.Load(ctx); err != nil {
		log.Fatalf("admin load: %v", err)
	}
	approvedBefore := admin.Stats().Ideas.Approved
	if err := admin.Approve(ctx, idea.ID, "smoke"); err != nil {
		log.Fatalf("approve: %v", err)
	}
	if got := admin.Stats().Ideas.Approved; got != approvedBefore+1 {
		log.Fatalf("approved count %d, want %d", got, approvedBefore+1)
	}

	b := board.NewInvestor(invAPI, inv)
	if err := b.Load(ctx); err != nil {
		log.Fatalf("investor load: %v", err)
	}
	if err := b.ExpressInterest(ctx, idea.ID); err != nil {
		log.Fatalf("express interest: %v", err)
	}
	if err := b.ExpressInterest(ctx, idea.ID); !errors.Is(err, board.ErrAlreadyInterested) {
		log.Fatalf("duplicate guard: got %v", err)
	}

	th := board.NewThread(invAPI, idea.ID, inv)
	c, err := th.Add(ctx, "smoke comment")
	if err != nil {
		log.Fatalf("comment: %v", err)
	}
	if err := th.Delete(ctx, c.ID, board.AlwaysConfirm); err != nil {
		log.Fatalf("delete comment: %v", err)
	}

	for _, id := range []int64{gen.ID, inv.ID} {
		if err := admin.DeleteUser(ctx, id, board.AlwaysConfirm); err != nil {
			log.Fatalf("cleanup user %d: %v", id, err)
		}
	}

	fmt.Printf("✅ ideabridge smoke test passed: idea=%d generator=%d investor=%d\n", idea.ID, gen.ID, inv.ID)
}

func mustClient(baseURL, token string) *apiclient.Client {
	c, err := apiclient.New(baseURL, apiclient.WithTokenSource(apiclient.StaticToken(token)), apiclient.WithTimeout(5*time.Second))
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	return c
}

func signup(ctx context.Context, anon *apiclient.Client, baseURL, name string, role market.Role) (market.User, *apiclient.Client) {
	res, err := anon.Register(ctx, market.Registration{Username: name, Email: name + "@smoke.local", Password: uuid.NewString(), Role: role})
	if err != nil {
		log.Fatalf("register %s: %v", name, err)
	}
	return res.User, mustClient(baseURL, res.Token)
}
