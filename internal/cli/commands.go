package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"ideabridge.org/internal/board"
	"ideabridge.org/internal/market"
	"ideabridge.org/internal/session"
)

type command struct {
	usage   string
	help    string
	minArgs int
	// route is the page the command renders; protected pages need a session.
	route func(s *session.Session, args []string) string
	run   func(ctx context.Context, a *App, args []string) error
}

func page(path string) func(*session.Session, []string) string {
	return func(*session.Session, []string) string { return path }
}

func dashboard(s *session.Session, _ []string) string {
	u, _ := s.User()
	return session.DashboardRoute(u.Role)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":           {usage: "<email> <password>", help: "log in and remember the session", minArgs: 2, run: runLogin},
		"signup":          {usage: "<username> <email> <password> <idea-generator|investor>", help: "create an account", minArgs: 4, run: runSignup},
		"logout":          {help: "forget the saved session", run: runLogout},
		"whoami":          {help: "show the logged-in profile", route: dashboard, run: runWhoami},
		"ideas":           {help: "list approved ideas with your interest status", route: page("/investor/dashboard"), run: runIdeas},
		"idea":            {usage: "<id>", help: "show one idea with its comments", minArgs: 1, route: ideaPage, run: runIdea},
		"interest":        {usage: "<ideaId>", help: "express interest in an idea", minArgs: 1, route: page("/investor/dashboard"), run: runInterest},
		"comments":        {usage: "<ideaId>", help: "list comments on an idea", minArgs: 1, route: ideaPage, run: runComments},
		"comment":         {usage: "add <ideaId> <text> | edit <ideaId> <commentId> <text> | delete <ideaId> <commentId>", help: "manage your comments", minArgs: 2, route: commentPage, run: runComment},
		"submit":          {usage: "<title> <description> [problem] [solution]", help: "submit an idea for review", minArgs: 2, route: page("/generator/dashboard"), run: runSubmit},
		"my-ideas":        {help: "list your ideas with a status summary", route: page("/generator/dashboard"), run: runMyIdeas},
		"my-interests":    {usage: "[-status s] [-q text]", help: "list ideas you expressed interest in", route: page("/my-interests"), run: runMyInterests},
		"remove-interest": {usage: "<interestId>", help: "withdraw one of your interests", minArgs: 1, route: page("/my-interests"), run: runRemoveInterest},
		"expressions":     {help: "list interests in your ideas", route: page("/expressions"), run: runExpressions},
		"review":          {usage: "<interestId> accept|reject", help: "accept or reject an interest", minArgs: 2, route: page("/expressions"), run: runReview},
		"admin":           {usage: "stats|pending|users|approve <id> [feedback]|reject <id> [feedback]|delete-idea <id>|delete-user <id>", help: "moderation tools", minArgs: 1, route: page("/admin/dashboard"), run: runAdmin},
	}
}

func writeHelp(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %s %s\n      %s\n", name, c.usage, c.help)
	}
}

func ideaPage(_ *session.Session, args []string) string { return "/idea/" + args[0] }

func commentPage(_ *session.Session, args []string) string { return "/idea/" + args[1] }

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", market.ErrInvalidInput, what, raw)
	}
	return id, nil
}

// viewer returns the session user and checks the role when one is given.
func (a *App) viewer(roles ...market.Role) (market.User, error) {
	u, err := a.sess.Viewer()
	if err != nil {
		return market.User{}, err
	}
	if len(roles) == 0 {
		return u, nil
	}
	for _, r := range roles {
		if u.Role == r {
			return u, nil
		}
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return market.User{}, fmt.Errorf("this command is for %s accounts, you are logged in as %s", strings.Join(names, " or "), u.Role)
}

// Auth

func runLogin(ctx context.Context, a *App, args []string) error {
	res, err := a.api.Login(ctx, market.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	return a.begin(ctx, res)
}

func runSignup(ctx context.Context, a *App, args []string) error {
	role := market.Role(strings.ToLower(strings.TrimSpace(args[3])))
	if role != market.RoleIdeaGenerator && role != market.RoleInvestor {
		return fmt.Errorf("%w: role must be idea-generator or investor", market.ErrInvalidInput)
	}
	res, err := a.api.Register(ctx, market.Registration{Username: args[0], Email: args[1], Password: args[2], Role: role})
	if err != nil {
		return err
	}
	return a.begin(ctx, res)
}

func (a *App) begin(ctx context.Context, res market.AuthResult) error {
	if err := a.sess.Begin(ctx, res); err != nil {
		return err
	}
	u, _ := a.sess.User()
	fmt.Fprintf(a.out, "Logged in as %s (%s). Dashboard: %s\n", u.Username, u.Role, session.DashboardRoute(u.Role))
	return nil
}

func runLogout(ctx context.Context, a *App, _ []string) error {
	if err := a.sess.End(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func runWhoami(ctx context.Context, a *App, _ []string) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	if err := a.sess.Refresh(ctx, u); err != nil {
		return err
	}
	if a.dump(u) {
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> %s, id %d\n", u.Username, u.Email, u.Role, u.ID)
	return nil
}

// Investor

func runIdeas(ctx context.Context, a *App, _ []string) error {
	u, err := a.viewer(market.RoleInvestor)
	if err != nil {
		return err
	}
	b := board.NewInvestor(a.api, u)
	if err := b.Load(ctx); err != nil {
		return err
	}
	a.warn(b.LoadWarning())
	ideas := b.Ideas()
	if a.dump(ideas) {
		return nil
	}
	renderEnriched(a.out, ideas)
	return nil
}

func runInterest(ctx context.Context, a *App, args []string) error {
	id, err := parseID(args[0], "idea id")
	if err != nil {
		return err
	}
	u, err := a.viewer(market.RoleInvestor)
	if err != nil {
		return err
	}
	b := board.NewInvestor(a.api, u)
	if err := b.Load(ctx); err != nil {
		return err
	}
	if err := b.ExpressInterest(ctx, id); err != nil {
		return err
	}
	idea, _ := b.Idea(id)
	fmt.Fprintf(a.out, "Interest expressed in %q (%d interested).\n", idea.Title, idea.InterestCount)
	return nil
}

func runMyInterests(ctx context.Context, a *App, args []string) error {
	fs := flag.NewFlagSet("my-interests", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	status := fs.String("status", "", "Idea status: pending, approved or rejected")
	query := fs.String("q", "", "Text to match in title or description")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: my-interests: %v", errUsage, err)
	}
	st, err := market.ParseIdeaStatus(*status)
	if err != nil {
		return err
	}
	if _, err := a.viewer(market.RoleInvestor); err != nil {
		return err
	}
	m := board.NewMyInterests(a.api)
	if err := m.Load(ctx); err != nil {
		return err
	}
	list := m.Interests(board.Filter{IdeaStatus: st, Query: *query})
	if a.dump(list) {
		return nil
	}
	renderInterests(a.out, list)
	return nil
}

func runRemoveInterest(ctx context.Context, a *App, args []string) error {
	id, err := parseID(args[0], "interest id")
	if err != nil {
		return err
	}
	if _, err := a.viewer(market.RoleInvestor); err != nil {
		return err
	}
	m := board.NewMyInterests(a.api)
	if err := m.Load(ctx); err != nil {
		return err
	}
	if err := m.Remove(ctx, id, a.confirm); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Interest removed.")
	return nil
}

// Ideas and comments

func runIdea(ctx context.Context, a *App, args []string) error {
	id, err := parseID(args[0], "idea id")
	if err != nil {
		return err
	}
	u, err := a.viewer()
	if err != nil {
		return err
	}
	d := board.NewIdeaDetail(a.api, id, u)
	if err := d.Load(ctx); err != nil {
		return err
	}
	a.warn(d.LoadWarning())
	idea, _ := d.Idea()
	if a.dump(idea) {
		return nil
	}
	renderDetail(a.out, idea)
	renderComments(a.out, d.Thread())
	return nil
}

func runComments(ctx context.Context, a *App, args []string) error {
	id, err := parseID(args[0], "idea id")
	if err != nil {
		return err
	}
	u, err := a.viewer()
	if err != nil {
		return err
	}
	th := board.NewThread(a.api, id, u)
	if err := th.Load(ctx); err != nil {
		return err
	}
	if a.dump(th.Comments()) {
		return nil
	}
	renderComments(a.out, th)
	return nil
}

func runComment(ctx context.Context, a *App, args []string) error {
	sub, args := args[0], args[1:]
	need := map[string]int{"add": 2, "edit": 3, "delete": 2}
	n, ok := need[sub]
	if !ok || len(args) < n {
		return fmt.Errorf("%w: comment %s", errUsage, commands["comment"].usage)
	}
	ideaID, err := parseID(args[0], "idea id")
	if err != nil {
		return err
	}
	u, err := a.viewer()
	if err != nil {
		return err
	}
	th := board.NewThread(a.api, ideaID, u)

	if sub == "add" {
		c, err := th.Add(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Comment %d added.\n", c.ID)
		return nil
	}

	commentID, err := parseID(args[1], "comment id")
	if err != nil {
		return err
	}
	if err := th.Load(ctx); err != nil {
		return err
	}
	if sub == "edit" {
		c, err := th.Edit(ctx, commentID, strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Comment %d updated.\n", c.ID)
		return nil
	}
	if err := th.Delete(ctx, commentID, a.confirm); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Comment %d deleted.\n", commentID)
	return nil
}

// Idea generator

func runSubmit(ctx context.Context, a *App, args []string) error {
	u, err := a.viewer(market.RoleIdeaGenerator)
	if err != nil {
		return err
	}
	in := market.NewIdea{Title: args[0], Description: args[1]}
	if len(args) > 2 {
		in.ProblemSolved = args[2]
	}
	if len(args) > 3 {
		in.SolutionProposed = strings.Join(args[3:], " ")
	}
	g := board.NewGenerator(a.api, u)
	idea, err := g.Submit(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Idea %d submitted, status %s.\n", idea.ID, idea.Status)
	return nil
}

func runMyIdeas(ctx context.Context, a *App, _ []string) error {
	u, err := a.viewer(market.RoleIdeaGenerator)
	if err != nil {
		return err
	}
	g := board.NewGenerator(a.api, u)
	if err := g.Load(ctx); err != nil {
		return err
	}
	if a.dump(struct {
		Summary board.Summary
		Ideas   []market.Idea
	}{g.Summary(), g.Ideas()}) {
		return nil
	}
	renderSummary(a.out, g.Summary())
	renderIdeas(a.out, g.Ideas())
	return nil
}

func runExpressions(ctx context.Context, a *App, _ []string) error {
	if _, err := a.viewer(market.RoleIdeaGenerator, market.RoleAdmin); err != nil {
		return err
	}
	e := board.NewExpressions(a.api)
	if err := e.Load(ctx); err != nil {
		return err
	}
	if a.dump(e.Interests()) {
		return nil
	}
	renderInterests(a.out, e.Interests())
	return nil
}

func runReview(ctx context.Context, a *App, args []string) error {
	id, err := parseID(args[0], "interest id")
	if err != nil {
		return err
	}
	if _, err := a.viewer(market.RoleIdeaGenerator, market.RoleAdmin); err != nil {
		return err
	}
	e := board.NewExpressions(a.api)
	if err := e.Load(ctx); err != nil {
		return err
	}
	if err := e.Review(ctx, id, args[1]); err != nil {
		return err
	}
	for _, in := range e.Interests() {
		if in.ID == id {
			fmt.Fprintf(a.out, "Interest %d is now %s.\n", id, in.Status)
			return nil
		}
	}
	fmt.Fprintf(a.out, "Interest %d reviewed.\n", id)
	return nil
}

// Admin

func runAdmin(ctx context.Context, a *App, args []string) error {
	if _, err := a.viewer(market.RoleAdmin); err != nil {
		return err
	}
	sub, args := args[0], args[1:]
	b := board.NewAdmin(a.api)
	if err := b.Load(ctx); err != nil {
		return err
	}

	switch sub {
	case "stats":
		if !a.dump(b.Stats()) {
			renderStats(a.out, b.Stats())
		}
		return nil
	case "pending":
		if !a.dump(b.Pending()) {
			renderIdeas(a.out, b.Pending())
		}
		return nil
	case "users":
		if !a.dump(b.Users()) {
			renderUsers(a.out, b.Users())
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("%w: admin %s", errUsage, commands["admin"].usage)
	}
	id, err := parseID(args[0], "id")
	if err != nil {
		return err
	}
	feedback := strings.Join(args[1:], " ")
	switch sub {
	case "approve":
		err = b.Approve(ctx, id, feedback)
	case "reject":
		err = b.Reject(ctx, id, feedback)
	case "delete-idea":
		err = b.DeleteIdea(ctx, id, a.confirm)
	case "delete-user":
		err = b.DeleteUser(ctx, id, a.confirm)
	default:
		return fmt.Errorf("%w: admin %s", errUsage, commands["admin"].usage)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Done: %s %d.\n", sub, id)
	renderStats(a.out, b.Stats())
	return nil
}

func (a *App) warn(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(a.out, "warning: %v\n", err)
	}
}
