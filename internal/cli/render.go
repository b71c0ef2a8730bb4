package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ideabridge.org/internal/board"
	"ideabridge.org/internal/market"
)

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderEnriched(w io.Writer, ideas []market.EnrichedIdea) {
	if len(ideas) == 0 {
		fmt.Fprintln(w, "No ideas yet.")
		return
	}
	tw := table(w, "ID", "TITLE", "AUTHOR", "INTERESTED", "YOUR INTEREST")
	for _, idea := range ideas {
		yours := "-"
		if idea.InterestStatus != nil {
			yours = string(*idea.InterestStatus)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", idea.ID, truncate(idea.Title, 40), author(idea.Idea), idea.InterestCount, yours)
	}
	tw.Flush()
}

func renderIdeas(w io.Writer, ideas []market.Idea) {
	if len(ideas) == 0 {
		fmt.Fprintln(w, "No ideas.")
		return
	}
	tw := table(w, "ID", "TITLE", "AUTHOR", "STATUS", "INTERESTED", "CREATED")
	for _, idea := range ideas {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", idea.ID, truncate(idea.Title, 40), author(idea), idea.Status, idea.InterestCount, idea.CreatedAt.Format("2006-01-02"))
	}
	tw.Flush()
}

func author(idea market.Idea) string {
	if idea.Author != nil && idea.Author.Username != "" {
		return idea.Author.Username
	}
	return "-"
}

func renderDetail(w io.Writer, idea market.EnrichedIdea) {
	fmt.Fprintf(w, "#%d %s [%s]\n", idea.ID, idea.Title, idea.Status)
	fmt.Fprintf(w, "by %s, %d interested\n\n", author(idea.Idea), idea.InterestCount)
	fmt.Fprintln(w, idea.Description)
	if idea.ProblemSolved != "" {
		fmt.Fprintf(w, "\nProblem: %s\n", idea.ProblemSolved)
	}
	if idea.SolutionProposed != "" {
		fmt.Fprintf(w, "Solution: %s\n", idea.SolutionProposed)
	}
	if idea.Feedback != "" {
		fmt.Fprintf(w, "Feedback: %s\n", idea.Feedback)
	}
	if idea.InterestStatus != nil {
		fmt.Fprintf(w, "Your interest: %s\n", *idea.InterestStatus)
	}
	fmt.Fprintln(w)
}

func renderComments(w io.Writer, th *board.Thread) {
	comments := th.Comments()
	fmt.Fprintf(w, "Comments (%d)\n", th.Count())
	for _, c := range comments {
		mark := ""
		if th.CanModify(c) {
			mark = " (you)"
		}
		fmt.Fprintf(w, "  [%d] %s, %s%s, %s\n      %s\n", c.ID, c.User.Username, c.AuthorRole, mark, c.CreatedAt.Format("2006-01-02 15:04"), c.Content)
	}
}

func renderInterests(w io.Writer, list []market.Interest) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No interests.")
		return
	}
	tw := table(w, "ID", "IDEA", "TITLE", "IDEA STATUS", "STATUS", "SINCE")
	for _, in := range list {
		title, ideaStatus := "-", "-"
		if in.Idea != nil {
			title, ideaStatus = truncate(in.Idea.Title, 40), string(in.Idea.Status)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", in.ID, in.TargetIdeaID(), title, ideaStatus, in.Status, in.CreatedAt.Format("2006-01-02"))
	}
	tw.Flush()
}

func renderSummary(w io.Writer, s board.Summary) {
	fmt.Fprintf(w, "%d ideas: %d pending, %d approved, %d rejected; %d interests\n", s.Total, s.Pending, s.Approved, s.Rejected, s.Interests)
}

func renderStats(w io.Writer, s market.Stats) {
	fmt.Fprintf(w, "Ideas: %d total, %d pending, %d approved, %d rejected\n", s.Ideas.Total, s.Ideas.Pending, s.Ideas.Approved, s.Ideas.Rejected)
	fmt.Fprintf(w, "Users: %d total, %d idea generators, %d investors\n", s.Users.Total, s.Users.IdeaGenerators, s.Users.Investors)
	fmt.Fprintf(w, "Engagement: %d interests, %d comments\n", s.Engagement.TotalInterests, s.Engagement.TotalComments)
}

func renderUsers(w io.Writer, users []market.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users.")
		return
	}
	tw := table(w, "ID", "USERNAME", "EMAIL", "ROLE", "IDEAS", "INTERESTS")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n", u.ID, u.Username, u.Email, u.Role, u.IdeaCount, u.InterestCount)
	}
	tw.Flush()
}
