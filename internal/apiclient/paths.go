package apiclient

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Paths holds the endpoint templates. ":id" is replaced with the entity id.
type Paths struct {
	Ideas          string
	Idea           string
	Interests      string
	MyInterests    string
	CreateInterest string
	Interest       string
	IdeaComments   string
	Comments       string
	Comment        string
	Login          string
	Register       string
	Me             string
	AdminStats     string
	AdminPending   string
	AdminIdea      string
	AdminApprove   string
	AdminReject    string
	AdminUsers     string
	AdminUser      string
}

// DefaultPaths is the canonical route set.
func DefaultPaths() Paths {
	return Paths{
		Ideas:          "/idea",
		Idea:           "/idea/:id",
		Interests:      "/interest",
		MyInterests:    "/interest/my-interests",
		CreateInterest: "/interest",
		Interest:       "/interest/:id",
		IdeaComments:   "/comment/idea/:id",
		Comments:       "/comment",
		Comment:        "/comment/:id",
		Login:          "/auth/login",
		Register:       "/auth/register",
		Me:             "/auth/me",
		AdminStats:     "/admin/stats",
		AdminPending:   "/admin/ideas/pending",
		AdminIdea:      "/admin/ideas/:id",
		AdminApprove:   "/admin/ideas/:id/approve",
		AdminReject:    "/admin/ideas/:id/reject",
		AdminUsers:     "/admin/users",
		AdminUser:      "/admin/users/:id",
	}
}

func (p *Paths) fields() map[string]*string {
	return map[string]*string{
		"ideas":           &p.Ideas,
		"idea":            &p.Idea,
		"interests":       &p.Interests,
		"my_interests":    &p.MyInterests,
		"create_interest": &p.CreateInterest,
		"interest":        &p.Interest,
		"idea_comments":   &p.IdeaComments,
		"comments":        &p.Comments,
		"comment":         &p.Comment,
		"login":           &p.Login,
		"register":        &p.Register,
		"me":              &p.Me,
		"admin_stats":     &p.AdminStats,
		"admin_pending":   &p.AdminPending,
		"admin_idea":      &p.AdminIdea,
		"admin_approve":   &p.AdminApprove,
		"admin_reject":    &p.AdminReject,
		"admin_users":     &p.AdminUsers,
		"admin_user":      &p.AdminUser,
	}
}

// Override returns a copy of p with the given keys (snake_case field names,
// as in api.paths.my_interests) replaced. Unknown keys are an error.
func (p Paths) Override(overrides map[string]string) (Paths, error) {
	out := p
	fields := out.fields()
	var unknown []string
	for k, v := range overrides {
		dst, ok := fields[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.HasPrefix(v, "/") {
			v = "/" + v
		}
		*dst = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return p, fmt.Errorf("unknown api path keys: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

func expand(tmpl string, id int64) string {
	return strings.Replace(tmpl, ":id", strconv.FormatInt(id, 10), 1)
}
