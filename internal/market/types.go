package market

import (
	"strings"
	"time"
)

// Role identifies what a user can do on the marketplace.
type Role string

const (
	RoleIdeaGenerator Role = "idea-generator"
	RoleInvestor      Role = "investor"
	RoleAdmin         Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleIdeaGenerator, RoleInvestor, RoleAdmin:
		return true
	}
	return false
}

// IdeaStatus is the moderation state of an idea. Only an admin moves it.
type IdeaStatus string

const (
	IdeaPending  IdeaStatus = "pending"
	IdeaApproved IdeaStatus = "approved"
	IdeaRejected IdeaStatus = "rejected"
)

// InterestStatus is the review state of one investor's interest.
type InterestStatus string

const (
	InterestPending  InterestStatus = "pending"
	InterestAccepted InterestStatus = "accepted"
	InterestRejected InterestStatus = "rejected"
)

// Author carries the display-only fields of an idea's owner.
type Author struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Idea is a submitted concept. interestCount and commentCount are aggregates
// computed by whoever produced the copy.
type Idea struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ProblemSolved    string     `json:"problemSolved,omitempty"`
	SolutionProposed string     `json:"solutionProposed,omitempty"`
	Status           IdeaStatus `json:"status"`
	AuthorID         int64      `json:"authorId,omitempty"`
	Author           *Author    `json:"author,omitempty"`
	Feedback         string     `json:"feedback,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	InterestCount    int        `json:"interestCount"`
	CommentCount     int        `json:"commentCount,omitempty"`
	Comments         []Comment  `json:"comments,omitempty"`
}

// OwnerID returns the id of the idea's author, preferring the flat field.
func (i Idea) OwnerID() int64 {
	if i.AuthorID != 0 {
		return i.AuthorID
	}
	if i.Author != nil {
		return i.Author.ID
	}
	return 0
}

// NewIdea is the payload for submitting an idea.
type NewIdea struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	ProblemSolved    string `json:"problemSolved,omitempty"`
	SolutionProposed string `json:"solutionProposed,omitempty"`
}

// Normalize trims every field and reports ErrInvalidInput when a required one is empty.
func (n NewIdea) Normalize() (NewIdea, error) {
	out := NewIdea{
		Title:            strings.TrimSpace(n.Title),
		Description:      strings.TrimSpace(n.Description),
		ProblemSolved:    strings.TrimSpace(n.ProblemSolved),
		SolutionProposed: strings.TrimSpace(n.SolutionProposed),
	}
	if out.Title == "" {
		return NewIdea{}, invalid("title is required")
	}
	if out.Description == "" {
		return NewIdea{}, invalid("description is required")
	}
	return out, nil
}

// Interest is one investor's expressed interest in one idea. Older backends
// embed the idea instead of returning ideaId.
type Interest struct {
	ID         int64          `json:"id"`
	IdeaID     int64          `json:"ideaId"`
	InvestorID int64          `json:"investorId"`
	Status     InterestStatus `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	Idea       *Idea          `json:"idea,omitempty"`
}

// TargetIdeaID returns the referenced idea id.
func (i Interest) TargetIdeaID() int64 {
	if i.IdeaID != 0 {
		return i.IdeaID
	}
	if i.Idea != nil {
		return i.Idea.ID
	}
	return 0
}

// CommentUser is the author summary embedded in a comment.
type CommentUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Comment belongs to one idea and is mutable only by its owner.
type Comment struct {
	ID         int64       `json:"id"`
	IdeaID     int64       `json:"ideaId"`
	UserID     int64       `json:"userId"`
	Content    string      `json:"content"`
	AuthorRole Role        `json:"authorRole"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	User       CommentUser `json:"user"`
}

// OwnedBy reports whether userID may edit or delete the comment.
func (c Comment) OwnedBy(userID int64) bool {
	return userID != 0 && c.UserID == userID
}

// User is the profile returned by auth endpoints and the admin user list.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
	IdeaCount     int       `json:"ideaCount,omitempty"`
	InterestCount int       `json:"interestCount,omitempty"`
	Points        int       `json:"points,omitempty"`
}

// Stats is the admin aggregate view.
type Stats struct {
	Ideas struct {
		Total    int `json:"total"`
		Pending  int `json:"pending"`
		Approved int `json:"approved"`
		Rejected int `json:"rejected"`
	} `json:"ideas"`
	Users struct {
		Total          int `json:"total"`
		IdeaGenerators int `json:"ideaGenerators"`
		Investors      int `json:"investors"`
	} `json:"users"`
	Engagement struct {
		TotalInterests int `json:"totalInterests"`
		TotalComments  int `json:"totalComments"`
	} `json:"engagement"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the signup payload.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// AuthResult is what login and signup return.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
