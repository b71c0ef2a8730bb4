package devserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ideabridge.org/internal/auth"
	"ideabridge.org/internal/market"
)

var (
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
)

type userRecord struct {
	market.User
	passwordHash string
}

// Store is the in-memory marketplace state. All methods are safe for
// concurrent use and return copies.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	users     map[int64]*userRecord
	ideas     map[int64]*market.Idea
	interests map[int64]*market.Interest
	comments  map[int64]*market.Comment
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*userRecord),
		ideas:     make(map[int64]*market.Idea),
		interests: make(map[int64]*market.Interest),
		comments:  make(map[int64]*market.Comment),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func conflict(msg string) error  { return fmt.Errorf("%w: %s", ErrConflict, msg) }
func forbidden(msg string) error { return fmt.Errorf("%w: %s", ErrForbidden, msg) }
func invalid(msg string) error   { return fmt.Errorf("%w: %s", market.ErrInvalidInput, msg) }
func notFound(what string) error { return fmt.Errorf("%w: %s not found", market.ErrNotFound, what) }

// Users

// Register creates an idea generator or investor account.
func (s *Store) Register(reg market.Registration) (market.User, error) {
	if reg.Role == market.RoleAdmin {
		return market.User{}, invalid("role must be idea-generator or investor")
	}
	return s.createUser(reg)
}

// SeedAdmin creates the admin account unless the email is already taken.
func (s *Store) SeedAdmin(email, password string) (market.User, error) {
	u, err := s.createUser(market.Registration{Username: "admin", Email: email, Password: password, Role: market.RoleAdmin})
	if errors.Is(err, ErrConflict) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, rec := range s.users {
			if strings.EqualFold(rec.Email, email) {
				return rec.User, nil
			}
		}
	}
	return u, err
}

func (s *Store) createUser(reg market.Registration) (market.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	switch {
	case reg.Username == "":
		return market.User{}, invalid("username is required")
	case reg.Email == "" || !strings.Contains(reg.Email, "@"):
		return market.User{}, invalid("a valid email is required")
	case reg.Password == "":
		return market.User{}, invalid("password is required")
	case !reg.Role.Valid():
		return market.User{}, invalid("role must be idea-generator or investor")
	}
	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return market.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.users {
		if rec.Email == reg.Email {
			return market.User{}, conflict("email already registered")
		}
	}
	rec := &userRecord{
		User: market.User{
			ID:        s.nextID(),
			Username:  reg.Username,
			Email:     reg.Email,
			Role:      reg.Role,
			CreatedAt: s.now(),
		},
		passwordHash: hash,
	}
	s.users[rec.ID] = rec
	return rec.User, nil
}

// Authenticate checks credentials.
func (s *Store) Authenticate(email, password string) (market.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	var found *userRecord
	for _, rec := range s.users {
		if rec.Email == email {
			found = rec
			break
		}
	}
	s.mu.RUnlock()
	if found == nil {
		return market.User{}, auth.ErrBadCredentials
	}
	if err := auth.VerifyPassword(found.passwordHash, password); err != nil {
		return market.User{}, err
	}
	return found.User, nil
}

func (s *Store) User(id int64) (market.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return market.User{}, notFound("user")
	}
	return s.decorateUser(rec.User), nil
}

func (s *Store) Users() []market.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]market.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, s.decorateUser(rec.User))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) decorateUser(u market.User) market.User {
	u.IdeaCount, u.InterestCount = 0, 0
	for _, idea := range s.ideas {
		if idea.AuthorID == u.ID {
			u.IdeaCount++
		}
	}
	for _, in := range s.interests {
		if in.InvestorID == u.ID {
			u.InterestCount++
		}
	}
	return u
}

// DeleteUser removes the user together with their ideas, interests and comments.
func (s *Store) DeleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return notFound("user")
	}
	for ideaID, idea := range s.ideas {
		if idea.AuthorID == id {
			s.deleteIdeaLocked(ideaID)
		}
	}
	for inID, in := range s.interests {
		if in.InvestorID == id {
			delete(s.interests, inID)
		}
	}
	for cID, c := range s.comments {
		if c.UserID == id {
			delete(s.comments, cID)
		}
	}
	delete(s.users, id)
	return nil
}

// Ideas

func (s *Store) CreateIdea(authorID int64, in market.NewIdea) (market.Idea, error) {
	in, err := in.Normalize()
	if err != nil {
		return market.Idea{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[authorID]; !ok {
		return market.Idea{}, notFound("user")
	}
	idea := &market.Idea{
		ID:               s.nextID(),
		Title:            in.Title,
		Description:      in.Description,
		ProblemSolved:    in.ProblemSolved,
		SolutionProposed: in.SolutionProposed,
		Status:           market.IdeaPending,
		AuthorID:         authorID,
		CreatedAt:        s.now(),
	}
	s.ideas[idea.ID] = idea
	return s.decorateIdea(*idea), nil
}

func (s *Store) Idea(id int64) (market.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idea, ok := s.ideas[id]
	if !ok {
		return market.Idea{}, notFound("idea")
	}
	return s.decorateIdea(*idea), nil
}

// Ideas returns the ideas passing keep, newest first.
func (s *Store) Ideas(keep func(market.Idea) bool) []market.Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]market.Idea, 0, len(s.ideas))
	for _, idea := range s.ideas {
		if keep == nil || keep(*idea) {
			out = append(out, s.decorateIdea(*idea))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) decorateIdea(idea market.Idea) market.Idea {
	if author, ok := s.users[idea.AuthorID]; ok {
		idea.Author = &market.Author{ID: author.ID, Username: author.Username, Email: author.Email}
	}
	idea.InterestCount, idea.CommentCount = 0, 0
	for _, in := range s.interests {
		if in.IdeaID == idea.ID {
			idea.InterestCount++
		}
	}
	for _, c := range s.comments {
		if c.IdeaID == idea.ID {
			idea.CommentCount++
		}
	}
	idea.Comments = nil
	return idea
}

// Moderate moves a pending idea to approved or rejected.
func (s *Store) Moderate(id int64, to market.IdeaStatus, feedback string) (market.Idea, error) {
	if to != market.IdeaApproved && to != market.IdeaRejected {
		return market.Idea{}, invalid("status must be approved or rejected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idea, ok := s.ideas[id]
	if !ok {
		return market.Idea{}, notFound("idea")
	}
	if !idea.Status.CanModerate() {
		return market.Idea{}, fmt.Errorf("%w: idea is already %s", market.ErrInvalidTransition, idea.Status)
	}
	idea.Status = to
	idea.Feedback = strings.TrimSpace(feedback)
	return s.decorateIdea(*idea), nil
}

// DeleteIdea removes the idea with its interests and comments.
func (s *Store) DeleteIdea(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ideas[id]; !ok {
		return notFound("idea")
	}
	s.deleteIdeaLocked(id)
	return nil
}

func (s *Store) deleteIdeaLocked(id int64) {
	for inID, in := range s.interests {
		if in.IdeaID == id {
			delete(s.interests, inID)
		}
	}
	for cID, c := range s.comments {
		if c.IdeaID == id {
			delete(s.comments, cID)
		}
	}
	delete(s.ideas, id)
}

// Interests

// CreateInterest records one interest per investor and approved idea.
func (s *Store) CreateInterest(ideaID, investorID int64) (market.Interest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idea, ok := s.ideas[ideaID]
	if !ok {
		return market.Interest{}, notFound("idea")
	}
	if idea.Status != market.IdeaApproved {
		return market.Interest{}, invalid("idea is not open for interest")
	}
	for _, in := range s.interests {
		if in.IdeaID == ideaID && in.InvestorID == investorID {
			return market.Interest{}, conflict("interest already expressed")
		}
	}
	in := &market.Interest{
		ID:         s.nextID(),
		IdeaID:     ideaID,
		InvestorID: investorID,
		Status:     market.InterestPending,
		CreatedAt:  s.now(),
	}
	s.interests[in.ID] = in
	return s.decorateInterest(*in), nil
}

// Interests returns the interests passing keep, oldest first, each with its idea embedded.
func (s *Store) Interests(keep func(in market.Interest, idea market.Idea) bool) []market.Interest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]market.Interest, 0, len(s.interests))
	for _, in := range s.interests {
		idea, ok := s.ideas[in.IdeaID]
		if !ok {
			continue
		}
		if keep == nil || keep(*in, *idea) {
			out = append(out, s.decorateInterest(*in))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) decorateInterest(in market.Interest) market.Interest {
	if idea, ok := s.ideas[in.IdeaID]; ok {
		embedded := s.decorateIdea(*idea)
		in.Idea = &embedded
	}
	return in
}

// ReviewInterest lets the idea's owner (or an admin) accept or reject a pending interest.
func (s *Store) ReviewInterest(id int64, to market.InterestStatus, actor auth.Principal) (market.Interest, error) {
	if to != market.InterestAccepted && to != market.InterestRejected {
		return market.Interest{}, invalid("status must be accepted or rejected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.interests[id]
	if !ok {
		return market.Interest{}, notFound("interest")
	}
	idea := s.ideas[in.IdeaID]
	if !actor.Is(market.RoleAdmin) && (idea == nil || idea.AuthorID != actor.UserID) {
		return market.Interest{}, forbidden("only the idea owner can review interests")
	}
	if !in.Status.CanReview() {
		return market.Interest{}, fmt.Errorf("%w: interest is already %s", market.ErrInvalidTransition, in.Status)
	}
	in.Status = to
	return s.decorateInterest(*in), nil
}

// DeleteInterest lets the investor (or an admin) withdraw an interest.
func (s *Store) DeleteInterest(id int64, actor auth.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.interests[id]
	if !ok {
		return notFound("interest")
	}
	if !actor.Is(market.RoleAdmin) && in.InvestorID != actor.UserID {
		return forbidden("only the investor can remove this interest")
	}
	delete(s.interests, id)
	return nil
}

// Comments

// Comments returns an idea's comments, newest first.
func (s *Store) Comments(ideaID int64) ([]market.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.ideas[ideaID]; !ok {
		return nil, notFound("idea")
	}
	out := make([]market.Comment, 0)
	for _, c := range s.comments {
		if c.IdeaID == ideaID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) CreateComment(ideaID int64, author auth.Principal, raw string) (market.Comment, error) {
	content, err := market.CommentContent(raw)
	if err != nil {
		return market.Comment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ideas[ideaID]; !ok {
		return market.Comment{}, notFound("idea")
	}
	user, ok := s.users[author.UserID]
	if !ok {
		return market.Comment{}, notFound("user")
	}
	now := s.now()
	c := &market.Comment{
		ID:         s.nextID(),
		IdeaID:     ideaID,
		UserID:     user.ID,
		Content:    content,
		AuthorRole: user.Role,
		CreatedAt:  now,
		UpdatedAt:  now,
		User:       market.CommentUser{ID: user.ID, Username: user.Username, Role: user.Role},
	}
	s.comments[c.ID] = c
	return *c, nil
}

func (s *Store) UpdateComment(id int64, actor auth.Principal, raw string) (market.Comment, error) {
	content, err := market.CommentContent(raw)
	if err != nil {
		return market.Comment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return market.Comment{}, notFound("comment")
	}
	if !c.OwnedBy(actor.UserID) {
		return market.Comment{}, market.ErrNotOwner
	}
	c.Content = content
	c.UpdatedAt = s.now()
	return *c, nil
}

func (s *Store) DeleteComment(id int64, actor auth.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return notFound("comment")
	}
	if !c.OwnedBy(actor.UserID) {
		return market.ErrNotOwner
	}
	delete(s.comments, id)
	return nil
}

// Stats aggregates the whole marketplace.
func (s *Store) Stats() market.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st market.Stats
	for _, idea := range s.ideas {
		st.Ideas.Total++
		switch idea.Status {
		case market.IdeaPending:
			st.Ideas.Pending++
		case market.IdeaApproved:
			st.Ideas.Approved++
		case market.IdeaRejected:
			st.Ideas.Rejected++
		}
	}
	for _, u := range s.users {
		st.Users.Total++
		switch u.Role {
		case market.RoleIdeaGenerator:
			st.Users.IdeaGenerators++
		case market.RoleInvestor:
			st.Users.Investors++
		}
	}
	st.Engagement.TotalInterests = len(s.interests)
	st.Engagement.TotalComments = len(s.comments)
	return st
}
