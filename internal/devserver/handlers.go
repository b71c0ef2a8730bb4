package devserver

import (
	"net/http"

	"go.uber.org/zap"

	"ideabridge.org/internal/audit"
	"ideabridge.org/internal/auth"
	"ideabridge.org/internal/market"
)

// Auth

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req market.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	s.issue(w, r, user, http.StatusOK, "auth.login")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req market.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.store.Register(req)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	s.issue(w, r, user, http.StatusCreated, "auth.register")
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, user market.User, code int, event string) {
	token, err := s.signer.Issue(user)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{UserID: user.ID, Role: user.Role, Username: user.Username})
	_ = audit.LogEvent(ctx, event, zap.String("email", user.Email))
	writeJSON(w, code, market.AuthResult{Token: token, User: user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.User(principal(r).UserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Ideas

// visibleIdea reports whether p may see idea outside the admin views.
func visibleIdea(p auth.Principal, idea market.Idea) bool {
	switch {
	case p.Is(market.RoleAdmin):
		return true
	case p.Is(market.RoleIdeaGenerator):
		return idea.AuthorID == p.UserID || idea.Status == market.IdeaApproved
	default:
		return idea.Status == market.IdeaApproved
	}
}

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	ideas := s.store.Ideas(func(idea market.Idea) bool {
		switch {
		case p.Is(market.RoleAdmin):
			return true
		case p.Is(market.RoleIdeaGenerator):
			return idea.AuthorID == p.UserID
		default:
			return idea.Status == market.IdeaApproved
		}
	})
	writeJSON(w, http.StatusOK, ideas)
}

func (s *Server) handleGetIdea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	idea, err := s.store.Idea(id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if !visibleIdea(principal(r), idea) {
		writeError(w, r, http.StatusNotFound, "idea not found")
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *Server) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	var req market.NewIdea
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	idea, err := s.store.CreateIdea(principal(r).UserID, req)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "idea.created", zap.Int64("idea_id", idea.ID))
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "idea submitted for review",
		"idea":    idea,
	})
}

// Interests

func (s *Server) handleListInterests(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	interests := s.store.Interests(func(in market.Interest, idea market.Idea) bool {
		switch {
		case p.Is(market.RoleAdmin):
			return true
		case p.Is(market.RoleIdeaGenerator):
			return idea.AuthorID == p.UserID
		default:
			return idea.Status == market.IdeaApproved
		}
	})
	writeJSON(w, http.StatusOK, interests)
}

func (s *Server) handleMyInterests(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	interests := s.store.Interests(func(in market.Interest, _ market.Idea) bool {
		return in.InvestorID == p.UserID
	})
	writeJSON(w, http.StatusOK, map[string]any{"interests": interests})
}

type createInterestRequest struct {
	IdeaID int64 `json:"ideaId"`
}

func (s *Server) handleCreateInterest(w http.ResponseWriter, r *http.Request) {
	var req createInterestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.IdeaID <= 0 {
		writeError(w, r, http.StatusBadRequest, "ideaId is required")
		return
	}
	in, err := s.store.CreateInterest(req.IdeaID, principal(r).UserID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "interest.created", zap.Int64("interest_id", in.ID), zap.Int64("idea_id", in.IdeaID))
	writeJSON(w, http.StatusCreated, in)
}

type reviewInterestRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleReviewInterest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req reviewInterestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to, err := market.ParseReviewDecision(req.Status)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	in, err := s.store.ReviewInterest(id, to, principal(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "interest.reviewed", zap.Int64("interest_id", in.ID), zap.String("status", string(in.Status)))
	writeJSON(w, http.StatusOK, map[string]any{"interest": in})
}

func (s *Server) handleDeleteInterest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.DeleteInterest(id, principal(r)); err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "interest.deleted", zap.Int64("interest_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"message": "interest removed"})
}

// Comments

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	idea, err := s.store.Idea(id)
	if err == nil && !visibleIdea(principal(r), idea) {
		err = notFound("idea")
	}
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	comments, err := s.store.Comments(id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

type createCommentRequest struct {
	IdeaID  int64  `json:"ideaId"`
	Content string `json:"content"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.IdeaID <= 0 {
		writeError(w, r, http.StatusBadRequest, "ideaId is required")
		return
	}
	c, err := s.store.CreateComment(req.IdeaID, principal(r), req.Content)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "comment.created", zap.Int64("comment_id", c.ID), zap.Int64("idea_id", c.IdeaID))
	writeJSON(w, http.StatusCreated, map[string]any{"comment": c})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var req updateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.store.UpdateComment(id, principal(r), req.Content)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "comment.updated", zap.Int64("comment_id", c.ID))
	writeJSON(w, http.StatusOK, map[string]any{"comment": c})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.DeleteComment(id, principal(r)); err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "comment.deleted", zap.Int64("comment_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Admin

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"stats": s.store.Stats()})
}

func (s *Server) handlePendingIdeas(w http.ResponseWriter, r *http.Request) {
	ideas := s.store.Ideas(func(idea market.Idea) bool { return idea.Status == market.IdeaPending })
	writeJSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

type moderateRequest struct {
	Feedback string `json:"feedback"`
}

func (s *Server) handleModerate(to market.IdeaStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		var req moderateRequest
		if err := decodeOptionalJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		idea, err := s.store.Moderate(id, to, req.Feedback)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "idea."+string(to), zap.Int64("idea_id", idea.ID))
		writeJSON(w, http.StatusOK, map[string]any{"idea": idea})
	}
}

func (s *Server) handleAdminDeleteIdea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.DeleteIdea(id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "idea.deleted", zap.Int64("idea_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"message": "idea deleted"})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"users": s.store.Users()})
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if id == principal(r).UserID {
		writeError(w, r, http.StatusBadRequest, "cannot delete your own account")
		return
	}
	if err := s.store.DeleteUser(id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.deleted", zap.Int64("deleted_user_id", id))
	writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})
}
