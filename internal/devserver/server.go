package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"ideabridge.org/internal/auth"
	"ideabridge.org/internal/market"
	"ideabridge.org/internal/obs"
)

// Config controls the development backend.
type Config struct {
	BasePath      string
	Secret        string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	RatePerSec    float64
	Burst         int
	Version       string
}

// Server is an in-memory implementation of the marketplace REST API used for
// local development and as the fake backend in tests.
type Server struct {
	cfg    Config
	store  *Store
	signer *auth.Signer
	router *mux.Router
}

func New(cfg Config) (*Server, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	if cfg.BasePath == "/" {
		cfg.BasePath = ""
	}
	signer, err := auth.NewSigner(cfg.Secret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		store:  NewStore(),
		signer: signer,
		router: mux.NewRouter(),
	}
	if cfg.AdminEmail != "" {
		if cfg.AdminPassword == "" {
			return nil, errors.New("admin password is required when admin email is set")
		}
		admin, err := s.store.SeedAdmin(cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		obs.Logger().Info("admin account ready", zap.Int64("user_id", admin.ID), zap.String("email", admin.Email))
	}
	s.routes()
	return s, nil
}

// Store exposes the backing state, mainly for seeding in tests.
func (s *Server) Store() *Store { return s.store }

// Signer exposes the token signer.
func (s *Server) Signer() *auth.Signer { return s.signer }

func (s *Server) routes() {
	r := s.router
	r.StrictSlash(false)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet).Name("healthz")
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet).Name("metrics")

	var api *mux.Router
	if s.cfg.BasePath == "" {
		api = r.NewRoute().Subrouter()
	} else {
		api = r.PathPrefix(s.cfg.BasePath).Subrouter()
	}

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost).Name("login")
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost).Name("register")

	authed := api.NewRoute().Subrouter()
	authed.Use(RequireRole())
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet).Name("me")
	authed.HandleFunc("/idea", s.handleListIdeas).Methods(http.MethodGet).Name("ideas")
	authed.HandleFunc("/idea/{id:[0-9]+}", s.handleGetIdea).Methods(http.MethodGet).Name("idea")
	authed.Handle("/idea", only(s.handleCreateIdea, market.RoleIdeaGenerator)).Methods(http.MethodPost).Name("create_idea")

	authed.HandleFunc("/interest", s.handleListInterests).Methods(http.MethodGet).Name("interests")
	authed.HandleFunc("/interest/my-interests", s.handleMyInterests).Methods(http.MethodGet).Name("my_interests")
	authed.Handle("/interest", only(s.handleCreateInterest, market.RoleInvestor)).Methods(http.MethodPost).Name("create_interest")
	authed.Handle("/interest/{id:[0-9]+}", only(s.handleReviewInterest, market.RoleIdeaGenerator, market.RoleAdmin)).Methods(http.MethodPut).Name("review_interest")
	authed.Handle("/interest/{id:[0-9]+}", only(s.handleDeleteInterest, market.RoleInvestor, market.RoleAdmin)).Methods(http.MethodDelete).Name("delete_interest")

	authed.HandleFunc("/comment/idea/{id:[0-9]+}", s.handleListComments).Methods(http.MethodGet).Name("idea_comments")
	authed.HandleFunc("/comment", s.handleCreateComment).Methods(http.MethodPost).Name("create_comment")
	authed.HandleFunc("/comment/{id:[0-9]+}", s.handleUpdateComment).Methods(http.MethodPut).Name("update_comment")
	authed.HandleFunc("/comment/{id:[0-9]+}", s.handleDeleteComment).Methods(http.MethodDelete).Name("delete_comment")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(RequireRole(market.RoleAdmin))
	admin.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet).Name("admin_stats")
	admin.HandleFunc("/ideas/pending", s.handlePendingIdeas).Methods(http.MethodGet).Name("admin_pending")
	admin.HandleFunc("/ideas/{id:[0-9]+}/approve", s.handleModerate(market.IdeaApproved)).Methods(http.MethodPut).Name("admin_approve")
	admin.HandleFunc("/ideas/{id:[0-9]+}/reject", s.handleModerate(market.IdeaRejected)).Methods(http.MethodPut).Name("admin_reject")
	admin.HandleFunc("/ideas/{id:[0-9]+}", s.handleAdminDeleteIdea).Methods(http.MethodDelete).Name("admin_idea")
	admin.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet).Name("admin_users")
	admin.HandleFunc("/users/{id:[0-9]+}", s.handleAdminDeleteUser).Methods(http.MethodDelete).Name("admin_user")
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = s.Authenticate(h)
	h = RateLimit(h, s.cfg.Burst, s.cfg.RatePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func only(h http.HandlerFunc, roles ...market.Role) http.Handler {
	return RequireRole(roles...)(h)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "ideabridge-devserver",
		"version": s.cfg.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
