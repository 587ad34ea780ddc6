package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/chore"
	"github.com/dukerupert/hearth/internal/handler"
	"github.com/dukerupert/hearth/internal/membership"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/middleware"
	"github.com/dukerupert/hearth/internal/store"
	ws "github.com/dukerupert/hearth/internal/websocket"
)

type Options struct {
	// Production marks session cookies Secure.
	Production bool
	// Metrics exposes the Prometheus registry at /metrics.
	Metrics bool
}

type Server struct {
	db       *sql.DB
	opts     Options
	hub      *ws.Hub
	sessions *auth.Manager
	cookies  *auth.Cookies
	homes    *membership.Service
	authH    *handler.AuthHandler
	homeH    *handler.HomeHandler
	choreH   *handler.ChoreHandler
	settingH *handler.SettingsHandler
	logger   *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	sessions := auth.NewManager(store.NewSessionStore(db), store.NewUserStore(db))
	cookies := auth.NewCookies(opts.Production)
	accounts := auth.NewAccounts(db)

	homes := membership.NewService(db, hub, logger.With("component", "membership"))
	chores := chore.NewService(db, homes, hub, logger.With("component", "chore"))

	return &Server{
		db:       db,
		opts:     opts,
		hub:      hub,
		sessions: sessions,
		cookies:  cookies,
		homes:    homes,
		authH:    handler.NewAuthHandler(accounts, sessions, cookies, logger.With("component", "auth")),
		homeH:    handler.NewHomeHandler(homes, logger.With("component", "home")),
		choreH:   handler.NewChoreHandler(chores, logger.With("component", "chore")),
		settingH: handler.NewSettingsHandler(accounts, sessions, cookies, homes, logger.With("component", "settings")),
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	if s.opts.Metrics {
		outerMux.Handle("GET /metrics", metrics.Handler())
	}
	outerMux.HandleFunc("GET /login", s.authH.LoginPage)
	outerMux.HandleFunc("POST /login", s.authH.Login)
	outerMux.HandleFunc("GET /signup", s.authH.SignupPage)
	outerMux.HandleFunc("POST /signup", s.authH.Signup)
	outerMux.HandleFunc("POST /logout", s.authH.Logout)

	// Protected routes, also served under /api/ for JSON clients
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireUser(protectedMux))
	outerMux.Handle("/api/", middleware.RequireUser(http.StripPrefix("/api", protectedMux)))

	authenticate := middleware.Authenticate(s.sessions, s.cookies, s.logger.With("component", "session"))
	return middleware.RequestLogger(s.logger.With("component", "http"))(authenticate(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.homeH.List)

	// Homes and membership
	mux.HandleFunc("GET /homes", s.homeH.List)
	mux.HandleFunc("POST /homes", s.homeH.Create)
	mux.HandleFunc("POST /homes/join", s.homeH.Join)
	mux.HandleFunc("GET /homes/{homeID}/manage", s.homeH.Manage)
	mux.HandleFunc("POST /homes/{homeID}/leave", s.homeH.Leave)
	mux.HandleFunc("POST /homes/{homeID}/members/promote", s.homeH.Promote)
	mux.HandleFunc("POST /homes/{homeID}/members/remove", s.homeH.Remove)
	mux.HandleFunc("POST /homes/{homeID}/delete", s.homeH.Delete)

	// Rooms and chores
	mux.HandleFunc("GET /homes/{homeID}", s.choreH.Dashboard)
	mux.HandleFunc("POST /homes/{homeID}/rooms", s.choreH.CreateRoom)
	mux.HandleFunc("POST /homes/{homeID}/rooms/{roomID}/edit", s.choreH.UpdateRoom)
	mux.HandleFunc("POST /homes/{homeID}/rooms/{roomID}/delete", s.choreH.DeleteRoom)
	mux.HandleFunc("POST /homes/{homeID}/chores", s.choreH.CreateChore)
	mux.HandleFunc("POST /homes/{homeID}/chores/{choreID}/edit", s.choreH.UpdateChore)
	mux.HandleFunc("POST /homes/{homeID}/chores/{choreID}/complete", s.choreH.CompleteChore)
	mux.HandleFunc("POST /homes/{homeID}/chores/{choreID}/delete", s.choreH.DeleteChore)

	// Settings
	mux.HandleFunc("GET /settings", s.settingH.View)
	mux.HandleFunc("POST /settings/password", s.settingH.ChangePassword)
	mux.HandleFunc("POST /settings/sign-out-everywhere", s.settingH.SignOutEverywhere)
	mux.HandleFunc("POST /settings/delete-account", s.settingH.DeleteAccount)

	// WebSocket
	mux.HandleFunc("GET /homes/{homeID}/ws", ws.HandleWebSocket(s.hub, s.homes, s.logger.With("component", "websocket")))
}
