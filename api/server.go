// Package api exposes the fireworks economy and engine sessions over HTTP
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fireworks/application"
	"fireworks/domain/entities"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Identity headers set by the fronting auth proxy
const (
	HeaderUserID   = "X-User-ID"
	HeaderElevated = "X-User-Elevated"
)

// HeaderSessionToken carries the token handed out when an anonymous engine session starts
const HeaderSessionToken = "X-Session-Token"

type contextKey string

const sessionContextKey contextKey = "session"

// Server routes HTTP requests to the economy and the session manager
type Server struct {
	economy  *application.Economy
	sessions *application.SessionManager
	timeout  time.Duration
	mux      *chi.Mux
}

// New creates a server. timeout bounds every request.
func New(economy *application.Economy, sessions *application.SessionManager, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Server{
		economy:  economy,
		sessions: sessions,
		timeout:  timeout,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(identityMiddleware)

		r.Post("/accounts", s.handleSignUp)
		r.Get("/accounts/me", s.handleAccount)
		r.Get("/accounts/me/history", s.handleHistory)

		r.Post("/upgrades/{kind}/purchase", s.handlePurchaseUpgrade)
		r.Post("/prestige", s.handlePrestige)
		r.Post("/prestige/upgrades/{kind}/purchase", s.handlePurchasePrestigeUpgrade)

		r.Get("/bets", s.handleListBets)
		r.Post("/bets", s.handleCreateBet)
		r.Get("/bets/{id}", s.handleGetBet)
		r.Post("/bets/{id}/accept", s.handleAcceptBet)
		r.Post("/bets/{id}/winner", s.handleDeclareWinner)
		r.Post("/bets/{id}/cancel", s.handleCancelBet)

		r.Post("/sessions", s.handleStartSession)
		r.Post("/sessions/{id}/clicks", s.handleClick)
		r.Post("/sessions/{id}/resize", s.handleResize)
		r.Get("/sessions/{id}/events", s.handleDrain)
		r.Delete("/sessions/{id}", s.handleStopSession)

		r.Get("/admin/accounts/{userID}/history", s.handleAdminHistory)
	})
}

// identityMiddleware turns the identity headers into an entities.Session. A
// request without a user id is anonymous.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := entities.Session{UserID: strings.TrimSpace(r.Header.Get(HeaderUserID))}
		if !session.IsAnonymous() {
			session.Elevated, _ = strconv.ParseBool(r.Header.Get(HeaderElevated))
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) entities.Session {
	session, _ := ctx.Value(sessionContextKey).(entities.Session)
	return session
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"requestID": middleware.GetReqID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    ww.Status(),
			"duration":  time.Since(start),
		}).Debug("HTTP request")
	})
}
