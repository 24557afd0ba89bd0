package api

import (
	"net/http"

	"fireworks/application"

	"github.com/go-chi/chi/v5"
)

const maxDrainEvents = 1000

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var in viewportRequest
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, err)
		return
	}

	// The session outlives this request
	session, err := s.sessions.Start(r.Context(), sessionFromContext(r.Context()), in.Width, in.Height)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, startedView{ID: session.ID, Token: session.Token})
}

type startedView struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
}

func sessionRef(r *http.Request) application.SessionRef {
	return application.SessionRef{
		ID:    chi.URLParam(r, "id"),
		Token: r.Header.Get(HeaderSessionToken),
	}
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var in struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, err)
		return
	}

	hit, err := s.sessions.Click(r.Context(), sessionFromContext(r.Context()), sessionRef(r), in.X, in.Y)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hit": hit})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var in viewportRequest
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, err)
		return
	}

	if err := s.sessions.Resize(r.Context(), sessionFromContext(r.Context()), sessionRef(r), in.Width, in.Height); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	max, err := queryInt(r, "max", maxDrainEvents, maxDrainEvents)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	snapshot, err := s.sessions.Drain(r.Context(), sessionFromContext(r.Context()), sessionRef(r), max)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotView(snapshot))
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Stop(sessionFromContext(r.Context()), sessionRef(r)); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
