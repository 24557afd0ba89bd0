package api

import (
	"context"
	"net/http"

	"fireworks/domain/entities"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListBets(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	var bets []*entities.Bet
	switch status := r.URL.Query().Get("status"); status {
	case "", string(entities.BetStatusOpen):
		bets, err = s.economy.OpenBets(r.Context(), limit)
	case "mine":
		bets, err = s.economy.MyBets(r.Context(), sessionFromContext(r.Context()), limit)
	default:
		err = badRequest("unknown status filter %q", status)
	}
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBetViews(bets))
}

func (s *Server) handleCreateBet(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Wager int64 `json:"wager"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, err)
		return
	}

	bet, err := s.economy.CreateBet(r.Context(), sessionFromContext(r.Context()), in.Wager)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBetView(bet))
}

func (s *Server) handleGetBet(w http.ResponseWriter, r *http.Request) {
	bet, err := s.economy.Bet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBetView(bet))
}

type betTransition func(ctx context.Context, session entities.Session, betID string) (*entities.Bet, error)

func (s *Server) betTransition(w http.ResponseWriter, r *http.Request, transition betTransition) {
	bet, err := transition(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBetView(bet))
}

func (s *Server) handleAcceptBet(w http.ResponseWriter, r *http.Request) {
	s.betTransition(w, r, s.economy.AcceptBet)
}

func (s *Server) handleDeclareWinner(w http.ResponseWriter, r *http.Request) {
	s.betTransition(w, r, s.economy.DeclareWinner)
}

func (s *Server) handleCancelBet(w http.ResponseWriter, r *http.Request) {
	s.betTransition(w, r, s.economy.CancelBet)
}
