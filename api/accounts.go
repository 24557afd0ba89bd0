package api

import (
	"net/http"

	"fireworks/domain/entities"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	account, created, err := s.economy.SignUp(r.Context(), session)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	if err := s.economy.RecordVisit(r.Context(), session); err != nil {
		log.WithFields(log.Fields{
			"userID": session.UserID,
			"error":  err,
		}).Warn("Failed to record visit")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, newAccountView(account))
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.economy.Account(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(account))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	history, err := s.economy.History(r.Context(), sessionFromContext(r.Context()), limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newHistoryViews(history))
}

func (s *Server) handleAdminHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	history, err := s.economy.AdminHistory(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "userID"), limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newHistoryViews(history))
}

type purchaseRequest struct {
	ExpectedLevel int `json:"expected_level"`
}

func (s *Server) handlePurchaseUpgrade(w http.ResponseWriter, r *http.Request) {
	kind, err := entities.ParseUpgradeKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var in purchaseRequest
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, err)
		return
	}

	account, err := s.economy.PurchaseUpgrade(r.Context(), sessionFromContext(r.Context()), kind, in.ExpectedLevel)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(account))
}

func (s *Server) handlePurchasePrestigeUpgrade(w http.ResponseWriter, r *http.Request) {
	kind, err := entities.ParsePrestigeUpgradeKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var in purchaseRequest
	if err := decodeJSON(r, &in); err != nil {
		writeFailure(w, r, err)
		return
	}

	account, err := s.economy.PurchasePrestigeUpgrade(r.Context(), sessionFromContext(r.Context()), kind, in.ExpectedLevel)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(account))
}

func (s *Server) handlePrestige(w http.ResponseWriter, r *http.Request) {
	result, err := s.economy.Prestige(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prestigeView{
		Account:       newAccountView(result.Account),
		PointsGained:  result.PointsGained,
		BalanceSpent:  result.BalanceSpent,
		StartingLevel: result.StartingLevel,
	})
}
