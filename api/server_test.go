package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fireworks/application"
	"fireworks/domain/entities"
	"fireworks/engine"
	"fireworks/infrastructure"
	"fireworks/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	bus := infrastructure.NewLocalEventBus(nil)
	economy := application.NewEconomy(infrastructure.NewUnitOfWorkFactory(store, bus), store, nil, nil)
	crediter := application.NewRewardCrediter(economy, nil, time.Second, 1, 16)
	sessions := application.NewSessionManager(economy, crediter, engine.NewManualClock(time.Unix(0, 0)), 16*time.Millisecond, 64, nil,
		application.SessionLimits{MaxAnonymous: 2})
	sessions.Subscribe(bus)

	srv := httptest.NewServer(New(economy, sessions, 5*time.Second).Handler())
	t.Cleanup(func() {
		srv.Close()
		sessions.Close()
		crediter.Close()
		bus.Wait()
	})
	return &testServer{Server: srv, store: store}
}

func (s *testServer) seed(t *testing.T, userID string, balance int64) {
	t.Helper()
	account := entities.NewAccount(userID)
	account.Balance = balance
	require.NoError(t, s.store.Seed(context.Background(), account))
}

// do sends a request as userID and decodes the JSON response into out
func (s *testServer) do(t *testing.T, method, path, userID, body string, out any) int {
	t.Helper()
	header := http.Header{}
	if userID != "" {
		header.Set(HeaderUserID, userID)
	}
	if userID == "root" {
		header.Set(HeaderElevated, "true")
	}
	return s.send(t, method, path, header, body, out)
}

// doAnonymous sends a request without identity, presenting a session token
func (s *testServer) doAnonymous(t *testing.T, method, path, token, body string, out any) int {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set(HeaderSessionToken, token)
	}
	return s.send(t, method, path, header, body, out)
}

func (s *testServer) send(t *testing.T, method, path string, header http.Header, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header = header

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]any
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/healthz", "", "", &body))
	assert.Equal(t, true, body["ok"])
}

func TestServer_SignUp(t *testing.T) {
	srv := newTestServer(t)

	var account accountView
	assert.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/v1/accounts", "alice", "", &account))
	assert.Equal(t, "alice", account.UserID)
	assert.Equal(t, "0", account.BalanceDisplay)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/accounts", "alice", "", &account))
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/accounts/me", "alice", "", &account))
	assert.Equal(t, int64(2), account.VisitCount)

	var failure errorBody
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/v1/accounts", "", "", &failure))
	assert.Equal(t, entities.FailureNotSignedIn, failure.Kind)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/v1/accounts/me", "bob", "", &failure))
	assert.Equal(t, entities.FailureAccountNotFound, failure.Kind)
}

func TestServer_PurchaseUpgradeFailures(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "alice", 30)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{"unknown upgrade", "/v1/upgrades/teleport/purchase", `{"expected_level":0}`, http.StatusUnprocessableEntity, entities.FailureUnknownUpgrade},
		{"malformed body", "/v1/upgrades/spawn_speed/purchase", `{"level":0}`, http.StatusBadRequest, "bad_request"},
		{"insufficient balance", "/v1/upgrades/auto_clicker/purchase", `{"expected_level":0}`, http.StatusUnprocessableEntity, entities.FailureInsufficientBalance},
		{"maxed", "/v1/upgrades/spawn_speed/purchase", `{"expected_level":10}`, http.StatusConflict, entities.FailureLevelMaxed},
		{"below threshold", "/v1/prestige", "", http.StatusUnprocessableEntity, entities.FailureBelowThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var failure errorBody
			assert.Equal(t, tt.status, srv.do(t, http.MethodPost, tt.path, "alice", tt.body, &failure))
			assert.Equal(t, tt.kind, failure.Kind)
			assert.NotEmpty(t, failure.Message)
		})
	}

	var account accountView
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/upgrades/spawn_speed/purchase", "alice", `{"expected_level":0}`, &account))
	assert.Equal(t, int64(5), account.Balance)
	assert.Equal(t, 1, account.UpgradeLevels[entities.UpgradeSpawnSpeed])
}

func TestServer_Prestige(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "alice", 25_000)

	var result prestigeView
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/prestige", "alice", "", &result))
	assert.Equal(t, int64(2), result.PointsGained)
	assert.Equal(t, int64(0), result.Account.Balance)
	assert.Equal(t, int64(2), result.Account.PrestigePoints)

	var account accountView
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/prestige/upgrades/spawn_boost/purchase", "alice", `{"expected_level":0}`, &account))
	assert.Equal(t, 1, account.PrestigeUpgradeLevels[entities.PrestigeSpawnBoost])
}

func TestServer_BetLifecycle(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "alice", 100)
	srv.seed(t, "bob", 100)

	var bet betView
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/v1/bets", "alice", `{"wager":40}`, &bet))
	assert.Equal(t, entities.BetStatusOpen, bet.Status)

	var open []betView
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/bets?status=open", "bob", "", &open))
	require.Len(t, open, 1)

	var failure errorBody
	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, "/v1/bets/"+bet.ID+"/accept", "alice", "", &failure))
	assert.Equal(t, entities.FailureInvalidBetState, failure.Kind)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/bets/"+bet.ID+"/accept", "bob", "", &bet))
	assert.Equal(t, entities.BetStatusAccepted, bet.Status)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/bets/"+bet.ID+"/winner", "bob", "", &bet))
	assert.Equal(t, entities.BetStatusCompleted, bet.Status)
	require.NotNil(t, bet.WinnerID)
	assert.Equal(t, "bob", *bet.WinnerID)

	var mine []betView
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/bets?status=mine", "alice", "", &mine))
	assert.Len(t, mine, 1)

	var account accountView
	srv.do(t, http.MethodGet, "/v1/accounts/me", "bob", "", &account)
	assert.Equal(t, int64(140), account.Balance)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/v1/bets/missing", "bob", "", &failure))
	assert.Equal(t, entities.FailureBetNotFound, failure.Kind)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/v1/bets?status=weird", "bob", "", &failure))
	assert.Equal(t, http.StatusUnprocessableEntity, srv.do(t, http.MethodPost, "/v1/bets", "alice", `{"wager":0}`, &failure))
	assert.Equal(t, entities.FailureInvalidAmount, failure.Kind)
}

func TestServer_AdminHistory(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "alice", 100)
	srv.do(t, http.MethodPost, "/v1/upgrades/spawn_speed/purchase", "alice", `{"expected_level":0}`, nil)

	var failure errorBody
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/v1/admin/accounts/alice/history", "bob", "", &failure))

	var history []historyView
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/admin/accounts/alice/history?limit=5", "root", "", &history))
	require.Len(t, history, 1)
	assert.Equal(t, entities.TransactionTypeUpgradePurchase, history[0].Type)
	assert.Equal(t, int64(-25), history[0].ChangeAmount)

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/accounts/me/history", "alice", "", &history))
	assert.Len(t, history, 1)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/v1/accounts/me/history?limit=-1", "alice", "", &failure))
}

func TestServer_Sessions(t *testing.T) {
	srv := newTestServer(t)
	srv.seed(t, "alice", 0)

	var started map[string]string
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/v1/sessions", "alice", `{"width":800,"height":600}`, &started))
	id := started["id"]
	require.NotEmpty(t, id)

	var snapshot snapshotView
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/v1/sessions/"+id+"/events", "alice", "", &snapshot))
	require.NotNil(t, snapshot.Account)
	assert.Equal(t, "alice", snapshot.Account.UserID)

	var click map[string]bool
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/clicks", "alice", `{"x":1,"y":1}`, &click))
	assert.False(t, click["hit"])

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/resize", "alice", `{"width":640,"height":480}`, nil))

	var failure errorBody
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/v1/sessions/"+id+"/events", "bob", "", &failure))
	assert.Equal(t, http.StatusUnprocessableEntity, srv.do(t, http.MethodPost, "/v1/sessions/"+id+"/resize", "alice", `{"width":0,"height":480}`, &failure))

	assert.Equal(t, http.StatusNoContent, srv.do(t, http.MethodDelete, "/v1/sessions/"+id, "alice", "", nil))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/v1/sessions/"+id+"/events", "alice", "", &failure))
	assert.Equal(t, "session_not_found", failure.Kind)
}

func TestServer_AnonymousSessionsNeedTheirToken(t *testing.T) {
	srv := newTestServer(t)

	var started startedView
	require.Equal(t, http.StatusCreated, srv.doAnonymous(t, http.MethodPost, "/v1/sessions", "", `{"width":800,"height":600}`, &started))
	require.NotEmpty(t, started.Token)
	events := "/v1/sessions/" + started.ID + "/events"

	var snapshot snapshotView
	assert.Equal(t, http.StatusOK, srv.doAnonymous(t, http.MethodGet, events, started.Token, "", &snapshot))
	assert.Nil(t, snapshot.Account)

	var failure errorBody
	assert.Equal(t, http.StatusForbidden, srv.doAnonymous(t, http.MethodGet, events, "", "", &failure))
	assert.Equal(t, http.StatusForbidden, srv.doAnonymous(t, http.MethodGet, events, "guessed", "", &failure))
	assert.Equal(t, http.StatusForbidden, srv.doAnonymous(t, http.MethodDelete, "/v1/sessions/"+started.ID, "", "", nil))

	require.Equal(t, http.StatusCreated, srv.doAnonymous(t, http.MethodPost, "/v1/sessions", "", `{"width":800,"height":600}`, &started))
	assert.Equal(t, http.StatusTooManyRequests, srv.doAnonymous(t, http.MethodPost, "/v1/sessions", "", `{"width":800,"height":600}`, &failure))
	assert.Equal(t, "too_many_sessions", failure.Kind)

	assert.Equal(t, http.StatusNoContent, srv.doAnonymous(t, http.MethodDelete, "/v1/sessions/"+started.ID, started.Token, "", nil))
	assert.Equal(t, http.StatusCreated, srv.doAnonymous(t, http.MethodPost, "/v1/sessions", "", `{"width":800,"height":600}`, &started))
}
