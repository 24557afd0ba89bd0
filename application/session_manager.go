package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"fireworks/domain/entities"
	"fireworks/domain/events"
	"fireworks/engine"
	"fireworks/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrSessionNotFound is returned for an unknown, stopped or expired engine session
	ErrSessionNotFound = errors.New("engine session not found")
	// ErrTooManySessions is returned by Start when a session limit is reached
	ErrTooManySessions = errors.New("too many engine sessions")
)

// SessionLimits bounds how many sessions run and how long an untouched one lives.
// Zero values disable the corresponding limit.
type SessionLimits struct {
	IdleTimeout  time.Duration // sessions without a click, resize or drain for this long are stopped
	MaxSessions  int           // across every caller
	MaxPerUser   int           // per signed-in user
	MaxAnonymous int           // across every anonymous caller together
}

// SessionRef addresses a session. Token must match for anonymous sessions.
type SessionRef struct {
	ID    string
	Token string
}

// EventSubscriber registers handlers for committed domain events
type EventSubscriber interface {
	Subscribe(eventType events.EventType, handler events.Handler)
}

// EngineSession is one server-hosted spawn field
type EngineSession struct {
	ID       string
	Identity entities.Session
	// Token is issued to anonymous sessions only; it never appears in logs
	Token string

	lastActive atomic.Int64 // unix nanos on the manager clock
	runner     *engine.Runner
	cancel     context.CancelFunc
	mirror     *AccountMirror // nil for anonymous sessions
	events     *eventQueue
}

// Ref returns the handle a caller presents to reach this session
func (s *EngineSession) Ref() SessionRef {
	return SessionRef{ID: s.ID, Token: s.Token}
}

func (s *EngineSession) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *EngineSession) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActive.Load()))
}

// Snapshot is what a drain hands to the presentation layer
type Snapshot struct {
	Targets []engine.Target   `json:"targets"`
	Events  []engine.Event    `json:"events"`
	Dropped int               `json:"dropped"`
	Account *entities.Account `json:"account,omitempty"`
}

// SessionManager runs engine sessions, credits their rewards, and keeps their
// upgrade levels in step with the ledger
type SessionManager struct {
	economy   *Economy
	crediter  *RewardCrediter
	clock     engine.Clock
	tick      time.Duration
	queueSize int
	metrics   *observability.MetricsProvider
	refresh   time.Duration
	limits    SessionLimits

	mu         sync.RWMutex
	sessions   map[string]*EngineSession
	perUser    map[string]int // running sessions per user id, "" for anonymous
	reaperStop chan struct{}
	reaperDone chan struct{}
	closeOnce  sync.Once
}

// NewSessionManager creates a new session manager
func NewSessionManager(
	economy *Economy,
	crediter *RewardCrediter,
	clock engine.Clock,
	tick time.Duration,
	queueSize int,
	metrics *observability.MetricsProvider,
	limits SessionLimits,
) *SessionManager {
	m := &SessionManager{
		economy:    economy,
		crediter:   crediter,
		clock:      clock,
		tick:       tick,
		queueSize:  queueSize,
		metrics:    metrics,
		refresh:    5 * time.Second,
		limits:     limits,
		sessions:   make(map[string]*EngineSession),
		perUser:    make(map[string]int),
		reaperStop: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}

	if limits.IdleTimeout > 0 {
		// The ticker is created here so a manual clock sees it before the first Advance
		ticker := clock.NewTicker(reapInterval(limits.IdleTimeout))
		go m.reap(ticker)
	} else {
		close(m.reaperDone)
	}
	return m
}

func reapInterval(idle time.Duration) time.Duration {
	return max(idle/4, time.Second)
}

// reap stops sessions that have been idle longer than the limit
func (m *SessionManager) reap(ticker engine.Ticker) {
	defer close(m.reaperDone)
	defer ticker.Stop()

	for {
		select {
		case <-m.reaperStop:
			return
		case <-ticker.C():
			m.expireIdle()
		}
	}
}

func (m *SessionManager) expireIdle() {
	now := m.clock.Now()

	m.mu.RLock()
	var stale []*EngineSession
	for _, s := range m.sessions {
		if s.idleSince(now) > m.limits.IdleTimeout {
			stale = append(stale, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range stale {
		idle := s.idleSince(m.clock.Now())
		if idle <= m.limits.IdleTimeout {
			continue // touched since the scan
		}
		log.WithFields(log.Fields{
			"sessionID": s.ID,
			"idle":      idle,
		}).Info("Engine session expired")
		m.stop(s)
	}
}

// Subscribe keeps sessions in step with committed purchases, resets and
// non-reward balance changes
func (m *SessionManager) Subscribe(bus EventSubscriber) {
	bus.Subscribe(events.EventTypeUpgradePurchased, m.HandleEvent)
	bus.Subscribe(events.EventTypePrestigeReset, m.HandleEvent)
	bus.Subscribe(events.EventTypeBalanceChange, m.HandleEvent)
}

// Start opens a session for identity with the given viewport
func (m *SessionManager) Start(ctx context.Context, identity entities.Session, width, height float64) (*EngineSession, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: viewport %gx%g", entities.ErrInvalidAmount, width, height)
	}

	var account *entities.Account
	if !identity.IsAnonymous() {
		var err error
		if account, err = m.economy.LoadAccount(ctx, identity.UserID); err != nil {
			return nil, err
		}
	}

	s := &EngineSession{
		ID:       uuid.NewString(),
		Identity: identity,
		events:   newEventQueue(m.queueSize),
	}
	if account != nil {
		s.mirror = NewAccountMirror(account)
	} else {
		s.Token = uuid.NewString()
	}
	s.touch(m.clock.Now())

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	eng := engine.New(rng, engine.RewardSinkFunc(func(reward entities.RewardEvent) {
		m.submit(s, reward)
	}), engine.ObserverFunc(s.events.push))
	eng.SetSession(identity)
	eng.SetLevels(engine.LevelsFor(account))
	eng.Resize(width, height)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.runner = engine.NewRunner(eng, m.clock, m.tick)

	if err := m.register(s); err != nil {
		cancel()
		return nil, err
	}
	go s.runner.Run(runCtx)
	m.metrics.UpdateActiveSessions(1)

	log.WithFields(log.Fields{
		"sessionID": s.ID,
		"userID":    identity.UserID,
	}).Info("Engine session started")
	return s, nil
}

// register admits s under the session limits
func (m *SessionManager) register(s *EngineSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID := s.Identity.UserID
	perUser := m.limits.MaxPerUser
	if s.Identity.IsAnonymous() {
		perUser = m.limits.MaxAnonymous
	}
	switch {
	case m.limits.MaxSessions > 0 && len(m.sessions) >= m.limits.MaxSessions:
		return fmt.Errorf("%w: %d running", ErrTooManySessions, len(m.sessions))
	case perUser > 0 && m.perUser[userID] >= perUser:
		return fmt.Errorf("%w: %d running for this caller", ErrTooManySessions, m.perUser[userID])
	}

	m.sessions[s.ID] = s
	m.perUser[userID]++
	return nil
}

// submit credits a reward and mirrors it tentatively until the ledger answers
func (m *SessionManager) submit(s *EngineSession, reward entities.RewardEvent) {
	if s.mirror == nil {
		return
	}
	token := s.mirror.ApplyTentative(entities.Deltas{entities.FieldBalance: reward.Amount}, true)
	m.crediter.Submit(reward, func(account *entities.Account, err error) {
		if err != nil {
			s.mirror.Reject(token)
			s.events.push(engine.Event{Kind: engine.EventAdvisory, Message: entities.NotificationFor(err)})
			return
		}
		s.mirror.Confirm(token, account)
	})
}

// session returns the caller's session and marks it active
func (m *SessionManager) session(caller entities.Session, ref SessionRef) (*EngineSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[ref.ID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ref.ID)
	}
	if s.Identity.UserID != caller.UserID {
		return nil, entities.ErrForbidden
	}
	if s.Token != "" && subtle.ConstantTimeCompare([]byte(s.Token), []byte(ref.Token)) != 1 {
		return nil, entities.ErrForbidden
	}
	s.touch(m.clock.Now())
	return s, nil
}

// Click forwards an interaction to the session's engine
func (m *SessionManager) Click(ctx context.Context, caller entities.Session, ref SessionRef, x, y float64) (bool, error) {
	s, err := m.session(caller, ref)
	if err != nil {
		return false, err
	}
	hit, err := s.runner.Click(ctx, x, y)
	if errors.Is(err, engine.ErrRunnerStopped) {
		return false, fmt.Errorf("%w: %s", ErrSessionNotFound, ref.ID)
	}
	return hit, err
}

// Resize forwards a viewport change; the engine drops every live target
func (m *SessionManager) Resize(ctx context.Context, caller entities.Session, ref SessionRef, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport %gx%g", entities.ErrInvalidAmount, width, height)
	}
	s, err := m.session(caller, ref)
	if err != nil {
		return err
	}
	if err := s.runner.Resize(ctx, width, height); errors.Is(err, engine.ErrRunnerStopped) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, ref.ID)
	} else if err != nil {
		return err
	}
	return nil
}

// Drain hands over the live targets, buffered events and the session's view of
// its account
func (m *SessionManager) Drain(ctx context.Context, caller entities.Session, ref SessionRef, max int) (*Snapshot, error) {
	s, err := m.session(caller, ref)
	if err != nil {
		return nil, err
	}

	targets, err := s.runner.Targets(ctx)
	if errors.Is(err, engine.ErrRunnerStopped) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ref.ID)
	} else if err != nil {
		return nil, err
	}

	out, dropped := s.events.drain(max)
	snapshot := &Snapshot{Targets: targets, Events: out, Dropped: dropped}
	if s.mirror != nil {
		snapshot.Account = s.mirror.View()
	}
	return snapshot, nil
}

// Stop ends a session and waits for its engine to exit
func (m *SessionManager) Stop(caller entities.Session, ref SessionRef) error {
	s, err := m.session(caller, ref)
	if err != nil {
		return err
	}
	m.stop(s)
	return nil
}

func (m *SessionManager) stop(s *EngineSession) {
	m.mu.Lock()
	if _, ok := m.sessions[s.ID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, s.ID)
	if m.perUser[s.Identity.UserID]--; m.perUser[s.Identity.UserID] <= 0 {
		delete(m.perUser, s.Identity.UserID)
	}
	m.mu.Unlock()

	s.cancel()
	<-s.runner.Done()
	m.metrics.UpdateActiveSessions(-1)

	log.WithFields(log.Fields{
		"sessionID": s.ID,
		"userID":    s.Identity.UserID,
	}).Info("Engine session stopped")
}

// Close stops the reaper and every session
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() { close(m.reaperStop) })
	<-m.reaperDone

	m.mu.RLock()
	all := make([]*EngineSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		m.stop(s)
	}
}

// HandleEvent refreshes the sessions of every user a committed event touched.
// Reward credits are already reconciled by the crediter and are skipped.
func (m *SessionManager) HandleEvent(ctx context.Context, event events.Event) {
	if change, ok := event.(events.BalanceChangeEvent); ok && change.TransactionType.IsReward() {
		return
	}

	for _, userID := range events.UserIDs(event) {
		sessions := m.sessionsOf(userID)
		if len(sessions) == 0 {
			continue
		}

		refreshCtx, cancel := context.WithTimeout(ctx, m.refresh)
		account, err := m.economy.LoadAccount(refreshCtx, userID)
		if err != nil {
			cancel()
			log.WithFields(log.Fields{
				"userID":    userID,
				"eventType": event.Type(),
				"error":     err,
			}).Warn("Failed to refresh engine sessions")
			continue
		}

		levels := engine.LevelsFor(account)
		for _, s := range sessions {
			s.mirror.Refresh(account)
			if err := s.runner.SetLevels(refreshCtx, levels); err != nil && !errors.Is(err, engine.ErrRunnerStopped) {
				log.WithFields(log.Fields{
					"sessionID": s.ID,
					"error":     err,
				}).Warn("Failed to update engine levels")
			}
		}
		cancel()
	}
}

func (m *SessionManager) sessionsOf(userID string) []*EngineSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*EngineSession
	for _, s := range m.sessions {
		if s.Identity.UserID == userID && s.mirror != nil {
			out = append(out, s)
		}
	}
	return out
}

// Count returns the number of running sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
