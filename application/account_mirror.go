package application

import (
	"maps"
	"slices"
	"sync"

	"fireworks/domain/entities"
)

// AccountMirror is a session's local copy of an account. Changes the session
// expects (a reward it just earned) are applied tentatively and reconciled when
// the ledger confirms or rejects them. The tentative view is for display only;
// the ledger always re-reads the account before spending.
type AccountMirror struct {
	mu        sync.Mutex
	confirmed *entities.Account
	pending   map[uint64]tentativeChange
	nextToken uint64
}

type tentativeChange struct {
	deltas entities.Deltas
	earned bool
}

// NewAccountMirror creates a mirror of account
func NewAccountMirror(account *entities.Account) *AccountMirror {
	return &AccountMirror{
		confirmed: account.Clone(),
		pending:   make(map[uint64]tentativeChange),
	}
}

// ApplyTentative records an expected change and returns its token
func (m *AccountMirror) ApplyTentative(deltas entities.Deltas, earned bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextToken++
	m.pending[m.nextToken] = tentativeChange{deltas: deltas, earned: earned}
	return m.nextToken
}

// Confirm settles a tentative change with the account the ledger committed
func (m *AccountMirror) Confirm(token uint64, authoritative *entities.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, token)
	m.refreshLocked(authoritative)
}

// Reject drops a tentative change the ledger refused
func (m *AccountMirror) Reject(token uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, token)
}

// Refresh replaces the confirmed state with a newer authoritative read
func (m *AccountMirror) Refresh(authoritative *entities.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshLocked(authoritative)
}

func (m *AccountMirror) refreshLocked(authoritative *entities.Account) {
	if authoritative == nil {
		return
	}
	// Confirmations can arrive out of commit order; never go back in time
	if authoritative.UpdatedAt.Before(m.confirmed.UpdatedAt) {
		return
	}
	m.confirmed = authoritative.Clone()
}

// Confirmed returns the last state the ledger committed
func (m *AccountMirror) Confirmed() *entities.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.confirmed.Clone()
}

// View returns the confirmed state with every pending change applied. A pending
// change that no longer fits is left out of the view.
func (m *AccountMirror) View() *entities.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	view := m.confirmed
	for _, token := range slices.Sorted(maps.Keys(m.pending)) {
		change := m.pending[token]
		if next, err := entities.ApplyDeltas(view, change.deltas, change.earned); err == nil {
			view = next
		}
	}
	return view.Clone()
}

// Pending returns the number of unsettled tentative changes
func (m *AccountMirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}
