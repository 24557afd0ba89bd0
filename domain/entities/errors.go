package entities

import (
	"errors"
	"fmt"
)

// Business failures. Detected inside the ledger transaction and never retried.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLevelMaxed          = errors.New("upgrade level maxed")
	ErrInvalidBetState     = errors.New("invalid bet state")
	ErrAccountNotFound     = errors.New("account not found")
	ErrBelowThreshold      = errors.New("balance below prestige threshold")
	ErrBetNotFound         = errors.New("bet not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnknownUpgrade      = errors.New("unknown upgrade")
	ErrAccountExists       = errors.New("account already exists")
	ErrNotSignedIn         = errors.New("sign in required")
	ErrForbidden           = errors.New("forbidden")
)

// ErrStoreUnavailable marks transient infrastructure failures. The transaction did not
// commit, so callers may retry.
var ErrStoreUnavailable = errors.New("store unavailable")

// Currency names used in insufficient funds messages
const (
	CurrencyFireworks      = "fireworks"
	CurrencyPrestigePoints = "prestige points"
)

// InsufficientFundsError carries the amounts behind an ErrInsufficientBalance failure
type InsufficientFundsError struct {
	Currency string
	Need     int64
	Have     int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("not enough %s: need %s, have %s",
		e.Currency, FormatShortNotation(e.Need), FormatShortNotation(e.Have))
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientBalance
}

// Failure kinds, used as metric labels and in API error bodies
const (
	FailureNone                = "ok"
	FailureInsufficientBalance = "insufficient_balance"
	FailureLevelMaxed          = "level_maxed"
	FailureInvalidBetState     = "invalid_bet_state"
	FailureAccountNotFound     = "account_not_found"
	FailureBelowThreshold      = "below_threshold"
	FailureBetNotFound         = "bet_not_found"
	FailureInvalidAmount       = "invalid_amount"
	FailureUnknownUpgrade      = "unknown_upgrade"
	FailureAccountExists       = "account_exists"
	FailureNotSignedIn         = "not_signed_in"
	FailureForbidden           = "forbidden"
	FailureStoreUnavailable    = "store_unavailable"
)

var failureKinds = []struct {
	err  error
	kind string
}{
	{ErrInsufficientBalance, FailureInsufficientBalance},
	{ErrLevelMaxed, FailureLevelMaxed},
	{ErrInvalidBetState, FailureInvalidBetState},
	{ErrAccountNotFound, FailureAccountNotFound},
	{ErrBelowThreshold, FailureBelowThreshold},
	{ErrBetNotFound, FailureBetNotFound},
	{ErrInvalidAmount, FailureInvalidAmount},
	{ErrUnknownUpgrade, FailureUnknownUpgrade},
	{ErrAccountExists, FailureAccountExists},
	{ErrNotSignedIn, FailureNotSignedIn},
	{ErrForbidden, FailureForbidden},
}

// FailureKind classifies err. Anything that is not a known business failure is
// reported as store_unavailable.
func FailureKind(err error) string {
	if err == nil {
		return FailureNone
	}
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	return FailureStoreUnavailable
}

// IsBusinessError reports whether err is a deterministic precondition failure
func IsBusinessError(err error) bool {
	return err != nil && FailureKind(err) != FailureStoreUnavailable
}

// NotificationFor returns the dismissable, user-facing text for a failure
func NotificationFor(err error) string {
	var funds *InsufficientFundsError
	if errors.As(err, &funds) {
		return funds.Error()
	}

	switch FailureKind(err) {
	case FailureNone:
		return ""
	case FailureInsufficientBalance:
		return "not enough fireworks"
	case FailureLevelMaxed:
		return "that upgrade is already at its maximum level"
	case FailureInvalidBetState:
		return "that bet can no longer be changed"
	case FailureAccountNotFound:
		return "no fireworks account found, sign up first"
	case FailureBelowThreshold:
		return fmt.Sprintf("you need at least %s fireworks to prestige", FormatShortNotation(PrestigeThreshold))
	case FailureBetNotFound:
		return "that bet does not exist"
	case FailureInvalidAmount:
		return "amount must be a positive number"
	case FailureUnknownUpgrade:
		return "unknown upgrade"
	case FailureAccountExists:
		return "account already exists"
	case FailureNotSignedIn:
		return "sign in to earn and spend fireworks"
	case FailureForbidden:
		return "you are not allowed to do that"
	default:
		return "the fireworks store is unavailable, try again"
	}
}
