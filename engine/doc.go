// Package engine simulates the fireworks spawn field of one session: targets
// drift across the viewport, clicks and the auto-clicker resolve them, and each
// resolution becomes a reward for the ledger.
//
// An Engine is not safe for concurrent use. Runner owns one on a single
// goroutine and serializes every input onto it.
package engine
