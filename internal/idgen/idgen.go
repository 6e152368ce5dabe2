// Package idgen generates opaque identifiers for sessions, accounts,
// orders, and positions, in the style of the teacher's
// libs/observability.NewRunID/NewFlowID: a short type prefix plus a
// random suffix, generated with google/uuid rather than hand-rolled
// randomness.
package idgen

import "github.com/google/uuid"

// Session generates a session identifier.
func Session() string { return newID("ses") }

// Account generates an account identifier.
func Account() string { return newID("acc") }

// Order generates an order identifier.
func Order() string { return newID("ord") }

// Position generates a position identifier.
func Position() string { return newID("pos") }

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
