// Package lifecycle holds the shift and swap-request state machines.
//
// Every transition is a pure function over a domain.Shift value. It checks
// preconditions, returns the next value together with the Guard a store must
// match when persisting it, and lists the notifications the change implies.
// Persisting the outcome and delivering the notifications belong to callers.
package lifecycle
