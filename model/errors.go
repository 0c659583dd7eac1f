package model

import "errors"

var (
	// Missing or malformed request fields. Surfaced to the caller, nothing is changed.
	ErrClientInput = errors.New("invalid client input")
	// A peer could not be reached or answered garbage during consensus. That peer is skipped.
	ErrPeerUnreachable = errors.New("peer unreachable")
	// The chain tip moved while a proof was searched. The proof is discarded and mining retried.
	ErrStaleMiningResult = errors.New("stale mining result")
	// The node's own chain is invalid. This is a bug, not a runtime condition.
	ErrInvariantViolation = errors.New("ledger invariant violated")
	// A chain failed validation.
	ErrInvalidChain = errors.New("invalid chain")
	// The chain has no block at all.
	ErrEmptyChain = errors.New("chain is empty")
)
