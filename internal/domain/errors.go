package domain

import "errors"

var (
	// ErrInvalidOrder rejects malformed submissions (non-positive quantity
	// or negative price) before any book state changes.
	ErrInvalidOrder = errors.New("invalid order parameters")

	// ErrUnregisteredParty means settlement could not resolve a ledger for
	// one of the counterparties. Local to a single match attempt.
	ErrUnregisteredParty = errors.New("unregistered settlement party")

	// ErrInsufficientStock means the seller's resting stock cannot cover
	// the trade quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientCredit means the buyer's balance cannot cover the
	// trade value.
	ErrInsufficientCredit = errors.New("insufficient credit")
)
