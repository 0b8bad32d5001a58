// Package domain holds the persisted entities and the lifecycle rules that
// govern their status transitions. Services consult the guards here before
// writing anything; the guards themselves never touch storage.
package domain

import "errors"

var (
	// ErrInvalidTransition rejects a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrApprovableAmountRequired guards the accepted state: a claim may only
	// be accepted once adjudication (or a manual override) has set an
	// approvable amount.
	ErrApprovableAmountRequired = errors.New("claim has no approvable amount")
)
