// Package errors provides error handling for ihaboard.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, wrapping, and user-facing hints from one import:
//
//	if err := fetch(); err != nil {
//	    return errors.Wrap(err, "fetch posts")
//	}
//
//	return errors.WithHint(err, "check the board name")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	FlattenHints = crdb.FlattenHints
	GetAllHints  = crdb.GetAllHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Join      = crdb.Join
)

// ErrInvalidRequest indicates the caller sent something that can never succeed.
var ErrInvalidRequest = New("invalid request")

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// WrapInvalidRequest marks err as an invalid-request error with context
func WrapInvalidRequest(err error, context string) error {
	return Mark(Wrap(err, context), ErrInvalidRequest)
}
