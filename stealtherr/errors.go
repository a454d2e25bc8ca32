// Package stealtherr defines the closed set of error kinds the stealth
// payment core surfaces to callers: every failure carries a kind, a
// message, and an optional wrapped cause.
package stealtherr

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of failure categories. Callers should branch on
// Kind, never on Error's message text.
type Kind string

const (
	InvalidInput              Kind = "invalid_input"
	InvalidRecipient          Kind = "invalid_recipient"
	InsufficientBalance       Kind = "insufficient_balance"
	DerivationFailed          Kind = "derivation_failed"
	CryptoDecryptFailed       Kind = "crypto_decrypt_failed"
	ScanFailed                Kind = "scan_failed"
	TransferFailed            Kind = "transfer_failed"
	ConfirmationFailed        Kind = "confirmation_failed"
	ClaimFailed               Kind = "claim_failed"
	StreamNotFound            Kind = "stream_not_found"
	UnauthorizedStreamAction  Kind = "unauthorized_stream_action"
	Timeout                   Kind = "timeout"
)

// Error is the shared error shape for the core: a kind, a message, and an
// optional underlying cause preserved by reference (not flattened into the
// message string) so errors.Is/errors.As keep working across package
// boundaries.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error that preserves cause via Unwrap.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
