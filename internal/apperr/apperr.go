package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of a ledger error.
type Kind string

const (
	OwnerNotFound              Kind = "OWNER_NOT_FOUND"
	AccountNotFound            Kind = "ACCOUNT_NOT_FOUND"
	TransactionNotFound        Kind = "TRANSACTION_NOT_FOUND"
	OwnerAccountMismatch       Kind = "OWNER_ACCOUNT_MISMATCH"
	TransactionAccountMismatch Kind = "TRANSACTION_ACCOUNT_MISMATCH"
	AccountAlreadyClosed       Kind = "ACCOUNT_ALREADY_CLOSED"
	BalanceNotEmpty            Kind = "BALANCE_NOT_EMPTY"
	AccountLimitExceeded       Kind = "ACCOUNT_LIMIT_EXCEEDED"
	AmountExceedsBalance       Kind = "AMOUNT_EXCEEDS_BALANCE"
	CancelMustBeFull           Kind = "CANCEL_MUST_BE_FULL"
	TooOldToCancel             Kind = "TOO_OLD_TO_CANCEL"
	AlreadyCancelled           Kind = "ALREADY_CANCELLED"
	InvalidRequest             Kind = "INVALID_REQUEST"
	StoreUnavailable           Kind = "STORE_UNAVAILABLE"
	Internal                   Kind = "INTERNAL_ERROR"
)

var descriptions = map[Kind]string{
	OwnerNotFound:              "owner not found",
	AccountNotFound:            "account not found",
	TransactionNotFound:        "transaction not found",
	OwnerAccountMismatch:       "account does not belong to owner",
	TransactionAccountMismatch: "transaction does not belong to account",
	AccountAlreadyClosed:       "account is already closed",
	BalanceNotEmpty:            "account balance is not empty",
	AccountLimitExceeded:       "owner may hold at most 10 accounts",
	AmountExceedsBalance:       "amount exceeds account balance",
	CancelMustBeFull:           "partial cancellation is not allowed",
	TooOldToCancel:             "transactions older than one year cannot be cancelled",
	AlreadyCancelled:           "transaction is already cancelled",
	InvalidRequest:             "invalid request",
	StoreUnavailable:           "ledger store unavailable",
	Internal:                   "internal error",
}

// Description returns the default human-readable text for k.
func (k Kind) Description() string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return string(k)
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two *Error values by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func New(kind Kind) *Error {
	return &Error{Kind: kind, Message: kind.Description()}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: kind.Description(), Err: err}
}

// KindOf reports the kind carried by err. Untyped errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
