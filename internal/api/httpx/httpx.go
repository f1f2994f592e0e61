package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/account-ledger/internal/apperr"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// StatusFor maps a ledger error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.OwnerNotFound, apperr.AccountNotFound, apperr.TransactionNotFound:
		return http.StatusNotFound
	case apperr.OwnerAccountMismatch, apperr.TransactionAccountMismatch:
		return http.StatusForbidden
	case apperr.AccountAlreadyClosed, apperr.AlreadyCancelled:
		return http.StatusConflict
	case apperr.BalanceNotEmpty, apperr.AccountLimitExceeded, apperr.AmountExceedsBalance,
		apperr.CancelMustBeFull, apperr.TooOldToCancel:
		return http.StatusUnprocessableEntity
	case apperr.InvalidRequest:
		return http.StatusBadRequest
	case apperr.StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteErr renders err with its kind. Internal details never leave the
// process; the cause is logged instead.
func WriteErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	msg := err.Error()
	var e *apperr.Error
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "kind", kind, "err", err)
		msg = kind.Description()
	} else if errors.As(err, &e) {
		msg = e.Message
	}
	WriteError(w, status, string(kind), msg, nil)
}
