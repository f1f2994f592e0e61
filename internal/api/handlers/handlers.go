package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/baharkarakas/account-ledger/internal/api/httpx"
	"github.com/baharkarakas/account-ledger/internal/api/validate"
	"github.com/baharkarakas/account-ledger/internal/apperr"
)

// decode reads a JSON body into dst and writes a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, string(apperr.InvalidRequest), "invalid request payload", err.Error())
		return false
	}
	return true
}

// bind decodes the body into dst and checks its `validate` tags. It writes
// the 400 itself and reports whether the handler may go on.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !decode(w, r, dst) {
		return false
	}
	if errs := validate.Struct(dst); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, string(apperr.InvalidRequest), "validation failed", errs)
		return false
	}
	return true
}
