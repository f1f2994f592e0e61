package middleware

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/account-ledger/internal/api/httpx"
	"github.com/baharkarakas/account-ledger/internal/apperr"
)

func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic", "err", rec, "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()))
				httpx.WriteError(w, http.StatusInternalServerError, string(apperr.Internal), apperr.Internal.Description(), nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
