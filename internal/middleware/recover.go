package middleware

import (
	"net/http"

	"github.com/flavien-hugs/unsta-sfs/internal/logging"
)

func Recoverer(next http.Handler, logger logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", "error", rec, "path", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error_code":"sfs/unknown-error","error_message":"internal error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
