package api

import (
	"encoding/json"
	"net/http"

	"github.com/flavien-hugs/unsta-sfs/internal/logging"
	"github.com/flavien-hugs/unsta-sfs/internal/service"
)

// errorBody is the wire shape for every failed request.
type errorBody struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps a taxonomy error onto its HTTP status; anything else is
// an opaque 500 (and logged, so nothing is swallowed).
func respondError(w http.ResponseWriter, log logging.Logger, err error) {
	if e, ok := service.AsError(err); ok {
		status := e.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		respondJSON(w, status, errorBody{ErrorCode: string(e.Code), ErrorMessage: e.Message})
		return
	}
	log.Error("unclassified handler error", "error", err)
	respondJSON(w, http.StatusInternalServerError, errorBody{
		ErrorCode:    string(service.CodeUnknown),
		ErrorMessage: "internal error",
	})
}
