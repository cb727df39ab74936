package api

import (
	"encoding/json"
	"net/http"

	"lmsrexchange/internal/core"
)

// errorBody is the wire shape every error response uses:
// {error: <Kind>, message: <human>}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps an engine error to its HTTP status code and writes
// the standard error body. Anything that isn't a *core.Error is
// treated as an unexpected internal failure.
func writeError(w http.ResponseWriter, err error) {
	engineErr, ok := err.(*core.Error)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: string(core.KindInternal), Message: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch engineErr.Kind {
	case core.KindValidation:
		status = http.StatusBadRequest
	case core.KindNotFound:
		status = http.StatusNotFound
	case core.KindMarketNotOpen, core.KindAlreadyResolved:
		status = http.StatusConflict
	case core.KindInsufficientFunds, core.KindInsufficientShare, core.KindDegenerateTrade:
		status = http.StatusBadRequest
	case core.KindFetchFailed, core.KindPathMissing, core.KindUnknownOperator, core.KindInternal:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorBody{Error: string(engineErr.Kind), Message: engineErr.Message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
