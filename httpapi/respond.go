package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/credauth"
)

// errorBody is the uniform JSON error envelope. Error is always "fail";
// clients branch on status code and show Message.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the engine's error taxonomy onto status codes. Internal
// failures never leak their cause; the body carries a fixed message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch credauth.KindOf(err) {
	case credauth.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case credauth.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	case credauth.KindInvalidInput, credauth.KindExpired:
		status = http.StatusBadRequest
		message = err.Error()
	case credauth.KindUnauthorized:
		status = http.StatusUnauthorized
		message = err.Error()
	}

	writeJSON(w, status, errorBody{Error: "fail", Message: message})
}

// writeStoreError translates raw store sentinels for handlers that talk to
// the store directly instead of going through the engine.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, credauth.ErrRecordNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "fail", Message: "note not found"})
		return
	}
	writeError(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "fail", Message: "invalid request body"})
		return false
	}
	return true
}
