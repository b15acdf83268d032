package httpapi

import (
	"encoding/json"
	"net/http"

	"phistack/internal/catalog"
	"phistack/internal/modelcache"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps the domain error taxonomy onto HTTP status codes and codes.
func statusFor(err error) (int, string) {
	switch {
	case catalog.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case modelcache.IsFetchError(err):
		return http.StatusBadGateway, modelcache.FailureKind(err)
	case modelcache.IsIOError(err):
		return http.StatusInternalServerError, "io"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSONError(w, status, code, err.Error())
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
