package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/nx-media/playcore/internal/domain"
)

// errorResponse is the wire shape for every non-2xx response (spec §7
// "API responses carry an error code and a short message; no stack
// traces").
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindPlanUnavailable:
		return http.StatusUnprocessableEntity
	case domain.KindResourceExhausted:
		return http.StatusServiceUnavailable
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindConcurrencyConflict:
		return http.StatusConflict
	case domain.KindEncoderFailed:
		return http.StatusNotFound // spec §4.C: "segment requests return 404 after the wait deadline"
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	code := string(kind)
	if code == "" {
		code = "internal"
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.InvalidInput("httpapi: malformed request body: " + err.Error())
	}
	return nil
}
