package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"go-storefront/services"
)

// Envelope is the response body shape: {success, message?, ...payload}.
type Envelope map[string]interface{}

// JSON writes a response body with the given status.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// Fail writes an error envelope with an explicit status.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{"success": false, "message": message})
}

// Error maps a service error to a status and writes the envelope. Errors
// outside the taxonomy are logged and reported as a generic server error so
// persistence details never leak to the client.
func Error(w http.ResponseWriter, err error) {
	switch services.CodeOf(err) {
	case services.CodeNotFound:
		Fail(w, http.StatusNotFound, err.Error())
	case services.CodeBadRequest:
		Fail(w, http.StatusBadRequest, err.Error())
	case services.CodeUnauthorized:
		Fail(w, http.StatusUnauthorized, err.Error())
	case services.CodeForbidden:
		Fail(w, http.StatusForbidden, err.Error())
	case services.CodeConflict:
		Fail(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		Fail(w, http.StatusInternalServerError, "Server Error")
	}
}
