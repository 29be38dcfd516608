package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"renewals/internal/log"
	"renewals/internal/validation"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Errors validation.Errors `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if status >= http.StatusInternalServerError && err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), msg, log.FieldError, err)
	}
	if err != nil && status < http.StatusInternalServerError {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeValidation reports rejected input. The body lists every violation.
func writeValidation(w http.ResponseWriter, errs validation.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
		Error:  "validation failed",
		Errors: errs,
	})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// requestID keeps a caller-supplied X-Request-ID and mints one otherwise.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Request-ID")); id != "" && len(id) <= 64 {
		return id
	}
	return generateRequestID()
}
