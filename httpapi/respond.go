package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/password"
	"github.com/velvetcart/secauth/throttle"
)

// errBadRequest marks request decoding failures for fail().
var errBadRequest = errors.New("httpapi: malformed request body")

type successBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type failureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) ok(w http.ResponseWriter, message string, data any) {
	s.respond(w, http.StatusOK, successBody{Success: true, Message: message, Data: data})
}

// fail maps an engine error to a status code and a client-safe
// message. Anything unrecognized is a 500; the detail stays in the
// server log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var policyErr *password.PolicyError
	var throttled *throttle.ThrottledError

	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.As(err, &policyErr):
		status = http.StatusBadRequest
		message = policyErr.Message
	case errors.As(err, &throttled):
		seconds := int(throttled.RetryAfter.Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		status = http.StatusTooManyRequests
		message = fmt.Sprintf("Too many attempts, try again in %d seconds", seconds)
	case errors.Is(err, secauth.ErrInvalidCredentials):
		status = http.StatusBadRequest
		message = "Invalid credentials"
	case errors.Is(err, secauth.ErrPasswordExpired):
		status = http.StatusForbidden
		message = "Password expired, please reset your password"
	case errors.Is(err, secauth.ErrAccountExists):
		status = http.StatusBadRequest
		message = "An account with this email already exists"
	case errors.Is(err, secauth.ErrSessionExpired):
		status = http.StatusUnauthorized
		message = "Session expired, please login again"
	case errors.Is(err, secauth.ErrSessionInvalid):
		status = http.StatusUnauthorized
		message = "Invalid session"
	case errors.Is(err, secauth.ErrPasswordReuse):
		status = http.StatusBadRequest
		message = "New password must differ from recently used passwords"
	case errors.Is(err, secauth.ErrResetInvalid):
		status = http.StatusBadRequest
		message = "Reset token is invalid or expired"
	case errors.Is(err, secauth.ErrForbidden):
		status = http.StatusForbidden
		message = "Access denied"
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
		message = "Invalid request body"
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	s.respond(w, status, failureBody{Success: false, Message: message})
}

// decode reads a JSON body into dst, rejecting unknown fields.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
