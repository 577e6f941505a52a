package middleware

import (
	"encoding/json"
	"net/http"
)

type failureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// reject writes the shared JSON failure shape.
func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failureBody{Success: false, Message: message})
}
