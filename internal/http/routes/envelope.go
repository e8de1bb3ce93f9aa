package routes

import (
	"encoding/json"
	"net/http"
)

// The response envelope matches the shape the frontend consumes:
// {success, message, data} on success, {success, error, message} on failure.

type successEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Log.Error().Err(err).Msg("write response failed")
	}
}

func (s *Server) success(w http.ResponseWriter, data any, message string) {
	if message == "" {
		message = "Success"
	}
	s.respond(w, http.StatusOK, successEnvelope{Success: true, Message: message, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, status int, code, message string) {
	s.respond(w, status, errorEnvelope{Success: false, Error: code, Message: message})
}
