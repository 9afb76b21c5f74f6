package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// generateAPIKey generates a random 32-byte hex string
func generateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// validateMasterKey checks the Authorization header against the master key.
// An unset master key disables key management.
func (s *Server) validateMasterKey(r *http.Request) bool {
	key := r.Header.Get("Authorization")
	if s.masterKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.masterKey)) == 1
}

// CreateAPIKey creates a new API key
func (s *Server) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	if !s.validateMasterKey(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Description string `json:"description" validate:"max=200"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	key, err := generateAPIKey()
	if err != nil {
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}

	apiKey, err := s.store.CreateAPIKey(r.Context(), key, strings.TrimSpace(req.Description), s.now())
	if err != nil {
		log.Printf("Error creating API key: %v", err)
		http.Error(w, "Failed to create API key", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, apiKey)
}

// DeleteAPIKey deletes an API key
func (s *Server) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	if !s.validateMasterKey(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ID int `json:"id" validate:"gt=0"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	deleted, err := s.store.DeleteAPIKey(r.Context(), req.ID)
	if err != nil {
		http.Error(w, "Failed to delete API key", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "API key not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAPIKeys lists all API keys (only accessible with master key)
func (s *Server) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	if !s.validateMasterKey(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	apiKeys, err := s.store.ListAPIKeys(r.Context())
	if err != nil {
		http.Error(w, "Failed to list API keys", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, apiKeys)
}
