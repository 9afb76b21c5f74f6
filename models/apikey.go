package models

import "time"

// APIKey lets a client bypass the request rate limit.
type APIKey struct {
	ID          int       `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsedAt  time.Time `json:"last_used_at,omitempty"`
	IsActive    bool      `json:"is_active"`
}
