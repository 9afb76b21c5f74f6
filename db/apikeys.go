package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/vainnor/attendance-portal/models"
)

// CreateAPIKey stores a freshly generated key.
func (s *Store) CreateAPIKey(ctx context.Context, key, description string, now time.Time) (models.APIKey, error) {
	var apiKey models.APIKey
	err := s.queryRow(ctx, `
		INSERT INTO api_keys (key, description, created_at, is_active)
		VALUES (?, ?, ?, true)
		RETURNING id, key, description, created_at, is_active
	`, key, description, now.UTC()).Scan(
		&apiKey.ID,
		&apiKey.Key,
		&apiKey.Description,
		&apiKey.CreatedAt,
		&apiKey.IsActive,
	)
	return apiKey, err
}

// DeleteAPIKey removes a key by id and reports whether it existed.
func (s *Store) DeleteAPIKey(ctx context.Context, id int) (bool, error) {
	result, err := s.exec(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAPIKeys lists all keys, newest first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	rows, err := s.query(ctx, `
		SELECT id, key, description, created_at, last_used_at, is_active
		FROM api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apiKeys []models.APIKey
	for rows.Next() {
		var apiKey models.APIKey
		var description sql.NullString
		var lastUsedAt sql.NullTime
		err := rows.Scan(
			&apiKey.ID,
			&apiKey.Key,
			&description,
			&apiKey.CreatedAt,
			&lastUsedAt,
			&apiKey.IsActive,
		)
		if err != nil {
			return nil, err
		}
		apiKey.Description = description.String
		if lastUsedAt.Valid {
			apiKey.LastUsedAt = lastUsedAt.Time
		}
		apiKeys = append(apiKeys, apiKey)
	}
	return apiKeys, rows.Err()
}

// ValidateAPIKey checks if an API key is active and updates its last_used_at timestamp
func (s *Store) ValidateAPIKey(ctx context.Context, key string, now time.Time) bool {
	var exists bool
	err := s.queryRow(ctx, `
		UPDATE api_keys
		SET last_used_at = ?
		WHERE key = ? AND is_active = true
		RETURNING true
	`, now.UTC(), key).Scan(&exists)
	return err == nil && exists
}
