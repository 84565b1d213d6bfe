package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artpar/modgate/adapters/sqlite"
)

// Store persists issued tokens in SQLite. Only the bcrypt hash of the
// secret is stored.
type Store struct {
	db *sqlite.DB
}

// NewStore creates the store and its schema.
func NewStore(db *sqlite.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			id          TEXT PRIMARY KEY,
			label       TEXT NOT NULL DEFAULT '',
			secret_hash BLOB NOT NULL,
			revoked     INTEGER NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create tokens table: %w", err)
	}
	return &Store{db: db}, nil
}

// Create stores a new token with its secret hash.
func (s *Store) Create(ctx context.Context, tok Token, hash []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (id, label, secret_hash, revoked, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, tok.ID, tok.Label, hash, tok.CreatedAt)
	return err
}

// GetHash returns the secret hash and revocation flag for a token id.
func (s *Store) GetHash(ctx context.Context, id string) (hash []byte, revoked bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT secret_hash, revoked FROM tokens WHERE id = ?
	`, id)

	if err := row.Scan(&hash, &revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, sqlite.ErrNotFound
		}
		return nil, false, err
	}
	return hash, revoked, nil
}

// Revoke marks a token revoked.
func (s *Store) Revoke(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tokens SET revoked = 1 WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sqlite.ErrNotFound
	}
	return nil
}

// List returns all tokens, newest first, without secrets.
func (s *Store) List(ctx context.Context) ([]Token, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, revoked, created_at FROM tokens
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []Token{}
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.ID, &t.Label, &t.Revoked, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
