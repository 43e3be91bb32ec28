package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kickdemo-go/internal/session"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// SQLiteStore is a SQLite-backed implementation of session.Store so that
// sessions (and the token credentials they own) survive a restart.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens the database at path and runs migrations.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// NewSQLiteStore wraps an existing database handle. Used by tests.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			token_json BLOB,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create creates a new empty session.
func (s *SQLiteStore) Create(ctx context.Context, ttl time.Duration) (*session.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(ttl).UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, expires_at) VALUES (?, ?)`,
		id, expiresAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	return &session.Session{ID: id, ExpiresAt: expiresAt}, nil
}

// Get retrieves a session by ID. Expired rows are deleted lazily.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var tokenJSON sql.NullString
	var expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT token_json, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&tokenJSON, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	sess := &session.Session{ID: id}
	sess.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	if time.Now().After(sess.ExpiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		return nil, session.ErrNotFound
	}

	if tokenJSON.Valid && tokenJSON.String != "" {
		if err := json.Unmarshal([]byte(tokenJSON.String), &sess.Token); err != nil {
			return nil, fmt.Errorf("unmarshaling token: %w", err)
		}
	}
	return sess, nil
}

// SaveToken overwrites the session's token credential.
func (s *SQLiteStore) SaveToken(ctx context.Context, id string, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET token_json = ? WHERE id = ?`, string(tokenJSON), id)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return requireRow(res)
}

// ClearToken drops the session's token credential.
func (s *SQLiteStore) ClearToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET token_json = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return requireRow(res)
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// CleanupExpired removes all expired sessions.
func (s *SQLiteStore) CleanupExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC().Format(time.RFC3339))
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// generateSessionID creates a new random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
