// Package store persists users and verification case records in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/forensight/forensight/internal/forensics"
)

type Store struct {
	DB *sql.DB
}

// New constructs the Store from DATABASE_URL or the POSTGRES_* variables.
func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// Case is a persisted verification case record.
type Case struct {
	ID        string
	UserID    string
	Files     []forensics.FileMeta
	Report    json.RawMessage
	CreatedAt time.Time
}

// SaveCase upserts the case record. Re-running a session replaces its
// stored report.
func (s *Store) SaveCase(ctx context.Context, caseID string, files []forensics.FileMeta, report interface{}) error {
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("marshalling case files: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshalling case report: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO cases (id, files, report)
VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET files=EXCLUDED.files, report=EXCLUDED.report
`, caseID, filesJSON, reportJSON)
	return err
}

// SetCaseUser attaches an owning user to a case record.
func (s *Store) SetCaseUser(ctx context.Context, caseID, userID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE cases SET user_id=$2 WHERE id=$1`, caseID, userID)
	return err
}

// GetCase fetches one case record by ID.
func (s *Store) GetCase(ctx context.Context, caseID string) (Case, bool, error) {
	var c Case
	var filesJSON []byte
	err := s.DB.QueryRowContext(ctx, `
SELECT id, COALESCE(user_id::text,''), files, report, created_at
FROM cases
WHERE id=$1
`, caseID).Scan(&c.ID, &c.UserID, &filesJSON, &c.Report, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return Case{}, false, nil
	}
	if err != nil {
		return Case{}, false, err
	}
	if len(filesJSON) > 0 {
		if err := json.Unmarshal(filesJSON, &c.Files); err != nil {
			return Case{}, false, fmt.Errorf("unmarshalling case files: %w", err)
		}
	}
	return c, true, nil
}

// ListCases returns case records for one user, newest first.
func (s *Store) ListCases(ctx context.Context, userID string, limit int) ([]Case, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, COALESCE(user_id::text,''), files, report, created_at
FROM cases
WHERE user_id=$1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Case
	for rows.Next() {
		var c Case
		var filesJSON []byte
		if err := rows.Scan(&c.ID, &c.UserID, &filesJSON, &c.Report, &c.CreatedAt); err != nil {
			return nil, err
		}
		if len(filesJSON) > 0 {
			if err := json.Unmarshal(filesJSON, &c.Files); err != nil {
				return nil, fmt.Errorf("unmarshalling case files: %w", err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
