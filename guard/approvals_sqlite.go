package guard

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quailyquaily/cmdloop/db"
)

type SQLiteApprovalStore struct {
	cfg db.Config

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteApprovalStore(cfg db.Config) (*SQLiteApprovalStore, error) {
	s := &SQLiteApprovalStore{cfg: cfg}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSQLiteApprovalStoreFromDB wraps an already opened database.
func NewSQLiteApprovalStoreFromDB(sqlDB *sql.DB) (*SQLiteApprovalStore, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("nil sql db")
	}
	s := &SQLiteApprovalStore{db: sqlDB}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteApprovalStore) Get(ctx context.Context, identity string) (ApprovalRecord, bool, error) {
	if s == nil {
		return ApprovalRecord{}, false, fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return ApprovalRecord{}, false, err
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return ApprovalRecord{}, false, nil
	}

	row := s.db.QueryRowContext(ctx, `
SELECT identity, status, command, command_id, command_hash, actor, created_at_unix, updated_at_unix
FROM command_approvals
WHERE identity = ?
`, identity)
	rec, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return ApprovalRecord{}, false, nil
	}
	if err != nil {
		return ApprovalRecord{}, false, err
	}
	return rec, true, nil
}

func (s *SQLiteApprovalStore) Set(ctx context.Context, rec ApprovalRecord) error {
	if s == nil {
		return fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return err
	}
	identity := strings.TrimSpace(rec.Identity)
	if identity == "" {
		return fmt.Errorf("missing approval identity")
	}
	switch rec.Status {
	case ApprovalAutoApproved, ApprovalPreviouslyApproved, ApprovalNeverAsked:
	default:
		return fmt.Errorf("invalid approval status: %q", rec.Status)
	}

	now := time.Now().UTC().Unix()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO command_approvals (
  identity, status, command, command_id, command_hash, actor, created_at_unix, updated_at_unix
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(identity) DO UPDATE SET
  status = excluded.status,
  command = excluded.command,
  command_id = excluded.command_id,
  command_hash = excluded.command_hash,
  actor = excluded.actor,
  updated_at_unix = excluded.updated_at_unix
`, identity, string(rec.Status), strings.TrimSpace(rec.Command), strings.TrimSpace(rec.CommandID),
		strings.TrimSpace(rec.CommandHash), strings.TrimSpace(rec.Actor), now, now,
	)
	return err
}

func (s *SQLiteApprovalStore) List(ctx context.Context) ([]ApprovalRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT identity, status, command, command_id, command_hash, actor, created_at_unix, updated_at_unix
FROM command_approvals
ORDER BY identity
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ApprovalRecord
	for rows.Next() {
		rec, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteApprovalStore) Delete(ctx context.Context, identity string) error {
	if s == nil {
		return fmt.Errorf("nil approval store")
	}
	if err := s.ensureOpen(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM command_approvals WHERE identity = ?`, strings.TrimSpace(identity))
	return err
}

func (s *SQLiteApprovalStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(row rowScanner) (ApprovalRecord, error) {
	var (
		rec           ApprovalRecord
		status        string
		createdAtUnix int64
		updatedAtUnix int64
	)
	err := row.Scan(
		&rec.Identity, &status, &rec.Command, &rec.CommandID, &rec.CommandHash, &rec.Actor,
		&createdAtUnix, &updatedAtUnix,
	)
	if err != nil {
		return ApprovalRecord{}, err
	}
	rec.Status = ApprovalStatus(status)
	rec.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	rec.UpdatedAt = time.Unix(updatedAtUnix, 0).UTC()
	return rec, nil
}

func (s *SQLiteApprovalStore) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	sqlDB, err := db.Open(context.Background(), s.cfg)
	if err != nil {
		return err
	}
	s.db = sqlDB
	return s.migrate()
}

func (s *SQLiteApprovalStore) ensureOpen() error {
	if s.db != nil {
		return nil
	}
	return s.open()
}

func (s *SQLiteApprovalStore) migrate() error {
	if s.db == nil {
		return fmt.Errorf("sqlite db is not open")
	}
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS command_approvals (
  identity TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  command TEXT,
  command_id TEXT,
  command_hash TEXT,
  actor TEXT,
  created_at_unix INTEGER NOT NULL,
  updated_at_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_approvals_status ON command_approvals(status);
`)
	return err
}

var _ ApprovalStore = (*SQLiteApprovalStore)(nil)
