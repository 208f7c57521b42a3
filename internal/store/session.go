package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a collection session.
type SessionStatus string

const (
	// SessionActive is a session still collecting.
	SessionActive SessionStatus = "active"
	// SessionComplete is a session that reached every sign's quota.
	SessionComplete SessionStatus = "complete"
	// SessionAbandoned is a session the user quit early.
	SessionAbandoned SessionStatus = "abandoned"
)

// Session represents one collection run.
type Session struct {
	ID          string        `json:"id"`
	TargetCount int           `json:"target_count"`
	Status      SessionStatus `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// SessionRepository provides CRUD operations for collection sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new active session with a fresh ID.
func (r *SessionRepository) Create(targetCount int) (*Session, error) {
	sess := &Session{
		ID:          uuid.New().String(),
		TargetCount: targetCount,
		Status:      SessionActive,
		StartedAt:   time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, target_count, status, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.TargetCount, string(sess.Status), sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Finish marks a session complete or abandoned.
func (r *SessionRepository) Finish(id string, status SessionStatus) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET status = ?, finished_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, target_count, status, started_at, finished_at FROM sessions WHERE id = ?`,
		id,
	)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, target_count, status, started_at, finished_at
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess     Session
		status   string
		finished sql.NullTime
	)
	if err := row.Scan(&sess.ID, &sess.TargetCount, &status, &sess.StartedAt, &finished); err != nil {
		return nil, err
	}
	sess.Status = SessionStatus(status)
	if finished.Valid {
		t := finished.Time
		sess.FinishedAt = &t
	}
	return &sess, nil
}
