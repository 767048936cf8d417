package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/session"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// SessionRepository provides CRUD operations for session records.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, kind, exercise_type, requested_type, used_fallback, status, progress,
	expected_frames, summary, error, created_at, updated_at`

// Create inserts a new session record. Zero timestamps are set to now.
func (r *SessionRepository) Create(rec *session.Record) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO sessions (id, kind, exercise_type, requested_type, used_fallback, status, progress,
			expected_frames, overall, summary, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Kind), string(rec.ExerciseType), rec.RequestedType, boolToInt(rec.UsedFallback),
		string(rec.Status), rec.Progress, rec.ExpectedFrames, overallOf(rec.Summary), string(summary),
		rec.Error, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// Update overwrites the mutable fields of a session record.
func (r *SessionRepository) Update(rec *session.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	summary, err := json.Marshal(rec.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	result, err := r.db.Exec(
		`UPDATE sessions SET status = ?, progress = ?, expected_frames = ?, overall = ?, summary = ?,
			error = ?, updated_at = ?
		 WHERE id = ?`,
		string(rec.Status), rec.Progress, rec.ExpectedFrames, overallOf(rec.Summary), string(summary),
		rec.Error, rec.UpdatedAt, rec.ID,
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

// Save creates the record or updates it if it already exists.
func (r *SessionRepository) Save(rec *session.Record) error {
	err := r.Update(rec)
	if errors.Is(err, ErrNotFound) {
		return r.Create(rec)
	}
	return err
}

// GetByID retrieves a session record by its ID.
func (r *SessionRepository) GetByID(id string) (*session.Record, error) {
	row := r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	rec, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves session records, newest first. A limit of zero returns all.
func (r *SessionRepository) List(limit int) ([]*session.Record, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*session.Record
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Delete removes a session and its frames by session ID.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
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

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*session.Record, error) {
	rec := &session.Record{}
	var kind, exerciseType, status, summary string
	var usedFallback int

	err := row.Scan(&rec.ID, &kind, &exerciseType, &rec.RequestedType, &usedFallback, &status,
		&rec.Progress, &rec.ExpectedFrames, &summary, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(summary), &rec.Summary); err != nil {
		return nil, fmt.Errorf("decode summary for session %s: %w", rec.ID, err)
	}

	rec.Kind = session.Kind(kind)
	rec.ExerciseType = exercise.Type(exerciseType)
	rec.Status = session.Status(status)
	rec.UsedFallback = usedFallback != 0
	return rec, nil
}

// overallOf returns the summary score as a nullable column value.
func overallOf(s session.Summary) sql.NullFloat64 {
	if s.Score == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: s.Score.Overall, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
