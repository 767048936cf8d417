package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/posecoach/internal/exercise"
	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/session"
)

// FrameRepository stores per-frame results for sessions.
type FrameRepository struct {
	db *sql.DB
}

// Frames returns the frame repository for this store.
func (s *Store) Frames() *FrameRepository {
	return &FrameRepository{db: s.db}
}

// Create inserts frames for a session in a single transaction.
func (r *FrameRepository) Create(sessionID string, frames []session.FrameRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO session_frames (session_id, frame_index, timestamp, stable, outcome, overall, score,
			feedback, angles, missing)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		var overall sql.NullFloat64
		var score sql.NullString
		if f.Score != nil {
			data, err := json.Marshal(f.Score)
			if err != nil {
				return fmt.Errorf("encode score for frame %d: %w", f.Index, err)
			}
			overall = sql.NullFloat64{Float64: f.Score.Overall, Valid: true}
			score = sql.NullString{String: string(data), Valid: true}
		}

		items, err := json.Marshal(f.Feedback)
		if err != nil {
			return fmt.Errorf("encode feedback for frame %d: %w", f.Index, err)
		}
		angles, err := json.Marshal(f.Angles)
		if err != nil {
			return fmt.Errorf("encode angles for frame %d: %w", f.Index, err)
		}
		missing, err := json.Marshal(f.Missing)
		if err != nil {
			return fmt.Errorf("encode missing for frame %d: %w", f.Index, err)
		}

		if _, err := stmt.Exec(sessionID, f.Index, f.Timestamp, boolToInt(f.Stable), string(f.Outcome),
			overall, score, string(items), string(angles), string(missing)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBySessionID retrieves all frames for a session in frame order.
func (r *FrameRepository) GetBySessionID(sessionID string) ([]session.FrameRecord, error) {
	rows, err := r.db.Query(
		`SELECT frame_index, timestamp, stable, outcome, score, feedback, angles, missing
		 FROM session_frames
		 WHERE session_id = ?
		 ORDER BY frame_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []session.FrameRecord
	for rows.Next() {
		var f session.FrameRecord
		var stable int
		var outcome, items, angles, missing string
		var score sql.NullString

		if err := rows.Scan(&f.Index, &f.Timestamp, &stable, &outcome, &score, &items, &angles, &missing); err != nil {
			return nil, err
		}

		f.Stable = stable != 0
		f.Outcome = exercise.Outcome(outcome)
		if score.Valid {
			f.Score = &scoring.Score{}
			if err := json.Unmarshal([]byte(score.String), f.Score); err != nil {
				return nil, fmt.Errorf("decode score for frame %d: %w", f.Index, err)
			}
		}
		if err := json.Unmarshal([]byte(items), &f.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback for frame %d: %w", f.Index, err)
		}
		if err := json.Unmarshal([]byte(angles), &f.Angles); err != nil {
			return nil, fmt.Errorf("decode angles for frame %d: %w", f.Index, err)
		}
		if err := json.Unmarshal([]byte(missing), &f.Missing); err != nil {
			return nil, fmt.Errorf("decode missing for frame %d: %w", f.Index, err)
		}

		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// DeleteBySessionID removes all frames for a session.
func (r *FrameRepository) DeleteBySessionID(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM session_frames WHERE session_id = ?`, sessionID)
	return err
}
