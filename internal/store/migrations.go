package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per analysis session with its latest aggregate
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('image', 'video', 'live')),
			exercise_type TEXT NOT NULL,
			requested_type TEXT NOT NULL DEFAULT '',
			used_fallback INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			progress REAL NOT NULL DEFAULT 0,
			expected_frames INTEGER NOT NULL DEFAULT 0,
			overall REAL,
			summary TEXT NOT NULL DEFAULT '{}',
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Session frames table - per-frame results in frame order
		`CREATE TABLE IF NOT EXISTS session_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			timestamp REAL NOT NULL,
			stable INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL CHECK(outcome IN ('scored', 'incomplete', 'no_pose')),
			overall REAL,
			score TEXT,
			feedback TEXT NOT NULL DEFAULT '[]',
			angles TEXT NOT NULL DEFAULT '{}',
			missing TEXT NOT NULL DEFAULT '[]',
			UNIQUE(session_id, frame_index)
		)`,

		// Actions table - plugin actions to run when a session of an exercise completes
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			exercise_type TEXT NOT NULL,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_session_frames_session_id ON session_frames(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_exercise_type ON actions(exercise_type)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
