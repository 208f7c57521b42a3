package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Signs table - the vocabulary, position is the class label
		`CREATE TABLE IF NOT EXISTS signs (
			position INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		// Sessions table - one row per interactive collection run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			target_count INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('active', 'complete', 'abandoned')),
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		// Samples table - one normalized feature vector per row
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			sign_index INTEGER NOT NULL REFERENCES signs(position),
			features TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_samples_session_id ON samples(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_sign_index ON samples(sign_index)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
