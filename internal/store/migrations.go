package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS workouts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			version TEXT NOT NULL,
			poses INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// landmarks holds the JSON array of {index, position, confidence} records
		`CREATE TABLE IF NOT EXISTS keyposes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workout_id TEXT NOT NULL REFERENCES workouts(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			name TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL DEFAULT 0,
			landmarks TEXT NOT NULL,
			UNIQUE(workout_id, sequence)
		)`,

		`CREATE TABLE IF NOT EXISTS calibrations (
			profile TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			scale_factor REAL NOT NULL,
			offset_x REAL NOT NULL,
			offset_y REAL NOT NULL,
			offset_z REAL NOT NULL,
			quality REAL NOT NULL,
			joint_scales TEXT NOT NULL DEFAULT '[]',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_keyposes_workout_id ON keyposes(workout_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
