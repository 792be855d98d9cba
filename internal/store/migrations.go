package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Seal samples table - labelled feature vectors for training
		`CREATE TABLE IF NOT EXISTS seal_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seal TEXT NOT NULL,
			batch TEXT NOT NULL,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_seal_samples_seal ON seal_samples(seal)`,
		`CREATE INDEX IF NOT EXISTS idx_seal_samples_batch ON seal_samples(batch)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
