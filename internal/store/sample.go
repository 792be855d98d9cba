package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Sample represents one labelled training sample stored in the database.
type Sample struct {
	ID          int64           `json:"id"`
	Seal        string          `json:"seal"`
	Batch       string          `json:"batch"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository provides CRUD operations for seal samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts a batch of samples for one seal in a single transaction.
func (r *SampleRepository) Create(sealID, batch string, samples []json.RawMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO seal_samples (seal, batch, sample_index, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(sealID, batch, i, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBySeal retrieves all samples for one seal, oldest first.
func (r *SampleRepository) GetBySeal(sealID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, seal, batch, sample_index, data, created_at
		 FROM seal_samples
		 WHERE seal = ?
		 ORDER BY id`,
		sealID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// GetAll retrieves every sample's raw data grouped by seal label.
func (r *SampleRepository) GetAll() (map[string][]json.RawMessage, error) {
	rows, err := r.db.Query(
		`SELECT id, seal, batch, sample_index, data, created_at
		 FROM seal_samples
		 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples, err := scanSamples(rows)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]json.RawMessage)
	for _, s := range samples {
		grouped[s.Seal] = append(grouped[s.Seal], s.Data)
	}
	return grouped, nil
}

// Counts returns the number of stored samples per seal label.
func (r *SampleRepository) Counts() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT seal, COUNT(*) FROM seal_samples GROUP BY seal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sealID string
		var n int
		if err := rows.Scan(&sealID, &n); err != nil {
			return nil, err
		}
		counts[sealID] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// DeleteBySeal removes all samples for one seal.
func (r *SampleRepository) DeleteBySeal(sealID string) error {
	_, err := r.db.Exec(`DELETE FROM seal_samples WHERE seal = ?`, sealID)
	return err
}

func scanSamples(rows *sql.Rows) ([]Sample, error) {
	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.Seal, &s.Batch, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
