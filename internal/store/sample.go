package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/handsign/internal/dataset"
	"github.com/ayusman/handsign/internal/feature"
)

// SampleRepository stores labeled feature vectors.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts samples for a session in a single transaction.
func (r *SampleRepository) Create(sessionID string, samples []dataset.Sample) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO samples (session_id, sign_index, features) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range samples {
		data, err := json.Marshal(s.Features)
		if err != nil {
			return fmt.Errorf("marshal sample %d: %w", i, err)
		}
		if _, err := stmt.Exec(sessionID, s.Label, string(data)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List retrieves every stored sample in insertion order.
func (r *SampleRepository) List() ([]dataset.Sample, error) {
	rows, err := r.db.Query(`SELECT sign_index, features FROM samples ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []dataset.Sample
	for rows.Next() {
		var (
			label int
			data  string
		)
		if err := rows.Scan(&label, &data); err != nil {
			return nil, err
		}

		var v feature.Vector
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("decode sample: %w", err)
		}
		samples = append(samples, dataset.Sample{Features: v, Label: label})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// CountBySign returns the number of samples per label for a vocabulary of
// the given width.
func (r *SampleRepository) CountBySign(width int) ([]int, error) {
	rows, err := r.db.Query(`SELECT sign_index, COUNT(*) FROM samples GROUP BY sign_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]int, width)
	for rows.Next() {
		var label, n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		if label >= 0 && label < width {
			counts[label] = n
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// DeleteBySession removes all samples recorded in a session.
func (r *SampleRepository) DeleteBySession(sessionID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM samples WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
