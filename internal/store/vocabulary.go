package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ayusman/handsign/internal/vocab"
)

// ErrVocabularyMismatch is returned when the stored vocabulary differs from
// the one in use. Samples are labeled by position, so mixing vocabularies
// would silently relabel them.
var ErrVocabularyMismatch = errors.New("vocabulary mismatch")

// VocabularyRepository stores the ordered sign list samples are labeled with.
type VocabularyRepository struct {
	db *sql.DB
}

// Vocabulary returns the vocabulary repository for this store.
func (s *Store) Vocabulary() *VocabularyRepository {
	return &VocabularyRepository{db: s.db}
}

// Get returns the stored vocabulary, or ErrNotFound if none was recorded.
func (r *VocabularyRepository) Get() (*vocab.Vocabulary, error) {
	rows, err := r.db.Query(`SELECT name FROM signs ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, ErrNotFound
	}
	return vocab.New(names)
}

// Ensure records v if the store has no vocabulary yet, and otherwise checks
// that v matches the stored one.
func (r *VocabularyRepository) Ensure(v *vocab.Vocabulary) error {
	stored, err := r.Get()
	switch {
	case errors.Is(err, ErrNotFound):
		return r.insert(v)
	case err != nil:
		return err
	}

	if !stored.Equal(v.Names()) {
		return fmt.Errorf("%w: store has %s, config has %s", ErrVocabularyMismatch, stored, v)
	}
	return nil
}

func (r *VocabularyRepository) insert(v *vocab.Vocabulary) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO signs (position, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, name := range v.Names() {
		if _, err := stmt.Exec(i, name); err != nil {
			return err
		}
	}

	return tx.Commit()
}
