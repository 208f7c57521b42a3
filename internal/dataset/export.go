package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File names written by Save.
const (
	TrainFile      = "train.json"
	ValidationFile = "validation.json"
)

// Save writes both partitions as indented JSON into dir, creating it if needed.
func Save(dir string, train, validation *Set) (trainPath, validationPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create export dir: %w", err)
	}

	trainPath = filepath.Join(dir, TrainFile)
	validationPath = filepath.Join(dir, ValidationFile)

	if err := writeJSON(trainPath, train); err != nil {
		return "", "", err
	}
	if err := writeJSON(validationPath, validation); err != nil {
		return "", "", err
	}
	return trainPath, validationPath, nil
}

// LoadSet reads a partition written by Save.
func LoadSet(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(set.Features) != len(set.Labels) {
		return nil, fmt.Errorf("%s: %d feature rows but %d labels", path, len(set.Features), len(set.Labels))
	}
	return &set, nil
}

// Samples converts the set back into labeled samples.
func (s *Set) Samples() []Sample {
	out := make([]Sample, len(s.Labels))
	for i := range s.Labels {
		out[i] = Sample{Features: s.Features[i], Label: s.Labels[i]}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
