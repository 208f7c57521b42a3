package trainer

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrTrainerNotFound is returned when a requested trainer cannot be found.
var ErrTrainerNotFound = errors.New("trainer not found")

// Manager discovers trainers under a directory.
type Manager struct {
	dir      string
	trainers map[string]*Trainer
	mu       sync.RWMutex
}

// NewManager creates a new Manager for the given trainer directory.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:      dir,
		trainers: make(map[string]*Trainer),
	}
}

// Discover scans the directory for trainer.json manifests. Each
// subdirectory holding a readable manifest is one trainer.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.trainers = make(map[string]*Trainer)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(path, ManifestFile))
		if err != nil {
			continue // not a trainer
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			continue // Skip trainers with invalid JSON
		}
		if manifest.Name == "" || manifest.Executable == "" {
			continue
		}

		m.trainers[manifest.Name] = &Trainer{
			Manifest:   manifest,
			Path:       path,
			Executable: filepath.Join(path, manifest.Executable),
		}
	}

	return nil
}

// Get returns a trainer by name.
func (m *Manager) Get(name string) (*Trainer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.trainers[name]
	if !ok {
		return nil, ErrTrainerNotFound
	}
	return t, nil
}

// List returns all discovered trainers sorted by name.
func (m *Manager) List() []*Trainer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trainers := make([]*Trainer, 0, len(m.trainers))
	for _, t := range m.trainers {
		trainers = append(trainers, t)
	}
	sort.Slice(trainers, func(i, j int) bool {
		return trainers[i].Manifest.Name < trainers[j].Manifest.Name
	})
	return trainers
}

// Dir returns the trainer directory path.
func (m *Manager) Dir() string {
	return m.dir
}
