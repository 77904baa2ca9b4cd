// Package appconfig persists the process-wide vault configuration: the
// active vault and the recently used vaults.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/starford/isnippet/internal/models"
	"github.com/starford/isnippet/internal/storage"
)

// FileName is the config document name inside the app-data directory.
const FileName = "config.json"

// Store reads and writes config.json. Record serializes its own
// read-modify-write; Load and Save are single-shot.
type Store struct {
	fs    storage.Provider
	limit int

	mu sync.Mutex
}

// NewStore creates a store in dataDir, creating the directory if needed.
// recentLimit caps RecentVaults; zero or less means unbounded.
func NewStore(dataDir string, recentLimit int) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("appconfig: create data dir: %w", err)
	}
	fsys, err := storage.NewFS(dataDir)
	if err != nil {
		return nil, fmt.Errorf("appconfig: %w", err)
	}
	return &Store{fs: fsys, limit: recentLimit}, nil
}

// Dir returns the app-data directory.
func (s *Store) Dir() string { return s.fs.Root() }

// Load returns the persisted config, or nil when none has been written yet.
func (s *Store) Load() (*models.Config, error) {
	cfg, err := storage.ReadDocument[models.Config](s.fs, FileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("appconfig: load: %w", err)
	}
	if cfg.RecentVaults == nil {
		cfg.RecentVaults = []string{}
	}
	return &cfg, nil
}

// Save overwrites config.json with cfg.
func (s *Store) Save(cfg models.Config) error {
	if cfg.RecentVaults == nil {
		cfg.RecentVaults = []string{}
	}
	if err := storage.WriteDocument(s.fs, FileName, cfg); err != nil {
		return fmt.Errorf("appconfig: save: %w", err)
	}
	return nil
}

// Record marks vaultPath as the active vault and persists the result.
// A missing config file is created.
func (s *Store) Record(vaultPath string) (models.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.Load()
	if err != nil {
		return models.Config{}, err
	}
	next := Capped(RecordVaultUse(cur, vaultPath), s.limit)
	if err := s.Save(next); err != nil {
		return models.Config{}, err
	}
	return next, nil
}

// RecordVaultUse returns a copy of cfg with vaultPath as the active vault and
// at the front of RecentVaults. Earlier occurrences of vaultPath are dropped.
// cfg may be nil.
func RecordVaultUse(cfg *models.Config, vaultPath string) models.Config {
	active := vaultPath
	recent := []string{vaultPath}
	if cfg != nil {
		for _, p := range cfg.RecentVaults {
			if p != vaultPath {
				recent = append(recent, p)
			}
		}
	}
	return models.Config{ActiveVault: &active, RecentVaults: recent}
}

// Capped returns cfg with RecentVaults truncated to limit entries.
// limit <= 0 leaves the list as is.
func Capped(cfg models.Config, limit int) models.Config {
	if limit > 0 && len(cfg.RecentVaults) > limit {
		cfg.RecentVaults = slices.Clone(cfg.RecentVaults[:limit])
	}
	return cfg
}
