// Package vault creates, imports, and reads isnippet vaults.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/isnippet/internal/apperr"
	"github.com/starford/isnippet/internal/models"
	"github.com/starford/isnippet/internal/picker"
	"github.com/starford/isnippet/internal/storage"
)

// Event kinds passed to a Listener.
const (
	EventCreated  = "created"
	EventImported = "imported"
)

// ConfigRecorder persists "this vault was just used".
type ConfigRecorder interface {
	Record(vaultPath string) (models.Config, error)
}

// Listener is notified after a successful create or import.
type Listener func(kind string, v *models.Vault)

// Manager owns all vault document I/O. Every returned error is an
// *apperr.Error.
type Manager struct {
	configs  ConfigRecorder
	logger   *slog.Logger
	now      func() time.Time
	listener Listener
	locks    *pathLocks
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithListener registers a callback for successful create/import.
func WithListener(fn Listener) Option {
	return func(m *Manager) { m.listener = fn }
}

// NewManager creates a Manager that records vault use in configs.
func NewManager(configs ConfigRecorder, opts ...Option) *Manager {
	m := &Manager{
		configs: configs,
		logger:  slog.Default(),
		now:     time.Now,
		locks:   newPathLocks(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateVault creates basePath/vaultName with the default layout and
// documents, then records it as the active vault. An existing target is
// never reused.
func (m *Manager) CreateVault(ctx context.Context, basePath, vaultName string) (*models.Vault, error) {
	req := CreateRequest{BasePath: basePath, VaultName: vaultName}
	if err := req.Validate(); err != nil {
		return nil, m.fail("create", basePath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, m.fail("create", basePath, err)
	}

	base, err := filepath.Abs(strings.TrimSpace(basePath))
	if err != nil {
		return nil, m.fail("create", basePath, err)
	}
	name := strings.TrimSpace(vaultName)
	vaultPath := filepath.Join(base, name)

	unlock := m.locks.lock(vaultPath)
	defer unlock()

	if _, err := os.Lstat(vaultPath); err == nil {
		return nil, m.fail("create", vaultPath, apperr.New(apperr.CodeVaultAlreadyExists))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, m.fail("create", vaultPath, err)
	}

	createdBase := missingDirs(base)
	if err := os.MkdirAll(base, 0o755); err != nil {
		m.removeEmpty(createdBase)
		return nil, m.fail("create", vaultPath, fmt.Errorf("create base: %w", err))
	}
	// Mkdir is the create-if-absent claim; another process may have won.
	if err := os.Mkdir(vaultPath, 0o755); err != nil {
		m.removeEmpty(createdBase)
		if errors.Is(err, fs.ErrExist) {
			return nil, m.fail("create", vaultPath, apperr.Wrap(apperr.CodeVaultAlreadyExists, err))
		}
		return nil, m.fail("create", vaultPath, err)
	}

	data, err := m.initialize(vaultPath)
	if err != nil {
		if rmErr := os.RemoveAll(vaultPath); rmErr != nil {
			m.logger.Error("vault: rollback failed",
				slog.String("path", vaultPath),
				slog.String("error", rmErr.Error()))
		}
		m.removeEmpty(createdBase)
		return nil, m.fail("create", vaultPath, err)
	}

	v := &models.Vault{Name: name, Path: vaultPath, Data: data}
	m.recordUse(v, EventCreated)
	m.logger.Info("vault: created", slog.String("path", vaultPath))
	return v, nil
}

// missingDirs returns dir and those of its parents that do not exist yet,
// deepest first.
func missingDirs(dir string) []string {
	var out []string
	for {
		if _, err := os.Lstat(dir); !errors.Is(err, fs.ErrNotExist) {
			return out
		}
		out = append(out, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return out
		}
		dir = parent
	}
}

// removeEmpty undoes MkdirAll for dirs (deepest first). os.Remove leaves
// any directory that something else has populated in the meantime.
func (m *Manager) removeEmpty(dirs []string) {
	for _, dir := range dirs {
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug("vault: keep base dir",
				slog.String("path", dir),
				slog.String("error", err.Error()))
			return
		}
	}
}

// initialize lays out a claimed, empty vault directory.
func (m *Manager) initialize(vaultPath string) (models.VaultData, error) {
	fsys, err := storage.NewFS(vaultPath)
	if err != nil {
		return models.VaultData{}, err
	}
	for _, dir := range []string{SnippetsDir, MetaDir} {
		if err := fsys.EnsureDir(dir); err != nil {
			return models.VaultData{}, err
		}
	}
	data := DefaultDocuments(m.now())
	docs := []struct {
		path string
		v    any
	}{
		{SettingsFile, data.Settings},
		{WorkspaceFile, data.Workspace},
		{IndexFile, data.Index},
	}
	for _, d := range docs {
		if err := storage.WriteDocument(fsys, d.path, d.v); err != nil {
			return models.VaultData{}, err
		}
	}
	return data, nil
}

// ImportVault opens an existing vault and records it as the active vault.
func (m *Manager) ImportVault(ctx context.Context, vaultPath string) (*models.Vault, error) {
	if strings.TrimSpace(vaultPath) == "" {
		return nil, m.fail("import", vaultPath, apperr.New(apperr.CodeNoVaultSelected))
	}
	if err := ctx.Err(); err != nil {
		return nil, m.fail("import", vaultPath, err)
	}
	abs, err := filepath.Abs(strings.TrimSpace(vaultPath))
	if err != nil {
		return nil, m.fail("import", vaultPath, err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, m.fail("import", abs, apperr.New(apperr.CodeVaultPathNotExist))
	case err != nil:
		return nil, m.fail("import", abs, err)
	case !info.IsDir():
		return nil, m.fail("import", abs, apperr.New(apperr.CodeInvalidVault))
	}

	v, err := m.load(abs)
	if err != nil {
		return nil, m.fail("import", abs, err)
	}
	m.recordUse(v, EventImported)
	m.logger.Info("vault: imported", slog.String("path", abs))
	return v, nil
}

// ImportSelected asks p for a folder and imports it. A cancelled pick
// fails with NO_VAULT_SELECTED without touching the filesystem.
func (m *Manager) ImportSelected(ctx context.Context, p picker.Picker) (*models.Vault, error) {
	path, ok, err := p.SelectDirectory(ctx, "Select Vault Location")
	if err != nil {
		return nil, m.fail("import", "", err)
	}
	if !ok || strings.TrimSpace(path) == "" {
		return nil, m.fail("import", "", apperr.New(apperr.CodeNoVaultSelected))
	}
	return m.ImportVault(ctx, path)
}

// ReadVault loads a vault's documents without recording use.
func (m *Manager) ReadVault(ctx context.Context, vaultPath string) (*models.Vault, error) {
	if strings.TrimSpace(vaultPath) == "" {
		return nil, m.fail("read", vaultPath, apperr.New(apperr.CodeNoVaultSelected))
	}
	if err := ctx.Err(); err != nil {
		return nil, m.fail("read", vaultPath, err)
	}
	abs, err := filepath.Abs(strings.TrimSpace(vaultPath))
	if err != nil {
		return nil, m.fail("read", vaultPath, err)
	}
	v, err := m.load(abs)
	if err != nil {
		return nil, m.fail("read", abs, err)
	}
	return v, nil
}

// load checks for the metadata dir and reads the three documents.
func (m *Manager) load(vaultPath string) (*models.Vault, error) {
	fsys, err := storage.NewFS(vaultPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrNotDir) {
			return nil, apperr.Wrap(apperr.CodeInvalidVault, err)
		}
		return nil, err
	}
	ok, err := storage.IsDir(fsys, MetaDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidVault)
	}
	data, err := readDocuments(fsys)
	if err != nil {
		var pe *storage.ParseError
		if errors.As(err, &pe) {
			return nil, apperr.Wrap(apperr.CodeCorruptVault, err)
		}
		return nil, err
	}
	return &models.Vault{Name: filepath.Base(vaultPath), Path: vaultPath, Data: data}, nil
}

func readDocuments(p storage.Provider) (models.VaultData, error) {
	settings, err := storage.ReadDocument[models.VaultSettings](p, SettingsFile)
	if err != nil {
		return models.VaultData{}, err
	}
	workspace, err := storage.ReadDocument[models.VaultWorkspace](p, WorkspaceFile)
	if err != nil {
		return models.VaultData{}, err
	}
	index, err := storage.ReadDocument[models.VaultIndex](p, IndexFile)
	if err != nil {
		return models.VaultData{}, err
	}
	return models.VaultData{Settings: settings, Workspace: workspace, Index: index}, nil
}

// recordUse updates the app config and notifies the listener. A config
// write failure is logged only: the vault itself is usable.
func (m *Manager) recordUse(v *models.Vault, kind string) {
	if m.configs != nil {
		if _, err := m.configs.Record(v.Path); err != nil {
			m.logger.Warn("vault: record use failed",
				slog.String("path", v.Path),
				slog.String("error", err.Error()))
		}
	}
	if m.listener != nil {
		m.listener(kind, v)
	}
}

// fail classifies err and logs it once.
func (m *Manager) fail(op, path string, err error) error {
	e := apperr.Classify(err)
	attrs := []any{
		slog.String("op", op),
		slog.String("path", path),
		slog.String("code", string(e.Code)),
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("error", e.Cause.Error()))
	}
	m.logger.Warn("vault: operation failed", attrs...)
	return e
}
