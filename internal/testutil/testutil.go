// Package testutil provides shared test helpers for setting up vault managers.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/isnippet/internal/appconfig"
	"github.com/starford/isnippet/internal/vault"
)

// Env is a throwaway app-data directory plus a place to put vaults.
type Env struct {
	Manager *vault.Manager
	Configs *appconfig.Store
	// Base is an existing, empty directory for new vaults.
	Base string
}

// NewEnv creates a temporary Env that is cleaned up with the test.
func NewEnv(t *testing.T, opts ...vault.Option) *Env {
	t.Helper()
	root := t.TempDir()
	configs, err := appconfig.NewStore(filepath.Join(root, "appdata"), 10)
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(root, "vaults")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}
	opts = append([]vault.Option{vault.WithLogger(Logger())}, opts...)
	return &Env{
		Manager: vault.NewManager(configs, opts...),
		Configs: configs,
		Base:    base,
	}
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
