package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/isnippet/internal/appconfig"
	"github.com/starford/isnippet/internal/vault"
)

var errConfigRequired = errors.New("config is required")

// NewLogger returns a JSON logger writing to w, or stdout when w is nil.
func NewLogger(level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Services bundles the vault manager with the config store it records into.
type Services struct {
	Vaults  *vault.Manager
	Configs *appconfig.Store
}

// NewServices resolves the app-data directory and wires the vault manager.
func NewServices(cfg *Config, logger *slog.Logger, opts ...vault.Option) (*Services, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}
	dir, err := cfg.Data.ResolveDir()
	if err != nil {
		return nil, err
	}
	configs, err := appconfig.NewStore(dir, cfg.Vaults.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("init config store: %w", err)
	}
	opts = append([]vault.Option{vault.WithLogger(logger)}, opts...)
	return &Services{
		Vaults:  vault.NewManager(configs, opts...),
		Configs: configs,
	}, nil
}
