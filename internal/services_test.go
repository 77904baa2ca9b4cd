package internal

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewServices_UsesDataDir(t *testing.T) {
	t.Setenv(DataDirEnv, "")
	cfg := NewDefaultConfig()
	cfg.Data.Dir = filepath.Join(t.TempDir(), "appdata")
	cfg.Vaults.RecentLimit = 1

	svcs, err := NewServices(cfg, NewLogger(slog.LevelError, &bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	if svcs.Configs.Dir() != cfg.Data.Dir {
		t.Errorf("data dir = %q, want %q", svcs.Configs.Dir(), cfg.Data.Dir)
	}

	base := t.TempDir()
	ctx := context.Background()
	for _, name := range []string{"a", "b"} {
		if _, err := svcs.Vaults.CreateVault(ctx, base, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	got, err := svcs.Configs.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.RecentVaults) != 1 || got.Active() != filepath.Join(base, "b") {
		t.Errorf("recent_limit not applied: %+v", got)
	}
}

func TestNewServices_NilConfig(t *testing.T) {
	if _, err := NewServices(nil, NewLogger(slog.LevelInfo, nil)); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(slog.LevelInfo, &buf).Info("hello", slog.String("k", "v"))
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("not JSON: %s", buf.String())
	}

	buf.Reset()
	NewLogger(slog.LevelWarn, &buf).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level: %s", buf.String())
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
