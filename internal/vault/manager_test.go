package vault

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/isnippet/internal/appconfig"
	"github.com/starford/isnippet/internal/apperr"
	"github.com/starford/isnippet/internal/models"
	"github.com/starford/isnippet/internal/picker"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	mgr     *Manager
	configs *appconfig.Store
	base    string
}

func newEnv(t *testing.T, opts ...Option) env {
	t.Helper()
	root := t.TempDir()
	configs, err := appconfig.NewStore(filepath.Join(root, "appdata"), 0)
	require.NoError(t, err)
	base := filepath.Join(root, "vaults")
	require.NoError(t, os.MkdirAll(base, 0o755))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	opts = append([]Option{WithLogger(logger), WithClock(func() time.Time { return fixedNow })}, opts...)
	return env{mgr: NewManager(configs, opts...), configs: configs, base: base}
}

func requireCode(t *testing.T, err error, code apperr.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.CodeOf(err), "err = %v", err)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCreateVault_FreshMachine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cfg, err := e.configs.Load()
	require.NoError(t, err)
	require.Nil(t, cfg)

	v, err := e.mgr.CreateVault(ctx, e.base, "myvault")
	require.NoError(t, err)

	vaultPath := filepath.Join(e.base, "myvault")
	assert.Equal(t, vaultPath, v.Path)
	assert.Equal(t, "myvault", v.Name)
	assert.Equal(t, DefaultDocuments(fixedNow), v.Data)

	for _, dir := range []string{SnippetsDir, MetaDir} {
		info, err := os.Stat(filepath.Join(vaultPath, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
	}

	ms := "1740830400000"
	assert.Equal(t, "{\n  \"snippets\": []\n}", readFile(t, filepath.Join(vaultPath, IndexFile)))
	assert.Equal(t,
		"{\n  \"autoOrganize\": true,\n  \"autoTags\": true,\n  \"autoSummary\": false,\n  \"createdAt\": "+ms+"\n}",
		readFile(t, filepath.Join(vaultPath, SettingsFile)))
	assert.Equal(t,
		"{\n  \"lastOpened\": "+ms+",\n  \"sidebarOpen\": true\n}",
		readFile(t, filepath.Join(vaultPath, WorkspaceFile)))

	cfg, err = e.configs.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, vaultPath, cfg.Active())
	assert.Equal(t, []string{vaultPath}, cfg.RecentVaults)
}

func TestCreateVault_NotIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.mgr.CreateVault(ctx, e.base, "v")
	require.NoError(t, err)
	settingsPath := filepath.Join(e.base, "v", SettingsFile)
	before := readFile(t, settingsPath)

	// A later clock must not leak into the existing documents.
	e.mgr.now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = e.mgr.CreateVault(ctx, e.base, "v")
	requireCode(t, err, apperr.CodeVaultAlreadyExists)
	assert.Equal(t, before, readFile(t, settingsPath))
}

func TestCreateVault_ExistingPlainFolder(t *testing.T) {
	e := newEnv(t)
	existing := filepath.Join(e.base, "taken")
	require.NoError(t, os.MkdirAll(existing, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "keep.txt"), []byte("mine"), 0o644))

	_, err := e.mgr.CreateVault(context.Background(), e.base, "taken")
	requireCode(t, err, apperr.CodeVaultAlreadyExists)

	_, statErr := os.Stat(filepath.Join(existing, MetaDir))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "existing folder must not be touched")
	assert.Equal(t, "mine", readFile(t, filepath.Join(existing, "keep.txt")))
}

func TestCreateVault_CreatesMissingBase(t *testing.T) {
	e := newEnv(t)
	base := filepath.Join(e.base, "deep", "er")
	v, err := e.mgr.CreateVault(context.Background(), base, "v")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(v.Path, MetaDir))
}

func TestCreateVault_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		base      string
		vaultName string
		code      apperr.Code
	}{
		{"empty name", e.base, "", apperr.CodeVaultNameEmpty},
		{"blank name", e.base, "   ", apperr.CodeVaultNameEmpty},
		{"empty name wins over empty base", "", "", apperr.CodeVaultNameEmpty},
		{"no base", "", "v", apperr.CodeNoVaultSelected},
		{"separator", e.base, "a/b", apperr.CodeInvalidVaultName},
		{"backslash", e.base, `a\b`, apperr.CodeInvalidVaultName},
		{"dotdot", e.base, "..", apperr.CodeInvalidVaultName},
		{"dot", e.base, ".", apperr.CodeInvalidVaultName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.mgr.CreateVault(ctx, tc.base, tc.vaultName)
			requireCode(t, err, tc.code)
		})
	}

	cfg, err := e.configs.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg, "failed creates must not touch config")
}

func TestCreateVault_TrimsName(t *testing.T) {
	e := newEnv(t)
	v, err := e.mgr.CreateVault(context.Background(), e.base, "  spaced  ")
	require.NoError(t, err)
	assert.Equal(t, "spaced", v.Name)
	assert.Equal(t, filepath.Join(e.base, "spaced"), v.Path)
}

func TestCreateVault_RollbackOnWriteFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	e := newEnv(t)
	// The clock is read after the directories exist and before the
	// documents are written; make .isnippet read-only at that point.
	e.mgr.now = func() time.Time {
		_ = os.Chmod(filepath.Join(e.base, "v", MetaDir), 0o500)
		return fixedNow
	}
	_, err := e.mgr.CreateVault(context.Background(), e.base, "v")
	requireCode(t, err, apperr.CodeUnknown)

	_, statErr := os.Stat(filepath.Join(e.base, "v"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "partial vault should be removed")

	cfg, err := e.configs.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestCreateVault_RollbackRemovesCreatedBase(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	e := newEnv(t)
	base := filepath.Join(e.base, "new", "deeper")
	e.mgr.now = func() time.Time {
		_ = os.Chmod(filepath.Join(base, "v", MetaDir), 0o500)
		return fixedNow
	}
	_, err := e.mgr.CreateVault(context.Background(), base, "v")
	requireCode(t, err, apperr.CodeUnknown)

	assert.NoDirExists(t, filepath.Join(e.base, "new"), "base dirs made by the failed create should be removed")
	assert.DirExists(t, e.base, "pre-existing parent must stay")
}

func TestMissingDirs(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	assert.Equal(t, []string{deep, filepath.Join(root, "a", "b"), filepath.Join(root, "a")}, missingDirs(deep))
	assert.Empty(t, missingDirs(root))

	// removeEmpty stops at a directory that gained content.
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "keep.txt"), []byte("x"), 0o644))
	e := newEnv(t)
	e.mgr.removeEmpty([]string{deep, filepath.Join(root, "a", "b"), filepath.Join(root, "a")})
	assert.NoDirExists(t, filepath.Join(root, "a", "b"))
	assert.FileExists(t, filepath.Join(root, "a", "keep.txt"))
}

func TestCreateVault_ConcurrentSamePath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.mgr.CreateVault(ctx, e.base, "race")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperr.CodeVaultAlreadyExists, apperr.CodeOf(err))
	}
	assert.Equal(t, 1, ok)
}

func TestCreateVault_Listener(t *testing.T) {
	var kinds []string
	e := newEnv(t, WithListener(func(kind string, v *models.Vault) {
		kinds = append(kinds, kind+":"+v.Name)
	}))
	ctx := context.Background()

	v, err := e.mgr.CreateVault(ctx, e.base, "a")
	require.NoError(t, err)
	_, err = e.mgr.ImportVault(ctx, v.Path)
	require.NoError(t, err)
	_, err = e.mgr.ReadVault(ctx, v.Path)
	require.NoError(t, err)

	assert.Equal(t, []string{"created:a", "imported:a"}, kinds)
}

func TestImportVault(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.mgr.CreateVault(ctx, e.base, "one")
	require.NoError(t, err)
	_, err = e.mgr.CreateVault(ctx, e.base, "two")
	require.NoError(t, err)

	got, err := e.mgr.ImportVault(ctx, created.Path)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Name)
	if diff := cmp.Diff(created.Data, got.Data); diff != "" {
		t.Errorf("imported data mismatch (-want +got):\n%s", diff)
	}

	cfg, err := e.configs.Load()
	require.NoError(t, err)
	assert.Equal(t, created.Path, cfg.Active())
	assert.Equal(t, []string{created.Path, filepath.Join(e.base, "two")}, cfg.RecentVaults)
}

func TestImportVault_ValidityGate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	plain := filepath.Join(e.base, "plainfolder")
	require.NoError(t, os.MkdirAll(plain, 0o755))
	_, err := e.mgr.ImportVault(ctx, plain)
	requireCode(t, err, apperr.CodeInvalidVault)

	_, err = e.mgr.ImportVault(ctx, filepath.Join(e.base, "missing"))
	requireCode(t, err, apperr.CodeVaultPathNotExist)

	file := filepath.Join(e.base, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = e.mgr.ImportVault(ctx, file)
	requireCode(t, err, apperr.CodeInvalidVault)

	_, err = e.mgr.ImportVault(ctx, "")
	requireCode(t, err, apperr.CodeNoVaultSelected)

	cfg, err := e.configs.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg, "config must be untouched")
}

func TestImportVault_Corrupt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v, err := e.mgr.CreateVault(ctx, e.base, "broken")
	require.NoError(t, err)
	before, err := e.configs.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(v.Path, WorkspaceFile), []byte("{not json"), 0o644))
	_, err = e.mgr.ImportVault(ctx, v.Path)
	requireCode(t, err, apperr.CodeCorruptVault)

	require.NoError(t, os.Remove(filepath.Join(v.Path, IndexFile)))
	_, err = e.mgr.ReadVault(ctx, v.Path)
	requireCode(t, err, apperr.CodeCorruptVault)

	after, err := e.configs.Load()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImportVault_LegacyIndexObject(t *testing.T) {
	e := newEnv(t)
	v, err := e.mgr.CreateVault(context.Background(), e.base, "legacy")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(v.Path, IndexFile), []byte(`{"snippets": {}}`), 0o644))

	got, err := e.mgr.ImportVault(context.Background(), v.Path)
	require.NoError(t, err)
	assert.NotNil(t, got.Data.Index.Snippets)
	assert.Empty(t, got.Data.Index.Snippets)
}

func TestImportSelected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.mgr.ImportSelected(ctx, picker.Static(""))
	requireCode(t, err, apperr.CodeNoVaultSelected)

	touched := false
	_, err = e.mgr.ImportSelected(ctx, picker.Func(func(context.Context, string) (string, bool, error) {
		touched = true
		return "/should/not/be/used", false, nil
	}))
	requireCode(t, err, apperr.CodeNoVaultSelected)
	assert.True(t, touched)

	v, err := e.mgr.CreateVault(ctx, e.base, "picked")
	require.NoError(t, err)
	got, err := e.mgr.ImportSelected(ctx, picker.Static(v.Path))
	require.NoError(t, err)
	assert.Equal(t, v.Path, got.Path)

	_, err = e.mgr.ImportSelected(ctx, picker.Func(func(context.Context, string) (string, bool, error) {
		return "", false, errors.New("dialog crashed")
	}))
	requireCode(t, err, apperr.CodeUnknown)
}

func TestReadVault_Idempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	v, err := e.mgr.CreateVault(ctx, e.base, "r")
	require.NoError(t, err)

	first, err := e.mgr.ReadVault(ctx, v.Path)
	require.NoError(t, err)
	second, err := e.mgr.ReadVault(ctx, v.Path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "r", first.Name)
}

func TestReadVault_DoesNotTouchConfig(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.mgr.CreateVault(ctx, e.base, "a")
	require.NoError(t, err)
	_, err = e.mgr.CreateVault(ctx, e.base, "b")
	require.NoError(t, err)
	before, err := e.configs.Load()
	require.NoError(t, err)

	_, err = e.mgr.ReadVault(ctx, a.Path)
	require.NoError(t, err)

	after, err := e.configs.Load()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReadVault_Invalid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.mgr.ReadVault(ctx, filepath.Join(e.base, "gone"))
	requireCode(t, err, apperr.CodeInvalidVault)

	file := filepath.Join(e.base, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = e.mgr.ReadVault(ctx, file)
	requireCode(t, err, apperr.CodeInvalidVault)

	_, err = e.mgr.ReadVault(ctx, " ")
	requireCode(t, err, apperr.CodeNoVaultSelected)
}

func TestCancelledContext(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.mgr.CreateVault(ctx, e.base, "v")
	requireCode(t, err, apperr.CodeUnknown)
	assert.NoDirExists(t, filepath.Join(e.base, "v"))
}

type failingRecorder struct{}

func (failingRecorder) Record(string) (models.Config, error) {
	return models.Config{}, errors.New("disk full")
}

func TestCreateVault_ConfigFailureStillSucceeds(t *testing.T) {
	base := t.TempDir()
	m := NewManager(failingRecorder{}, WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))))
	v, err := m.CreateVault(context.Background(), base, "v")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(v.Path, MetaDir))
}
