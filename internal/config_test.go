package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestHTTPConfig_Address(t *testing.T) {
	c := HTTPConfig{Host: "127.0.0.1", Port: 8080}
	if got := c.Address(); got != "127.0.0.1:8080" {
		t.Errorf("Address() = %q", got)
	}
	c = HTTPConfig{Port: 9000}
	if got := c.Address(); got != ":9000" {
		t.Errorf("Address() = %q, want :9000", got)
	}
}

func TestVaultsConfig_NegativeLimit(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vaults.RecentLimit = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative recent_limit should fail validation")
	}
	cfg.Vaults.RecentLimit = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero recent_limit means unbounded: %v", err)
	}
}

func TestDataConfig_ResolveDir(t *testing.T) {
	t.Setenv(DataDirEnv, "")

	c := DataConfig{Dir: "/srv/isnippet"}
	if got, err := c.ResolveDir(); err != nil || got != "/srv/isnippet" {
		t.Errorf("explicit dir = %q, %v", got, err)
	}

	t.Setenv(DataDirEnv, "/tmp/override")
	if got, _ := c.ResolveDir(); got != "/tmp/override" {
		t.Errorf("env override = %q", got)
	}
}

func TestDataConfig_ResolveDirDefault(t *testing.T) {
	t.Setenv(DataDirEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/home/test/.config")
	t.Setenv("HOME", "/home/test")

	var c DataConfig
	got, err := c.ResolveDir()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, "isnippet") {
		t.Errorf("default dir = %q, want .../isnippet", got)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Vaults.RecentLimit != 10 {
		t.Errorf("recent_limit = %d, want 10", cfg.Vaults.RecentLimit)
	}
}
