package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIToken, "")
	return home
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolateHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.Authenticated() {
		t.Error("fresh config reports authenticated")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	home := isolateHome(t)

	cfg := &Config{
		APIURL:       "https://staging.linguara.ai",
		APIToken:     "secret-token",
		PollInterval: 5 * time.Second,
		UsageDB:      "/tmp/custom-usage.db",
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(filepath.Join(home, ".linguara", "config.yaml"))
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.APIURL != cfg.APIURL || loaded.APIToken != cfg.APIToken {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", loaded.PollInterval)
	}
	if loaded.UsageDBPath() != "/tmp/custom-usage.db" {
		t.Errorf("UsageDBPath = %q", loaded.UsageDBPath())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolateHome(t)

	cfg := &Config{APIURL: "https://file.linguara.ai", APIToken: "file-token"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv(EnvAPIURL, "https://env.linguara.ai")
	t.Setenv(EnvAPIToken, "env-token")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.APIURL != "https://env.linguara.ai" {
		t.Errorf("APIURL = %q, env override lost", loaded.APIURL)
	}
	if loaded.APIToken != "env-token" {
		t.Errorf("APIToken = %q, env override lost", loaded.APIToken)
	}
}

func TestUsageDBPathDefault(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(home, ".linguara", "usage.db")
	if got := cfg.UsageDBPath(); got != want {
		t.Errorf("UsageDBPath = %q, want %q", got, want)
	}
}
