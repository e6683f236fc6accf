package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestBuildDefaults(t *testing.T) {
	cfg, err := Build("", nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.ServerAddr != "0.0.0.0:3000" {
		t.Errorf("unexpected default addr %q", cfg.ServerAddr)
	}
	if cfg.DataFile != "data/ledger.json" {
		t.Errorf("unexpected default data file %q", cfg.DataFile)
	}
	if cfg.Remote.TokenEnv != "LIVEPLAN_TOKEN" {
		t.Errorf("unexpected default token env %q", cfg.Remote.TokenEnv)
	}
}

func TestBuildReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server_addr: 127.0.0.1:9999\nremote:\n  url: https://db.example.com\n  owner: user-42\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Build(path, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.ServerAddr != "127.0.0.1:9999" {
		t.Errorf("file value not applied, got %q", cfg.ServerAddr)
	}
	if cfg.Remote.URL != "https://db.example.com" {
		t.Errorf("nested value not applied, got %q", cfg.Remote.URL)
	}
}

func TestBuildFlagOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server_addr: 127.0.0.1:9999\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("server_addr", "", "")
	if err := flags.Parse([]string{"--server_addr", "127.0.0.1:8080"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Build(path, flags)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if cfg.ServerAddr != "127.0.0.1:8080" {
		t.Errorf("flag should win over file, got %q", cfg.ServerAddr)
	}
}

func TestBuildMissingExplicitFile(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestSession(t *testing.T) {
	cfg := &Config{}
	cfg.Remote.Owner = "user-42"
	cfg.Remote.TokenEnv = "LIVEPLAN_TEST_TOKEN"

	os.Unsetenv("LIVEPLAN_TEST_TOKEN")
	if cfg.Session() != nil {
		t.Error("no token in the environment should mean no session")
	}

	t.Setenv("LIVEPLAN_TEST_TOKEN", "secret")
	session := cfg.Session()
	if session == nil || session.Owner != "user-42" || session.Token != "secret" {
		t.Errorf("unexpected session: %+v", session)
	}
}
