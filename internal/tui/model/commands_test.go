package model

import (
	"os"
	"path/filepath"
	"testing"

	"fleetctl/internal/config"
)

func TestRefreshStatusesCmd_NilMonitor(t *testing.T) {
	cmd := RefreshStatusesCmd(nil, catalog("a"))
	if cmd == nil {
		t.Fatal("RefreshStatusesCmd returned nil command")
	}
	if msg := cmd(); msg != nil {
		t.Errorf("Expected nil msg with nil monitor, got %T", msg)
	}
}

func TestCheckServiceCmd_NilMonitor(t *testing.T) {
	cmd := CheckServiceCmd(nil, config.ServiceConfig{ID: "a"})
	if cmd == nil {
		t.Fatal("CheckServiceCmd returned nil command")
	}
	if msg := cmd(); msg != nil {
		t.Errorf("Expected nil msg with nil monitor, got %T", msg)
	}
}

func TestRunActionCmd_NilController(t *testing.T) {
	cmd := RunActionCmd(nil, config.ServiceConfig{ID: "a"}, ActionStart)
	if msg := cmd(); msg != nil {
		t.Errorf("Expected nil msg with nil controller, got %T", msg)
	}
}

func TestLoadEnvCmd_MissingFile(t *testing.T) {
	cfg := config.ServiceConfig{ID: "svc", Path: t.TempDir()}

	msg := LoadEnvCmd(cfg)()
	loaded, ok := msg.(EnvLoadedMsg)
	if !ok {
		t.Fatalf("Expected EnvLoadedMsg, got %T", msg)
	}
	if loaded.Err != nil {
		t.Fatalf("Err = %v, want nil for a missing file", loaded.Err)
	}
	if len(loaded.Values) != 0 {
		t.Errorf("Values = %v, want empty", loaded.Values)
	}
	if loaded.Service.ID != "svc" {
		t.Errorf("Service.ID = %s, want svc", loaded.Service.ID)
	}
}

func TestLoadEnvCmd_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HOST=localhost\nPORT=5432\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.ServiceConfig{ID: "svc", Path: dir}

	msg := LoadEnvCmd(cfg)()
	loaded, ok := msg.(EnvLoadedMsg)
	if !ok {
		t.Fatalf("Expected EnvLoadedMsg, got %T", msg)
	}
	if loaded.Err != nil {
		t.Fatal(loaded.Err)
	}
	if loaded.Values["HOST"] != "localhost" || loaded.Values["PORT"] != "5432" {
		t.Errorf("Values = %v", loaded.Values)
	}
}

func TestSaveEnvCmd_RoundTrip(t *testing.T) {
	cfg := config.ServiceConfig{ID: "svc", Path: t.TempDir()}

	msg := SaveEnvCmd(cfg, "TOKEN", "abc123")()
	saved, ok := msg.(EnvSavedMsg)
	if !ok {
		t.Fatalf("Expected EnvSavedMsg, got %T", msg)
	}
	if saved.Err != nil {
		t.Fatal(saved.Err)
	}
	if saved.ID != "svc" || saved.Key != "TOKEN" || saved.Value != "abc123" {
		t.Errorf("EnvSavedMsg = %+v", saved)
	}

	loaded := LoadEnvCmd(cfg)().(EnvLoadedMsg)
	if loaded.Values["TOKEN"] != "abc123" {
		t.Errorf("Reloaded TOKEN = %q, want abc123", loaded.Values["TOKEN"])
	}
}

func TestSaveEnvCmd_PreservesOtherKeys(t *testing.T) {
	cfg := config.ServiceConfig{ID: "svc", Path: t.TempDir()}

	if msg := SaveEnvCmd(cfg, "FIRST", "1")(); msg.(EnvSavedMsg).Err != nil {
		t.Fatal(msg.(EnvSavedMsg).Err)
	}
	if msg := SaveEnvCmd(cfg, "SECOND", "2")(); msg.(EnvSavedMsg).Err != nil {
		t.Fatal(msg.(EnvSavedMsg).Err)
	}

	loaded := LoadEnvCmd(cfg)().(EnvLoadedMsg)
	if loaded.Values["FIRST"] != "1" || loaded.Values["SECOND"] != "2" {
		t.Errorf("Values = %v, want both keys", loaded.Values)
	}
}
