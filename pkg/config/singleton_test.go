package config

import (
	"os"
	"testing"
)

func TestSingleton_Lifecycle(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	if GetConfig() != nil {
		t.Fatal("GetConfig() should be nil before Initialize")
	}

	path := writeConfig(t, "routing:\n  strategy: fastest_first\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := MustGetConfig().Routing.Strategy; got != "fastest_first" {
		t.Errorf("strategy = %q, want fastest_first", got)
	}

	// later calls are ignored
	if err := Initialize("/does/not/exist.yaml"); err != nil {
		t.Errorf("second Initialize() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("routing:\n  strategy: round_robin\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReloadConfig("")
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if cfg.Routing.Strategy != "round_robin" || GetConfig() != cfg {
		t.Errorf("reload did not replace config: %+v", cfg.Routing)
	}

	if err := os.WriteFile(path, []byte("routing:\n  strategy: sticky\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(path); err == nil {
		t.Error("expected reload of invalid file to fail")
	}
	if GetConfig() != cfg {
		t.Error("failed reload replaced the config")
	}
}

func TestReloadConfig_NoPath(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	if _, err := ReloadConfig(""); err == nil {
		t.Error("expected error without a path")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() did not panic")
		}
	}()
	MustGetConfig()
}
