package cli

import (
	"path/filepath"
	"testing"

	"github.com/aidanlsb/outsearch/internal/config"
)

func TestConfigSetOutline(t *testing.T) {
	path := useOutline(t, true)

	captureStdout(t, func() {
		if err := configSetOutlineCmd.RunE(configSetOutlineCmd, []string{path}); err != nil {
			t.Fatalf("set-outline: %v", err)
		}
	})

	loaded, err := config.LoadFrom(resolvedConfigPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Outline != path {
		t.Errorf("Outline = %q, want %q", loaded.Outline, path)
	}
}

func TestConfigSetOutlineRequiresExistingFile(t *testing.T) {
	useOutline(t, true)

	var err error
	out := captureStdout(t, func() {
		err = configSetOutlineCmd.RunE(configSetOutlineCmd, []string{filepath.Join(t.TempDir(), "nope.yaml")})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	resp := decodeEnvelope(t, out)
	if resp.Error == nil || resp.Error.Code != ErrOutlineNotFound {
		t.Errorf("expected %s; out=%s", ErrOutlineNotFound, out)
	}
}

func TestConfigInit(t *testing.T) {
	useOutline(t, true)

	out := captureStdout(t, func() {
		if err := configInitCmd.RunE(configInitCmd, nil); err != nil {
			t.Fatalf("config init: %v", err)
		}
	})
	resp := decodeEnvelope(t, out)
	if !resp.OK {
		t.Fatalf("expected ok=true; out=%s", out)
	}
	if _, err := config.LoadFrom(configPath); err != nil {
		t.Errorf("created config does not load: %v", err)
	}
}
