package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != "flare> " || !cfg.Color || cfg.HTTP.Port != 8790 || cfg.GRPC.Port != 8791 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should yield defaults: %v", err)
	}
	if cfg.HTTPAddr() != "0.0.0.0:8790" {
		t.Errorf("HTTPAddr() = %q", cfg.HTTPAddr())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flare.yaml")
	src := `
prompt: "> "
color: false
preload:
  - let one = 1
  - let two = 2
state: /tmp/flare.db
http:
  port: 9000
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != "> " || cfg.Color {
		t.Errorf("prompt/color not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Preload, []string{"let one = 1", "let two = 2"}) {
		t.Errorf("Preload = %v", cfg.Preload)
	}
	if cfg.StatePath != "/tmp/flare.db" {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
	// Unset fields keep their defaults.
	if cfg.HTTP.Port != 9000 || cfg.HTTP.Host != "0.0.0.0" || cfg.GRPC.Port != 8791 {
		t.Errorf("listener settings = %+v %+v", cfg.HTTP, cfg.GRPC)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"malformed":      "prompt: [unclosed",
		"port too large": "http:\n  port: 70000\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if err := Parse([]byte(src), Default()); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FLARE_PROMPT", "$ ")
	t.Setenv("FLARE_COLOR", "false")
	t.Setenv("PORT", "1234")
	t.Setenv("GRPC_PORT", "1235")
	t.Setenv("HOST", "127.0.0.1")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Prompt != "$ " || cfg.Color {
		t.Errorf("prompt/color = %q/%v", cfg.Prompt, cfg.Color)
	}
	if cfg.HTTPAddr() != "127.0.0.1:1234" || cfg.GRPCAddr() != "127.0.0.1:1235" {
		t.Errorf("addrs = %s %s", cfg.HTTPAddr(), cfg.GRPCAddr())
	}

	t.Setenv("PORT", "eighty")
	if err := Default().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric PORT")
	}
}
