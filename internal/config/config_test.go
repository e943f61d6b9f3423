package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chaingate.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Addr != def.Addr || cfg.NodeURL != def.NodeURL {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.Registration.AllowedUses != 1 || cfg.Registration.Unit != "week" {
		t.Fatalf("unexpected default registration: %+v", cfg.Registration)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
addr: ":9090"
node_url: "https://node.example"
authorized_operations: ["vote"]
registration:
  allowed_uses: 3
  window: 2
  unit: day
creator:
  username: registrar
  fee: "0.200 STEEM"
  delegation: "30.000000 VESTS"
user_metadata:
  max_size: 2048
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.NodeURL != "https://node.example" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.AuthorizedOperations) != 1 || cfg.AuthorizedOperations[0] != "vote" {
		t.Fatalf("unexpected authorized operations: %v", cfg.AuthorizedOperations)
	}
	if cfg.Creator.Username != "registrar" {
		t.Fatalf("unexpected creator: %+v", cfg.Creator)
	}
	limiterCfg := cfg.Registration.Limiter()
	if err := limiterCfg.Validate(); err != nil {
		t.Fatalf("registration section must convert to a valid limiter config: %v", err)
	}
	if cfg.UserMetadata.MaxSize != 2048 {
		t.Fatalf("unexpected metadata cap: %d", cfg.UserMetadata.MaxSize)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "addr: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadRejectsBadRegistrationUnit(t *testing.T) {
	path := writeConfig(t, `
registration:
  allowed_uses: 1
  window: 1
  unit: fortnight
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unknown unit")
	}
}

func TestLoadRejectsEmptyAddr(t *testing.T) {
	path := writeConfig(t, `addr: ""`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for empty addr")
	}
}
