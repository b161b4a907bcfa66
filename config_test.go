package dbcontext

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "backend: sqlserver\ndsn: \"server=db;user id=sa;password=pw\"\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != SQLServer {
		t.Fatalf("Backend = %q", cfg.Backend)
	}
	if cfg.DSN != "server=db;user id=sa;password=pw" {
		t.Fatalf("DSN = %q", cfg.DSN)
	}
}

func TestLoadConfig_MissingDSN(t *testing.T) {
	path := writeConfig(t, "backend: mysql\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "dsn is required") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, "backend: [unterminated\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("want parse error")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want read error")
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Config{DSN: "what is this even"}, DefaultOptions())
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v", err)
	}
	if strings.Contains(err.Error(), "what is this even") {
		t.Fatal("error must not echo the connection string")
	}
}

func TestOpen_UnsupportedKind(t *testing.T) {
	_, err := Open(Config{Backend: Kind("oracle"), DSN: "x"}, DefaultOptions())
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err = %v", err)
	}
}
