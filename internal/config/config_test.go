package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Monitor.ListenAddr != "0.0.0.0:5001" {
		t.Errorf("expected default listen addr 0.0.0.0:5001, got %s", cfg.Monitor.ListenAddr)
	}
	if cfg.Monitor.CommandPort != 5002 {
		t.Errorf("expected default command port 5002, got %d", cfg.Monitor.CommandPort)
	}
	if cfg.Monitor.Output != "mesh_events.csv" {
		t.Errorf("expected default output mesh_events.csv, got %s", cfg.Monitor.Output)
	}
	if cfg.Database != "./meshscope.db" {
		t.Errorf("expected default database ./meshscope.db, got %s", cfg.Database)
	}
	if cfg.Nodes == nil {
		t.Error("expected an initialized node map")
	}
}

func TestLoadFromPath(t *testing.T) {
	t.Run("loads values and fills defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `monitor:
  listen_addr: "127.0.0.1:6001"
nodes:
  2: "192.168.1.12"
  3: "192.168.1.13"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		cfg, src, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("LoadFromPath: %v", err)
		}
		if src != path {
			t.Errorf("expected source %s, got %s", path, src)
		}
		if cfg.Monitor.ListenAddr != "127.0.0.1:6001" {
			t.Errorf("expected overridden listen addr, got %s", cfg.Monitor.ListenAddr)
		}
		// Unset fields keep their defaults
		if cfg.Monitor.CommandPort != 5002 {
			t.Errorf("expected default command port, got %d", cfg.Monitor.CommandPort)
		}
		if cfg.Nodes[2] != "192.168.1.12" || cfg.Nodes[3] != "192.168.1.13" {
			t.Errorf("unexpected node map: %v", cfg.Nodes)
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, _, err := LoadFromPath("/does/not/exist.yaml"); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("monitor: [not a map"), 0644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		if _, _, err := LoadFromPath(path); err == nil {
			t.Error("expected a parse error")
		}
	})
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Monitor.ListenAddr = "0.0.0.0:7001"
	cfg.Nodes[4] = "10.0.0.4"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.Monitor.ListenAddr != "0.0.0.0:7001" {
		t.Errorf("listen addr lost across save/reload: %s", back.Monitor.ListenAddr)
	}
	if back.Nodes[4] != "10.0.0.4" {
		t.Errorf("node map lost across save/reload: %v", back.Nodes)
	}
}

func TestFindConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("MESHSCOPE_CONFIG", "/tmp/custom-meshscope.yaml")
	if got := FindConfigPath(); got != "/tmp/custom-meshscope.yaml" {
		t.Errorf("expected the env override to win, got %s", got)
	}
}
