package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svcmon.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
app_name = "myapp"
services = ["nginx", "redis"]
data_dir = "/var/lib/svcmon"

[server]
listen = ":9090"
base_path = "/api"

[store]
dsn = "http://localhost:9200"
index = "service-monitoring"

[log]
dir = "/var/log/svcmon"
level = "debug"
max_size_mb = 10
max_backups = 3
max_age_days = 7
compress = true
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.AppName != "myapp" {
		t.Errorf("app_name = %q", fc.AppName)
	}
	if !reflect.DeepEqual(fc.Services, []string{"nginx", "redis"}) {
		t.Errorf("services = %v", fc.Services)
	}
	if fc.Server.Listen != ":9090" || fc.Server.BasePath != "/api" {
		t.Errorf("server = %+v", fc.Server)
	}
	if fc.Store.DSN != "http://localhost:9200" || fc.Store.Index != "service-monitoring" {
		t.Errorf("store = %+v", fc.Store)
	}
	if fc.Log == nil || fc.Log.Level != "debug" || !fc.Log.Compress {
		t.Errorf("log = %+v", fc.Log)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[store]
dsn = "mon.db"
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.AppName != DefaultAppName {
		t.Errorf("app_name default = %q", fc.AppName)
	}
	if !reflect.DeepEqual(fc.Services, DefaultServices()) {
		t.Errorf("services default = %v", fc.Services)
	}
	if fc.DataDir != DefaultDataDir {
		t.Errorf("data_dir default = %q", fc.DataDir)
	}
	if fc.Server.Listen != DefaultListen {
		t.Errorf("listen default = %q", fc.Server.Listen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	fc := Default()
	if fc.AppName != DefaultAppName || fc.Server.Listen != DefaultListen {
		t.Fatalf("unexpected defaults: %+v", fc)
	}
}
