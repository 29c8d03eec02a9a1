package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pepedot/pkg/cache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Namespace != cache.DefaultNamespace {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if cfg.Limits.MaxProjects != 20 || cfg.Limits.MaxDocuments != 10 || cfg.Limits.ProximityPx != 18 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.Storage.Backend != cache.BackendFile || cfg.Storage.QuotaBytes != 5<<20 {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	data := os.Getenv("XDG_DATA_HOME")
	if cfg.Storage.Dir != filepath.Join(data, "pepedot") {
		t.Errorf("Storage.Dir = %q", cfg.Storage.Dir)
	}
	if cfg.Archive.BackupDir != filepath.Join(data, "pepedot", "backups") {
		t.Errorf("Archive.BackupDir = %q", cfg.Archive.BackupDir)
	}
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
namespace = "site_a"

[limits]
max_projects = 3
proximity_px = 24.5

[storage]
backend = "sqlite"
dir = "/var/lib/pepedot"

[photo]
quality = 70

[archive]
page_previews = true

[user]
initials = "MH"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Namespace != "site_a" || cfg.User.Initials != "MH" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Limits.MaxProjects != 3 || cfg.Limits.ProximityPx != 24.5 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	// Unset keys keep their defaults.
	if cfg.Limits.MaxDocuments != 10 || cfg.Photo.MaxEdge != 1600 {
		t.Errorf("defaults lost: %+v %+v", cfg.Limits, cfg.Photo)
	}
	if cfg.Storage.Backend != cache.BackendSQLite || cfg.Storage.Dir != "/var/lib/pepedot" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Archive.PagePreviews || cfg.Photo.Quality != 70 {
		t.Errorf("Archive = %+v Photo = %+v", cfg.Archive, cfg.Photo)
	}
	if got := cfg.BlobDir(); got != "/var/lib/pepedot/documents" {
		t.Errorf("BlobDir() = %q", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "[limits]\nmax_projects = 3\n")
	t.Setenv("PEPEDOT_MAX_PROJECTS", "7")
	t.Setenv("PEPEDOT_STORAGE_BACKEND", "redis")
	t.Setenv("PEPEDOT_REDIS_DB", "2")
	t.Setenv("PEPEDOT_QUOTA_BYTES", "1024")
	t.Setenv("PEPEDOT_PAGE_PREVIEWS", "true")
	t.Setenv("PEPEDOT_MAX_ZOOM", "6")
	t.Setenv("PEPEDOT_PHOTO_QUALITY", "not a number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Limits.MaxProjects != 7 {
		t.Errorf("MaxProjects = %d, want env to win over file", cfg.Limits.MaxProjects)
	}
	co := cfg.CacheOptions()
	if co.Backend != cache.BackendRedis || co.Redis.DB != 2 || co.Quota != 1024 {
		t.Errorf("CacheOptions() = %+v", co)
	}
	if !cfg.Archive.PagePreviews || cfg.Limits.MaxZoom != 6 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Photo.Quality != 82 {
		t.Errorf("Quality = %d, malformed env must be ignored", cfg.Photo.Quality)
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("explicit missing file accepted")
	}
	if _, err := Load(writeConfig(t, "limits = [")); err == nil {
		t.Error("malformed TOML accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"namespace", func(c *Config) { c.Namespace = "" }, "namespace"},
		{"profile separator", func(c *Config) { c.Profile = "a:b" }, "profile"},
		{"profile spaces", func(c *Config) { c.Profile = " ik" }, "profile"},
		{"projects", func(c *Config) { c.Limits.MaxProjects = 0 }, "max_projects"},
		{"documents", func(c *Config) { c.Limits.MaxDocuments = 0 }, "max_documents"},
		{"proximity", func(c *Config) { c.Limits.ProximityPx = 0 }, "proximity_px"},
		{"zoom", func(c *Config) { c.Limits.MinZoom, c.Limits.MaxZoom = 4, 2 }, "zoom"},
		{"quality", func(c *Config) { c.Photo.Quality = 101 }, "quality"},
		{"backend", func(c *Config) { c.Storage.Backend = "s3" }, "backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestProfileKeyer(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		wantProject string
		wantIndex   string
		wantBlobs   string
	}{
		{"no profile", "", "pepedot2_rn_RN1", "pepedot2_rn.index", "/data/documents"},
		{"profile", "ik", "ik:pepedot2_rn_RN1", "ik:pepedot2_rn.index", "/data/documents/ik"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.Dir = "/data"
			cfg.Profile = tt.profile
			k := cfg.Keyer()
			if got := k.ProjectKey("RN1"); got != tt.wantProject {
				t.Errorf("ProjectKey() = %q, want %q", got, tt.wantProject)
			}
			if got := k.IndexKey(); got != tt.wantIndex {
				t.Errorf("IndexKey() = %q, want %q", got, tt.wantIndex)
			}
			if got := cfg.BlobDir(); got != filepath.FromSlash(tt.wantBlobs) {
				t.Errorf("BlobDir() = %q, want %q", got, tt.wantBlobs)
			}
		})
	}
}

func TestLoadProfileFromEnv(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "profile = \"site\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Profile != "site" {
		t.Errorf("Profile = %q, want site from file", cfg.Profile)
	}
	t.Setenv("PEPEDOT_PROFILE", "ik")
	if cfg, err = Load(path); err != nil {
		t.Fatal(err)
	}
	if cfg.Profile != "ik" {
		t.Errorf("Profile = %q, want env to win", cfg.Profile)
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Limits.ProximityPx = 30
	cfg.Photo.MaxEdge = 0

	l := cfg.SessionLimits()
	if l.MaxProjects != 20 || l.Store.ProximityPx != 30 || l.MaxZoom != 4 {
		t.Errorf("SessionLimits() = %+v", l)
	}
	if p := cfg.PhotoOptions(); p.MaxEdge != 0 || p.Quality != 82 {
		t.Errorf("PhotoOptions() = %+v", p)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/xdg/pepedot/config.toml" {
		t.Errorf("DefaultPath() = %q", got)
	}
}
