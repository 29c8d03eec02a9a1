// Package config loads pepedot settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file ($XDG_CONFIG_HOME/pepedot/config.toml unless overridden)
//  3. a .env file in the working directory (never overriding real env vars)
//  4. PEPEDOT_* environment variables
//
// A missing config file or .env is not an error.
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/pepedot/pkg/annotation"
	"github.com/matzehuels/pepedot/pkg/archive"
	"github.com/matzehuels/pepedot/pkg/cache"
	"github.com/matzehuels/pepedot/pkg/photo"
	"github.com/matzehuels/pepedot/pkg/session"
	"github.com/matzehuels/pepedot/pkg/viewport"
)

const appName = "pepedot"

// envPrefix prefixes every environment override.
const envPrefix = "PEPEDOT_"

// Config is the complete set of user settings.
type Config struct {
	Namespace string  `toml:"namespace"`
	Profile   string  `toml:"profile"`
	Limits    Limits  `toml:"limits"`
	Storage   Storage `toml:"storage"`
	Photo     Photo   `toml:"photo"`
	Archive   Archive `toml:"archive"`
	User      User    `toml:"user"`
}

// Limits are the capacity and interaction rules.
type Limits struct {
	MaxProjects  int     `toml:"max_projects"`
	MaxDocuments int     `toml:"max_documents"`
	ProximityPx  float64 `toml:"proximity_px"`
	MinZoom      float64 `toml:"min_zoom"`
	MaxZoom      float64 `toml:"max_zoom"`
}

// Storage selects the persistence gateway.
type Storage struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	QuotaBytes int64  `toml:"quota_bytes"`
	SQLitePath string `toml:"sqlite_path"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Photo controls recompression of attached photos.
type Photo struct {
	MaxEdge int `toml:"max_edge"`
	Quality int `toml:"quality"`
}

// Archive controls export and import.
type Archive struct {
	BackupDir    string `toml:"backup_dir"`
	PagePreviews bool   `toml:"page_previews"`
	PreviewWidth int    `toml:"preview_width"`
}

// User holds per-user defaults.
type User struct {
	Initials string `toml:"initials"`
}

// Default returns the built-in settings. Directories are resolved by Load.
func Default() Config {
	return Config{
		Namespace: cache.DefaultNamespace,
		Limits: Limits{
			MaxProjects:  session.DefaultMaxProjects,
			MaxDocuments: annotation.DefaultMaxDocuments,
			ProximityPx:  annotation.DefaultProximityPx,
			MinZoom:      viewport.DefaultMinZoom,
			MaxZoom:      viewport.DefaultMaxZoom,
		},
		Storage: Storage{
			Backend:         cache.BackendFile,
			QuotaBytes:      cache.DefaultQuota,
			RedisAddr:       "localhost:6379",
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   "pepedot",
			MongoCollection: "snapshots",
		},
		Photo: Photo{
			MaxEdge: photo.DefaultMaxEdge,
			Quality: photo.DefaultQuality,
		},
		Archive: Archive{
			PreviewWidth: archive.DefaultPreviewWidth,
		},
	}
}

// Load reads the config file at path (or the default path when empty),
// then .env and the environment. An explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.resolveDirs(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	switch {
	case c.Namespace == "":
		return errors.New("namespace must not be empty")
	case strings.ContainsAny(c.Profile, ":/\\") || strings.TrimSpace(c.Profile) != c.Profile:
		return fmt.Errorf("profile %q must not contain separators or surrounding spaces", c.Profile)
	case c.Limits.MaxProjects < 1:
		return fmt.Errorf("limits.max_projects must be at least 1, got %d", c.Limits.MaxProjects)
	case c.Limits.MaxDocuments < 1:
		return fmt.Errorf("limits.max_documents must be at least 1, got %d", c.Limits.MaxDocuments)
	case c.Limits.ProximityPx <= 0:
		return fmt.Errorf("limits.proximity_px must be positive, got %v", c.Limits.ProximityPx)
	case c.Limits.MinZoom <= 0 || c.Limits.MaxZoom < c.Limits.MinZoom:
		return fmt.Errorf("limits: zoom range [%v, %v] is invalid", c.Limits.MinZoom, c.Limits.MaxZoom)
	case c.Storage.QuotaBytes < 0:
		return fmt.Errorf("storage.quota_bytes must not be negative")
	case c.Photo.Quality < 1 || c.Photo.Quality > 100:
		return fmt.Errorf("photo.quality must be within 1..100, got %d", c.Photo.Quality)
	case c.Photo.MaxEdge < 0:
		return fmt.Errorf("photo.max_edge must not be negative")
	case c.Archive.PreviewWidth < 0:
		return fmt.Errorf("archive.preview_width must not be negative")
	}
	switch c.Storage.Backend {
	case cache.BackendFile, cache.BackendSQLite, cache.BackendRedis,
		cache.BackendMongo, cache.BackendMemory, cache.BackendNone:
	default:
		return fmt.Errorf("storage.backend %q is not one of file, sqlite, redis, mongo, memory, none", c.Storage.Backend)
	}
	return nil
}

// ===== Conversions =====

// CacheOptions returns the gateway settings.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:    c.Storage.Backend,
		Dir:        c.Storage.Dir,
		Quota:      c.Storage.QuotaBytes,
		SQLitePath: c.Storage.SQLitePath,
		Redis: cache.RedisOptions{
			Addr:     c.Storage.RedisAddr,
			Password: c.Storage.RedisPassword,
			DB:       c.Storage.RedisDB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Storage.MongoURI,
			Database:   c.Storage.MongoDatabase,
			Collection: c.Storage.MongoCollection,
		},
	}
}

// SessionLimits returns the controller limits.
func (c Config) SessionLimits() session.Limits {
	return session.Limits{
		MaxProjects: c.Limits.MaxProjects,
		Store: annotation.Limits{
			MaxDocuments: c.Limits.MaxDocuments,
			ProximityPx:  c.Limits.ProximityPx,
		},
		MinZoom: c.Limits.MinZoom,
		MaxZoom: c.Limits.MaxZoom,
	}
}

// PhotoOptions returns the ingestion settings.
func (c Config) PhotoOptions() photo.Options {
	return photo.Options{MaxEdge: c.Photo.MaxEdge, Quality: c.Photo.Quality}
}

// BlobDir is where document binaries are kept between runs.
func (c Config) BlobDir() string {
	if c.Profile != "" {
		return filepath.Join(c.Storage.Dir, "documents", c.Profile)
	}
	return filepath.Join(c.Storage.Dir, "documents")
}

// Keyer returns the snapshot keyer for the namespace. A non-empty profile
// gives the user a separate project list and separate snapshots on a
// shared store.
func (c Config) Keyer() cache.Keyer {
	k := cache.NewDefaultKeyer(c.Namespace)
	if c.Profile == "" {
		return k
	}
	return cache.NewScopedKeyer(k, c.Profile+":")
}

// ===== Paths =====

// DefaultPath returns $XDG_CONFIG_HOME/pepedot/config.toml, falling back to
// ~/.config/pepedot/config.toml.
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func configDir() (string, error) {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// dataDir follows XDG_DATA_HOME (~/.local/share/pepedot).
func dataDir() (string, error) {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

func (c *Config) resolveDirs() error {
	if c.Storage.Dir != "" && c.Archive.BackupDir != "" {
		return nil
	}
	data, err := dataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = data
	}
	if c.Archive.BackupDir == "" {
		c.Archive.BackupDir = filepath.Join(data, "backups")
	}
	return nil
}

// ===== Environment =====

func (c *Config) applyEnv() {
	c.Namespace = envOr("NAMESPACE", c.Namespace)
	c.Profile = envOr("PROFILE", c.Profile)

	c.Limits.MaxProjects = envInt("MAX_PROJECTS", c.Limits.MaxProjects)
	c.Limits.MaxDocuments = envInt("MAX_DOCUMENTS", c.Limits.MaxDocuments)
	c.Limits.ProximityPx = envFloat("PROXIMITY_PX", c.Limits.ProximityPx)
	c.Limits.MinZoom = envFloat("MIN_ZOOM", c.Limits.MinZoom)
	c.Limits.MaxZoom = envFloat("MAX_ZOOM", c.Limits.MaxZoom)

	c.Storage.Backend = envOr("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Dir = envOr("STORAGE_DIR", c.Storage.Dir)
	c.Storage.QuotaBytes = envInt64("QUOTA_BYTES", c.Storage.QuotaBytes)
	c.Storage.SQLitePath = envOr("SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.RedisAddr = envOr("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = envOr("REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.RedisDB = envInt("REDIS_DB", c.Storage.RedisDB)
	c.Storage.MongoURI = envOr("MONGO_URI", c.Storage.MongoURI)
	c.Storage.MongoDatabase = envOr("MONGO_DATABASE", c.Storage.MongoDatabase)
	c.Storage.MongoCollection = envOr("MONGO_COLLECTION", c.Storage.MongoCollection)

	c.Photo.MaxEdge = envInt("PHOTO_MAX_EDGE", c.Photo.MaxEdge)
	c.Photo.Quality = envInt("PHOTO_QUALITY", c.Photo.Quality)

	c.Archive.BackupDir = envOr("BACKUP_DIR", c.Archive.BackupDir)
	c.Archive.PagePreviews = envBool("PAGE_PREVIEWS", c.Archive.PagePreviews)
	c.Archive.PreviewWidth = envInt("PREVIEW_WIDTH", c.Archive.PreviewWidth)

	c.User.Initials = envOr("INITIALS", c.User.Initials)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
