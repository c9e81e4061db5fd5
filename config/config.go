// Package config reads the TOML configuration file of the migration command.
//
// An example file:
//
//	limit = 0
//	sentry_dsn = ""
//
//	[database]
//	driver = "mysql"
//	dsn = "wp:secret@tcp(localhost:3306)/wordpress"
//	table_prefix = "wp_"
//	blog_id = 1
//
//	[plugin]
//	min_version = "2.3"
//
//	[settings]
//	bucket = "override-bucket"
//
//	[s3]
//	verify_bucket = true
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

// Environment variables which override the file.
const (
	EnvPath   = "AS3CF_MIGRATE_CONFIG"
	EnvDSN    = "AS3CF_MIGRATE_DSN"
	EnvSentry = "AS3CF_MIGRATE_SENTRY_DSN"
)

// DefaultPath is read when EnvPath is not set. It is not an error for it to
// be missing.
const DefaultPath = "as3cf-migrate.toml"

type Config struct {
	Limit     int    `toml:"limit"`
	SentryDSN string `toml:"sentry_dsn"`

	Database Database `toml:"database"`
	Plugin   Plugin   `toml:"plugin"`
	Settings Settings `toml:"settings"`
	S3       S3       `toml:"s3"`
}

type Database struct {
	Driver           string `toml:"driver"` // "mysql" or "ql"
	DSN              string `toml:"dsn"`
	TablePrefix      string `toml:"table_prefix"`
	BlogID           int    `toml:"blog_id"`
	CreateItemsTable bool   `toml:"create_items_table"`
}

type Plugin struct {
	MinVersion string `toml:"min_version"`

	// SkipActiveCheck turns off the check that the plugin is active. Set it
	// when the plugin is network activated on a multisite install, since
	// only the per-blog active plugin list is read.
	SkipActiveCheck bool `toml:"skip_active_check"`
}

// Settings override the plugin settings stored in the database. Empty fields
// are ignored.
type Settings struct {
	Provider     string `toml:"provider"`
	Region       string `toml:"region"`
	Bucket       string `toml:"bucket"`
	ObjectPrefix string `toml:"object_prefix"`
}

type S3 struct {
	VerifyBucket bool   `toml:"verify_bucket"`
	Endpoint     string `toml:"endpoint"`
	Region       string `toml:"region"`
}

// Default returns the configuration used for anything the file leaves out.
func Default() Config {
	return Config{
		Database: Database{
			Driver:      "mysql",
			TablePrefix: "wp_",
			BlogID:      1,
		},
		Plugin: Plugin{
			MinVersion: "2.3",
		},
	}
}

// Load reads the configuration from path, applies the environment overrides,
// and validates the result. If path is empty the path is taken from the
// environment, or DefaultPath, and a missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	optional := false
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = DefaultPath
		optional = true
	}
	_, err := toml.DecodeFile(path, &c)
	if err != nil && !(optional && os.IsNotExist(err)) {
		return c, errors.Wrapf(err, "reading %s", path)
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvSentry); v != "" {
		c.SentryDSN = v
	}
	return c, c.Validate()
}

// Validate checks the configuration for values the command cannot use.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "ql":
	default:
		return errors.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("no database dsn")
	}
	if c.Database.BlogID < 1 {
		return errors.Errorf("blog_id must be at least 1, got %d", c.Database.BlogID)
	}
	if c.Limit < 0 {
		return errors.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if _, err := version.NewVersion(c.Plugin.MinVersion); err != nil {
		return errors.Wrap(err, "plugin min_version")
	}
	return nil
}
