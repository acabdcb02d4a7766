// Package config reads LiveBoard settings from flags, with defaults taken
// from the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr           string
	Store          string
	DBPath         string
	UploadDir      string
	MaxFileMB      int
	MaxFiles       int
	AllowedOrigins []string
	MDNS           bool
	Debug          bool

	// Args are the positional arguments left after the flags.
	Args []string
}

var ErrInvalid = errors.New("invalid configuration")

// Load parses args. Every flag defaults to its LIVEBOARD_* variable, then
// to the built-in value.
func Load(name string, args []string) (*Config, error) {
	c := &Config{}
	var origins string

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&c.Addr, "addr", env("LIVEBOARD_ADDR", ":4000"), "listen address of the board server")
	fs.StringVar(&c.Store, "store", env("LIVEBOARD_STORE", "sqlite"), "stroke store: sqlite, bolt or memory")
	fs.StringVar(&c.DBPath, "db", env("LIVEBOARD_DB", "./liveboard.db"), "database file")
	fs.StringVar(&c.UploadDir, "uploads", env("LIVEBOARD_UPLOAD_DIR", "./uploads"), "upload directory")
	fs.IntVar(&c.MaxFileMB, "max-file-mb", envInt("LIVEBOARD_MAX_FILE_MB", 10), "upload size limit in MB")
	fs.IntVar(&c.MaxFiles, "max-files", envInt("LIVEBOARD_MAX_FILES", 5), "uploads allowed per user")
	fs.StringVar(&origins, "origins", env("LIVEBOARD_ALLOWED_ORIGINS", "http://localhost:3000"), "comma separated CORS origins, * for any")
	fs.BoolVar(&c.MDNS, "mdns", envBool("LIVEBOARD_MDNS", true), "advertise or browse boards on the LAN")
	fs.BoolVar(&c.Debug, "debug", envBool("LIVEBOARD_DEBUG", false), "debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.Args = fs.Args()
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, o)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalid, c.Store)
	}
	if c.Store != "memory" && c.DBPath == "" {
		return fmt.Errorf("%w: -db is required for the %s store", ErrInvalid, c.Store)
	}
	if c.Addr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("%w: max-file-mb must be positive", ErrInvalid)
	}
	if c.MaxFiles <= 0 {
		return fmt.Errorf("%w: max-files must be positive", ErrInvalid)
	}
	return nil
}

// MaxFileBytes is the upload size limit in bytes.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.MaxFileMB) << 20
}

func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
