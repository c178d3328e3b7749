package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"catalog/src/internal/catalog"
)

// Paths locates the record files and the relationship database.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	DatabasePath string `toml:"database_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Catalog holds the integrity policy flags.
type Catalog struct {
	// ISBNUnique rejects a second manifestation with the same ISBN unless it
	// belongs to a series.
	ISBNUnique bool `toml:"isbn_unique"`
	// ManifestationHasOneItem allows one item per manifestation and one
	// manifestation per item.
	ManifestationHasOneItem bool `toml:"manifestation_has_one_item"`
	// ItemUseDifferentIdentifier keeps item identifiers separate from the
	// barcode-style item_identifier.
	ItemUseDifferentIdentifier bool `toml:"item_use_different_identifier"`
	// ItemAcquiredAtManaged means acquired_at is entered directly and never
	// derived from acquired_at_string.
	ItemAcquiredAtManaged bool `toml:"item_acquired_at_managed"`
	// DuringImport keeps invalid ISBNs as wrong_isbn instead of rejecting the record.
	DuringImport bool `toml:"during_import"`
	// TimeZone is the IANA zone partial dates are resolved in.
	TimeZone string `toml:"time_zone"`
}

// Config encapsulates all configuration values.
//
// Configuration sections:
//   - Paths: record directory and relationship database
//   - Logging: log format and level
//   - Catalog: integrity policy flags
type Config struct {
	Paths   Paths   `toml:"paths"`
	Logging Logging `toml:"logging"`
	Catalog Catalog `toml:"catalog"`
}

// ProjectConfigName is the file looked up in the working directory when no
// explicit path is given.
const ProjectConfigName = "catalog.toml"

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A missing file is not an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = ProjectConfigName
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// Location returns the zone partial dates resolve in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Catalog.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("catalog.time_zone: %w", err)
	}
	return loc, nil
}

// Flags converts the catalog section into the value the save pipeline takes.
func (c *Config) Flags() (catalog.Flags, error) {
	loc, err := c.Location()
	if err != nil {
		return catalog.Flags{}, err
	}
	return catalog.Flags{
		ISBNUnique:                 c.Catalog.ISBNUnique,
		HasOneItem:                 c.Catalog.ManifestationHasOneItem,
		ItemUseDifferentIdentifier: c.Catalog.ItemUseDifferentIdentifier,
		ItemAcquiredAtManaged:      c.Catalog.ItemAcquiredAtManaged,
		DuringImport:               c.Catalog.DuringImport,
		Location:                   loc,
	}, nil
}

// Encode writes c as TOML; used by `frbr config init`.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
