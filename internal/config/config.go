// Package config loads the optional dupecopy configuration file.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional dupecopy configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults. Nil means "not set".
type DefaultsConfig struct {
	DryRun     *bool   `toml:"dry_run"`
	Verbose    *bool   `toml:"verbose"`
	NoProgress *bool   `toml:"no_progress"`
	CacheFile  *string `toml:"cache_file"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dupecopy", "config.toml")
}

// Load reads the config file at path, or at Path() when path is empty.
// Returns a zero Config (no error) if the file does not exist.
// Keys that are not recognised are an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, &UnknownKeyError{File: path, Key: undecoded[0].String()}
	}
	return cfg, nil
}

// UnknownKeyError reports a config key that dupecopy does not understand.
type UnknownKeyError struct {
	File string
	Key  string
}

func (e *UnknownKeyError) Error() string {
	return e.File + ": unknown key " + e.Key
}
