// Package config handles bfcloud.toml service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chazu/bfcloud/vm"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "bfcloud.toml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents a bfcloud.toml file.
type Config struct {
	Server  Server  `toml:"server" json:"server"`
	Storage Storage `toml:"storage" json:"storage"`
	VM      VM      `toml:"vm" json:"vm"`
	Run     Run     `toml:"run" json:"run"`
	Log     Log     `toml:"log" json:"log"`

	// Dir is the directory containing the config file (set at load time).
	Dir string `toml:"-" json:"-"`
}

// Server configures the HTTP API.
type Server struct {
	Addr    string `toml:"addr" json:"addr"`
	Workers int    `toml:"workers" json:"workers"`
}

// Storage configures where instances are persisted.
type Storage struct {
	Root     string `toml:"root" json:"root"`
	Database string `toml:"database" json:"database"`
}

// VM configures newly allocated machines.
type VM struct {
	MemorySize int `toml:"memory-size" json:"memory-size"`
}

// Run bounds a single run request.
type Run struct {
	MaxSteps int64  `toml:"max-steps" json:"max-steps"`
	Timeout  string `toml:"timeout" json:"timeout"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity" json:"verbosity"`
	File      string `toml:"file" json:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:  Server{Addr: ":4570", Workers: 4},
		Storage: Storage{Root: filepath.Join("data", "vm"), Database: filepath.Join("data", "bfcloud.db")},
		VM:      VM{MemorySize: vm.DefaultMemorySize},
		Run:     Run{MaxSteps: 50_000_000, Timeout: "10s"},
		Log:     Log{Verbosity: 1},
	}
}

// Load parses the bfcloud.toml file in dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a config file. Keys missing from the file keep their
// defaults; relative storage paths resolve against the file's directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalid, path, undecoded)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.Storage.Root = c.resolve(c.Storage.Root)
	c.Storage.Database = c.resolve(c.Storage.Database)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a bfcloud.toml file,
// then loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// RunTimeout returns the per-run deadline, or 0 for none.
func (c *Config) RunTimeout() time.Duration {
	if c.Run.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Run.Timeout)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
