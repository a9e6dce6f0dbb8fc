package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// configFileNames is the ordered list of config file names to search for.
var configFileNames = []string{
	"cellfmt.yml",
	"cellfmt.yaml",
	".cellfmt.yml",
	".cellfmt.yaml",
	"cellfmt.toml",
	".cellfmt.toml",
}

// Discover returns the path of the first config file found in dir,
// following the standard search order. It returns an empty string if
// no config file is found.
func Discover(dir string) string {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads and parses a cellfmt config file. If configPath is non-empty,
// that file is loaded directly. Otherwise, Load searches the current working
// directory using Discover. If no config file is found, DefaultConfig is
// returned.
//
// Partial files are supported: any fields not specified retain their
// default values. A relative root is resolved against the directory of the
// config file. The result is validated.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		configPath = Discover(wd)
	}

	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	// Start from defaults so missing fields retain non-zero defaults.
	cfg := DefaultConfig()
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		err = decodeTOML(data, cfg)
	} else {
		err = decodeYAML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(configPath), cfg.Root)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	var unknown []string
	for _, k := range meta.Undecoded() {
		// Step tables are decoded by StepConfig itself.
		if len(k) > 2 && k[0] == "formats" && k[1] == "steps" {
			continue
		}
		unknown = append(unknown, k.String())
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown keys: %s", strings.Join(unknown, ", "))
	}
	return nil
}
