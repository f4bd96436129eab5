package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "OHMYMKT_"

	// maxConfigFileSize bounds how much of a config file is read.
	maxConfigFileSize = 1 << 20
)

// DefaultPath returns ~/.config/ohmymkt/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ohmymkt", "config.yaml"), nil
}

// LoadWithFile layers defaults, the YAML file at configPath and OHMYMKT_*
// environment variables, then validates the result. An empty configPath
// means DefaultPath; a missing file contributes nothing.
//
// An environment name maps to a key by splitting once after the prefix:
//
//	OHMYMKT_SERVER_HTTP_PORT    -> server.http_port
//	OHMYMKT_ENGINE_TEMPLATE_DIR -> engine.template_dir
func LoadWithFile(configPath string) (*Config, error) {
	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	k := koanf.New(".")

	content, found, err := readConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	if found {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("reading %s* environment: %w", envPrefix, err)
	}

	// Insecure export defaults to true for the loopback collector, and
	// applyDefaults cannot tell an unset bool from false.
	cfg := Config{Observability: ObservabilityConfig{Insecure: true}}
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// readConfigFile returns the file's bytes. found is false when nothing
// exists at path. Directories and files over maxConfigFileSize are errors.
func readConfigFile(path string) (content []byte, found bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("inspecting config file: %w", err)
	}
	if info.IsDir() {
		return nil, false, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, false, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err = io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, false, fmt.Errorf("reading config file: %w", err)
	}
	return content, true, nil
}

// envKey maps OHMYMKT_SECTION_FIELD_NAME to section.field_name.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + field
}
