// Package config loads polysplit settings from a json file.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/polysplit/core"
)

// Config keys
const (
	MaxVertices = "max_vertices"
	Threads     = "threads"
	LogConfig   = "logconfig"
	CacheSize   = "cache_size"
	MaxUpload   = "max_upload"
)

const (
	defaultCacheSize = 64
	defaultMaxUpload = 64 * 1024 * 1024
)

var validProperties = []string{MaxVertices, Threads, LogConfig, CacheSize, MaxUpload}

var (
	// ErrInvalidMaxVertices is returned for a vertex bound below one.
	ErrInvalidMaxVertices = errors.New("max vertices must be a positive number")
	errInvalidProperty    = errors.New("invalid property")
)

// Config holds the settings of a polysplit process.
type Config struct {
	path string

	MaxVertices int
	Threads     int
	LogConfig   string
	CacheSize   int
	MaxUpload   int64
}

// Default returns a config with every setting at its default.
func Default() *Config {
	return &Config{
		MaxVertices: core.DefaultMaxVertices,
		Threads:     runtime.NumCPU(),
		CacheSize:   defaultCacheSize,
		MaxUpload:   defaultMaxUpload,
	}
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	config.path = path
	if path == "" {
		return config, nil
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	json := string(data)
	if !gjson.Valid(json) {
		return nil, fmt.Errorf("%s: invalid json", path)
	}
	for _, name := range validProperties {
		res := gjson.Get(json, name)
		if !res.Exists() {
			continue
		}
		value := res.String()
		if name == LogConfig && res.IsObject() {
			value = res.Raw
		}
		if err := config.Set(name, value); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return config, nil
}

// Path returns the file the config was loaded from.
func (config *Config) Path() string {
	return config.path
}

// Set assigns a property from its text form.
func (config *Config) Set(name, value string) error {
	value = strings.TrimSpace(value)
	invalid := func() error {
		return fmt.Errorf("%w '%s' for %s", errInvalidProperty, value, name)
	}
	switch name {
	case MaxVertices:
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid()
		}
		if err := ValidateMaxVertices(n); err != nil {
			return err
		}
		config.MaxVertices = n
	case Threads:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalid()
		}
		if n == 0 {
			n = runtime.NumCPU()
		}
		config.Threads = n
	case LogConfig:
		if value != "" && !gjson.Valid(value) {
			return invalid()
		}
		config.LogConfig = value
	case CacheSize:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return invalid()
		}
		config.CacheSize = n
	case MaxUpload:
		n, err := parseMemSize(value)
		if err != nil || n <= 0 {
			return invalid()
		}
		config.MaxUpload = n
	default:
		return fmt.Errorf("%w '%s'", errInvalidProperty, name)
	}
	return nil
}

// ValidateMaxVertices checks that n can be used as a vertex bound.
func ValidateMaxVertices(n int) error {
	if n < 1 {
		return ErrInvalidMaxVertices
	}
	return nil
}

// SliderValue returns true when n is one of the values offered by the
// upload form slider.
func SliderValue(n int) bool {
	return n >= core.SliderMin && n <= core.SliderMax &&
		(n-core.SliderMin)%core.SliderStep == 0
}

func parseMemSize(s string) (bytes int64, err error) {
	if s == "" {
		return 0, nil
	}
	s = strings.ToLower(s)
	var n uint64
	var sz int64
	switch {
	case strings.HasSuffix(s, "gb"):
		n, err = strconv.ParseUint(s[:len(s)-2], 10, 64)
		sz = int64(n * 1024 * 1024 * 1024)
	case strings.HasSuffix(s, "mb"):
		n, err = strconv.ParseUint(s[:len(s)-2], 10, 64)
		sz = int64(n * 1024 * 1024)
	case strings.HasSuffix(s, "kb"):
		n, err = strconv.ParseUint(s[:len(s)-2], 10, 64)
		sz = int64(n * 1024)
	default:
		n, err = strconv.ParseUint(s, 10, 64)
		sz = int64(n)
	}
	if err != nil {
		return 0, err
	}
	return sz, nil
}
