package config

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/tidwall/assert"
	"github.com/tidwall/polysplit/core"
)

func writeConfig(t *testing.T, json string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := ioutil.WriteFile(path, []byte(json), 0666); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissing(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.Assert(err == nil)
	assert.Assert(config.MaxVertices == core.DefaultMaxVertices)
	assert.Assert(config.Threads == runtime.NumCPU())
	assert.Assert(config.CacheSize == defaultCacheSize)
	assert.Assert(config.MaxUpload == defaultMaxUpload)

	config, err = Load("")
	assert.Assert(err == nil && config.Path() == "")
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"max_vertices": 500,
		"threads": "3",
		"cache_size": 0,
		"max_upload": "2mb",
		"logconfig": {"level":"info","encoding":"json"}
	}`)
	config, err := Load(path)
	assert.Assert(err == nil)
	assert.Assert(config.Path() == path)
	assert.Assert(config.MaxVertices == 500)
	assert.Assert(config.Threads == 3)
	assert.Assert(config.CacheSize == 0)
	assert.Assert(config.MaxUpload == 2*1024*1024)
	assert.Assert(config.LogConfig == `{"level":"info","encoding":"json"}`)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, `{"max_vertices":0}`))
	assert.Assert(errors.Is(err, ErrInvalidMaxVertices))
	_, err = Load(writeConfig(t, `{"threads":"many"}`))
	assert.Assert(errors.Is(err, errInvalidProperty))
	_, err = Load(writeConfig(t, `{"max_vertices":`))
	assert.Assert(err != nil)
	_, err = Load(t.TempDir())
	assert.Assert(err != nil && !os.IsNotExist(err))
}

func TestSet(t *testing.T) {
	config := Default()
	assert.Assert(config.Set(MaxVertices, " 64 ") == nil)
	assert.Assert(config.MaxVertices == 64)
	assert.Assert(config.Set(Threads, "0") == nil)
	assert.Assert(config.Threads == runtime.NumCPU())
	assert.Assert(config.Set(MaxUpload, "1kb") == nil)
	assert.Assert(config.MaxUpload == 1024)
	assert.Assert(errors.Is(config.Set(MaxVertices, "-1"), ErrInvalidMaxVertices))
	assert.Assert(errors.Is(config.Set("color", "red"), errInvalidProperty))
	assert.Assert(errors.Is(config.Set(LogConfig, "{"), errInvalidProperty))
}

func TestValidateMaxVertices(t *testing.T) {
	assert.Assert(ValidateMaxVertices(1) == nil)
	assert.Assert(ValidateMaxVertices(3) == nil)
	assert.Assert(ValidateMaxVertices(0) == ErrInvalidMaxVertices)
	assert.Assert(ValidateMaxVertices(-50) == ErrInvalidMaxVertices)
}

func TestSliderValue(t *testing.T) {
	assert.Assert(SliderValue(50))
	assert.Assert(SliderValue(250))
	assert.Assert(SliderValue(1000))
	assert.Assert(!SliderValue(256))
	assert.Assert(!SliderValue(0))
	assert.Assert(!SliderValue(1050))
}
