package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// memFS is an in-memory file system for testing.
type memFS struct {
	files map[string][]byte
}

func newMemFS() *memFS {
	return &memFS{files: make(map[string][]byte)}
}

func (m *memFS) addFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *memFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := newMemFS()
	memfs.addFile("/rtcore.toml", `
[builder]
maxLength = 1024
growthFactor = 2.0

[native]
provider = "heap"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/rtcore.toml").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if v, _ := GetByPath(config, "builder.maxLength"); v != int64(1024) {
		t.Errorf("builder.maxLength = %v (%T), want 1024", v, v)
	}
	if v, _ := GetByPath(config, "builder.growthFactor"); v != 2.0 {
		t.Errorf("builder.growthFactor = %v, want 2.0", v)
	}
	if v, _ := GetByPath(config, "native.provider"); v != "heap" {
		t.Errorf("native.provider = %v, want heap", v)
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(newMemFS(), "/missing.toml").Load()
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for missing file")
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := newMemFS()
	memfs.addFile("/invalid.toml", "[builder\nmaxLength = 4\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/invalid.toml").Load()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	if parseErr.Path != "/invalid.toml" {
		t.Errorf("Path = %q, want /invalid.toml", parseErr.Path)
	}
	if parseErr.Line == 0 {
		t.Error("expected a line number")
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := (&TOMLLoader{}).LoadFromReader(strings.NewReader("[finalizer]\nqueueSize = 8\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if v, _ := GetByPath(config, "finalizer.queueSize"); v != int64(8) {
		t.Errorf("finalizer.queueSize = %v, want 8", v)
	}
}

func TestJSONLoader_Load(t *testing.T) {
	memfs := newMemFS()
	memfs.addFile("/rtcore.json", `{"builder": {"minCapacity": 32}, "logging": {"level": "debug"}}`)

	config, err := NewJSONLoaderWithFS(memfs, "/rtcore.json").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, _ := GetByPath(config, "builder.minCapacity"); v != float64(32) {
		t.Errorf("builder.minCapacity = %v (%T), want 32", v, v)
	}
	if v, _ := GetByPath(config, "logging.level"); v != "debug" {
		t.Errorf("logging.level = %v, want debug", v)
	}
}

func TestJSONLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"builder": `},
		{"array", `[1, 2]`},
		{"scalar", `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memfs := newMemFS()
			memfs.addFile("/bad.json", tt.content)
			_, err := NewJSONLoaderWithFS(memfs, "/bad.json").Load()
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if !errors.Is(err, errInvalidJSON) {
				t.Errorf("error does not wrap errInvalidJSON: %v", err)
			}
		})
	}

	config, err := NewJSONLoaderWithFS(newMemFS(), "/missing.json").Load()
	if err != nil || config != nil {
		t.Errorf("missing file = %v, %v; want nil, nil", config, err)
	}
}

func TestForFile(t *testing.T) {
	if _, ok := ForFile(nil, "/etc/rtcore.JSON").(*JSONLoader); !ok {
		t.Error("expected JSON loader for .JSON")
	}
	if _, ok := ForFile(nil, "/etc/rtcore.toml").(*TOMLLoader); !ok {
		t.Error("expected TOML loader for .toml")
	}
	if _, ok := ForFile(nil, "/etc/rtcore").(*TOMLLoader); !ok {
		t.Error("expected TOML loader without extension")
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"builder": map[string]any{"maxLength": 10, "minCapacity": 4},
		"native":  map[string]any{"provider": "mmap"},
	}
	src := map[string]any{
		"builder": map[string]any{"maxLength": 20},
		"native":  "flat",
	}

	merged := DeepMerge(dst, src)
	if v, _ := GetByPath(merged, "builder.maxLength"); v != 20 {
		t.Errorf("builder.maxLength = %v, want 20", v)
	}
	if v, _ := GetByPath(merged, "builder.minCapacity"); v != 4 {
		t.Errorf("builder.minCapacity = %v, want 4", v)
	}
	if merged["native"] != "flat" {
		t.Errorf("native = %v, want flat", merged["native"])
	}

	src["builder"].(map[string]any)["maxLength"] = 99
	if v, _ := GetByPath(merged, "builder.maxLength"); v != 20 {
		t.Error("merge aliased the source map")
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{"a": map[string]any{"b": []any{map[string]any{"c": 1}}}}
	dst := Clone(src)

	dst["a"].(map[string]any)["b"].([]any)[0].(map[string]any)["c"] = 2
	if v := src["a"].(map[string]any)["b"].([]any)[0].(map[string]any)["c"]; v != 1 {
		t.Errorf("clone shares nested data: %v", v)
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestSetAndGetByPath(t *testing.T) {
	data := map[string]any{"builder": "scalar"}
	SetByPath(data, "builder.maxLength", 5)
	if v, ok := GetByPath(data, "builder.maxLength"); !ok || v != 5 {
		t.Errorf("GetByPath = %v, %v", v, ok)
	}
	if _, ok := GetByPath(data, "builder.maxLength.deeper"); ok {
		t.Error("path through a scalar should not resolve")
	}
	if _, ok := GetByPath(data, ""); ok {
		t.Error("empty path should not resolve")
	}
}
