// Package asmfile reads and writes the container format deflow works on:
// a schema-versioned msgpack payload holding one module's metadata and
// method bodies.
package asmfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"deflow/internal/meta"
)

// Ext is the conventional file extension for module files.
const Ext = ".dfm"

// Increment when the payload format changes; readers reject unknown schemas
// instead of guessing.
const schemaVersion uint16 = 1

type payload struct {
	Schema uint16
	Module *meta.Module
}

// Load reads a module file and rebuilds its resolution index.
func Load(path string) (*meta.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", path, err)
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%s: unsupported schema %d (want %d)", path, p.Schema, schemaVersion)
	}
	if p.Module == nil {
		return nil, fmt.Errorf("%s: no module payload", path)
	}
	p.Module.Index()
	return p.Module, nil
}

// Save writes a module file atomically: encode to a temp file in the target
// directory, then rename over the destination.
func Save(path string, m *meta.Module) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&payload{Schema: schemaVersion, Module: m}); err != nil {
		f.Close()
		return fmt.Errorf("%s: encode: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
