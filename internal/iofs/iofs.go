// Package iofs keeps the application directories and embedded default
// files, and writes stage outputs atomically.
package iofs

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/pkg/config"
)

//go:embed config.yaml
var ConfigYAML string

//go:embed precedence.yaml
var PrecedenceYAML string

// EnsureDirs creates config, cache and log directories.
func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := EnsureDir(v); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDir creates a directory with its parents if it is missing.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

// EnsureConfigFile writes the embedded config.yaml unless the user
// already has one.
func EnsureConfigFile(homeDir string) error {
	return ensureFile(config.ConfigFilePath(homeDir), ConfigYAML)
}

// EnsurePrecedenceFile writes the embedded precedence.yaml unless the
// user already has one.
func EnsurePrecedenceFile(homeDir string) error {
	return ensureFile(config.PrecedenceFilePath(homeDir), PrecedenceYAML)
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return CopyFileError(path, err)
	}

	return nil
}

// ReadFile reads the whole file.
func ReadFile(path string) ([]byte, error) {
	res, err := os.ReadFile(path)
	if err != nil {
		return nil, ReadFileError(path, err)
	}
	return res, nil
}

// WriteFile writes data to a temporary file next to path and renames it
// over path, so readers see either the old or the new content.
func WriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return WriteFileError(tmp, err)
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return WriteFileError(tmp, err)
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return WriteFileError(tmp, err)
	}
	return AtomicReplace(tmp, path)
}

// WriteJSON saves v as indented JSON.
func WriteJSON(path string, v any) error {
	enc := gnfmt.GNjson{Pretty: true}
	data, err := enc.Encode(v)
	if err != nil {
		return WriteFileError(path, err)
	}
	return WriteFile(path, data)
}

// ReadJSON loads JSON created by WriteJSON into v.
func ReadJSON(path string, v any) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	enc := gnfmt.GNjson{}
	if err = enc.Decode(data, v); err != nil {
		return ReadFileError(path, err)
	}
	return nil
}

// AtomicReplace flushes tmp to disk and renames it over dst. The temp file
// is removed on failure, dst is never left half-written.
func AtomicReplace(tmp, dst string) error {
	f, err := os.OpenFile(tmp, os.O_RDWR, 0)
	if err != nil {
		return AtomicReplaceError(tmp, dst, err)
	}
	err = f.Sync()
	f.Close()
	if err != nil {
		os.Remove(tmp)
		return AtomicReplaceError(tmp, dst, err)
	}

	if err = os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return AtomicReplaceError(tmp, dst, err)
	}

	// persist the rename itself
	if d, err := os.Open(filepath.Dir(dst)); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}

// RemoveTemp deletes leftovers of an interrupted write.
func RemoveTemp(path string) {
	for _, v := range []string{"", "-journal", "-wal", "-shm"} {
		_ = os.Remove(path + v)
	}
}
