package util

import (
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "create directory"), "path", path)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so concurrent readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "create temp file"), "path", path)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return zerr.With(zerr.Wrap(err, "write temp file"), "path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return zerr.With(zerr.Wrap(err, "close temp file"), "path", path)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return zerr.With(zerr.Wrap(err, "rename temp file"), "path", path)
	}
	return nil
}

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
