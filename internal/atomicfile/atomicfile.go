// Package atomicfile writes files through a temp-and-rename step so a
// crash mid-write never leaves a torn file behind.
package atomicfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes data to path atomically.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	_, err := write(path, perm, func(f *os.File) (int64, error) {
		n, err := f.Write(data)
		return int64(n), err
	})
	return err
}

// WriteReader streams r to path atomically and returns the byte count.
// Partial downloads are discarded with the temp file.
func WriteReader(path string, r io.Reader, perm os.FileMode) (int64, error) {
	return write(path, perm, func(f *os.File) (int64, error) {
		return io.Copy(f, r)
	})
}

func write(path string, perm os.FileMode, fill func(*os.File) (int64, error)) (int64, error) {
	if perm == 0 {
		perm = 0o644
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	// Some filesystems refuse chmod on open handles.
	_ = tmp.Chmod(perm)

	n, err := fill(tmp)
	if err != nil {
		return n, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}

	// Windows cannot rename over an existing file, so clear it and retry.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return n, fmt.Errorf("rename temp file: %w", err)
		}
	}

	committed = true
	return n, nil
}
