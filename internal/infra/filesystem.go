package infra

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// WorkDir expands base (which may start with ~) joined with path and makes sure it exists.
func WorkDir(base string, path ...string) (string, error) {
	parts := append([]string{base}, path...)
	workDir, err := homedir.Expand(filepath.Join(parts...))
	if err != nil {
		return "", errors.Wrap(err, "expand work dir")
	}
	if err = os.MkdirAll(workDir, 0o750); err != nil {
		return "", errors.Wrap(err, "create work dir")
	}
	return workDir, nil
}

// DataPath resolves name inside the work dir unless it is already absolute.
func DataPath(base, name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := WorkDir(base)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
