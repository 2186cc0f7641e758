package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// findEnvFile walks from dir up to the filesystem root and returns the first
// existing path named name. Absolute names are checked as given.
func findEnvFile(dir, name string) (string, error) {
	if name == "" {
		name = ".env"
	}
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", err
		}
		return name, nil
	}
	for curr := dir; ; {
		candidate := filepath.Join(curr, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			return "", fmt.Errorf("%s not found above %s: %w", name, dir, os.ErrNotExist)
		}
		curr = parent
	}
}
