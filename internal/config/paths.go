package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir is where tada keeps credentials, cache and logs: $TADA_HOME, or
// ~/.tada.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("TADA_HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

// Path joins name onto Dir.
func Path(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// DefaultPaths lists config files in increasing priority: the user file in
// Dir, then project files in the working directory. YAML and TOML are both
// accepted.
func DefaultPaths() []string {
	var paths []string
	if dir, err := Dir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "config.yaml"),
			filepath.Join(dir, "config.toml"),
		)
	}
	paths = append(paths, ".tada.yaml", ".tada.toml")
	return paths
}
