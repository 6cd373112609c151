package config

import (
	"os"
	"path/filepath"
)

// GetUserConfigDir returns ~/.vfsh, the teacher's ~/.wingthing pattern.
func GetUserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".vfsh"), nil
}

// GetProjectDir walks up from the working directory looking for an
// existing .vfsh or .git directory, falling back to the working
// directory itself (the teacher's GetProjectDir).
func GetProjectDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, ".vfsh")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

// EnsureConfigDirs creates both the user and project config directories.
func EnsureConfigDirs(userConfigDir, projectDir string) error {
	if err := os.MkdirAll(userConfigDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(projectDir, ".vfsh"), 0o755)
}
