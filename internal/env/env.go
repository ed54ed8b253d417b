package env

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the per-user directory searched for jucegen.yaml.
func ConfigDir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "jucegen"), nil
}
