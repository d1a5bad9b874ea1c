package xdg

import (
	"os"
	"path/filepath"
)

// XDGDirs resolves XDG Base Directory paths used by the executor.
type XDGDirs struct {
	stateHome string
}

// NewXDGDirs applies the XDG defaults for unset variables.
func NewXDGDirs() *XDGDirs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = "/tmp"
		}
	}

	xdg := &XDGDirs{}

	// XDG_STATE_HOME: user-specific state data
	xdg.stateHome = os.Getenv("XDG_STATE_HOME")
	if xdg.stateHome == "" {
		xdg.stateHome = filepath.Join(homeDir, ".local", "state")
	}

	return xdg
}

// StateHome returns the base directory for user-specific state files
func (x *XDGDirs) StateHome() string {
	return x.stateHome
}

// AppStateDir returns the application-specific state directory
func (x *XDGDirs) AppStateDir(appName string) string {
	return filepath.Join(x.stateHome, appName)
}
