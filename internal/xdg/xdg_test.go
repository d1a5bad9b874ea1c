package xdg

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateHomeDefault(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/judge")

	x := NewXDGDirs()
	assert.Equal(t, filepath.Join("/home/judge", ".local", "state"), x.StateHome())
}

func TestXDGDirs(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")

	x := NewXDGDirs()
	assert.Equal(t, "/var/state", x.StateHome())
	assert.Equal(t, "/var/state/executor", x.AppStateDir("executor"))
}
