package api

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTrimStrToRect(t *testing.T) {
	assert.Equal(t, "abc", TrimStrToRect("abc", 1, 3))
	assert.Equal(t, "ab[...]", TrimStrToRect("abc", 1, 2))
	assert.Equal(t, "a\nb\n[...]", TrimStrToRect("a\nb\nc", 2, 10))

	trimmed := TrimStrToRect("klūda: ēšana", 1, 4)
	assert.Equal(t, "klūd[...]", trimmed)
	assert.True(t, utf8.ValidString(trimmed))
	assert.Equal(t, "ēšana", TrimStrToRect("ēšana", 1, 5))
}

func TestNewRuntimeData(t *testing.T) {
	long := strings.Repeat("x", MaxRuntimeDataWidth+1)
	rd := NewRuntimeData([]byte(long), nil, 1, nil, 10, 20, 1024, "RE", "")

	assert.Equal(t, strings.Repeat("x", MaxRuntimeDataWidth)+"[...]", rd.Stdout)
	assert.Empty(t, rd.Stderr)
	assert.Equal(t, int64(1), rd.ExitCode)
	assert.Equal(t, int64(1024), rd.MemoryKiBytes)
	if assert.NotNil(t, rd.IsolateStatus) {
		assert.Equal(t, "RE", *rd.IsolateStatus)
	}
	assert.Nil(t, rd.IsolateMsg)
}
