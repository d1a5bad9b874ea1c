package verdict

import (
	"bytes"
	"strings"
)

// SelfReport recognises a failure that the sandboxed runtime reported
// about itself on stderr. It is the only place that knows how such a
// report looks.
type SelfReport interface {
	// Reported tells whether stderr carries the runtime's marker.
	Reported(stderr []byte) bool
	// Strip removes the marker from a decoded stderr.
	Strip(stderr string) string
}

// SubstringReport matches a literal marker anywhere in stderr.
type SubstringReport struct {
	Marker string
	// Prefix is removed from every place it occurs, defaults to Marker+": ".
	Prefix string
}

func (s SubstringReport) Reported(stderr []byte) bool {
	return s.Marker != "" && bytes.Contains(stderr, []byte(s.Marker))
}

func (s SubstringReport) Strip(stderr string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = s.Marker + ": "
	}
	return strings.TrimSpace(strings.ReplaceAll(stderr, prefix, ""))
}

// noReport is used by runtimes without a self-report protocol.
type noReport struct{}

func (noReport) Reported([]byte) bool { return false }

func (noReport) Strip(stderr string) string { return stderr }
