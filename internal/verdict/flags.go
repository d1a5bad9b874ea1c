package verdict

import (
	"encoding/json"
	"strings"
)

// Flags is a set of independent outcome markers of a judged run.
type Flags uint16

const (
	Accepted Flags = 1 << iota
	RuntimeError
	TimeLimitExceeded
	MemoryLimitExceeded
	OutputLimitExceeded
	InternalError
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Accepted, "AC"},
	{RuntimeError, "RTE"},
	{TimeLimitExceeded, "TLE"},
	{MemoryLimitExceeded, "MLE"},
	{OutputLimitExceeded, "OLE"},
	{InternalError, "IE"},
}

func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// Failed is true when any flag other than Accepted is set.
func (f Flags) Failed() bool {
	return f&^Accepted != 0
}

// Names lists the short names of the set flags, AC first.
func (f Flags) Names() []string {
	names := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

func (f Flags) String() string {
	if f == 0 {
		return "-"
	}
	return strings.Join(f.Names(), "|")
}

func (f Flags) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Names())
}
