package isolate

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/programme-lv/executor/internal/sandbox"
)

// Status codes written by isolate into the meta file.
const (
	StatusRuntimeError  = "RE"
	StatusSignaled      = "SG"
	StatusTimedOut      = "TO"
	StatusInternalError = "XX"
)

// sigxfsz is delivered when the file size limit is exceeded.
const sigxfsz = 25

type Metrics struct {
	TimeSec      float64
	TimeWallSec  float64
	MaxRssKb     int64
	CswVoluntary int64
	CswForced    int64
	CgMemKb      int64
	CgOomKilled  bool
	ExitCode     int64
	ExitSignal   *int64
	Killed       bool
	Status       string
	Message      string
}

func parseMetaFile(content []byte) (*Metrics, error) {
	metrics := &Metrics{}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed meta line %q", line)
		}

		var err error
		switch key {
		case "time":
			metrics.TimeSec, err = strconv.ParseFloat(value, 64)
		case "time-wall":
			metrics.TimeWallSec, err = strconv.ParseFloat(value, 64)
		case "max-rss":
			metrics.MaxRssKb, err = strconv.ParseInt(value, 10, 64)
		case "csw-voluntary":
			metrics.CswVoluntary, err = strconv.ParseInt(value, 10, 64)
		case "csw-forced":
			metrics.CswForced, err = strconv.ParseInt(value, 10, 64)
		case "cg-mem":
			metrics.CgMemKb, err = strconv.ParseInt(value, 10, 64)
		case "cg-oom-killed":
			metrics.CgOomKilled = value == "1"
		case "exitcode":
			metrics.ExitCode, err = strconv.ParseInt(value, 10, 64)
		case "exitsig":
			var sig int64
			sig, err = strconv.ParseInt(value, 10, 64)
			metrics.ExitSignal = &sig
		case "killed":
			metrics.Killed = value == "1"
		case "status":
			metrics.Status = value
		case "message":
			metrics.Message = value
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse meta key %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return metrics, nil
}

// Outcome translates the meta file into the sandbox-neutral outcome.
func (m *Metrics) Outcome() *sandbox.Outcome {
	outputExceeded := m.ExitSignal != nil && *m.ExitSignal == sigxfsz
	return &sandbox.Outcome{
		ExitCode:       m.ExitCode,
		ExitSignal:     m.ExitSignal,
		TimedOut:       m.Status == StatusTimedOut,
		MemoryExceeded: m.CgOomKilled,
		OutputExceeded: outputExceeded,
		CpuMillis:      int64(m.TimeSec * 1000),
		WallMillis:     int64(m.TimeWallSec * 1000),
		MemoryKiB:      m.CgMemKb,
		Status:         m.Status,
		Message:        m.Message,
	}
}
