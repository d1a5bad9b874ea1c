package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"

	"github.com/programme-lv/executor/internal/xdg"
)

type EnvConfig struct {
	IsolateBin string
	BoxFirstID int
	MaxBoxes   int

	// ArtifactDir receives one directory per escalated incident.
	ArtifactDir   string
	ShimPath      string
	ExecutorsFile string
	WorkRoot      string

	NatsURL             string
	NatsIncidentSubject string
	IncidentSqsURL      string
	AwsRegion           string

	MetricsAddr string
	LogLevel    string
}

// ReadEnvConfig reads the environment, loading .env first when present.
func ReadEnvConfig() (*EnvConfig, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	result := &EnvConfig{
		IsolateBin:          getenv("ISOLATE_BIN", "isolate"),
		ArtifactDir:         getenv("ARTIFACT_DIR", filepath.Join(xdg.NewXDGDirs().AppStateDir("executor"), "incidents")),
		ShimPath:            os.Getenv("SETBUFSIZE_PATH"),
		ExecutorsFile:       os.Getenv("EXECUTORS_FILE"),
		WorkRoot:            os.Getenv("WORK_ROOT"),
		NatsURL:             os.Getenv("NATS_URL"),
		NatsIncidentSubject: getenv("NATS_INCIDENT_SUBJECT", "executor.incidents"),
		IncidentSqsURL:      os.Getenv("INCIDENT_SQS_URL"),
		AwsRegion:           getenv("AWS_REGION", "eu-central-1"),
		MetricsAddr:         os.Getenv("METRICS_ADDR"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
	}

	result.BoxFirstID, err = getenvInt("BOX_FIRST_ID", 0)
	if err != nil {
		return nil, err
	}
	result.MaxBoxes, err = getenvInt("MAX_BOXES", 100)
	if err != nil {
		return nil, err
	}

	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return result, nil
}

func (c EnvConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.IsolateBin, validation.Required),
		validation.Field(&c.BoxFirstID, validation.Min(0), validation.Max(999)),
		validation.Field(&c.MaxBoxes, validation.Required, validation.Min(1)),
		validation.Field(&c.ArtifactDir, validation.Required),
		validation.Field(&c.NatsIncidentSubject, validation.When(c.NatsURL != "", validation.Required)),
		validation.Field(&c.AwsRegion, validation.When(c.IncidentSqsURL != "", validation.Required)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

func getenv(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
