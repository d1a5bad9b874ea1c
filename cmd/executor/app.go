package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/executor/internal/environment"
	"github.com/programme-lv/executor/internal/executor"
	"github.com/programme-lv/executor/internal/fetch"
	"github.com/programme-lv/executor/internal/incident"
	"github.com/programme-lv/executor/internal/isolate"
	"github.com/programme-lv/executor/internal/metrics"
)

// app holds what every command needs, built once before the command runs.
type app struct {
	env      *environment.EnvConfig
	registry *executor.Registry
	closers  []func() error
}

func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	env, err := environment.ReadEnvConfig()
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet("log-level") {
		env.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("config") {
		env.ExecutorsFile = cmd.String("config")
	}
	if cmd.IsSet("metrics-addr") {
		env.MetricsAddr = cmd.String("metrics-addr")
	}
	if err := setupLogger(env.LogLevel); err != nil {
		return ctx, err
	}
	a.env = env

	configs, err := executor.LoadConfigs(env.ExecutorsFile)
	if err != nil {
		return ctx, fmt.Errorf("failed to load executors: %w", err)
	}

	notifier, err := a.notifier(ctx)
	if err != nil {
		return ctx, err
	}

	iso := isolate.New(env.IsolateBin, env.BoxFirstID, env.MaxBoxes)
	a.registry = executor.NewRegistry(configs, executor.Deps{
		Runner:   isolate.NewRunner(iso, isolate.DefaultMaxCapture),
		Fetcher:  a.fetcher(ctx),
		Recorder: incident.NewRecorder(env.ArtifactDir),
		Notifier: notifier,
		ShimPath: env.ShimPath,
		WorkRoot: env.WorkRoot,
	})

	if env.MetricsAddr != "" {
		a.serveMetrics(env.MetricsAddr)
	}

	slog.Debug("executor ready",
		"executors", a.registry.IDs(),
		"isolate", env.IsolateBin,
		"artifact_dir", env.ArtifactDir,
	)
	return ctx, nil
}

func (a *app) teardown(_ context.Context, _ *cli.Command) error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *app) fetcher(ctx context.Context) *fetch.Fetcher {
	s3Client, err := fetch.NewS3Client(ctx, a.env.AwsRegion)
	if err != nil {
		slog.Warn("S3 references will not be fetched", "error", err)
		return fetch.New(nil, nil)
	}
	return fetch.New(s3Client, nil)
}

// notifier always logs incidents and also publishes them to every
// configured broker.
func (a *app) notifier(ctx context.Context) (incident.Notifier, error) {
	ns := incident.Notifiers{incident.LogNotifier{}}

	if a.env.NatsURL != "" {
		nc, err := nats.Connect(a.env.NatsURL, nats.Name("executor"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.closers = append(a.closers, nc.Drain)
		ns = append(ns, incident.NewNatsNotifier(nc, a.env.NatsIncidentSubject))
	}

	if a.env.IncidentSqsURL != "" {
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(a.env.AwsRegion))
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		ns = append(ns, incident.NewSqsNotifier(sqs.NewFromConfig(cfg), a.env.IncidentSqsURL))
	}

	return ns, nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	a.closers = append(a.closers, func() error {
		return srv.Shutdown(context.Background())
	})
}
