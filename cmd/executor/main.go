package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"
)

func main() {
	a := &app{}
	cmd := &cli.Command{
		Name:  "executor",
		Usage: "compile, validate and run submissions inside isolate",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "executors TOML file (overrides EXECUTORS_FILE)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve Prometheus metrics on this address (overrides METRICS_ADDR)",
			},
		},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			listCmd(a),
			selfTestCmd(a),
			validateCmd(a),
			runCmd(a),
			behaveCmd(a),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("executor failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	})))
	return nil
}
