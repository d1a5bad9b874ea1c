package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/executor/api"
	"github.com/programme-lv/executor/internal/executor"
	"github.com/programme-lv/executor/internal/sandbox"
)

func listCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list configured executors and their resolved runtimes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, id := range a.registry.IDs() {
				e, err := a.registry.Executor(id)
				if err != nil {
					return err
				}
				runtime, err := e.Runtime()
				status := color.GreenString(runtime)
				if err != nil {
					status = color.RedString("not installed")
				}
				fmt.Printf("%-10s %-26s %s\n", color.CyanString(id), e.Config().Name, status)
			}
			return nil
		},
	}
}

func selfTestCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "selftest",
		Usage:     "run the test program of each executor",
		ArgsUsage: "[executor ids...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print results as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids := cmd.Args().Slice()
			if len(ids) == 0 {
				ids = a.registry.IDs()
			}

			results := make([]api.SelfTestResult, len(ids))
			var failed atomic.Int32
			var g errgroup.Group
			g.SetLimit(max(a.env.MaxBoxes, 1))
			for i, id := range ids {
				g.Go(func() error {
					results[i] = a.selfTest(ctx, id)
					if !results[i].Ok {
						failed.Add(1)
					}
					return nil
				})
			}
			_ = g.Wait()

			if cmd.Bool("json") {
				if err := printJSON(os.Stdout, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					printSelfTest(r)
				}
			}

			if n := failed.Load(); n > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d self-tests failed", n, len(ids)), 1)
			}
			return nil
		},
	}
}

func (a *app) selfTest(ctx context.Context, id string) api.SelfTestResult {
	res := api.SelfTestResult{Executor: id}
	e, err := a.registry.Executor(id)
	if err == nil {
		res.Ok, res.Output, err = e.SelfTest(ctx)
	}
	if err != nil {
		msg := err.Error()
		res.Error = &msg
	}
	return res
}

func printSelfTest(r api.SelfTestResult) {
	switch {
	case r.Ok:
		fmt.Printf("%s %s\n", color.GreenString("PASS"), r.Executor)
	case r.Error != nil:
		fmt.Printf("%s %s: %s\n", color.RedString("ERR "), r.Executor, *r.Error)
	default:
		fmt.Printf("%s %s: unexpected output %q\n", color.YellowString("FAIL"), r.Executor, r.Output)
	}
}

var submissionFlags = []cli.Flag{
	&cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Usage: "executor id"},
	&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "submission file, or a file holding its URL with --file-only"},
	&cli.StringFlag{Name: "problem", Usage: "problem id, defaults to the file name without extension"},
	&cli.BoolFlag{Name: "file-only", Usage: "the file contains a URL to the submission"},
	&cli.IntFlag{Name: "fsize-mib", Usage: "size limit of a fetched submission", Value: executor.DefaultFileSizeLimitMiB},
}

func validateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "compile and validate a submission without running it",
		Flags: submissionFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req, err := requestFromFlags(cmd)
			if err != nil {
				return err
			}
			p, err := a.prepare(ctx, req)
			if err != nil {
				if executor.KindOf(err) == executor.SubmitterError {
					fmt.Printf("%s\n%s\n", color.RedString("invalid submission"), err.Error())
					return cli.Exit("", 1)
				}
				return err
			}
			defer p.Close()

			fmt.Println(color.GreenString("ok"))
			return nil
		},
	}
}

func runCmd(a *app) *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "file fed to stdin, - for our stdin"},
		&cli.FloatFlag{Name: "time", Usage: "CPU time limit in seconds", Value: 1},
		&cli.Int64Flag{Name: "memory", Usage: "memory limit in KiB", Value: 262144},
		&cli.StringFlag{Name: "request", Usage: "JSON file with an exec request, replaces the other flags"},
	}, submissionFlags...)

	return &cli.Command{
		Name:  "run",
		Usage: "run a submission once and print the result as JSON",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var req api.ExecReq
			var err error
			if path := cmd.String("request"); path != "" {
				req, err = readRequest(path)
			} else {
				req, err = requestFromFlags(cmd)
				if err == nil {
					req, err = withRunFlags(req, cmd)
				}
			}
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, a.execute(ctx, req))
		},
	}
}

func requestFromFlags(cmd *cli.Command) (api.ExecReq, error) {
	path := cmd.String("file")
	if cmd.String("lang") == "" || path == "" {
		return api.ExecReq{}, errors.New("both --lang and --file are required")
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return api.ExecReq{}, fmt.Errorf("failed to read submission: %w", err)
	}

	problem := cmd.String("problem")
	if problem == "" {
		problem = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return api.ExecReq{
		ExecUuid:         uuid.NewString(),
		Executor:         cmd.String("lang"),
		ProblemID:        problem,
		Code:             string(code),
		FileOnly:         cmd.Bool("file-only"),
		FileSizeLimitMiB: int(cmd.Int("fsize-mib")),
	}, nil
}

func withRunFlags(req api.ExecReq, cmd *cli.Command) (api.ExecReq, error) {
	req.CpuMillis = int(cmd.Float("time") * 1000)
	req.MemoryKiB = cmd.Int64("memory")

	switch input := cmd.String("input"); input {
	case "":
	case "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return req, fmt.Errorf("failed to read stdin: %w", err)
		}
		req.Stdin = string(b)
	default:
		b, err := os.ReadFile(input)
		if err != nil {
			return req, fmt.Errorf("failed to read input: %w", err)
		}
		req.Stdin = string(b)
	}
	return req, nil
}

func readRequest(path string) (api.ExecReq, error) {
	var req api.ExecReq
	b, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read request: %w", err)
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return req, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.ExecUuid == "" {
		req.ExecUuid = uuid.NewString()
	}
	return req, nil
}

func (a *app) prepare(ctx context.Context, req api.ExecReq) (*executor.Prepared, error) {
	e, err := a.registry.Executor(req.Executor)
	if err != nil {
		return nil, err
	}
	sub, err := executor.NewSubmission(req.ProblemID, []byte(req.Code), executor.Meta{
		FileOnly:         req.FileOnly,
		FileSizeLimitMiB: req.FileSizeLimitMiB,
	})
	if err != nil {
		return nil, executor.CompileError(fmt.Sprintf("invalid submission: %v", err))
	}
	return e.Prepare(ctx, sub)
}

// execute never fails; every failure is described in the response.
func (a *app) execute(ctx context.Context, req api.ExecReq) (resp api.ExecResponse) {
	start := time.Now()
	resp = api.ExecResponse{
		ExecUuid:  req.ExecUuid,
		Flags:     []string{},
		StartTime: start.Format(time.RFC3339),
	}
	defer func() {
		finish := time.Now()
		resp.FinishTime = finish.Format(time.RFC3339)
		resp.TotalTimeMs = finish.Sub(start).Milliseconds()
	}()

	res, err := a.run(ctx, req)
	if err != nil {
		resp.Status = api.InternalError
		if executor.KindOf(err) == executor.SubmitterError {
			resp.Status = api.CompileError
		}
		msg := err.Error()
		resp.ErrorMessage = &msg
		var execErr *executor.Error
		if errors.As(err, &execErr) && execErr.ArtifactDir != "" {
			resp.ArtifactDir = &execErr.ArtifactDir
		}
		return resp
	}

	o := res.Outcome
	resp.Status = api.Success
	resp.Flags = res.Flags.Names()
	resp.Feedback = res.Feedback
	resp.Runtime = api.NewRuntimeData(o.Stdout, o.Stderr, o.ExitCode, o.ExitSignal,
		o.CpuMillis, o.WallMillis, o.MemoryKiB, o.Status, o.Message)
	return resp
}

func (a *app) run(ctx context.Context, req api.ExecReq) (*executor.Result, error) {
	p, err := a.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return p.Run(ctx, []byte(req.Stdin), sandbox.Limits{
		CpuTimeSec: float64(req.CpuMillis) / 1000,
		MemoryKiB:  req.MemoryKiB,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
