package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/executor/internal/behave"
)

func behaveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "behave",
		Usage:     "run TOML behaviour scenarios against the real sandbox",
		ArgsUsage: "<scenarios.toml>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("expected exactly one scenarios file", 2)
			}
			cases, err := behave.Parse(cmd.Args().First())
			if err != nil {
				return err
			}

			failed := 0
			for _, c := range cases {
				resp := a.execute(ctx, c.Request)
				if err := c.Expect.Check(resp); err != nil {
					failed++
					fmt.Printf("%s %s: %v\n", color.RedString("FAIL"), c.Name, err)
					continue
				}
				fmt.Printf("%s %s (%d ms)\n", color.GreenString("PASS"), c.Name, resp.TotalTimeMs)
			}

			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d scenarios failed", failed, len(cases)), 1)
			}
			return nil
		},
	}
}
