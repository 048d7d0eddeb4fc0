package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/perftester/internal/config"
	"github.com/programme-lv/perftester/internal/runner"
)

const (
	exitOK = iota
	exitFailure
	exitCrash
	exitStale
	exitConfig
)

func main() {
	cmd := &cli.Command{
		Name:  "perftester",
		Usage: "run browser performance tests and collect counters",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colored output"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("no-color") {
				color.NoColor = true
			}
			slog.SetDefault(newLogger(cmd.Bool("verbose")))
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			checkCommand(),
			cleanCommand(),
			historyCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		slog.Error("perftester failed", tint.Err(err))
	}
	os.Exit(exitCode(err))
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    color.NoColor,
	}))
}

// exitCode maps run failures to distinct process exit codes so wrappers
// can tell an unclean machine from a crashing browser.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var (
		stale   *runner.StaleProcessError
		crashed *runner.CrashError
	)
	switch {
	case errors.Is(err, config.ErrInvalid):
		return exitConfig
	case errors.As(err, &stale):
		return exitStale
	case errors.As(err, &crashed):
		return exitCrash
	}
	return exitFailure
}

func requireArg(cmd *cli.Command, what string) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("%w: expected exactly one argument: %s", config.ErrInvalid, what)
	}
	return cmd.Args().First(), nil
}
