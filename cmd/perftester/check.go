package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/perftester/internal/browserlog"
	"github.com/programme-lv/perftester/internal/config"
	"github.com/programme-lv/perftester/internal/process"
	"github.com/programme-lv/perftester/internal/runner"
)

func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "process", Value: "firefox", Usage: "browser process name, when no config is given"},
		&cli.StringFlag{Name: "child-process", Value: config.DefaultChildProcess},
	}
}

// resolveTarget reads process names and artifact paths from an optional
// config argument, falling back to flags and defaults.
func resolveTarget(cmd *cli.Command) (config.RunConfig, error) {
	if cmd.Args().Len() > 0 {
		return config.Load(cmd.Args().First())
	}
	return config.RunConfig{
		Process:       cmd.String("process"),
		ChildProcess:  cmd.String("child-process"),
		BrowserLog:    config.DefaultBrowserLog,
		ErrorFilename: config.DefaultErrorFilename,
		BrowserWait:   config.DefaultBrowserWait,
	}, nil
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "list browser processes that would make a run fail",
		ArgsUsage: "[config]",
		Flags:     targetFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := resolveTarget(cmd)
			if err != nil {
				return err
			}
			sup := process.NewSupervisor(nil)
			procs, err := sup.ListMatching(cfg.Process, cfg.ChildProcess)
			if err != nil {
				return err
			}

			marker := browserlog.Exists(cfg.ErrorFilename)
			if procs.Cardinality() == 0 && !marker {
				color.Green("clean: no %s or %s processes running", cfg.Process, cfg.ChildProcess)
				return nil
			}

			if procs.Cardinality() > 0 {
				list := procs.ToSlice()
				slices.SortFunc(list, func(a, b process.Proc) int { return a.Pid - b.Pid })
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, color.New(color.Bold).Sprint("PID\tNAME"))
				for _, p := range list {
					fmt.Fprintf(w, "%d\t%s\n", p.Pid, color.YellowString(p.Name))
				}
				w.Flush()
			}
			if marker {
				color.Yellow("stale error marker: %s", cfg.ErrorFilename)
			}
			if procs.Cardinality() > 0 {
				return &runner.StaleProcessError{Procs: procs, Stage: runner.StagePreflight}
			}
			return &runner.RegressionError{MarkerPath: cfg.ErrorFilename, Stale: true}
		},
	}
}

func cleanCommand() *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "kill stray browser processes and remove stale log and marker files",
		ArgsUsage: "[config]",
		Flags:     targetFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := resolveTarget(cmd)
			if err != nil {
				return err
			}
			sup := process.NewSupervisor(nil)
			if err := sup.KillMatching(cfg.Process, cfg.ChildProcess, cfg.BrowserWait); err != nil {
				return err
			}
			for _, f := range []string{cfg.BrowserLog, cfg.ErrorFilename} {
				if err := browserlog.Remove(f); err != nil {
					return err
				}
			}
			color.Green("clean")
			return nil
		},
	}
}
