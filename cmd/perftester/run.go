package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/perftester/internal/config"
	"github.com/programme-lv/perftester/internal/counters"
	"github.com/programme-lv/perftester/internal/crash"
	"github.com/programme-lv/perftester/internal/process"
	"github.com/programme-lv/perftester/internal/profile"
	"github.com/programme-lv/perftester/internal/results"
	"github.com/programme-lv/perftester/internal/runner"
	"github.com/programme-lv/perftester/internal/xdg"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run the test described by a YAML or TOML file",
		ArgsUsage: "<config>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "file with sink settings"},
			&cli.StringFlag{Name: "nats-url", Usage: "stream results to this NATS server"},
			&cli.StringFlag{Name: "nats-subject", Value: "perftester.results"},
			&cli.StringFlag{Name: "counters-subject", Value: "perftester.counters", Usage: "NATS subject of remote counter readings"},
			&cli.StringFlag{Name: "sqs-queue-url", Usage: "stream results to this SQS queue"},
			&cli.StringFlag{Name: "aws-region"},
			&cli.StringFlag{Name: "history-db", Usage: "SQLite run history (default under XDG_STATE_HOME)"},
			&cli.BoolFlag{Name: "no-history", Usage: "do not record the run in the history database"},
			&cli.StringFlag{Name: "textfile", Usage: "write a node_exporter textfile summary"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "<config>")
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			env, err := config.ReadEnvConfig(cmd.String("env-file"))
			if err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalid, err)
			}
			return runTest(ctx, cmd, cfg, mergeFlags(cmd, env))
		},
	}
}

// mergeFlags lets command line flags override the environment.
func mergeFlags(cmd *cli.Command, env config.EnvConfig) config.EnvConfig {
	override := func(dst *string, flag string) {
		if cmd.IsSet(flag) || *dst == "" {
			*dst = cmd.String(flag)
		}
	}
	override(&env.NATSURL, "nats-url")
	override(&env.NATSSubject, "nats-subject")
	override(&env.SQSQueueURL, "sqs-queue-url")
	override(&env.AWSRegion, "aws-region")
	override(&env.HistoryDB, "history-db")
	override(&env.Textfile, "textfile")
	return env
}

func runTest(ctx context.Context, cmd *cli.Command, cfg config.RunConfig, env config.EnvConfig) (err error) {
	logger := slog.Default()
	dirs := xdg.New()
	sup := process.NewSupervisor(logger)

	var nc *nats.Conn
	if env.NATSURL != "" {
		nc, err = nats.Connect(env.NATSURL, nats.Name("perftester"))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Drain()
	}

	var samplers counters.Factory
	switch cfg.Sampler {
	case counters.KindProcfs:
		samplers = counters.ProcfsFactory(sup.FindPid, logger)
	case counters.KindRemote:
		if nc == nil {
			return fmt.Errorf("%w: the remote sampler needs a NATS server", config.ErrInvalid)
		}
		samplers = counters.RemoteFactory(nc, cmd.String("counters-subject"), logger)
	default:
		samplers = counters.NoopFactory
	}

	sinks := results.Fanout{results.NewConsole(os.Stdout)}
	if !cmd.Bool("no-history") {
		dbPath := env.HistoryDB
		if dbPath == "" {
			dbPath = dirs.HistoryDB()
		}
		history, err := results.OpenHistory(dbPath)
		if err != nil {
			return err
		}
		defer history.Close()
		sinks = append(sinks, history)
	}
	if env.Textfile != "" {
		sinks = append(sinks, results.NewTextfile(env.Textfile))
	}
	if nc != nil {
		sinks = append(sinks, results.NewNATS(nc, env.NATSSubject))
	}
	if env.SQSQueueURL != "" {
		client, err := results.NewSQSClient(ctx, env.AWSRegion)
		if err != nil {
			return err
		}
		sinks = append(sinks, results.NewSQS(client, env.SQSQueueURL))
	}

	stackwalk := cfg.StackwalkPath
	if stackwalk == "" {
		stackwalk = crash.DefaultStackwalkPath(dirs.BreakpadDir())
	}
	archive := cfg.CrashArchive
	if archive == "" {
		archive = dirs.CrashArchiveDir()
	}
	detector := crash.NewDetector(crash.Options{
		StackwalkPath: stackwalk,
		ArchiveDir:    archive,
		LogcatPath:    cfg.LogcatPath,
	}, logger)

	if err := xdg.EnsureRuntimeDir(dirs.ProfilesDir()); err != nil {
		return err
	}
	r := runner.New(cfg, runner.Deps{
		Supervisor: sup,
		Profiles:   profile.NewManager(dirs.ProfilesDir(), sup, logger),
		Crashes:    detector,
		Samplers:   samplers,
		Aggregator: sinks,
		Logger:     logger,
	})

	res, err := r.Run()
	if err != nil {
		if errors.Is(err, runner.ErrTerminal) {
			logger.Error("test aborted", "test", cfg.Test.Name, "kind", results.ErrorKind(err))
		}
		return err
	}
	logger.Info("test finished", "test", cfg.Test.Name, "run", res.RunUuid, "cycles", len(res.Cycles))
	return nil
}
