package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/perftester/internal/results"
	"github.com/programme-lv/perftester/internal/xdg"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list recent runs from the history database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history-db", Sources: cli.EnvVars("PERFTESTER_HISTORY_DB")},
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.String("history-db")
			if path == "" {
				path = xdg.New().HistoryDB()
			}
			h, err := results.OpenHistory(path)
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.Runs(int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tTEST\tCYCLES\tRESULT\tRUN")
			for _, r := range runs {
				result := color.GreenString("ok")
				if r.ErrorKind != "" {
					result = color.RedString(r.ErrorKind)
				} else if r.Completed < r.Cycles {
					result = color.YellowString("incomplete")
				}
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.TestName, r.Completed, r.Cycles, result, r.Uuid)
			}
			return w.Flush()
		},
	}
}
