package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "exampapers:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "exampapers",
		Usage: "download past exam papers and mark schemes into a local tree",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to YAML config", EnvVars: []string{"EXAMPAPERS_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
			&cli.BoolFlag{Name: "debug", Usage: "shorthand for --log-level debug"},
		},
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "fetch board pages and download new papers",
				Flags:  append(runFlags(), syncFlags()...),
				Action: SyncAction,
			},
			{
				Name:   "boards",
				Usage:  "list registered boards",
				Action: BoardsAction,
			},
			{
				Name:  "verify",
				Usage: "re-hash recorded files and report missing or changed ones",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "ledger", Usage: "ledger file path"},
					&cli.StringFlag{Name: "ledger-backend", Usage: "csv or sqlite"},
				},
				Action: VerifyAction,
			},
			{
				Name:  "schedule",
				Usage: "run sync on a cron schedule until interrupted",
				Flags: append(runFlags(),
					&cli.StringFlag{Name: "cron", Usage: "five-field cron expression"},
				),
				Action: ScheduleAction,
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "board", Aliases: []string{"b"}, Usage: `comma-separated board keys or "all"`},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output root directory"},
		&cli.StringFlag{Name: "ledger", Usage: "ledger file path"},
		&cli.StringFlag{Name: "ledger-backend", Usage: "csv or sqlite"},
		&cli.BoolFlag{Name: "no-validate", Usage: "skip PDF validation"},
		&cli.DurationFlag{Name: "min-delay", Usage: "minimum pause between downloads"},
		&cli.DurationFlag{Name: "max-delay", Usage: "maximum pause between downloads"},
		&cli.StringFlag{Name: "discovery", Usage: `"sections" or "page"`},
		&cli.StringFlag{Name: "folders", Usage: `content folder names, "long" or "short"`},
	}
}

func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "fresh", Usage: "recreate the ledger and download everything again"},
		&cli.BoolFlag{Name: "dry-run", Usage: "print planned downloads without writing anything"},
	}
}
