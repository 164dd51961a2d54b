package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"ExamPapers/internal/app"
	"ExamPapers/internal/config"
	"ExamPapers/internal/logging"
)

// SyncAction runs one harvest over the selected boards.
func SyncAction(c *cli.Context) error {
	application, logger, err := open(c)
	if err != nil {
		return err
	}
	defer application.Close()

	req := application.SyncRequest(boardSelection(c, "all"))
	req.Fresh = c.Bool("fresh")
	req.DryRun = c.Bool("dry-run")

	report, err := application.Sync(c.Context, req)
	if err != nil {
		return err
	}
	logger.Info("sync finished", "report", report)
	return nil
}

// BoardsAction prints the registered boards.
func BoardsAction(c *cli.Context) error {
	application, _, err := open(c)
	if err != nil {
		return err
	}
	defer application.Close()

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tNAME\tFOLDER\tSECTIONS\tURL")
	for _, p := range application.Boards() {
		fmt.Fprintf(w, "%s\t%s\t%s/%s\t%d\t%s\n", p.Key, p.Name, p.Board, p.Level, len(p.Sections), p.URL)
	}
	return w.Flush()
}

// VerifyAction checks recorded files against their hashes.
func VerifyAction(c *cli.Context) error {
	application, _, err := open(c)
	if err != nil {
		return err
	}
	defer application.Close()

	report, err := application.Verify(c.Context)
	if err != nil {
		return err
	}
	for _, p := range report.Missing {
		fmt.Fprintln(c.App.Writer, "missing:", p)
	}
	for _, p := range report.Mismatched {
		fmt.Fprintln(c.App.Writer, "changed:", p)
	}
	fmt.Fprintf(c.App.Writer, "checked %d, intact %d\n", report.Checked, report.Intact)
	if !report.Clean() {
		return cli.Exit("ledger does not match files on disk", 1)
	}
	return nil
}

// ScheduleAction runs sync on a cron expression until interrupted.
func ScheduleAction(c *cli.Context) error {
	application, _, err := open(c)
	if err != nil {
		return err
	}
	defer application.Close()

	boards := boardSelection(c, application.Config().Schedule.Boards)
	return application.Schedule(c.Context, application.SyncRequest(boards))
}

func open(c *cli.Context) (*app.Application, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	applyFlags(c, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.Bool("debug") {
		cfg.Logging.Level = "debug"
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("ledger") {
		cfg.Ledger.Path = c.String("ledger")
	}
	if c.IsSet("ledger-backend") {
		cfg.Ledger.Backend = c.String("ledger-backend")
	}
	if c.Bool("no-validate") {
		cfg.SkipValidation = true
	}
	if c.IsSet("min-delay") {
		cfg.Fetch.MinDelay = c.Duration("min-delay")
	}
	if c.IsSet("max-delay") {
		cfg.Fetch.MaxDelay = c.Duration("max-delay")
	}
	switch {
	case c.IsSet("min-delay") && !c.IsSet("max-delay"):
		cfg.Fetch.MaxDelay = max(cfg.Fetch.MaxDelay, cfg.Fetch.MinDelay)
	case c.IsSet("max-delay") && !c.IsSet("min-delay"):
		cfg.Fetch.MinDelay = min(cfg.Fetch.MinDelay, cfg.Fetch.MaxDelay)
	}
	if c.IsSet("discovery") {
		cfg.Discovery = c.String("discovery")
	}
	if c.IsSet("folders") {
		cfg.Layout.Folders = c.String("folders")
	}
	if c.IsSet("cron") {
		cfg.Schedule.CronExpression = c.String("cron")
	}
}

func boardSelection(c *cli.Context, fallback string) string {
	if c.IsSet("board") {
		return c.String("board")
	}
	return fallback
}
