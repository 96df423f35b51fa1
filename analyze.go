package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"VPNLogSift/internal/analyzer"
	"VPNLogSift/internal/batch"
	"VPNLogSift/internal/clickhouseclient"
	"VPNLogSift/internal/export"
	"VPNLogSift/internal/metrics"
	"VPNLogSift/internal/models"
	"VPNLogSift/internal/parser"
	"VPNLogSift/internal/report"
	"VPNLogSift/internal/stream"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		zipPath         string
		dirPath         string
		sinceStr        string
		untilStr        string
		idleGap         time.Duration
		exportEvents    string
		exportSessions  string
		summaryFormat   string
		redact          bool
		last            int
		toClickHouse    bool
		metricsTextfile string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one GlobalProtect log bundle (.zip) or an extracted log directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (zipPath == "") == (dirPath == "") {
				return errors.New("exactly one of --zip or --dir is required")
			}
			if summaryFormat != "text" && summaryFormat != "yaml" {
				return fmt.Errorf("invalid --summary-format %q (text|yaml)", summaryFormat)
			}
			win, err := parseWindow(sinceStr, untilStr)
			if err != nil {
				return err
			}

			cfg, rootLogger, err := setup()
			if err != nil {
				return err
			}
			lg := rootLogger.Named("analyze")
			defer lg.Sync()

			if idleGap > 0 {
				cfg.Engine.IdleGap = idleGap
			}
			redact = redact || cfg.Export.Redact
			if metricsTextfile == "" {
				metricsTextfile = cfg.Metrics.Textfile
			}

			path := zipPath
			if path == "" {
				path = dirPath
			}

			ctx := cmd.Context()
			m := metrics.New()
			an := analyzer.New(cfg.Engine, rootLogger.Named("analyzer"), m)
			res, err := an.Run(ctx, path, win)
			if err != nil {
				return err
			}

			opts := report.Options{Last: last, Redact: redact}
			out := cmd.OutOrStdout()
			if summaryFormat == "yaml" {
				err = report.WriteYAML(out, res.Summary, res.Sessions, opts)
			} else {
				err = report.WriteText(out, res.Summary, res.Sessions, opts)
			}
			if err != nil {
				return fmt.Errorf("write summary: %w", err)
			}

			if exportEvents != "" {
				if err := export.WriteEventsFile(exportEvents, res.Events, redact); err != nil {
					return fmt.Errorf("export events: %w", err)
				}
				lg.Info("События выгружены", zap.String("path", exportEvents), zap.Int("count", len(res.Events)))
			}
			if exportSessions != "" {
				if err := export.WriteSessionsFile(exportSessions, res.Sessions, redact); err != nil {
					return fmt.Errorf("export sessions: %w", err)
				}
				lg.Info("Сессии выгружены", zap.String("path", exportSessions), zap.Int("count", len(res.Sessions)))
			}

			if toClickHouse || cfg.ClickHouse.Enabled {
				chClient, err := clickhouseclient.New(cfg.ClickHouse, redact, rootLogger.Named("clickhouse"))
				if err != nil {
					return fmt.Errorf("connect clickhouse: %w", err)
				}
				defer chClient.Close()

				in := make(chan models.SessionRecord)
				go func() {
					defer close(in)
					for _, rec := range res.Records() {
						select {
						case in <- rec:
						case <-ctx.Done():
							return
						}
					}
				}()
				batch.NewBatcher(cfg.BatchSize, cfg.BatchTimeout(), rootLogger.Named("batcher"), chClient).Run(ctx, in)
			}

			if metricsTextfile != "" {
				if err := m.WriteTextfile(metricsTextfile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&zipPath, "zip", "", "Path to GlobalProtect log bundle .zip")
	cmd.Flags().StringVar(&dirPath, "dir", "", "Path to an extracted log directory")
	cmd.Flags().StringVar(&sinceStr, "since", "", "Only include events on/after this time (e.g. 2025-08-01 00:00)")
	cmd.Flags().StringVar(&untilStr, "until", "", "Only include events before this time")
	cmd.Flags().DurationVar(&idleGap, "idle-gap", 0, "Idle gap that splits sessions (default from config, 90s)")
	cmd.Flags().StringVar(&exportEvents, "export-events", "", "Write events as NDJSON (.ndjson) or JSON array (other extensions)")
	cmd.Flags().StringVar(&exportSessions, "export-sessions", "", "Write sessions CSV")
	cmd.Flags().StringVar(&summaryFormat, "summary-format", "text", "Summary format: text or yaml")
	cmd.Flags().BoolVar(&redact, "redact", false, "Redact usernames/IPs/hostnames")
	cmd.Flags().IntVar(&last, "last", report.DefaultLast, "Number of most recent sessions to print (negative for none)")
	cmd.Flags().BoolVar(&toClickHouse, "clickhouse", false, "Send sessions to ClickHouse (settings from config)")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this textfile")
	return cmd
}

// parseWindow разбирает --since/--until; пустые значения не ограничивают окно
func parseWindow(sinceStr, untilStr string) (stream.Window, error) {
	var win stream.Window
	if sinceStr != "" {
		ts, ok := parser.ParseTime(sinceStr)
		if !ok {
			return win, fmt.Errorf("invalid --since value %q", sinceStr)
		}
		win.Since = ts
	}
	if untilStr != "" {
		ts, ok := parser.ParseTime(untilStr)
		if !ok {
			return win, fmt.Errorf("invalid --until value %q", untilStr)
		}
		win.Until = ts
	}
	return win, nil
}
