package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"VPNLogSift/internal/analyzer"
	"VPNLogSift/internal/batch"
	"VPNLogSift/internal/clickhouseclient"
	"VPNLogSift/internal/metrics"
	"VPNLogSift/internal/storage"
	"VPNLogSift/internal/stream"
	"VPNLogSift/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var inboxDir string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch an inbox directory and analyze every log bundle dropped into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rootLogger, err := setup()
			if err != nil {
				return err
			}
			lg := rootLogger.Named("main")
			defer lg.Sync()

			if inboxDir != "" {
				cfg.Inbox.Dir = inboxDir
			}
			if cfg.Inbox.Dir == "" {
				return errors.New("inbox directory is not set (Inbox.Dir or --inbox)")
			}
			lg.Info("Сервис VPNLogSift стартует…", zap.String("inbox", cfg.Inbox.Dir))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			store, err := storage.Open(cfg)
			if err != nil {
				return fmt.Errorf("open processed store: %w", err)
			}
			if c, ok := store.(io.Closer); ok {
				defer c.Close()
			}

			m := metrics.New()
			an := analyzer.New(cfg.Engine, rootLogger.Named("analyzer"), m)

			var wg sync.WaitGroup

			if cfg.Metrics.Addr != "" {
				srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(m)}
				wg.Add(1)
				go func() {
					defer wg.Done()
					lg.Info("Метрики доступны", zap.String("addr", cfg.Metrics.Addr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						lg.Error("Ошибка HTTP-сервера метрик", zap.Error(err))
					}
				}()
				go func() {
					<-ctx.Done()
					shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
					defer done()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						lg.Error("Ошибка остановки HTTP-сервера метрик", zap.Error(err))
					}
				}()
			}

			// отметка об обработке сохраняется только после того, как ClickHouse принял строки
			var batcher *batch.Batcher
			if cfg.ClickHouse.Enabled {
				chClient, err := clickhouseclient.New(cfg.ClickHouse, cfg.Export.Redact, rootLogger.Named("clickhouse"))
				if err != nil {
					return fmt.Errorf("connect clickhouse: %w", err)
				}
				defer chClient.Close()

				batcher = batch.NewBatcher(cfg.BatchSize, cfg.BatchTimeout(), rootLogger.Named("batcher"), chClient)
			}

			handle := func(ctx context.Context, path string) (storage.Processed, error) {
				res, err := an.Run(ctx, path, stream.Window{})
				if err != nil {
					return storage.Processed{}, err
				}
				mark := storage.Processed{RunID: res.RunID, Sessions: len(res.Sessions)}
				sum := res.Summary
				lg.Info("Сводка по архиву",
					zap.String("bundle", path),
					zap.Int("attempts", sum.Attempts),
					zap.Int("successes", sum.Successes),
					zap.Int("failures", sum.Failures),
					zap.Float64("success_rate", sum.SuccessRate),
				)
				if batcher == nil {
					return mark, nil
				}
				if err := batcher.Send(ctx, res.Records()); err != nil {
					return storage.Processed{}, fmt.Errorf("send %s: %w", path, err)
				}
				return mark, nil
			}

			w, err := watcher.New(watcher.Config{
				Dir:            cfg.Inbox.Dir,
				FilePattern:    cfg.Inbox.FilePattern,
				RescanInterval: time.Duration(cfg.Inbox.RescanInterval) * time.Second,
				SettleDelay:    time.Duration(cfg.Inbox.SettleDelay) * time.Second,
				Logger:         rootLogger.Named("watcher"),
				Store:          store,
			}, handle)
			if err != nil {
				return err
			}

			werr := w.Start(ctx)
			lg.Info("Получен сигнал остановки, начинаем завершение работы")
			cancel()
			wg.Wait()
			lg.Info("Сервис завершил работу")
			return werr
		},
	}

	cmd.Flags().StringVar(&inboxDir, "inbox", "", "Inbox directory (overrides Inbox.Dir)")
	return cmd
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
