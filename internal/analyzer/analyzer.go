package analyzer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"VPNLogSift/internal/bundle"
	"VPNLogSift/internal/config"
	"VPNLogSift/internal/metrics"
	"VPNLogSift/internal/models"
	"VPNLogSift/internal/session"
	"VPNLogSift/internal/stats"
	"VPNLogSift/internal/stream"
)

// Result — итог разбора одного архива
type Result struct {
	RunID    string
	Bundle   string
	Events   []models.Event
	Sessions []models.Session
	Summary  stats.Summary
	Stream   stream.Stats
}

// Records — сессии, подготовленные для батчера
func (r *Result) Records() []models.SessionRecord {
	out := make([]models.SessionRecord, 0, len(r.Sessions))
	for _, s := range r.Sessions {
		out = append(out, models.SessionRecord{RunID: r.RunID, Bundle: r.Bundle, Session: s})
	}
	return out
}

// Analyzer прогоняет архив через разбор, сессионизацию и сводку
type Analyzer struct {
	idleGap time.Duration
	wanted  []string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New создаёт Analyzer; m может быть nil
func New(cfg config.EngineConfig, logger *zap.Logger, m *metrics.Metrics) *Analyzer {
	return &Analyzer{
		idleGap: cfg.IdleGap,
		wanted:  cfg.WantedFiles,
		logger:  logger,
		metrics: m,
	}
}

// Run разбирает zip-архив или каталог по пути path.
// Ошибки бывают только при чтении файлов; содержимое строк ошибок не вызывает.
func (a *Analyzer) Run(ctx context.Context, path string, win stream.Window) (*Result, error) {
	b, err := open(path, a.wanted)
	if err != nil {
		a.countBundle("error")
		return nil, err
	}
	defer b.Close()

	for _, src := range b.Sources {
		a.logger.Debug("Найден файл лога", zap.String("bundle", path), zap.String("file", src.ID))
	}

	events, st, err := stream.Build(ctx, b.Sources, win)
	if err != nil {
		a.countBundle("error")
		return nil, fmt.Errorf("build event stream: %w", err)
	}
	sessions := session.Sessionize(events, a.idleGap)

	res := &Result{
		RunID:    uuid.NewString(),
		Bundle:   path,
		Events:   events,
		Sessions: sessions,
		Summary:  stats.Aggregate(sessions),
		Stream:   st,
	}
	a.record(res)
	a.logger.Info("Архив разобран",
		zap.String("bundle", path),
		zap.String("run_id", res.RunID),
		zap.Int("files", len(b.Sources)),
		zap.Int("lines", st.Lines),
		zap.Int("no_timestamp", st.NoTime),
		zap.Int("out_of_range", st.OutOfRange),
		zap.Int("events", len(events)),
		zap.Int("sessions", len(sessions)),
	)
	return res, nil
}

func open(path string, wanted []string) (*bundle.Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return bundle.OpenDir(path, wanted)
	}
	return bundle.OpenZip(path, wanted)
}

func (a *Analyzer) countBundle(status string) {
	if a.metrics != nil {
		a.metrics.BundlesTotal.WithLabelValues(status).Inc()
	}
}

func (a *Analyzer) record(res *Result) {
	m := a.metrics
	if m == nil {
		return
	}
	m.BundlesTotal.WithLabelValues("ok").Inc()
	m.LinesTotal.Add(float64(res.Stream.Lines))
	m.LinesDroppedTotal.WithLabelValues("no_timestamp").Add(float64(res.Stream.NoTime))
	m.LinesDroppedTotal.WithLabelValues("out_of_range").Add(float64(res.Stream.OutOfRange))
	for _, ev := range res.Events {
		m.EventsTotal.WithLabelValues(ev.EventType).Inc()
	}
	for _, s := range res.Sessions {
		m.SessionsTotal.WithLabelValues(s.Outcome).Inc()
		if s.PhaseMs.Tunnel != nil {
			m.ConnectSeconds.Observe(float64(*s.PhaseMs.Tunnel) / 1000)
		}
	}
}
