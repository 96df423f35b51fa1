package stream

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"VPNLogSift/internal/models"
	"VPNLogSift/internal/parser"
)

// Source — один файл с логом. Load вызывается один раз и возвращает строки в порядке файла.
type Source struct {
	ID   string
	Load func() ([]string, error)
}

// LinesSource оборачивает уже прочитанные строки
func LinesSource(id string, lines []string) Source {
	return Source{ID: id, Load: func() ([]string, error) { return lines, nil }}
}

// Window — полуоткрытый интервал [Since, Until). Нулевая граница не ограничивает.
type Window struct {
	Since time.Time
	Until time.Time
}

// Contains проверяет попадание метки времени в окно
func (w Window) Contains(ts time.Time) bool {
	if !w.Since.IsZero() && ts.Before(w.Since) {
		return false
	}
	if !w.Until.IsZero() && !ts.Before(w.Until) {
		return false
	}
	return true
}

// Stats — счётчики построения потока
type Stats struct {
	Lines      int // всего прочитано строк
	NoTime     int // отброшено без метки времени
	OutOfRange int // отброшено фильтром окна
}

// Build читает источники параллельно, классифицирует строки и возвращает события,
// устойчиво отсортированные по времени. При равных метках сохраняется порядок
// источников (как они переданы) и порядок строк внутри файла.
// Ошибку возвращает только Load.
func Build(ctx context.Context, sources []Source, win Window) ([]models.Event, Stats, error) {
	perSource := make([][]models.Event, len(sources))
	perStats := make([]Stats, len(sources))

	group, _ := errgroup.WithContext(ctx)
	for idx := range sources {
		idx := idx
		group.Go(func() error {
			src := sources[idx]
			lines, err := src.Load()
			if err != nil {
				return fmt.Errorf("load %s: %w", src.ID, err)
			}
			perSource[idx], perStats[idx] = classify(lines, src.ID, win)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var (
		events []models.Event
		total  Stats
	)
	for idx := range perSource {
		events = append(events, perSource[idx]...)
		total.Lines += perStats[idx].Lines
		total.NoTime += perStats[idx].NoTime
		total.OutOfRange += perStats[idx].OutOfRange
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, total, nil
}

func classify(lines []string, source string, win Window) ([]models.Event, Stats) {
	st := Stats{Lines: len(lines)}
	events := make([]models.Event, 0, len(lines))
	for _, line := range lines {
		ev, ok := parser.ParseLine(line, source)
		if !ok {
			st.NoTime++
			continue
		}
		if !win.Contains(ev.Timestamp) {
			st.OutOfRange++
			continue
		}
		events = append(events, ev)
	}
	return events, st
}
