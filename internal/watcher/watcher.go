package watcher

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"VPNLogSift/internal/storage"
)

// Handler обрабатывает один архив и возвращает отметку для хранилища.
// Size и At watcher заполняет сам. Ошибка не отмечает архив как обработанный.
type Handler func(ctx context.Context, path string) (storage.Processed, error)

// Config — параметры watcher
type Config struct {
	Dir            string
	FilePattern    string        // маска имени архива, например *.zip
	RescanInterval time.Duration // 0 — без периодического сканирования
	SettleDelay    time.Duration // сколько ждать тишины после последней записи
	Logger         *zap.Logger
	Store          storage.ProcessedStore
}

type Watcher struct {
	cfg       Config
	store     storage.ProcessedStore
	handle    Handler
	pattern   *regexp.Regexp
	processed map[string]storage.Processed
	pending   map[string]*time.Timer // таймеры "дозаписи" по путям
	queued    map[string]struct{}
	queue     chan string
	mu        sync.RWMutex
	ctx       context.Context
}

func New(cfg Config, handle Handler) (*Watcher, error) {
	pattern, err := compilePattern(cfg.FilePattern)
	if err != nil {
		return nil, fmt.Errorf("неверный FilePattern %q: %w", cfg.FilePattern, err)
	}
	processed, err := cfg.Store.Load()
	if err != nil {
		cfg.Logger.Error("Не удалось загрузить список обработанных архивов", zap.Error(err))
		processed = make(map[string]storage.Processed)
	}
	return &Watcher{
		cfg:       cfg,
		store:     cfg.Store,
		handle:    handle,
		pattern:   pattern,
		processed: processed,
		pending:   make(map[string]*time.Timer),
		queued:    make(map[string]struct{}),
		queue:     make(chan string, 64),
	}, nil
}

// Start следит за каталогом до отмены контекста. Архивы обрабатываются по одному.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx = ctx

	dw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer dw.Close()
	if err := dw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	w.cfg.Logger.Info("Старт слежения за каталогом", zap.String("dir", w.cfg.Dir))

	// Начальное сканирование идёт параллельно с циклом обработки: очередь ограничена
	go w.ScanInitialFiles()

	// Запускаем обработку событий
	go w.handleDirEvents(dw)

	// Запускаем периодическое сканирование
	if w.cfg.RescanInterval > 0 {
		go w.runPeriodicScan()
	}

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			w.cfg.Logger.Info("Watcher остановлен по сигналу shutdown")
			return w.save()
		case path := <-w.queue:
			w.process(path)
		}
	}
}

// enqueue ставит архив в очередь, если его там ещё нет
func (w *Watcher) enqueue(path string) {
	w.mu.Lock()
	if _, ok := w.queued[path]; ok {
		w.mu.Unlock()
		return
	}
	w.queued[path] = struct{}{}
	w.mu.Unlock()

	select {
	case w.queue <- path:
	case <-w.ctx.Done():
	}
}

// schedule (пере)взводит таймер: архив берётся в работу после SettleDelay без записей
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.cfg.SettleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(w.cfg.SettleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.enqueue(path)
	})
}

// cancel снимает таймер удалённого файла
func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// isDone — архив уже обработан в текущем размере
func (w *Watcher) isDone(path string, size int64) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	done, ok := w.processed[path]
	return ok && done.Size == size
}

// process разбирает архив и запоминает его размер
func (w *Watcher) process(path string) {
	w.mu.Lock()
	delete(w.queued, path)
	w.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		w.cfg.Logger.Warn("Архив пропал до обработки", zap.String("file", path), zap.Error(err))
		return
	}
	if w.isDone(path, info.Size()) {
		w.cfg.Logger.Debug("Пропускаем ранее обработанный архив", zap.String("file", path))
		return
	}

	w.cfg.Logger.Info("Обрабатываем архив", zap.String("file", path))
	mark, err := w.handle(w.ctx, path)
	if err != nil {
		w.cfg.Logger.Error("Ошибка обработки архива", zap.String("file", path), zap.Error(err))
		return
	}
	mark.Size = info.Size()
	if mark.At.IsZero() {
		mark.At = time.Now().UTC()
	}

	w.mu.Lock()
	w.processed[path] = mark
	w.mu.Unlock()
	if err := w.save(); err != nil {
		w.cfg.Logger.Error("Не удалось сохранить список обработанных архивов", zap.Error(err))
	}
}

func (w *Watcher) save() error {
	w.mu.RLock()
	snapshot := make(map[string]storage.Processed, len(w.processed))
	for k, v := range w.processed {
		snapshot[k] = v
	}
	w.mu.RUnlock()
	return w.store.Save(snapshot)
}
