package watcher

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// compilePattern переводит маску вида *.zip в регулярное выражение
func compilePattern(mask string) (*regexp.Regexp, error) {
	if mask == "" {
		mask = "*"
	}
	patternStr := regexp.QuoteMeta(mask)
	patternStr = strings.ReplaceAll(patternStr, `\*`, ".*")
	patternStr = strings.ReplaceAll(patternStr, `\?`, ".")
	return regexp.Compile("(?i)^" + patternStr + "$")
}

func (w *Watcher) matches(path string) bool {
	return w.pattern.MatchString(filepath.Base(path))
}

// handleDirEvents обрабатывает fsnotify события в каталоге
func (w *Watcher) handleDirEvents(dw *fsnotify.Watcher) {
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-dw.Events:
			if !ok {
				return
			}
			if !w.matches(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.cfg.Logger.Debug("Изменение архива", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
				w.schedule(ev.Name)
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.cancel(ev.Name)
			}
		case err, ok := <-dw.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Error("Ошибка watcher для каталога", zap.Error(err))
		}
	}
}

// ScanInitialFiles ставит в очередь все архивы каталога, которые ещё не обработаны
// в текущем размере. Старые файлы идут первыми.
func (w *Watcher) ScanInitialFiles() {
	type fileWithTime struct {
		Path string
		Mod  time.Time
		Size int64
	}
	var found []fileWithTime
	filepath.Walk(w.cfg.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if w.matches(path) {
			found = append(found, fileWithTime{Path: path, Mod: info.ModTime(), Size: info.Size()})
		}
		return nil
	})
	sort.Slice(found, func(i, j int) bool {
		return found[i].Mod.Before(found[j].Mod)
	})
	for _, f := range found {
		if w.isDone(f.Path, f.Size) {
			w.cfg.Logger.Debug("Пропускаем ранее обработанный архив", zap.String("file", f.Path))
			continue
		}
		w.enqueue(f.Path)
	}
}

// runPeriodicScan периодически сканирует каталог, подбирая пропущенные события
func (w *Watcher) runPeriodicScan() {
	ticker := time.NewTicker(w.cfg.RescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			w.cfg.Logger.Info("Периодическое сканирование завершено")
			return
		case <-ticker.C:
			w.cfg.Logger.Debug("Запуск периодического сканирования каталога")
			w.ScanInitialFiles()
		}
	}
}
