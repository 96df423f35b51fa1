package storage

import (
	"fmt"
	"time"

	"VPNLogSift/internal/config"
)

// Processed — отметка об обработанном архиве.
// RunID связывает архив со строками, ушедшими в ClickHouse.
type Processed struct {
	Size     int64     `json:"size"`
	RunID    string    `json:"run_id,omitempty"`
	Sessions int       `json:"sessions"`
	At       time.Time `json:"at"`
}

// ProcessedStore — интерфейс для загрузки/сохранения списка обработанных архивов.
// Ключ — путь к архиву.
type ProcessedStore interface {
	Load() (map[string]Processed, error)
	Save(data map[string]Processed) error
}

// Open выбирает хранилище по ProcessedStorage: "file" или "redis"
func Open(cfg *config.Config) (ProcessedStore, error) {
	switch cfg.ProcessedStorage {
	case "redis":
		return NewRedisStore(&cfg.Redis)
	case "file", "":
		return NewFileStore(cfg.ProcessedFile), nil
	}
	return nil, fmt.Errorf("unknown ProcessedStorage %q", cfg.ProcessedStorage)
}
