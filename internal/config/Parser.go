package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"VPNLogSift/internal/session"
)

// EnvPrefix — префикс переменных окружения
const EnvPrefix = "VPNSIFT"

// readFile читает все байты из файла по пути
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// sanitize удаляет BOM и табуляции
func sanitize(data []byte) []byte {
	// Удаляем UTF-8 BOM
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	// Заменяем табы на два пробела
	data = bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
	return data
}

// setDefaults задаёт значения по умолчанию.
// Ключ должен быть известен viper, иначе переменная окружения для него не подхватится,
// поэтому пустые значения тоже перечислены.
func setDefaults(v *viper.Viper) {
	v.SetDefault("Engine.IdleGap", session.DefaultIdleGap)
	v.SetDefault("Engine.WantedFiles", []string{
		"pangps.txt", "pangpa.txt", "pangpa.log.old", "panplapprovider.txt", "pan_gp_event.txt",
	})
	v.SetDefault("Inbox.FilePattern", "*.zip")
	v.SetDefault("Inbox.RescanInterval", 60)
	v.SetDefault("Inbox.SettleDelay", 2)
	v.SetDefault("BatchSize", 500)
	v.SetDefault("BatchInterval", 5)
	v.SetDefault("ClickHouse.Protocol", "native")
	v.SetDefault("ClickHouse.SessionsTable", "vpn_sessions")
	v.SetDefault("ClickHouse.EventsTable", "vpn_events")
	v.SetDefault("ProcessedStorage", "file")
	v.SetDefault("ProcessedFile", "processed_bundles.json")
	v.SetDefault("Redis.Port", 6379)
	v.SetDefault("Redis.Key", "vpnlogsift:processed")
	v.SetDefault("Logging.Level", "info")
	v.SetDefault("Logging.MaxSizeMB", 50)
	v.SetDefault("Logging.MaxBackups", 5)
	v.SetDefault("Logging.MaxAgeDays", 30)
	v.SetDefault("Logging.Compress", false)

	for _, key := range []string{
		"Inbox.Dir",
		"ClickHouse.Address", "ClickHouse.Username", "ClickHouse.Password", "ClickHouse.Database",
		"Redis.Host", "Redis.Password",
		"Logging.LogFile", "Logging.SentryDSN",
		"Metrics.Addr", "Metrics.Textfile",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("ClickHouse.Enabled", false)
	v.SetDefault("Logging.EnableSentry", false)
	v.SetDefault("Export.Redact", false)
}

// parseYAML парсит YAML-данные в структуру Config
func parseYAML(data []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(data) > 0 {
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные поля конфигурации
func (c *Config) Validate() error {
	if c.Engine.IdleGap <= 0 {
		return fmt.Errorf("Engine.IdleGap must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BatchSize must be positive")
	}
	if c.BatchInterval <= 0 {
		return fmt.Errorf("BatchInterval must be positive")
	}
	switch c.ProcessedStorage {
	case "file":
		if c.ProcessedFile == "" {
			return fmt.Errorf("ProcessedFile must not be empty")
		}
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("Redis.Host must not be empty")
		}
	default:
		return fmt.Errorf("ProcessedStorage must be \"file\" or \"redis\", got %q", c.ProcessedStorage)
	}
	if c.ClickHouse.Enabled {
		if c.ClickHouse.Address == "" {
			return fmt.Errorf("ClickHouse.Address must not be empty")
		}
		if c.ClickHouse.Database == "" {
			return fmt.Errorf("ClickHouse.Database must not be empty")
		}
	}
	return nil
}
