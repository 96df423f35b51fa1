package config

import (
	"fmt"
	"time"
)

// EngineConfig — параметры разбора и сессионизации
type EngineConfig struct {
	IdleGap     time.Duration `mapstructure:"IdleGap"`     // пауза, после которой начинается новая сессия
	WantedFiles []string      `mapstructure:"WantedFiles"` // какие файлы брать из архива
}

// InboxConfig — каталог, куда складываются архивы для режима watch
type InboxConfig struct {
	Dir            string `mapstructure:"Dir"`
	FilePattern    string `mapstructure:"FilePattern"`
	RescanInterval int    `mapstructure:"RescanInterval"` // секунды
	SettleDelay    int    `mapstructure:"SettleDelay"`    // секунды тишины после последней записи в файл
}

// ClickHouseConfig содержит настройки подключения и имена таблиц
// Поля обязательны при Enabled: Address, Database
type ClickHouseConfig struct {
	Enabled       bool   `mapstructure:"Enabled"`
	Address       string `mapstructure:"Address"`
	Username      string `mapstructure:"Username"`
	Password      string `mapstructure:"Password"`
	Database      string `mapstructure:"Database"`
	Protocol      string `mapstructure:"Protocol"`
	SessionsTable string `mapstructure:"SessionsTable"`
	EventsTable   string `mapstructure:"EventsTable"`
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Host     string `mapstructure:"Host"`
	Port     int    `mapstructure:"Port"`
	DB       int    `mapstructure:"DB"`
	Password string `mapstructure:"Password"`
	Key      string `mapstructure:"Key"`
}

// LoggingConfig содержит настройки логирования и интеграции с Sentry
type LoggingConfig struct {
	LogFile      string `mapstructure:"LogFile"`      // путь к файлу логов
	Level        string `mapstructure:"Level"`        // debug, info, warn, error
	SentryDSN    string `mapstructure:"SentryDSN"`    // DSN для Sentry
	EnableSentry bool   `mapstructure:"EnableSentry"` // включить отправку ошибок в Sentry
	MaxSizeMB    int    `mapstructure:"MaxSizeMB"`    // размер файла до ротации
	MaxBackups   int    `mapstructure:"MaxBackups"`   // сколько старых файлов хранить
	MaxAgeDays   int    `mapstructure:"MaxAgeDays"`   // сколько дней хранить старые файлы
	Compress     bool   `mapstructure:"Compress"`     // gzip для старых файлов
}

// MetricsConfig — куда отдавать метрики Prometheus
type MetricsConfig struct {
	Addr     string `mapstructure:"Addr"`     // адрес HTTP для режима watch, пусто — выключено
	Textfile string `mapstructure:"Textfile"` // файл для textfile collector, пусто — не писать
}

// ExportConfig — параметры выгрузок
type ExportConfig struct {
	Redact bool `mapstructure:"Redact"`
}

// Config описывает основные настройки сервиса
// BatchSize и BatchInterval должны быть положительными
// Загружается из YAML, любое поле переопределяется переменной VPNSIFT_<СЕКЦИЯ>_<ПОЛЕ>
type Config struct {
	Engine        EngineConfig `mapstructure:"Engine"`
	Inbox         InboxConfig  `mapstructure:"Inbox"`
	BatchSize     int          `mapstructure:"BatchSize"`
	BatchInterval int          `mapstructure:"BatchInterval"` // секунды

	ClickHouse       ClickHouseConfig `mapstructure:"ClickHouse"`
	ProcessedStorage string           `mapstructure:"ProcessedStorage"` // "file" или "redis"
	ProcessedFile    string           `mapstructure:"ProcessedFile"`
	Redis            RedisConfig      `mapstructure:"Redis"`
	Logging          LoggingConfig    `mapstructure:"Logging"`
	Metrics          MetricsConfig    `mapstructure:"Metrics"`
	Export           ExportConfig     `mapstructure:"Export"`
}

// BatchTimeout возвращает интервал отправки батча
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.BatchInterval) * time.Second
}

// LoadConfig читает и парсит конфиг из YAML-файла по указанному пути.
// Шаги:
// 1. Чтение сырого файла (пустой путь — только значения по умолчанию и окружение)
// 2. Очистка данных: удаление BOM, замена табуляций
// 3. Парсинг YAML через viper поверх значений по умолчанию
// 4. Валидация обязательных полей
func LoadConfig(path string) (*Config, error) {
	var sanitized []byte
	if path != "" {
		// 1. Чтение
		raw, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// 2. Очистка
		sanitized = sanitize(raw)
	}

	// 3. Парсинг
	cfg, err := parseYAML(sanitized)
	if err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// 4. Валидация
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
