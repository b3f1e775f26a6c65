package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Допустимые значения STORE_BACKEND
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config конфигурация процесса. Загружается один раз при старте и дальше не меняется.
type Config struct {
	BotToken    string
	BotDisabled bool
	AdminID     int64
	MaxAttempts int
	WebAppURL   string
	HTTPAddr    string

	StoreBackend  string
	DataFile      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string

	PrizesFile  string
	RefillCron  string
	InitDataTTL time.Duration

	LogLevel string
	Debug    bool
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv строит конфигурацию из функции чтения переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	c := &Config{
		BotToken:      getenv("BOT_TOKEN"),
		WebAppURL:     getenv("WEBAPP_URL"),
		HTTPAddr:      withDefault(getenv("HTTP_ADDR"), ":8080"),
		StoreBackend:  strings.ToLower(withDefault(getenv("STORE_BACKEND"), BackendFile)),
		DataFile:      withDefault(getenv("DATA_FILE"), "user_data.json"),
		RedisAddr:     withDefault(getenv("REDIS_ADDR"), "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		SQLitePath:    withDefault(getenv("SQLITE_PATH"), "roulette.db"),
		PrizesFile:    getenv("PRIZES_FILE"),
		RefillCron:    getenv("REFILL_CRON"),
		LogLevel:      strings.ToUpper(getenv("LOG_LEVEL")),
		Debug:         strings.EqualFold(getenv("DEBUG"), "true"),
		BotDisabled:   strings.EqualFold(getenv("BOT_DISABLED"), "true"),
	}

	adminID := getenv("ADMIN_ID")
	if adminID == "" {
		return nil, errors.New("необходимо установить переменную окружения ADMIN_ID")
	}
	id, err := strconv.ParseInt(adminID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("переменная окружения ADMIN_ID должна быть числом: %w", err)
	}
	c.AdminID = id

	if c.MaxAttempts, err = intEnv(getenv, "MAX_ATTEMPTS", 2); err != nil {
		return nil, err
	}
	if c.RedisDB, err = intEnv(getenv, "REDIS_DB", 0); err != nil {
		return nil, err
	}

	c.InitDataTTL = 24 * time.Hour
	if s := getenv("INIT_DATA_TTL"); s != "" {
		if c.InitDataTTL, err = time.ParseDuration(s); err != nil {
			return nil, fmt.Errorf("INIT_DATA_TTL: %w", err)
		}
	}

	if c.Debug && c.LogLevel == "" {
		c.LogLevel = "DEBUG"
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.BotToken == "" && !c.BotDisabled {
		return errors.New("необходимо установить переменную окружения BOT_TOKEN")
	}
	if c.AdminID <= 0 {
		return errors.New("ADMIN_ID должен быть положительным числом")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("MAX_ATTEMPTS должен быть положительным числом")
	}
	if c.InitDataTTL < 0 {
		return errors.New("INIT_DATA_TTL не может быть отрицательным")
	}
	switch c.StoreBackend {
	case BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("неизвестный STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// AdminIDString идентификатор админа в виде ключа хранилища
func (c *Config) AdminIDString() string {
	return strconv.FormatInt(c.AdminID, 10)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s должна быть числом: %w", key, err)
	}
	return v, nil
}
