// Package config собирает конфигурацию сервисов из переменных
// окружения в одном месте.
//
// Каждый бинарник вызывает FromEnv один раз на старте и раздаёт
// куски конфигурации компонентам через их Config структуры.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Chrono/internal/store"
)

// Значения по умолчанию.
const (
	defaultTickInterval = 2 * time.Second
	defaultBackoff      = 10 * time.Second
	defaultPort         = "8080"
)

// defaultJobCmd — команда интерпретатора по умолчанию. Runner
// дописывает к ней module, func и пути payload-файлов.
var defaultJobCmd = []string{"python3", "-m", "chrono_run"}

// defaultRunnerCmd — команда запуска runner-процесса по умолчанию.
var defaultRunnerCmd = []string{"chrono-runner"}

// Config — полная конфигурация сервисов.
type Config struct {
	// Backend — хранилище: "sqlite" (default) или "postgres".
	// CHRONO_BACKEND.
	Backend string

	// DSN — строка подключения: путь к файлу для sqlite, URL для
	// postgres. CHRONO_DSN, для postgres fallback на DATABASE_URL.
	DSN string

	// TickInterval — период опроса таблицы events.
	// CHRONO_TICK_INTERVAL (duration, default 2s).
	TickInterval time.Duration

	// Backoff — пауза цикла, пока таблицы events нет.
	// CHRONO_BACKOFF (duration, default 10s).
	Backoff time.Duration

	// CaptureLogs включает захват вывода выполнений в event_logs.
	// CHRONO_CAPTURE_LOGS (default true).
	CaptureLogs bool

	// AuditTriggers включает запись срабатываний в event_triggers.
	// CHRONO_AUDIT_TRIGGERS (default false).
	AuditTriggers bool

	// AMQPURL — адрес RabbitMQ для уведомлений event.fired.
	// RABBITMQ_URL; пусто — уведомления выключены.
	AMQPURL string

	// RunnerCmd — команда запуска runner-процесса.
	// CHRONO_RUNNER (разделяется по пробелам).
	RunnerCmd []string

	// JobCmd — команда интерпретатора, выполняющего module.func.
	// CHRONO_JOB_CMD (разделяется по пробелам).
	JobCmd []string

	// PayloadDir — каталог временных payload-файлов.
	// CHRONO_PAYLOAD_DIR.
	PayloadDir string

	// Port — HTTP порт daemon'а (/healthz, /metrics). CHRONO_PORT.
	Port string
}

// FromEnv читает конфигурацию из окружения, подставляя значения
// по умолчанию.
func FromEnv() Config {
	cfg := Config{
		Backend:       envString("CHRONO_BACKEND", store.DialectSQLite),
		DSN:           os.Getenv("CHRONO_DSN"),
		TickInterval:  envDuration("CHRONO_TICK_INTERVAL", defaultTickInterval),
		Backoff:       envDuration("CHRONO_BACKOFF", defaultBackoff),
		CaptureLogs:   envBool("CHRONO_CAPTURE_LOGS", true),
		AuditTriggers: envBool("CHRONO_AUDIT_TRIGGERS", false),
		AMQPURL:       os.Getenv("RABBITMQ_URL"),
		RunnerCmd:     envCommand("CHRONO_RUNNER", defaultRunnerCmd),
		JobCmd:        envCommand("CHRONO_JOB_CMD", defaultJobCmd),
		PayloadDir:    envString("CHRONO_PAYLOAD_DIR", ""),
		Port:          envString("CHRONO_PORT", defaultPort),
	}

	if cfg.DSN == "" {
		if cfg.Backend == store.DialectPostgres {
			cfg.DSN = os.Getenv("DATABASE_URL")
		} else {
			cfg.DSN = store.DefaultSQLitePath
		}
	}

	return cfg
}

// StoreConfig — кусок конфигурации для store.Open.
func (c Config) StoreConfig() store.Config {
	return store.Config{Backend: c.Backend, DSN: c.DSN}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envCommand(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return fallback
	}
	return fields
}
