// Package config собирает настройки сервера и клиента из флагов
// и переменных окружения GOPHSYNC_*.
//
// Приоритет: явно заданный флаг > переменная окружения > значение по умолчанию.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/iudanet/gophsync/internal/replication"
	"github.com/iudanet/gophsync/internal/validation"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "GOPHSYNC_"

// Server настройки сервера (master)
type Server struct {
	Addr       string
	DBPath     string
	JWTSecret  string
	NATSURL    string
	LogLevel   string
	RateWindow time.Duration
	RateLimit  int
}

// Client настройки клиента (fork)
type Client struct {
	ServerURL     string
	DBPath        string
	Collection    string
	Token         string
	NATSURL       string
	MongoURI      string
	MongoDatabase string
	MetricsAddr   string
	LogLevel      string
	// Passphrase читается только из окружения, чтобы не светиться в списке процессов
	Passphrase    string
	RetryTime     time.Duration
	// LiveInterval период принудительного RESYNC в watch, 0 отключает
	LiveInterval  time.Duration
	PullBatchSize int
	PushBatchSize int
}

// RegisterServerFlags регистрирует флаги сервера в fs
func RegisterServerFlags(fs *flag.FlagSet) *Server {
	cfg := &Server{}
	fs.StringVar(&cfg.Addr, "addr", ":8080", "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", "gophsync.db", "Path to sqlite database")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "HMAC secret for access tokens")
	fs.StringVar(&cfg.NATSURL, "nats", "", "NATS URL for change notifications (optional)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 600, "Requests per client per window")
	fs.DurationVar(&cfg.RateWindow, "rate-window", time.Minute, "Rate limit window")
	return cfg
}

// Validate проверяет обязательные параметры сервера
func (c *Server) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 characters")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("rate limit and window must be positive")
	}
	return nil
}

// RegisterClientFlags регистрирует флаги клиента в fs
func RegisterClientFlags(fs *flag.FlagSet) *Client {
	cfg := &Client{}
	fs.StringVar(&cfg.ServerURL, "server", "http://localhost:8080", "Server URL")
	fs.StringVar(&cfg.DBPath, "db", "gophsync-client.db", "Path to local database")
	fs.StringVar(&cfg.Collection, "collection", "default", "Collection to replicate")
	fs.StringVar(&cfg.Token, "token", "", "Access token (overrides saved login)")
	fs.StringVar(&cfg.NATSURL, "nats", "", "NATS URL for live change notifications (optional)")
	fs.StringVar(&cfg.MongoURI, "mongo", "", "MongoDB URI, replicates against MongoDB instead of the server")
	fs.StringVar(&cfg.MongoDatabase, "mongo-db", "gophsync", "MongoDB database name")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during watch")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	fs.DurationVar(&cfg.RetryTime, "retry", replication.DefaultRetryTime, "Pause before retrying a failed step")
	fs.IntVar(&cfg.PullBatchSize, "pull-batch", replication.DefaultBatchSize, "Pull batch size")
	fs.IntVar(&cfg.PushBatchSize, "push-batch", replication.DefaultBatchSize, "Push batch size")
	fs.DurationVar(&cfg.LiveInterval, "live-interval", replication.DefaultLiveInterval, "Periodic resync during watch, 0 disables")
	return cfg
}

// Validate проверяет параметры клиента
func (c *Client) Validate() error {
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if err := validation.ValidateCollection(c.Collection); err != nil {
		return err
	}
	if c.PullBatchSize <= 0 || c.PushBatchSize <= 0 {
		return errors.New("batch sizes must be positive")
	}
	if c.LiveInterval < 0 {
		return errors.New("live interval cannot be negative")
	}
	if c.Passphrase != "" {
		if err := validation.ValidatePassphrase(c.Passphrase); err != nil {
			return err
		}
	}
	return nil
}

// Parse разбирает args и применяет переменные окружения к флагам,
// которые не были заданы явно. Имя переменной: GOPHSYNC_ + имя флага
// в верхнем регистре с заменой '-' на '_'.
func Parse(fs *flag.FlagSet, args []string) error {
	return parse(fs, args, os.LookupEnv)
}

func parse(fs *flag.FlagSet, args []string, lookup func(string) (string, bool)) error {
	if err := fs.Parse(args); err != nil {
		return err
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		if explicit[f.Name] {
			return
		}
		name := EnvName(f.Name)
		value, ok := lookup(name)
		if !ok {
			return
		}
		if err := fs.Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// LoadPassphrase читает парольную фразу шифрования из окружения
func (c *Client) LoadPassphrase() {
	c.Passphrase = os.Getenv(EnvPrefix + "PASSPHRASE")
}

// EnvName возвращает имя переменной окружения для флага
func EnvName(flagName string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// ParseLogLevel переводит строку в slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger создает текстовый логгер в stderr с уровнем level
func NewLogger(level string) (*slog.Logger, error) {
	l, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
