// Package sqlite хранилище master сервера: документы всех коллекций
// и отозванные токены в одной базе SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/gophsync/internal/crdt"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// SQLite допускает одного писателя, поэтому все запросы идут через одно соединение.
// WAL оставляет чтение возможным во время записи из других процессов (token, revoke).
var pragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
	"PRAGMA foreign_keys = ON;",
	"PRAGMA busy_timeout = 5000;",
}

type Storage struct {
	db      *sql.DB
	handler crdt.ConflictHandler
	schema  int64
}

// Option настраивает Storage
type Option func(*Storage)

// WithConflictHandler задает сравнение состояний при проверке push.
// По умолчанию crdt.LWWHandler, как в репликации клиента.
func WithConflictHandler(handler crdt.ConflictHandler) Option {
	return func(s *Storage) {
		s.handler = handler
	}
}

// New открывает базу dbPath и применяет миграции.
// ":memory:" создает базу в памяти (тесты).
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Storage{db: db, handler: crdt.LWWHandler{}}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate применяет миграции через goose provider, без глобального состояния goose
func (s *Storage) migrate(ctx context.Context) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	s.schema, err = provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	return nil
}

// SchemaVersion версия схемы после миграций
func (s *Storage) SchemaVersion() int64 {
	return s.schema
}

// Ping проверяет доступность базы
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}
