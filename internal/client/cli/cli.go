// Package cli команды клиента gophsync: работа с локальными документами,
// вход на сервер и репликация.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iudanet/gophsync/internal/client/auth"
	"github.com/iudanet/gophsync/internal/client/data"
	"github.com/iudanet/gophsync/internal/client/iocli"
	"github.com/iudanet/gophsync/internal/client/sync"
)

// SyncFactory создает сервис синхронизации. Вызывается только командами,
// которым нужен master, чтобы локальные команды работали без входа на сервер.
type SyncFactory func(ctx context.Context) (sync.Service, error)

// Deps зависимости команд
type Deps struct {
	IO          iocli.IO
	DataService data.Service
	AuthService *auth.Service
	SyncFactory SyncFactory
	Logger      *slog.Logger
	Collection  string
	ServerURL   string
	// MetricsAddr адрес Prometheus метрик для watch, пустой отключает
	MetricsAddr string
}

type Cli struct {
	io          iocli.IO
	dataService data.Service
	authService *auth.Service
	newSync     SyncFactory
	logger      *slog.Logger
	collection  string
	serverURL   string
	metricsAddr string
}

func New(deps Deps) *Cli {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cli{
		io:          deps.IO,
		dataService: deps.DataService,
		authService: deps.AuthService,
		newSync:     deps.SyncFactory,
		logger:      logger,
		collection:  deps.Collection,
		serverURL:   deps.ServerURL,
		metricsAddr: deps.MetricsAddr,
	}
}

func PrintUsage() {
	fmt.Println("gophsync client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gophsync [OPTIONS] COMMAND [ARGS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version               Show version information")
	fmt.Println("  --server URL            Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH               Path to local database (default: gophsync-client.db)")
	fmt.Println("  --collection NAME       Collection to replicate (default: default)")
	fmt.Println("  --token TOKEN           Access token, overrides saved login")
	fmt.Println("  --nats URL              NATS URL for live change notifications")
	fmt.Println("  --mongo URI             Replicate against MongoDB instead of the server")
	fmt.Println("  --mongo-db NAME         MongoDB database (default: gophsync)")
	fmt.Println("  --metrics-addr ADDR     Serve Prometheus metrics during watch")
	fmt.Println("  --retry DURATION        Pause before retrying a failed step (default: 5s)")
	fmt.Println("  --pull-batch N          Pull batch size")
	fmt.Println("  --push-batch N          Push batch size")
	fmt.Println("  --live-interval DUR     Periodic resync during watch, 0 disables (default: 10s)")
	fmt.Println("  --log-level LEVEL       debug, info, warn, error (default: warn)")
	fmt.Println()
	fmt.Println("Every option can also be set with GOPHSYNC_<OPTION> environment variable.")
	fmt.Println("GOPHSYNC_PASSPHRASE enables encryption of document data.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login [token]           Save access token for the server")
	fmt.Println("  logout                  Remove saved access token")
	fmt.Println("  status                  Show authentication and synchronization status")
	fmt.Println("  put [flags] [json]      Create or replace a document")
	fmt.Println("  get <id>                Show document")
	fmt.Println("  list [flags]            List documents")
	fmt.Println("  delete [-yes] <id>      Delete document (tombstone)")
	fmt.Println("  sync                    Run one synchronization pass with master")
	fmt.Println("  watch                   Replicate continuously until interrupted")
	fmt.Println("  reset [-yes]            Forget replication checkpoints, next sync starts over")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  gophsync --server https://sync.example.com login")
	fmt.Println("  gophsync put -type note '{\"title\":\"hello\"}'")
	fmt.Println("  gophsync put -id settings -file settings.json")
	fmt.Println("  gophsync list -type note")
	fmt.Println("  gophsync sync")
	fmt.Println("  GOPHSYNC_NATS=nats://localhost:4222 gophsync --metrics-addr :9100 watch")
}
