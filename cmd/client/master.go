package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iudanet/gophsync/internal/client/api"
	"github.com/iudanet/gophsync/internal/client/auth"
	"github.com/iudanet/gophsync/internal/client/leader"
	"github.com/iudanet/gophsync/internal/client/mongodb"
	"github.com/iudanet/gophsync/internal/client/natsstream"
	"github.com/iudanet/gophsync/internal/client/storage/boltdb"
	"github.com/iudanet/gophsync/internal/client/sync"
	"github.com/iudanet/gophsync/internal/config"
	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/replication"
)

const (
	leaderCheckInterval = 2 * time.Second
	mongoConnectTimeout = 10 * time.Second
	mongoDisconnectWait = 5 * time.Second
)

// masterFactory создает sync.Service для выбранного master:
// сервер gophsync по HTTP или MongoDB напрямую.
// Репликации и соединения закрываются в Close.
type masterFactory struct {
	cfg         *config.Client
	store       *boltdb.Storage
	authService *auth.Service
	registry    *replication.Registry
	logger      *slog.Logger
	closers     []func()
}

func newMasterFactory(cfg *config.Client, store *boltdb.Storage, authService *auth.Service, logger *slog.Logger) *masterFactory {
	return &masterFactory{
		cfg:         cfg,
		store:       store,
		authService: authService,
		registry:    replication.NewRegistry(),
		logger:      logger,
	}
}

func (f *masterFactory) SyncService(ctx context.Context) (sync.Service, error) {
	var (
		master     sync.Master
		identifier string
		err        error
	)
	if f.cfg.MongoURI != "" {
		master, identifier, err = f.mongoMaster(ctx)
	} else {
		master, identifier, err = f.serverMaster(ctx)
	}
	if err != nil {
		return nil, err
	}

	// NATS уведомления заменяют поток master, если заданы
	if f.cfg.NATSURL != "" {
		streamer, err := natsstream.Connect(f.cfg.NATSURL, f.cfg.Collection, f.logger)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, streamer.Close)
		master.Stream = streamer
	}

	lock := leader.New(f.cfg.DBPath+".lock", leaderCheckInterval, f.logger)
	f.closers = append(f.closers, func() {
		if err := lock.Release(); err != nil {
			f.logger.Warn("Failed to release leader lock", "error", err)
		}
	})

	return sync.NewService(f.store, master, sync.Options{
		ConflictHandler: crdt.LWWHandler{},
		Leadership:      lock,
		Registry:        f.registry,
		Identifier:      identifier,
		PullBatchSize:   f.cfg.PullBatchSize,
		PushBatchSize:   f.cfg.PushBatchSize,
		RetryTime:       f.cfg.RetryTime,
		LiveInterval:    f.cfg.LiveInterval,
	}, f.logger)
}

func (f *masterFactory) serverMaster(ctx context.Context) (sync.Master, string, error) {
	serverURL, token := f.cfg.ServerURL, f.cfg.Token
	if token == "" {
		authData, err := f.authService.Current(ctx)
		if err != nil {
			if errors.Is(err, auth.ErrNotAuthenticated) {
				return sync.Master{}, "", fmt.Errorf("%w. Please run 'gophsync login' first", err)
			}
			if errors.Is(err, auth.ErrTokenExpired) {
				return sync.Master{}, "", fmt.Errorf("%w. Please login again", err)
			}
			return sync.Master{}, "", err
		}
		serverURL, token = authData.ServerURL, authData.AccessToken
	}

	client := api.NewClient(serverURL, f.cfg.Collection, token, f.logger)
	master := sync.Master{Pull: client, Push: client, Stream: client}
	return master, "server:" + strings.TrimRight(serverURL, "/") + "/" + f.cfg.Collection, nil
}

func (f *masterFactory) mongoMaster(ctx context.Context) (sync.Master, string, error) {
	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongodb.Connect(connectCtx, f.cfg.MongoURI)
	if err != nil {
		return sync.Master{}, "", err
	}
	f.closers = append(f.closers, func() { f.disconnect(client) })

	master := mongodb.New(client.Database(f.cfg.MongoDatabase), f.cfg.Collection, crdt.LWWHandler{}, f.logger)
	if err := master.EnsureIndexes(connectCtx); err != nil {
		return sync.Master{}, "", err
	}
	return sync.Master{Pull: master, Push: master, Stream: master},
		"mongo:" + f.cfg.MongoDatabase + "/" + f.cfg.Collection, nil
}

func (f *masterFactory) disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoDisconnectWait)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		f.logger.Warn("Failed to disconnect from MongoDB", "error", err)
	}
}

// Close останавливает репликации и закрывает соединения в обратном порядке
func (f *masterFactory) Close() {
	f.registry.Close()
	for i := len(f.closers) - 1; i >= 0; i-- {
		f.closers[i]()
	}
	f.closers = nil
}
