package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gymtrack/internal/config"
	"gymtrack/internal/database"
	"gymtrack/internal/gym"
	"gymtrack/internal/notify"
	"gymtrack/internal/remote"
)

// GymApp is the application layer between the CLI and the service/sync
// layers. It constructs all dependencies from config and manages the DB
// lifecycle on Close.
type GymApp struct {
	cfg     *config.Config
	store   gym.LocalStore
	remote  gym.RemoteStore
	service *gym.Service
	syncer  *gym.Syncer
	logFile *os.File
}

// NewGymApp creates a fully wired GymApp from the given config.
// operation identifies the CLI command being run (e.g. "AddDay", "Sync").
// The caller must call Close when done.
func NewGymApp(cfg *config.Config, operation string) (*GymApp, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	rs, err := remote.NewRemoteFromConfig(context.Background(), cfg.Remote)
	if err != nil {
		logFile.Close()
		store.Close()
		return nil, fmt.Errorf("creating remote: %w", err)
	}

	notifier, err := notify.NewNotifierFromConfig(cfg.Notify, logger)
	if err != nil {
		logFile.Close()
		store.Close()
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	logger.Info("starting", "operation", operation)

	var syncer *gym.Syncer
	if rs != nil {
		syncer = gym.NewSyncer(store, rs, logger)
	}

	return &GymApp{
		cfg:     cfg,
		store:   store,
		remote:  rs,
		service: gym.NewService(store, notifier, logger, gym.RealClock{}),
		syncer:  syncer,
		logFile: logFile,
	}, nil
}

// Service exposes the workout service layer to the CLI.
func (a *GymApp) Service() *gym.Service {
	return a.service
}

// OwnerID returns the configured user id, falling back to the offline
// owner when no account is configured.
func (a *GymApp) OwnerID() string {
	if a.cfg.UserID == "" {
		return gym.OfflineOwner
	}
	return a.cfg.UserID
}

// Sync runs a full synchronization cycle against the remote backend.
func (a *GymApp) Sync(ctx context.Context) error {
	if a.syncer == nil {
		return fmt.Errorf("no remote configured: set remote.type in the config file")
	}
	if err := a.remote.Ping(ctx); err != nil {
		return fmt.Errorf("remote unreachable: %w", err)
	}
	a.syncer.Sync(ctx, a.OwnerID())
	return nil
}

// Close releases all resources.
func (a *GymApp) Close() error {
	var firstErr error

	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if closer, ok := a.remote.(interface{ Close() }); ok {
		closer.Close()
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
