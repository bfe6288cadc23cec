// Package main implements lingo, the command line front end of the
// offline-first language learning engine. It wires configuration,
// logging, the local store, grading, scheduling, and sync into the
// subcommands a learner-facing shell would call.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/lingua-engine/internal/config"
	"github.com/phrazzld/lingua-engine/internal/domain/srs"
	"github.com/phrazzld/lingua-engine/internal/events"
	"github.com/phrazzld/lingua-engine/internal/grading"
	"github.com/phrazzld/lingua-engine/internal/platform/gemini"
	"github.com/phrazzld/lingua-engine/internal/platform/logger"
	"github.com/phrazzld/lingua-engine/internal/platform/progressapi"
	"github.com/phrazzld/lingua-engine/internal/platform/sqlite"
	"github.com/phrazzld/lingua-engine/internal/service"
	"github.com/phrazzld/lingua-engine/internal/syncer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the wired engine components shared by the subcommands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	db        *sqlite.DB
	bus       *events.ConnectivityBus
	syncMgr   *syncer.Manager
	scheduler srs.Service
	attempts  service.AttemptService
	progress  service.ProgressService
}

func newRootCmd() *cobra.Command {
	var configPath string
	var offline bool
	a := &app{}

	root := &cobra.Command{
		Use:           "lingo",
		Short:         "Offline-first language learning engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), configPath, offline)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (defaults to environment configuration)")
	root.PersistentFlags().BoolVar(&offline, "offline", false, "treat the session as offline; mutations queue instead of syncing")

	root.AddCommand(
		newDueCmd(a),
		newSubmitCmd(a),
		newPostponeCmd(a),
		newCompleteLessonCmd(a),
		newSelfCheckCmd(a),
		newSyncCmd(a),
		newClearCacheCmd(a),
	)
	return root
}

// init loads configuration and builds the component graph in dependency
// order: logger, store, grading, scheduler, sync.
func (a *app) init(ctx context.Context, configPath string, offline bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	a.logger = log

	db, err := sqlite.Open(ctx, cfg.Database.Path, log)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	a.db = db

	initial := events.ConnectivityOnline
	if offline {
		initial = events.ConnectivityOffline
	}
	a.bus = events.NewConnectivityBus(initial, log)

	client, err := progressapi.NewClient(cfg.Sync, log)
	if err != nil {
		return fmt.Errorf("building progress client: %w", err)
	}
	a.syncMgr = syncer.NewManager(db, client, a.bus, syncer.Config{
		MaxRetries: uint64(cfg.Sync.MaxRetries),
	}, log)

	engine := grading.NewEngine(grading.Config{
		MaxAttempts:     cfg.Grading.MaxAttempts,
		SemanticEnabled: cfg.Grading.SemanticGradingEnabled,
		SemanticTimeout: time.Duration(cfg.Grading.SemanticTimeoutMs) * time.Millisecond,
	}, a.semanticGrader(ctx), log)

	a.scheduler = srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:  cfg.Scheduler.MinEaseFactor,
		FirstInterval:  cfg.Scheduler.FirstInterval,
		SecondInterval: cfg.Scheduler.SecondInterval,
		MaxInterval:    cfg.Scheduler.MaxInterval,
	}))

	a.attempts = service.NewAttemptService(db, engine, a.scheduler, a.syncMgr, cfg.Grading.HintedQualityCap, log)
	a.progress = service.NewProgressService(db, a.syncMgr, log)
	return nil
}

// semanticGrader builds the Gemini grader when the semantic tier is
// enabled. A construction failure downgrades to exact-only grading
// rather than blocking the session.
func (a *app) semanticGrader(ctx context.Context) grading.SemanticGrader {
	if !a.cfg.Grading.SemanticGradingEnabled {
		return nil
	}
	grader, err := gemini.NewGrader(ctx, a.logger, a.cfg.Grading)
	if err != nil {
		a.logger.Warn("semantic grading unavailable, continuing with exact matching",
			slog.String("error", err.Error()))
		return nil
	}
	return grader
}

func (a *app) close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
