package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"myai/internal/agent"
	"myai/internal/coordinator"
	"myai/internal/daemon"
	"myai/internal/db"
	"myai/internal/integration"
	"myai/internal/integration/gdrive"
	"myai/internal/logger"
	"myai/internal/repository"
	"myai/internal/scheduler"
	"myai/internal/watcher"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		if err := db.Init(cfg.DBPath); err != nil {
			return err
		}

		store := agent.NewStore(cfg.BaseDir)

		adapters := make([]integration.Adapter, 0, len(cfg.Adapters)+1)
		for _, a := range cfg.Adapters {
			adapters = append(adapters, integration.NewDirAdapter(a.Name, a.AgentDir, a.ConfigPath))
		}

		if cfg.GDriveBackup.Enabled {
			backup, err := gdrive.NewBackupAdapter(cmd.Context(), cfg.GDriveBackup.Folder)
			if err != nil {
				logger.Log.Warn("gdrive backup unavailable", zap.Error(err))
			} else {
				adapters = append(adapters, backup)
			}
		}

		mgr := integration.NewToolManager(store, adapters...)

		w := watcher.New(watcher.Config{
			Debounce:   cfg.DebounceInterval,
			BufferSize: cfg.BufferSize,
			IgnoreList: cfg.IgnoreList,
		})

		sched := scheduler.New(scheduler.Config{
			MaxConcurrentJobs:   cfg.MaxConcurrentJobs,
			HealthCheckInterval: cfg.HealthInterval,
		}, scheduler.Handlers(mgr))

		coord := coordinator.New(w, sched, mgr, repository.NewWatchPathRepository(), coordinator.Config{
			BaseDir:          cfg.BaseDir,
			TargetDebounce:   cfg.TargetDebounce,
			FullSyncInterval: cfg.FullSyncInterval,
		})

		if err := coord.Initialize(); err != nil {
			return err
		}

		if err := sched.Start(); err != nil {
			return err
		}

		if err := coord.Start(); err != nil {
			sched.Stop()
			return err
		}

		srv := daemon.NewServer(coord, sched, cfg.DaemonPort)
		srv.Start()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Log.Info("shutting down", zap.String("signal", sig.String()))
		case <-srv.StopCh():
			logger.Log.Info("shutting down on request")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = srv.Stop(shutdownCtx)
		coord.Stop()
		w.Stop()
		sched.Stop()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
