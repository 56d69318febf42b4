package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/curio/internal/config"
	"github.com/xxxsen/curio/internal/handler"
	"github.com/xxxsen/curio/internal/history"
	"github.com/xxxsen/curio/internal/job"
	"github.com/xxxsen/curio/internal/middleware"
	"github.com/xxxsen/curio/internal/schedule"
	"github.com/xxxsen/curio/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "curio",
		Short:        "search-backed question answering with citations",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run curio server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "answer a single question and print it with its sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runAsk(cmd.Context(), cfg, cmd.OutOrStdout(), joinArgs(args))
		},
	}

	var exportFormat string
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "inspect the persisted query history",
	}
	historyListCmd := &cobra.Command{
		Use:   "list",
		Short: "list history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runHistoryList(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	historyExportCmd := &cobra.Command{
		Use:   "export",
		Short: "write the history as json or yaml to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runHistoryExport(cmd.Context(), cfg, cmd.OutOrStdout(), exportFormat)
		},
	}
	historyExportCmd.Flags().StringVar(&exportFormat, "format", history.FormatJSON, "export format: json or yaml")
	historyBackupCmd := &cobra.Command{
		Use:   "backup",
		Short: "write a backup snapshot of the history now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runHistoryBackup(cmd.Context(), cfg)
		},
	}
	historyCmd.AddCommand(historyListCmd, historyExportCmd, historyBackupCmd)
	rootCmd.AddCommand(runCmd, askCmd, historyCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logutil.GetLogger(context.Background()).Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Debug("config loaded", zap.String("config", path))
	return cfg, nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("search_provider", cfg.Search.Provider),
		zap.String("history_store", cfg.History.Store.Type),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler := schedule.NewCronScheduler()
	if cfg.Backup.Enabled {
		slot, err := a.backupSlot()
		if err != nil {
			return err
		}
		backup := job.NewHistoryBackupJob(a.history, slot, cfg.Backup.Key, cfg.Backup.Format)
		if err := scheduler.AddJob(backup, cfg.Backup.Spec); err != nil {
			return fmt.Errorf("schedule history backup: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()
	if cfg.Backup.Enabled {
		scheduler.Trigger(job.HistoryBackupJobName)
		if next, ok := scheduler.Next(job.HistoryBackupJobName); ok {
			logutil.GetLogger(ctx).Info("next history backup", zap.Time("at", next))
		}
	}

	deps := handler.RouterDeps{
		Query:       handler.NewQueryHandler(a.answers),
		History:     handler.NewHistoryHandler(a.answers, a.renderer),
		Suggestions: handler.NewSuggestionHandler(service.NewSuggestionService(0)),
		AskInterval: cfg.AskIntervalDuration(),
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
