package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/logger"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/Joseda-hg/lazytodo/internal/tui"
	"github.com/Joseda-hg/lazytodo/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type options struct {
	configPath string
	webOnly    bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	v := config.New()

	cmd := &cobra.Command{
		Use:           "lazytodo",
		Short:         "A small to-do list with a terminal and a web front end",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file path")
	flags.Bool("web", false, "enable web server")
	flags.BoolVar(&opts.webOnly, "web-only", false, "run web server only")
	flags.Int("port", 0, "web server port")
	flags.String("store", "", "task backend: memory or sqlite (both in-memory)")
	flags.String("log-level", "", "log level")

	bindings := map[string]string{
		"web.enabled":  "web",
		"web.port":     "port",
		"store.driver": "store",
		"logger.level": "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lazytodo version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func run(ctx context.Context, v *viper.Viper, opts *options) error {
	cfgPath, err := resolveConfigPath(opts.configPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v, cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg.Logger, !opts.webOnly)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo, closeRepo, err := openRepository(cfg.Store)
	if err != nil {
		return err
	}
	defer closeRepo()
	observed := tasks.NewObserved(repo, log, tasks.NewMetrics(registry))
	log.Infow("task store ready", "driver", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var server *http.Server
	serveErr := make(chan error, 1)
	if cfg.Web.Enabled || opts.webOnly {
		server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
			Handler:           web.NewServer(observed, log, registry).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Infof("Web server running at http://localhost%s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("web server: %w", err)
			}
			close(serveErr)
		}()
	}

	if opts.webOnly {
		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				return err
			}
		}
		return shutdown(server, log)
	}

	var uiOpts []tui.Option
	if server != nil {
		uiOpts = append(uiOpts, tui.WithErrors(serveErr))
	}
	if err := tui.Run(observed, uiOpts...); err != nil {
		return err
	}
	if server != nil {
		return shutdown(server, log)
	}
	return nil
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

// newLogger keeps console output off the terminal while the list UI owns it,
// unless logs are sent to a file.
func newLogger(cfg config.LoggerConfig, terminalUI bool) (*logger.Logger, error) {
	if terminalUI && cfg.Output != "file" {
		return logger.Nop(), nil
	}
	if cfg.Output == "file" && cfg.Filename != "" {
		if err := config.EnsureDir(cfg.Filename); err != nil {
			return nil, err
		}
	}
	return logger.New(cfg)
}

func openRepository(cfg config.StoreConfig) (tasks.Repository, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		sqlDB, err := db.Open(db.MemoryPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db.NewStore(sqlDB), func() { _ = sqlDB.Close() }, nil
	default:
		return tasks.NewGuarded(tasks.NewStore()), func() {}, nil
	}
}

func shutdown(server *http.Server, log *logger.Logger) error {
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown web server: %w", err)
	}
	log.Info("web server stopped")
	return nil
}
