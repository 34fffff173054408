package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loykin/sitekeeper"
)

// ServeFlags holds flags for the serve subcommand.
type ServeFlags struct {
	ConfigPath string
	Daemonize  bool
	PidFile    string
	LogFile    string
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the sitekeeper daemon",
		Long: `Start the sitekeeper daemon: autostart configured sites, supervise
them, and expose the management API over HTTP.

Examples:
  sitekeeper serve --config=config.toml
  sitekeeper serve config.toml
  sitekeeper serve config.toml --daemonize --pidfile=/run/sitekeeper.pid`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			if len(args) > 0 {
				serveFlags.ConfigPath = args[0]
			}
			return runServeCommand(serveFlags)
		},
	}

	cmd.Flags().BoolVar(&serveFlags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&serveFlags.PidFile, "pidfile", "", "write daemon PID to file")
	cmd.Flags().StringVar(&serveFlags.LogFile, "logfile", "", "redirect daemon logs to file")

	return cmd
}

func runServeCommand(flags *ServeFlags) error {
	if flags.ConfigPath == "" {
		return fmt.Errorf("config file required for serve command. Use --config=config.toml or provide as argument")
	}

	cfg, err := sitekeeper.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	pidDir := cfg.PIDDir
	if !filepath.IsAbs(pidDir) {
		pidDir = filepath.Join(filepath.Dir(flags.ConfigPath), pidDir)
		cfg.PIDDir = pidDir
	}
	if err := os.MkdirAll(pidDir, 0o750); err != nil {
		return fmt.Errorf("failed to create pid_dir %s: %w", pidDir, err)
	}

	if flags.Daemonize {
		return daemonize(flags.PidFile, flags.LogFile)
	}

	log := sitekeeper.NewLogger(cfg.Log)
	if err := sitekeeper.RegisterMetricsDefault(); err != nil {
		log.Warn("metrics registration failed", "err", err)
	}

	mgr, err := sitekeeper.NewFromConfig(cfg, log)
	if err != nil {
		return fmt.Errorf("error loading sites: %w", err)
	}

	if cfg.HistoryDSN != "" {
		st, err := mgr.SetHistory(cfg.HistoryDSN)
		if err != nil {
			return fmt.Errorf("error opening history store: %w", err)
		}
		defer func() { _ = st.Close() }()
	}

	mgr.AutostartOnce()
	mgr.StartWatchdog(cfg.WatchdogInterval)
	defer mgr.StopWatchdog()

	onChange := func(sites []sitekeeper.Spec) {
		if err := sitekeeper.SaveSites(flags.ConfigPath, sites); err != nil {
			log.Error("failed to persist sites", "err", err)
		}
	}
	onReload := func() ([]sitekeeper.Spec, error) {
		fresh, err := sitekeeper.LoadConfig(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		return fresh.Sites, nil
	}
	server := sitekeeper.NewHTTPServer(cfg.Listen, cfg.BasePath, cfg.Auth, mgr, onChange, onReload)

	fmt.Printf("Starting sitekeeper server on %s%s\n", cfg.Listen, cfg.BasePath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	return server.Close()
}
