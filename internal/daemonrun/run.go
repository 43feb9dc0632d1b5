// Package daemonrun wires the vigild runtime: logger, session store,
// backend client, processing controller, preview manager, and the IPC
// server, then blocks until the process is signalled.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"vigil/internal/backend"
	"vigil/internal/config"
	"vigil/internal/daemon"
	"vigil/internal/ipc"
	"vigil/internal/jobs"
	"vigil/internal/logging"
	"vigil/internal/notifications"
	"vigil/internal/preview"
	"vigil/internal/processing"
)

// Options configures daemon process runtime behavior.
type Options struct {
	SocketPath string
	LogLevel   string
}

// Run starts the vigil daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", cfg.LogPath()},
		ErrorOutputPaths: []string{"stderr", cfg.LogPath()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "vigil.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open()
	if err != nil {
		logger.Error("open session store", logging.Error(err))
		return err
	}
	defer store.Close()

	client, err := backend.New(cfg.Backend.BaseURL, cfg.BackendTimeout())
	if err != nil {
		return fmt.Errorf("create backend client: %w", err)
	}

	notifier := notifications.NewService(cfg)
	controller := processing.NewController(cfg, store, client, logger, notifier)
	previews := preview.NewManager(cfg, client, logger, notifier)

	d, err := daemon.New(cfg, store, logger, controller, previews, notifier)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
		)
	}

	<-signalCtx.Done()
	logger.Info("vigil daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
