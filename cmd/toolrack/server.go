package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalmbach/toolrack/internal/api"
	"github.com/kalmbach/toolrack/internal/attach"
	"github.com/kalmbach/toolrack/internal/audit"
	"github.com/kalmbach/toolrack/internal/backup"
	"github.com/kalmbach/toolrack/internal/config"
	"github.com/kalmbach/toolrack/internal/export"
	"github.com/kalmbach/toolrack/internal/heads"
	"github.com/kalmbach/toolrack/internal/indexer"
	"github.com/kalmbach/toolrack/internal/profiles"
	"github.com/kalmbach/toolrack/internal/search"
	"github.com/kalmbach/toolrack/internal/settings"
	"github.com/kalmbach/toolrack/internal/storage"
	"github.com/kalmbach/toolrack/internal/tools"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the toolrack server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running toolrack server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show toolrack system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "toolrack.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "toolrack version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Ensure API token exists in platform secret store.
	apiToken, err := config.GetAPIToken(config.NewKeychain())
	if err != nil {
		return fmt.Errorf("initializing API token: %w", err)
	}
	slog.Info("API bearer token available")

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("toolrack is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("toolrack is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	auditLog, err := audit.New(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}

	// Build domain services.
	settingsMgr := settings.NewManager(store)
	attachStore, err := attach.New(cfg.Storage.DataDir, store, settingsMgr, auditLog)
	if err != nil {
		return fmt.Errorf("opening attachment store: %w", err)
	}
	profileSvc := profiles.NewService(store, settingsMgr, auditLog, attachStore)
	toolSvc := tools.NewService(store, settingsMgr, auditLog, attachStore)
	headSvc := heads.NewService(store, settingsMgr, auditLog)
	exportSvc := export.NewService(store)
	searchSvc := search.NewService(store)

	backupSvc, err := backup.NewService(cfg.Storage.DataDir, store)
	if err != nil {
		return fmt.Errorf("opening backup store: %w", err)
	}
	if err := backupSvc.CleanupTemp(); err != nil {
		slog.Warn("cleaning leftover backup temp files", "error", err)
	}

	// Build HTTP handler and server.
	handler := api.NewAppHandler(api.AppDeps{
		Store:    store,
		Profiles: profileSvc,
		Tools:    toolSvc,
		Heads:    headSvc,
		Attach:   attachStore,
		Export:   exportSvc,
		Search:   searchSvc,
		Backup:   backupSvc,
		Settings: settingsMgr,
		Token:    apiToken,
		Version:  version,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Start drawing indexer worker.
	worker := indexer.NewWorker(store, attachStore, time.Duration(cfg.Indexer.PollMillis)*time.Millisecond)
	go worker.Run(ctx)

	// Start scheduled backups.
	if cfg.Backup.Enabled {
		scheduler, err := backup.NewScheduler(backupSvc, cfg.Backup.Schedule, cfg.Backup.Keep)
		if err != nil {
			return fmt.Errorf("configuring backup schedule: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		slog.Info("scheduled backups enabled", "schedule", cfg.Backup.Schedule, "keep", cfg.Backup.Keep)
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:  store,
		Tools:  toolSvc,
		Search: searchSvc,
		Export: exportSvc,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "toolrack listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("toolrack is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop toolrack (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to toolrack (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			printStatus("Server", "running on port %d", cfg.Server.Port)
			running = true
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if running {
		if apiClient, err := newAPIClient(); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if resp, err := apiClient.get(ctx, "/profiles"); err == nil {
				var profiles []struct{}
				if decodeJSON(resp, &profiles) == nil {
					printStatus("Profiles", "%d", len(profiles))
				}
			}
			if resp, err := apiClient.get(ctx, "/settings"); err == nil {
				var s settings.Settings
				if decodeJSON(resp, &s) == nil {
					printStatus("Mode", "%s", s.SecurityMode)
				}
			}
		}
	}

	printStatus("Backups", "%s (schedule %s, keep %d)",
		map[bool]string{true: "enabled", false: "disabled"}[cfg.Backup.Enabled],
		cfg.Backup.Schedule, cfg.Backup.Keep)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
