package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-signer/internal/config"
	"github.com/a3tai/mcp-pdf-signer/internal/mcp"
	"github.com/a3tai/mcp-pdf-signer/internal/pdf"
	"github.com/a3tai/mcp-pdf-signer/internal/session"
	"github.com/a3tai/mcp-pdf-signer/internal/source"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger. In stdio mode stdout carries the
// protocol, so logs go to stderr as text; server mode logs JSON to w
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel(), AddSource: cfg.IsDebug()}
	if cfg.IsStdioMode() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *slog.Logger) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Error("server shutdown with error", "error", err)
			return 1
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// runStdioMode handles stdio mode execution. The parent process controls our
// lifecycle and we exit when stdin closes
func runStdioMode(ctx context.Context, server *mcp.Server, logger *slog.Logger) int {
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		return 1
	}
	return 0
}

// buildServer wires the document loader, session registry and tool surface
func buildServer(cfg *config.Config, logger *slog.Logger) (*mcp.Server, error) {
	loader, err := source.NewLoader(source.Options{
		Directory:    cfg.DocumentDirectory,
		MaxFileSize:  cfg.MaxFileSize,
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger.With("component", "source"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document loader: %w", err)
	}

	compositor := pdf.NewCompositor(
		pdf.WithSidebarOffset(cfg.SidebarOffset),
		pdf.WithLogger(logger.With("component", "export")),
	)
	sessions := session.NewRegistry(session.Options{
		DefaultPageHeight: cfg.DefaultPageHeight,
		AssumeNaturalSize: cfg.AssumeNaturalSize,
		Compositor:        compositor,
		Logger:            logger.With("component", "session"),
	})

	return mcp.NewServer(cfg, loader, sessions, logger.With("component", "mcp"))
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	logger.Debug("starting", "config", cfg.String())

	server, err := buildServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var code int
	if cfg.IsServerMode() {
		code = runServerMode(ctx, cancel, server, logger)
	} else {
		code = runStdioMode(ctx, server, logger)
	}
	if code != 0 {
		cancel()
		os.Exit(code)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Signer\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
