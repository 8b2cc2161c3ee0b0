package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort              = 8080
	DefaultHost              = "127.0.0.1"
	DefaultLogLevel          = "info"
	DefaultMaxFileSize       = 100 * 1024 * 1024 // 100MB
	DefaultPageHeight        = 800.0
	DefaultSidebarOffset     = 0.0
	DefaultFetchTimeout      = 30 * time.Second
	DefaultAssumeNaturalSize = false

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix is prepended to every environment variable
	EnvPrefix = "MCP_SIGNER"
)

// Config holds all configuration for the signer MCP server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	DocumentDirectory string
	MaxFileSize       int64 // Maximum PDF file size in bytes
	FetchTimeout      time.Duration

	// Layout configuration
	DefaultPageHeight float64 // Height assumed for pages not yet reported
	SidebarOffset     float64 // Horizontal UI offset subtracted on export
	AssumeNaturalSize bool    // Record true PDF page sizes when a document opens

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeStdio,
		Host:              DefaultHost,
		Port:              DefaultPort,
		DocumentDirectory: currentDir,
		MaxFileSize:       DefaultMaxFileSize,
		FetchTimeout:      DefaultFetchTimeout,
		DefaultPageHeight: DefaultPageHeight,
		SidebarOffset:     DefaultSidebarOffset,
		AssumeNaturalSize: DefaultAssumeNaturalSize,
		Version:           "1.0.0",
		ServerName:        "mcp-pdf-signer",
		LogLevel:          DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.DocumentDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DocumentDirectory); err == nil {
			cfg.DocumentDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.DocumentDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("fetchtimeout", cfg.FetchTimeout)
	viper.SetDefault("defaultpageheight", cfg.DefaultPageHeight)
	viper.SetDefault("sidebaroffset", cfg.SidebarOffset)
	viper.SetDefault("naturalsize", cfg.AssumeNaturalSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.DocumentDirectory, "Directory local documents are opened from")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Duration("fetchtimeout", cfg.FetchTimeout, "Timeout for fetching documents by URL")
	pflag.Float64("defaultpageheight", cfg.DefaultPageHeight, "Page height assumed until the renderer reports one")
	pflag.Float64("sidebaroffset", cfg.SidebarOffset, "Horizontal viewport offset subtracted from field X on export")
	pflag.Bool("naturalsize", cfg.AssumeNaturalSize, "Record true PDF page sizes on open instead of waiting for the renderer")
}

var viperKeys = []string{
	"mode", "host", "port", "dir", "loglevel", "maxfilesize",
	"fetchtimeout", "defaultpageheight", "sidebaroffset", "naturalsize",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range viperKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nMCP PDF Signer - A Model Context Protocol server for placing and embedding signature fields\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/docs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --dir=/path/to/docs       # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --sidebaroffset=320        # UI with an open sidebar\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_MODE              Server mode\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_HOST              Server host\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_PORT              Server port\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_DIR               Document directory\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_LOGLEVEL          Log level\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_MAXFILESIZE       Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_FETCHTIMEOUT      URL fetch timeout\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_DEFAULTPAGEHEIGHT Fallback page height\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_SIDEBAROFFSET     Export X offset\n")
		fmt.Fprintf(os.Stderr, "  MCP_SIGNER_NATURALSIZE       Use true page sizes on open\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DocumentDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.FetchTimeout = viper.GetDuration("fetchtimeout")
	cfg.DefaultPageHeight = viper.GetFloat64("defaultpageheight")
	cfg.SidebarOffset = viper.GetFloat64("sidebaroffset")
	cfg.AssumeNaturalSize = viper.GetBool("naturalsize")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters when listening
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DocumentDirectory == "" {
		return errors.New("document directory cannot be empty")
	}

	// Check if the directory exists, create if it doesn't
	if _, err := os.Stat(c.DocumentDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DocumentDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create document directory %s: %w", c.DocumentDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access document directory %s: %w", c.DocumentDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}

	if c.DefaultPageHeight <= 0 {
		return errors.New("default page height must be positive")
	}

	if c.SidebarOffset < 0 {
		return errors.New("sidebar offset cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// SlogLevel maps LogLevel onto a slog level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, DocumentDirectory: %s, LogLevel: %s, "+
		"MaxFileSize: %d, FetchTimeout: %s, DefaultPageHeight: %g, SidebarOffset: %g, AssumeNaturalSize: %t}",
		c.Mode, c.Host, c.Port, c.DocumentDirectory, c.LogLevel,
		c.MaxFileSize, c.FetchTimeout, c.DefaultPageHeight, c.SidebarOffset, c.AssumeNaturalSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
