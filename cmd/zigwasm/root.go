package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/woxQAQ/zig-wasm/internal/config"
	"github.com/woxQAQ/zig-wasm/internal/plugin"
	"github.com/woxQAQ/zig-wasm/internal/toolchain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	toolchain *toolchain.Toolchain
	config    *config.Config
	logger    *zap.Logger
}

func newApp() *app {
	return &app{toolchain: toolchain.Default()}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "zigwasm",
		Short: "Compile zig sources to WebAssembly for JavaScript bundles",
		Long: `zigwasm compiles zig sources to wasm32-freestanding modules and
generates the JavaScript loaders that instantiate or compile them.

Imports ending in .zig?init resolve to a function returning a
WebAssembly.Instance; imports ending in .zig?compile resolve to one
returning a WebAssembly.Module.`,
		Version:           getVersionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newBuildCommand(a),
		newLoaderCommand(a),
		newBundleCommand(a),
		newDoctorCommand(a),
		newInspectCommand(a),
		newTypesCommand(a),
		newConfigCommand(a),
	)
	return root
}

func getVersionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := newLogger(level)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger builds a console logger on stderr so stdout stays clean for
// generated output.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg.Build()
}

// newPlugin creates a load-stage dispatcher from the loaded options.
func (a *app) newPlugin(optFns ...plugin.Option) *plugin.Plugin {
	optFns = append([]plugin.Option{
		plugin.WithLogger(a.logger),
		plugin.WithToolchain(a.toolchain),
	}, optFns...)
	return plugin.New(a.config.Options, optFns...)
}

// activate creates a dispatcher bound to the working directory.
func (a *app) activate(cmd *cobra.Command) (*plugin.Plugin, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	p := a.newPlugin()
	if _, err := p.Activate(cmd.Context(), wd); err != nil {
		return nil, err
	}
	return p, nil
}
