package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kinectxr/internal/bridge"
	"kinectxr/internal/common/fsutil"
	"kinectxr/internal/config"
	"kinectxr/internal/device"
	"kinectxr/internal/rlog"
)

// defaultPort matches spec.md §6's bridge wire protocol default.
const defaultPort = 8765

// exitError pairs a message with one of the spec's fixed exit codes.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) ExitCode() int { return e.code }

// cliConfig holds the flags/env/config-file-resolved settings the run
// command acts on. Grounded on internal/testctl/cobra_root.go's
// persistent-flags-into-a-Config-struct shape.
type cliConfig struct {
	Port        int
	AddrOverride string
	Mock        bool
	DeviceIndex int
	LogLevel    string
	ConfigFile  string
}

// addr resolves the effective listen address: an explicit AddrOverride
// (from a config file's "addr" field) wins over Port.
func (c *cliConfig) addr() string {
	if c.AddrOverride != "" {
		return c.AddrOverride
	}
	return fmt.Sprintf(":%d", c.Port)
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func buildRootCmd() *cobra.Command {
	cfg := &cliConfig{
		Port:        envInt("KINECTXR_PORT", defaultPort),
		Mock:        envBool("KINECTXR_MOCK", false),
		DeviceIndex: envInt("KINECTXR_DEVICE_INDEX", 0),
		LogLevel:    envStr("KINECTXR_LOG_LEVEL", "info"),
	}

	root := &cobra.Command{
		Use:           "kinectxr-bridge",
		Short:         "Stream Kinect color/depth frames and mediate motor/LED commands over websocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, cmd.Flags().Changed)
		},
	}

	root.PersistentFlags().IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	root.PersistentFlags().BoolVar(&cfg.Mock, "mock", cfg.Mock, "synthesize frames, no device required")
	root.PersistentFlags().IntVar(&cfg.DeviceIndex, "device-index", cfg.DeviceIndex, "USB device index to open")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace|debug|info|warn|error")
	root.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "optional YAML/JSON/TOML config file; flags override it")

	return root
}

func runServe(ctx context.Context, cfg *cliConfig, flagSet func(name string) bool) error {
	if cfg.ConfigFile != "" {
		path, err := fsutil.ExpandHome(cfg.ConfigFile)
		if err != nil {
			return &exitError{code: 1, err: fmt.Errorf("resolve config path: %w", err)}
		}
		if !fsutil.PathExists(path) {
			return &exitError{code: 1, err: fmt.Errorf("config file %q does not exist", path)}
		}
		fileCfg, err := config.Load(path)
		if err != nil {
			return &exitError{code: 1, err: fmt.Errorf("load config: %w", err)}
		}
		applyFileConfig(cfg, fileCfg, flagSet)
	}

	rlog.Set(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(parseZerologLevel(cfg.LogLevel)))

	drv := device.New(cfg.Mock)
	srv := bridge.New(drv, cfg.Mock, cfg.DeviceIndex)

	// Start never fails on a missing or unopenable device: the bridge comes
	// up regardless, and every motor handler reports DEVICE_NOT_CONNECTED
	// over the wire instead of the process refusing to run. See DESIGN.md.
	srv.Start()

	httpSrv := &http.Server{
		Addr:    cfg.addr(),
		Handler: srv.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		rlog.Get().Info().Str("addr", cfg.addr()).Bool("mock", cfg.Mock).Msg("kinectxr-bridge listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return &exitError{code: 1, err: err}
	case <-stop:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		rlog.Get().Warn().Err(err).Msg("graceful HTTP shutdown error")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rlog.Get().Warn().Err(err).Msg("graceful server shutdown error")
	}
	return nil
}

// applyFileConfig copies set config-file fields into cfg, skipping any field
// whose flag was given explicitly on the command line.
func applyFileConfig(cfg *cliConfig, fileCfg config.Config, flagSet func(name string) bool) {
	if fileCfg.Addr != "" && !flagSet("port") {
		cfg.AddrOverride = fileCfg.Addr
	}
	if fileCfg.Mock && !flagSet("mock") {
		cfg.Mock = true
	}
	if fileCfg.DeviceIndex != 0 && !flagSet("device-index") {
		cfg.DeviceIndex = fileCfg.DeviceIndex
	}
	if fileCfg.LogLevel != "" && !flagSet("log-level") {
		cfg.LogLevel = fileCfg.LogLevel
	}
}

func parseZerologLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
