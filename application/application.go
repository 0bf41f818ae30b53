package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lk2023060901/precompress-go/internal/pipeline"
	zlog "github.com/lk2023060901/precompress-go/pkg/log"
	"github.com/lk2023060901/precompress-go/pkg/metrics"
	"github.com/lk2023060901/precompress-go/pkg/util/hardware"
	zviper "github.com/lk2023060901/precompress-go/pkg/util/viper"
)

// Application is the runtime container for a precompress run.
// It owns configuration loading, logging setup and the pipeline itself.
type Application struct {
	cfg   *zviper.Config
	stats *pipeline.Stats
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run is the entry of the precompress application.
// It parses command-line arguments (os.Args) and loads configuration file
// using the following priority:
//  1. Default: ./config.yaml
//  2. Env: PRECOMPRESS_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
//
// It then runs one full precompression pass over the configured output tree.
// Task-level failures are reported through logs and counters only; Run
// returns an error just for configuration and scan problems.
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}

	metrics.Register(prometheus.DefaultRegisterer)

	opts := pipeline.DefaultOptions()
	if err := a.cfg.UnmarshalKey("precompress", opts); err != nil {
		return fmt.Errorf("failed to parse precompress config section: %w", err)
	}

	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	zlog.Info("precompress starting",
		zap.Int("cpus", hardware.GetCPUNum()),
		zap.Uint64("memory", hardware.GetMemoryCount()))

	stats, err := p.Run()
	a.stats = stats
	return err
}

// Stats returns the counters of the last completed run, if any.
func (a *Application) Stats() *pipeline.Stats {
	return a.stats
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath := "./config.yaml"

	if envPath := os.Getenv("PRECOMPRESS_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			val := strings.TrimPrefix(arg, "--config=")
			if val != "" {
				configPath = val
			}
			continue
		}
	}

	cfg := zviper.New()
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}

	return cfg, nil
}

// initLogging configures the process-wide logger.
//
// The base configuration comes from PRECOMPRESS_LOG_* env vars; a "logging"
// section in the config file, when present, takes precedence over env.
//
// Env vars:
//   - PRECOMPRESS_LOG_LEVEL: log level (default "info").
//   - PRECOMPRESS_LOG_STDOUT: whether to log to stdout (default true).
//   - PRECOMPRESS_LOG_FILE_DIR: log directory.
//   - PRECOMPRESS_LOG_FILE: log file name (empty means no file).
//   - PRECOMPRESS_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initLogging() error {
	cfg := &zlog.Config{
		Level:             getenvDefault("PRECOMPRESS_LOG_LEVEL", "info"),
		Format:            getenvDefault("PRECOMPRESS_LOG_FORMAT", "text"),
		DisableTimestamp:  false,
		Stdout:            getenvBool("PRECOMPRESS_LOG_STDOUT", true),
		DisableCaller:     false,
		DisableStacktrace: false,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("PRECOMPRESS_LOG_FILE_DIR", ""),
			Filename: getenvDefault("PRECOMPRESS_LOG_FILE", ""),
		},
	}

	if a.cfg != nil {
		if err := a.cfg.UnmarshalKey("logging", cfg); err != nil {
			return fmt.Errorf("failed to parse logging config section: %w", err)
		}
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
