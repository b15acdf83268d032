package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"phistack/internal/capability"
	"phistack/internal/catalog"
	"phistack/internal/config"
	"phistack/internal/gpu"
	"phistack/internal/logging"
	"phistack/internal/modelcache"
)

var version = "0.1.0-dev"

// app carries global flags and the objects built from the loaded config.
type app struct {
	configPath   string
	cacheDir     string
	logLevel     string
	fetchTimeout time.Duration

	cfg     config.Config
	logger  *logging.Logger
	catalog *catalog.Catalog
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "phistack",
		Short:         "Local Phi model catalog, cache and capability advisor",
		Long:          "phistack manages Microsoft Phi model artifacts on this machine, checks whether the host can run them, and offers a chat shell backed by a local inference endpoint.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default: system and user config)")
	pf.StringVar(&a.cacheDir, "cache-dir", "", "model cache directory")
	pf.DurationVar(&a.fetchTimeout, "fetch-timeout", 0, "per-fetch timeout, e.g. 10m")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newModelsCmd(a),
		newSystemCmd(a),
		newCheckCmd(a),
		newCacheCmd(a),
		newChatCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newDiagCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) load() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFrom(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.cacheDir != "" {
		a.cfg.Cache.Dir = a.cacheDir
	}
	if a.fetchTimeout > 0 {
		a.cfg.Cache.FetchTimeout = a.fetchTimeout
	}
	if a.logLevel != "" {
		a.cfg.Logging.Level = a.logLevel
	}

	level := logging.ParseLevel(a.cfg.Logging.Level)
	format := logging.Format(a.cfg.Logging.Format)
	if a.cfg.Logging.File != "" {
		a.logger, err = logging.NewFileLogger(level, format, a.cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	} else {
		a.logger = logging.NewWriterLogger(level, format, os.Stderr)
	}

	a.catalog, err = catalog.Load(a.cfg.Catalog.File)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	return nil
}

func (a *app) cacheManager(recorder modelcache.Recorder) (*modelcache.Manager, error) {
	var fetcher modelcache.Fetcher = modelcache.UnavailableFetcher{}
	if a.cfg.Cache.MirrorDir != "" {
		fetcher = modelcache.NewMirrorFetcher(a.cfg.Cache.MirrorDir)
	}
	return modelcache.NewManager(modelcache.Options{
		Root:         a.cfg.Cache.Dir,
		StateDir:     a.cfg.Cache.StateDir,
		Fetcher:      fetcher,
		FetchTimeout: a.cfg.Cache.FetchTimeout,
		Logger:       a.logger,
		Recorder:     recorder,
	})
}

func (a *app) advisor(observer capability.ProfileObserver) *capability.Advisor {
	prober := capability.NewHostProber(gpu.NewDetector(a.logger))
	return capability.NewAdvisor(prober, a.cfg.DiskProbePath(), a.logger, observer)
}

// variant resolves id, falling back to the configured default model.
func (a *app) variant(id string) (catalog.ModelVariant, error) {
	if id == "" {
		id = a.cfg.Catalog.DefaultModel
	}
	return a.catalog.ByID(id)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phistack version %s\n", version)
		},
	}
}
