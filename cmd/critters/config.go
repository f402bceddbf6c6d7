package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"critters/internal/breeder"
	clog "critters/internal/log"
	"critters/internal/showcase"
	"critters/internal/storage"
)

const (
	defaultConfigFilename = "critters.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "critters.log"
	defaultSQLiteFilename = "critters.db"
	defaultLogLevel       = "info"
	defaultStore          = storage.KindMemory
)

var (
	defaultHomeDir    = appHomeDir()
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
	defaultSQLitePath = filepath.Join(defaultHomeDir, defaultSQLiteFilename)
)

// config defines the configuration options for critters.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ShowVersion      bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile       string        `short:"C" long:"configfile" description:"Path to configuration file"`
	LogDir           string        `long:"logdir" description:"Directory to log output"`
	DebugLevel       string        `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	Threads          int           `short:"t" long:"threads" description:"Number of scenes simulated in parallel"`
	Seed             int64         `long:"seed" description:"Random seed for the breeder; 0 picks one from the clock"`
	Population       int           `short:"p" long:"population" description:"Number of individuals bred every generation"`
	Generations      int           `short:"g" long:"generations" description:"Stop after this many generations; 0 runs until interrupted"`
	ReportEvery      int           `long:"reportevery" description:"Report progress every this many generations"`
	Store            string        `long:"store" description:"Report store backend {memory, sqlite}"`
	SQLitePath       string        `long:"sqlitepath" description:"Database file for the sqlite report store"`
	MetricsListen    string        `long:"metricslisten" description:"Serve prometheus metrics on this address (eg. localhost:9120)"`
	Showcase         bool          `long:"showcase" description:"Run a real-time scene with the current champions"`
	ShowcaseInterval time.Duration `long:"showcaseinterval" description:"How often the showcase picks up new champions"`
	ShowcaseCritters int           `long:"showcasecritters" description:"Number of critters in the showcase scene"`
	ShowcaseWidth    int           `long:"showcasewidth" description:"Width of the showcase scene; 0 keeps the stock size"`
	ShowcaseHeight   int           `long:"showcaseheight" description:"Height of the showcase scene; 0 keeps the stock size"`
	ExportDir        string        `long:"exportdir" description:"Write run artifacts to this directory when the run ends"`
}

// appHomeDir returns an OS appropriate home directory for critters.
func appHomeDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "critters")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".critters")
	}
	return "."
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultThreads() int {
	return max(runtime.NumCPU()-1, 1)
}

// policy maps the options onto the stock breeding policy.
func (cfg *config) policy() breeder.Policy {
	p := breeder.DefaultPolicy()
	p.Threads = cfg.Threads
	p.Seed = cfg.Seed
	p.PopulationSize = cfg.Population
	p.Generations = cfg.Generations
	p.ReportEvery = cfg.ReportEvery
	return p
}

func (cfg *config) showcase() showcase.Config {
	return showcase.Config{
		Critters: cfg.ShowcaseCritters,
		Interval: cfg.ShowcaseInterval,
		Width:    cfg.ShowcaseWidth,
		Height:   cfg.ShowcaseHeight,
	}
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// Command line options always take precedence.
func loadConfig(args []string) (*config, error) {
	stock := breeder.DefaultPolicy()
	cfg := config{
		ConfigFile:       defaultConfigFile,
		LogDir:           defaultLogDir,
		DebugLevel:       defaultLogLevel,
		Threads:          defaultThreads(),
		Population:       stock.PopulationSize,
		ReportEvery:      stock.ReportEvery,
		Store:            defaultStore,
		SQLitePath:       defaultSQLitePath,
		ShowcaseInterval: showcase.DefaultInterval,
		ShowcaseCritters: showcase.DefaultCritters,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, err
	}

	if preCfg.ShowVersion {
		return &preCfg, nil
	}

	// Load additional config from file. A missing file is not an error.
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	err := flags.NewIniParser(parser).ParseFile(cleanAndExpandPath(preCfg.ConfigFile))
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("loadConfig: %w", err)
		}
		log.Debugf("No configuration file: %v", err)
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(remainingArgs) > 0 {
		return nil, fmt.Errorf("loadConfig: unexpected arguments %v", remainingArgs)
	}

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.SQLitePath = cleanAndExpandPath(cfg.SQLitePath)
	if cfg.ExportDir != "" {
		cfg.ExportDir = cleanAndExpandPath(cfg.ExportDir)
	}

	if err := clog.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, fmt.Errorf("loadConfig: %w", err)
	}

	if cfg.Threads < 1 {
		return nil, fmt.Errorf("loadConfig: the threads option must be at "+
			"least 1 -- parsed [%d]", cfg.Threads)
	}

	if !slices.Contains(storage.Kinds(), cfg.Store) {
		return nil, fmt.Errorf("loadConfig: the specified store [%v] is "+
			"invalid -- supported stores %v", cfg.Store, storage.Kinds())
	}

	if err := cfg.policy().Validate(); err != nil {
		return nil, fmt.Errorf("loadConfig: %w", err)
	}

	if cfg.ShowcaseCritters < 1 {
		return nil, fmt.Errorf("loadConfig: the showcasecritters option "+
			"must be at least 1 -- parsed [%d]", cfg.ShowcaseCritters)
	}
	if cfg.ShowcaseWidth < 0 || cfg.ShowcaseHeight < 0 {
		return nil, fmt.Errorf("loadConfig: the showcase dimensions may not "+
			"be negative -- parsed [%dx%d]", cfg.ShowcaseWidth, cfg.ShowcaseHeight)
	}
	if cfg.ShowcaseInterval < time.Second {
		return nil, fmt.Errorf("loadConfig: the showcaseinterval option may "+
			"not be less than 1s -- parsed [%v]", cfg.ShowcaseInterval)
	}

	return &cfg, nil
}
