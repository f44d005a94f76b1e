// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/btcsuite/btcutil"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/freicoin/freicoind/version"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultConfigFilename = "freicoind.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "freicoind.log"
	defaultErrLogFilename = "freicoind_err.log"
	defaultDbCacheMiB     = 64
	defaultSigCacheSize   = 100000
	defaultBlockCacheSize = 100

	// maxScriptWorkers caps --par. A value of 0 means one worker per CPU.
	maxScriptWorkers = 16
)

var (
	// DefaultHomeDir is the default home directory for freicoind.
	DefaultHomeDir = btcutil.AppDataDir("freicoind", false)

	defaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

// Flags defines the configuration options for freicoind.
//
// See loadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion     bool     `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile      string   `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir         string   `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir          string   `long:"logdir" description:"Directory to log output."`
	DebugLevel      string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	DbCacheMiB      int      `long:"dbcache" description:"Database cache size in MiB"`
	ScriptWorkers   int      `long:"par" description:"Number of script verification workers (0 = one per CPU, at most 16)"`
	SigCacheMaxSize int      `long:"sigcachemaxsize" description:"The maximum number of entries in the signature verification cache"`
	BlockCacheSize  int      `long:"blockcachesize" description:"The number of deserialized blocks to keep in memory"`
	NoCheckpoints   bool     `long:"nocheckpoints" description:"Disable the checkpoint and fork depth checks"`
	AssumeValid     string   `long:"assumevalid" description:"Skip script checks for ancestors of this block hash (0 to verify all scripts)"`
	LoadBlocks      []string `long:"loadblock" description:"Import blocks from an external block file on startup"`
	Profile         string   `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
	NetworkFlags
}

// Config defines the configuration options for freicoind.
//
// See loadConfig for details on the configuration load process.
type Config struct {
	*Flags

	// AssumeValid is the parsed --assumevalid. Nil means the network
	// default and the zero hash disables the optimisation.
	AssumeValid *externalapi.DomainHash
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:      defaultConfigFile,
		DataDir:         defaultDataDir,
		LogDir:          defaultLogDir,
		DebugLevel:      defaultLogLevel,
		DbCacheMiB:      defaultDbCacheMiB,
		SigCacheMaxSize: defaultSigCacheSize,
		BlockCacheSize:  defaultBlockCacheSize,
	}
}

// LoadConfig parses the configuration from the config file and the command
// line, then starts the log backend in the configured log directory.
func LoadConfig() (*Config, error) {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Initialize log rotation. After log rotation has been initialized, the
	// logger variables may be used.
	logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename), filepath.Join(cfg.LogDir, defaultErrLogFilename))

	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}
	return cfg, nil
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
// The above results in freicoind functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options. Command line options always take
// precedence.
func loadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified. Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			return nil, err
		}
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file. A missing file is only worth a
	// warning.
	var configFileError error
	parser := flags.NewParser(cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %s\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags}
	funcName := "loadConfig"

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	// Namespace the data and log directories per network.
	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	for i, path := range cfg.LoadBlocks {
		cfg.LoadBlocks[i] = cleanAndExpandPath(path)
	}

	if cfg.ScriptWorkers < 0 {
		str := "%s: the --par option may not be negative -- parsed [%d]"
		err := errors.Errorf(str, funcName, cfg.ScriptWorkers)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}
	if cfg.ScriptWorkers == 0 {
		cfg.ScriptWorkers = runtime.NumCPU()
	}
	if cfg.ScriptWorkers > maxScriptWorkers {
		cfg.ScriptWorkers = maxScriptWorkers
	}

	if cfg.SigCacheMaxSize <= 0 || cfg.BlockCacheSize <= 0 || cfg.DbCacheMiB <= 0 {
		str := "%s: --sigcachemaxsize, --blockcachesize and --dbcache must be positive"
		err := errors.Errorf(str, funcName)
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return nil, err
	}

	if cfg.Flags.AssumeValid != "" {
		cfg.AssumeValid, err = parseAssumeValid(cfg.Flags.AssumeValid)
		if err != nil {
			err := errors.Errorf("%s: %s", funcName, err)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Validate profile port number
	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			str := "%s: The profile port must be between 1024 and 65535"
			err := errors.Errorf(str, funcName)
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, err
		}
	}

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		log.Warnf("%s", configFileError)
	}

	return cfg, nil
}

// parseAssumeValid parses a block hash in its usual byte-reversed hex
// form. "0" stands for the zero hash.
func parseAssumeValid(value string) (*externalapi.DomainHash, error) {
	if value == "0" {
		return &externalapi.DomainHash{}, nil
	}
	hash, err := externalapi.NewDomainHashFromString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "the --assumevalid value [%s] is not a block hash", value)
	}
	return hash, nil
}
