// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/freicoin/freicoind/infrastructure/config"
	"github.com/freicoin/freicoind/infrastructure/logger"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultDataFile   = "bootstrap.dat"
	defaultProgress   = 10
	defaultDbCacheMiB = 64
	defaultLogLevel   = "info"
)

var defaultDataDir = filepath.Join(config.DefaultHomeDir, "data")

// ConfigFlags defines the configuration options for addblock.
//
// See loadConfig for details on the configuration load process.
type ConfigFlags struct {
	DataDir       string `short:"b" long:"datadir" description:"Location of the freicoind data directory"`
	InFile        string `short:"i" long:"infile" description:"File containing the block(s)"`
	Progress      int    `short:"p" long:"progress" description:"Show a progress message each time this number of seconds have passed -- Use 0 to disable progress announcements"`
	DbCacheMiB    int    `long:"dbcache" description:"Database cache size in MiB"`
	ScriptWorkers int    `long:"par" description:"Number of script verification workers"`
	NoCheckpoints bool   `long:"nocheckpoints" description:"Disable the checkpoint and fork depth checks"`
	LogLevel      string `short:"d" long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	config.NetworkFlags
}

// filesExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// loadConfig initializes and parses the config using command line options.
func loadConfig(args []string) (*ConfigFlags, error) {
	cfg := &ConfigFlags{
		DataDir:       defaultDataDir,
		InFile:        defaultDataFile,
		Progress:      defaultProgress,
		DbCacheMiB:    defaultDbCacheMiB,
		ScriptWorkers: 4,
		LogLevel:      defaultLogLevel,
	}

	// Parse command line options.
	parser := flags.NewParser(cfg, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	if _, ok := logger.LevelFromString(cfg.LogLevel); !ok {
		str := "%s: The specified log level [%s] is invalid"
		err := errors.Errorf(str, "loadConfig", cfg.LogLevel)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	if cfg.Progress < 0 || cfg.ScriptWorkers <= 0 || cfg.DbCacheMiB <= 0 {
		str := "%s: --progress may not be negative, --par and --dbcache must be positive"
		err := errors.Errorf(str, "loadConfig")
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	// Append the network type to the data directory so it is "namespaced"
	// per network, the same way freicoind lays it out.
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.NetParams().Name)

	// Ensure the specified block file exists.
	if !fileExists(cfg.InFile) {
		str := "%s: The specified block file [%s] does not exist"
		err := errors.Errorf(str, "loadConfig", cfg.InFile)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	return cfg, nil
}
