// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/freicoin/freicoind/app"
	"github.com/freicoin/freicoind/domain/blockimport"
	"github.com/freicoin/freicoind/domain/consensus"
	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/freicoin/freicoind/infrastructure/os/signal"
)

var log = logger.RegisterSubSystem("ADDB")

// realMain is the real main function for the utility. It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func realMain() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logLevel, _ := logger.LevelFromString(cfg.LogLevel)
	logger.InitLogStdout(logLevel)
	defer logger.BackendLog.Close()

	db, err := app.OpenDatabase(cfg.DataDir, cfg.DbCacheMiB)
	if err != nil {
		log.Errorf("Failed to open the database: %+v", err)
		return err
	}
	defer db.Close()

	consensusConfig := consensus.NewConfig(cfg.NetParams())
	consensusConfig.CheckpointsDisabled = cfg.NoCheckpoints
	consensusConfig.ScriptWorkers = cfg.ScriptWorkers
	c, err := consensus.NewFactory().NewConsensus(consensusConfig, db)
	if err != nil {
		log.Errorf("Failed to load the chain state: %+v", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupt := signal.InterruptListener()
	go func() {
		select {
		case <-interrupt:
			cancel()
		case <-ctx.Done():
		}
	}()

	importer := blockimport.New(c, cfg.NetParams().Net)
	importer.SetProgressInterval(time.Duration(cfg.Progress) * time.Second)

	log.Infof("Importing blocks from %s into %s", cfg.InFile, cfg.DataDir)
	stats, err := importer.ImportFiles(ctx, []string{cfg.InFile})
	if err != nil {
		log.Errorf("Import failed: %+v", err)
		return err
	}
	log.Infof("Processed a total of %d blocks (%d orphans, %d duplicates, %d rejected, %d malformed)",
		stats.Processed+stats.Orphans+stats.Duplicates+stats.Rejected, stats.Orphans, stats.Duplicates,
		stats.Rejected, stats.Malformed)
	log.Infof("Active chain tip is %s at height %d", c.TipHash(), c.TipHeight())
	return nil
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
