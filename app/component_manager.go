package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/freicoin/freicoind/domain/blockimport"
	"github.com/freicoin/freicoind/domain/consensus"
	"github.com/freicoin/freicoind/infrastructure/config"
	infrastructuredatabase "github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/freicoin/freicoind/util/panics"
	"github.com/pkg/errors"
)

// ComponentManager is a wrapper for all the freicoind services
type ComponentManager struct {
	cfg       *config.Config
	consensus consensus.Consensus
	importer  *blockimport.Importer

	ctx          context.Context
	cancel       context.CancelFunc
	backgroundWG sync.WaitGroup

	started, shutdown int32
}

// Start launches all the freicoind services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting freicoind")
	log.Infof("Active chain tip %s at height %d", a.consensus.TipHash(), a.consensus.TipHeight())

	if len(a.cfg.LoadBlocks) > 0 {
		a.backgroundWG.Add(1)
		spawn := panics.GoroutineWrapperFunc(log)
		spawn("ComponentManager.importBlocks", func() {
			defer a.backgroundWG.Done()
			a.importBlocks()
		})
	}
}

func (a *ComponentManager) importBlocks() {
	stats, err := a.importer.ImportFiles(a.ctx, a.cfg.LoadBlocks)
	if errors.Is(err, context.Canceled) {
		log.Infof("Block import interrupted")
		return
	}
	if err != nil {
		log.Errorf("Block import failed: %+v", err)
		return
	}
	log.Infof("Block import done: %d blocks processed, %d orphans, %d duplicates, %d rejected, "+
		"%d malformed. Tip is %s at height %d", stats.Processed, stats.Orphans, stats.Duplicates,
		stats.Rejected, stats.Malformed,
		a.consensus.TipHash(), a.consensus.TipHeight())
}

// Stop gracefully shuts down all the freicoind services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Freicoind is already in the process of shutting down")
		return
	}

	log.Warnf("Freicoind shutting down")

	a.cancel()
	a.backgroundWG.Wait()
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	consensusConfig := consensus.NewConfig(cfg.NetParams())
	consensusConfig.CheckpointsDisabled = cfg.NoCheckpoints
	consensusConfig.AssumeValid = cfg.AssumeValid
	consensusConfig.ScriptWorkers = cfg.ScriptWorkers
	consensusConfig.SigCacheMaxSize = cfg.SigCacheMaxSize
	consensusConfig.BlockCacheSize = cfg.BlockCacheSize
	consensusConfig.ValidationSink = validationLogger{}

	c, err := consensus.NewFactory().NewConsensus(consensusConfig, db)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ComponentManager{
		cfg:       cfg,
		consensus: c,
		importer:  blockimport.New(c, cfg.NetParams().Net),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Consensus returns the Consensus associated with this ComponentManager
func (a *ComponentManager) Consensus() consensus.Consensus {
	return a.consensus
}
