package consensus

import (
	"os"
	"sync"

	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindexstore"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockstore"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/coinsstore"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/undostore"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/processes/blockprocessor"
	"github.com/freicoin/freicoind/domain/consensus/processes/blockvalidator"
	"github.com/freicoin/freicoind/domain/consensus/processes/coinbasemanager"
	"github.com/freicoin/freicoind/domain/consensus/processes/consensusstatemanager"
	"github.com/freicoin/freicoind/domain/consensus/processes/difficultymanager"
	"github.com/freicoin/freicoind/domain/consensus/processes/pastmediantimemanager"
	"github.com/freicoin/freicoind/domain/consensus/processes/transactionvalidator"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/freicoin/freicoind/domain/consensus/utils/versionbits"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/freicoin/freicoind/infrastructure/db/database/ldb"
	"github.com/pkg/errors"
)

const testDatabaseCacheSizeMiB = 8

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db database.Database) (Consensus, error)
	NewTestConsensus(config *Config, testName string) (
		tc TestConsensus, teardown func(keepDataDir bool), err error)

	SetTestDataDir(dataDir string)
}

type factory struct {
	dataDir string
}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus over db and loads its chain
// state, initializing db with the genesis block when it is empty.
func (f *factory) NewConsensus(config *Config, db database.Database) (Consensus, error) {
	c, err := f.newConsensus(config, db)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (f *factory) newConsensus(config *Config, db database.Database) (*consensus, error) {
	params := &config.Params

	// Data Structures
	blockStore, err := blockstore.New(config.BlockCacheSize)
	if err != nil {
		return nil, err
	}
	undoStore := undostore.New()
	coinsStore := coinsstore.New()
	blockIndexStore := blockindexstore.New()
	blockIndex := blockindex.New()

	sigCache, err := txscript.NewSigCache(config.SigCacheMaxSize)
	if err != nil {
		return nil, err
	}
	timeSource := config.TimeSource
	if timeSource == nil {
		timeSource = pastmediantimemanager.NewTimeSource()
	}
	var sink model.ValidationSink = nopSink{}
	if config.ValidationSink != nil {
		sink = config.ValidationSink
	}
	assumeValid := config.AssumeValid
	if assumeValid == nil {
		assumeValid = params.DefaultAssumeValid
	} else if assumeValid.IsZero() {
		assumeValid = nil
	}

	// Processes
	versionBitsCache := versionbits.NewCache(params)
	difficultyManager := difficultymanager.New(params)
	pastMedianTimeManager := pastmediantimemanager.New(blockIndex, timeSource)
	transactionValidator := transactionvalidator.New(params, sigCache, config.ScriptWorkers)
	coinbaseManager := coinbasemanager.New(params)
	blockValidator := blockvalidator.New(params,
		!config.CheckpointsDisabled,
		blockIndex,
		versionBitsCache,
		difficultyManager,
		pastMedianTimeManager,
		transactionValidator,
		coinbaseManager)
	consensusStateManager := consensusstatemanager.New(
		db,
		params,
		blockIndex,
		assumeValid,
		blockValidator,
		transactionValidator,
		coinbaseManager,
		blockStore,
		undoStore,
		coinsStore,
		blockIndexStore,
		sink)
	blockProcessor := blockprocessor.New(
		params,
		db,
		blockIndex,
		blockValidator,
		consensusStateManager,
		blockStore,
		blockIndexStore,
		sink)

	c := &consensus{
		lock:            &sync.Mutex{},
		params:          params,
		databaseContext: db,

		blockIndex:       blockIndex,
		versionBitsCache: versionBitsCache,

		blockProcessor:        blockProcessor,
		blockValidator:        blockValidator,
		consensusStateManager: consensusStateManager,
		difficultyManager:     difficultyManager,
		pastMedianTimeManager: pastMedianTimeManager,
		coinbaseManager:       coinbaseManager,

		blockStore: blockStore,
		undoStore:  undoStore,
		coinsStore: coinsStore,
	}

	err = consensusStateManager.LoadChainState()
	if err != nil {
		return nil, errors.Wrap(err, "loading the chain state")
	}
	return c, nil
}

func (f *factory) NewTestConsensus(config *Config, testName string) (
	tc TestConsensus, teardown func(keepDataDir bool), err error) {

	datadir := f.dataDir
	if datadir == "" {
		datadir, err = os.MkdirTemp("", testName)
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := ldb.NewLevelDB(datadir, testDatabaseCacheSizeMiB)
	if err != nil {
		return nil, nil, err
	}

	c, err := f.newConsensus(config, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	tstConsensus := &testConsensus{
		consensus:  c,
		database:   db,
		extraNonce: 0,
	}

	teardown = func(keepDataDir bool) {
		db.Close()
		if !keepDataDir {
			err := os.RemoveAll(datadir)
			if err != nil {
				log.Errorf("Error removing data directory for test consensus: %s", err)
			}
		}
	}
	return tstConsensus, teardown, nil
}

// SetTestDataDir makes NewTestConsensus open its database in dataDir
// instead of a fresh temporary directory. Tests use it to reopen the state
// a previous consensus left behind.
func (f *factory) SetTestDataDir(dataDir string) {
	f.dataDir = dataDir
}

