package transactionvalidator

import (
	"runtime"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
)

// transactionValidator exposes a set of validation classes, after which
// it's possible to determine whether either a transaction is valid
type transactionValidator struct {
	params   *chaincfg.Params
	sigCache *txscript.SigCache

	// scriptWorkers bounds the number of inputs whose scripts are checked
	// at the same time.
	scriptWorkers int
}

// New instantiates a new TransactionValidator. A non-positive
// scriptWorkers uses one worker per CPU.
func New(params *chaincfg.Params, sigCache *txscript.SigCache, scriptWorkers int) model.TransactionValidator {
	if scriptWorkers <= 0 {
		scriptWorkers = runtime.NumCPU()
	}
	return &transactionValidator{
		params:        params,
		sigCache:      sigCache,
		scriptWorkers: scriptWorkers,
	}
}
