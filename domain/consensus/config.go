package consensus

import (
	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
)

// Default sizes of the consensus caches
const (
	DefaultBlockCacheSize = 100
	DefaultScriptWorkers  = 4
)

// Config is a descriptor for consensus configuration
type Config struct {
	chaincfg.Params

	// CheckpointsDisabled turns off the checkpoint and fork depth checks.
	CheckpointsDisabled bool

	// AssumeValid is the block whose ancestors skip script validation.
	// Nil falls back to the network default; the zero hash disables it.
	AssumeValid *externalapi.DomainHash

	ScriptWorkers   int
	SigCacheMaxSize int
	BlockCacheSize  int

	// TimeSource defaults to the local clock.
	TimeSource model.TimeSource

	// ValidationSink is notified of validation results. It may be nil.
	ValidationSink model.ValidationSink
}

// NewConfig returns a Config for params with the default cache sizes.
func NewConfig(params *chaincfg.Params) *Config {
	return &Config{
		Params:          *params,
		ScriptWorkers:   DefaultScriptWorkers,
		SigCacheMaxSize: txscript.DefaultSigCacheMaxSize,
		BlockCacheSize:  DefaultBlockCacheSize,
	}
}
