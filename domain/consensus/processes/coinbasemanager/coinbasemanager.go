package coinbasemanager

import (
	"bytes"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/amount"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/pkg/errors"
)

type coinbaseManager struct {
	params *chaincfg.Params
}

// New instantiates a new CoinbaseManager
func New(params *chaincfg.Params) model.CoinbaseManager {
	return &coinbaseManager{
		params: params,
	}
}

// BlockSubsidy returns the newly minted value a block at height may claim.
//
// Networks with a halving interval halve the perpetual subsidy every
// interval. Otherwise the perpetual subsidy is paid forever, plus an excess
// that declines linearly to zero at the equilibrium height.
func (c *coinbaseManager) BlockSubsidy(height int32) int64 {
	if c.params.SubsidyHalvingInterval != 0 {
		halvings := height / c.params.SubsidyHalvingInterval
		if halvings >= 64 {
			return 0
		}
		return c.params.PerpetualSubsidy >> uint(halvings)
	}

	subsidy := c.params.PerpetualSubsidy
	if height < c.params.EquilibriumHeight {
		remaining := int64(c.params.EquilibriumHeight - height)
		subsidy += c.params.InitialExcessSubsidy * remaining / int64(c.params.EquilibriumHeight)
	}
	return subsidy
}

// ValidateCoinbaseHeight checks the height commitments of a coinbase: its
// lock height equals the block height and, when checkScript is set, its
// signature script starts with the serialized block height (BIP34).
func (c *coinbaseManager) ValidateCoinbaseHeight(coinbase *externalapi.DomainTransaction, height int32,
	checkScript bool) error {

	if checkScript {
		expected, err := txscript.NewScriptBuilder().AddInt64(int64(height)).Script()
		if err != nil {
			return err
		}
		sigScript := coinbase.Inputs[0].SignatureScript
		if !bytes.HasPrefix(sigScript, expected) {
			return errors.Wrapf(ruleerrors.ErrBadCoinbaseHeight, "coinbase signature script %x does not "+
				"start with the serialized block height %d", sigScript, height)
		}
	}
	if int64(coinbase.LockHeight) != int64(height) {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseLockHeight, "coinbase lock height %d does not "+
			"match the block height %d", coinbase.LockHeight, height)
	}
	return nil
}

// ValidateCoinbaseClaim checks the coinbase pays out no more than the
// subsidy plus the demurrage-adjusted fees of the block.
func (c *coinbaseManager) ValidateCoinbaseClaim(coinbase *externalapi.DomainTransaction, height int32,
	fees int64) error {

	allowed, err := amount.Add(c.BlockSubsidy(height), fees)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadFees, "block fees of %d are out of range", fees)
	}

	var claimed int64
	for _, output := range coinbase.Outputs {
		claimed, err = amount.Add(claimed, output.Value)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrBadCoinbaseAmount, "coinbase outputs overflow")
		}
	}
	if claimed > allowed {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseAmount, "coinbase pays %d which is more than "+
			"the allowed %d", claimed, allowed)
	}
	return nil
}
