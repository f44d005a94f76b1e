// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"testing"

	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/pow"
	"github.com/pkg/errors"
)

// TestInvalidHashStr ensures the newHashFromStr function panics when used to
// with an invalid hash string.
func TestInvalidHashStr(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid hash, got nil")
		}
	}()
	newHashFromStr("banana")
}

// TestMustRegisterPanic ensures the mustRegister function panics when used to
// register an invalid network.
func TestMustRegisterPanic(t *testing.T) {
	t.Parallel()

	// Setup a defer to catch the expected panic to ensure it actually
	// paniced.
	defer func() {
		if err := recover(); err == nil {
			t.Error("mustRegister did not panic as expected")
		}
	}()

	// Intentionally try to register duplicate params to force a panic.
	mustRegister(&MainnetParams)
}

func TestGenesisBlocks(t *testing.T) {
	const merkleRoot = "f53b1baa971ea40be88cf51288aabd700dfec96c486bf7155a53a4919af4c8bd"

	for _, params := range []*Params{&MainnetParams, &TestnetParams, &RegressionNetParams} {
		block := params.GenesisBlock
		if block.Header.MerkleRoot.String() != merkleRoot {
			t.Fatalf("TestGenesisBlocks: %s: unexpected merkle root %s", params.Name, block.Header.MerkleRoot)
		}
		hash := consensushashing.BlockHash(block)
		if !hash.Equal(params.GenesisHash) {
			t.Fatalf("TestGenesisBlocks: %s: genesis hashes to %s, want %s", params.Name, hash, params.GenesisHash)
		}
		if err := pow.CheckProofOfWork(hash, block.Header.Bits, params.PowLimit); err != nil {
			t.Fatalf("TestGenesisBlocks: %s: %s", params.Name, err)
		}
		if block.Header.Bits != params.PowLimitBits {
			t.Fatalf("TestGenesisBlocks: %s: genesis bits %08x, want %08x", params.Name, block.Header.Bits,
				params.PowLimitBits)
		}

		coinbase := block.Transactions[0]
		if !coinbase.IsCoinBase() || len(coinbase.Outputs) != 8 || coinbase.LockHeight != 0 {
			t.Fatalf("TestGenesisBlocks: %s: unexpected genesis coinbase shape", params.Name)
		}
	}
}

func TestCheckpoints(t *testing.T) {
	last := MainnetParams.LastCheckpoint()
	if last == nil || last.Height != 302400 || !last.Hash.Equal(MainnetParams.DefaultAssumeValid) {
		t.Fatalf("TestCheckpoints: unexpected last main checkpoint %+v", last)
	}
	for i := 1; i < len(MainnetParams.Checkpoints); i++ {
		if MainnetParams.Checkpoints[i-1].Height >= MainnetParams.Checkpoints[i].Height {
			t.Fatalf("TestCheckpoints: checkpoints out of order at %d", i)
		}
	}

	hash, ok := MainnetParams.CheckpointAtHeight(28336)
	if !ok || hash.String() != "000000000000cc374a984c0deec9aed6fff764918e2cfd4be6670dd4d5292ccb" {
		t.Fatalf("TestCheckpoints: missing checkpoint at 28336")
	}
	if _, ok := MainnetParams.CheckpointAtHeight(28337); ok {
		t.Fatalf("TestCheckpoints: unexpected checkpoint at 28337")
	}

	genesis, ok := RegressionNetParams.CheckpointAtHeight(0)
	if !ok || !genesis.Equal(RegressionNetParams.GenesisHash) {
		t.Fatalf("TestCheckpoints: regtest genesis is not checkpointed")
	}
}

func TestParamsForName(t *testing.T) {
	for _, name := range []string{"main", "test", "regtest"} {
		params, err := ParamsForName(name)
		if err != nil {
			t.Fatalf("TestParamsForName: %s: %s", name, err)
		}
		if params.Name != name {
			t.Fatalf("TestParamsForName: asked for %s, got %s", name, params.Name)
		}
	}

	_, err := ParamsForName("simnet")
	if !errors.Is(err, ErrUnknownNet) {
		t.Fatalf("TestParamsForName: expected ErrUnknownNet, got %v", err)
	}
}

func TestUpdateBIP9Parameters(t *testing.T) {
	params := RegressionNetParams
	err := params.UpdateBIP9Parameters(DeploymentSegwit, 10, 20)
	if err != nil {
		t.Fatalf("TestUpdateBIP9Parameters: %s", err)
	}
	if params.Deployments[DeploymentSegwit].StartTime != 10 || params.Deployments[DeploymentSegwit].Timeout != 20 {
		t.Fatalf("TestUpdateBIP9Parameters: deployment was not updated")
	}
	if RegressionNetParams.Deployments[DeploymentSegwit].StartTime != 0 {
		t.Fatalf("TestUpdateBIP9Parameters: the registered params were modified")
	}

	if err := params.UpdateBIP9Parameters(DefinedDeployments, 0, 1); err == nil {
		t.Fatalf("TestUpdateBIP9Parameters: out of range deployment accepted")
	}

	mainnet := MainnetParams
	if err := mainnet.UpdateBIP9Parameters(DeploymentSegwit, 10, 20); err == nil {
		t.Fatalf("TestUpdateBIP9Parameters: main network deployments were overridden")
	}
}

func TestDeploymentNames(t *testing.T) {
	for deployment := 0; deployment < DefinedDeployments; deployment++ {
		found, err := DeploymentByName(DeploymentName(deployment))
		if err != nil || found != deployment {
			t.Fatalf("TestDeploymentNames: %d does not round trip through its name", deployment)
		}
	}
	if _, err := DeploymentByName("bip9000"); err == nil {
		t.Fatalf("TestDeploymentNames: unknown deployment name accepted")
	}
}
