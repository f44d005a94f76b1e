package coinbasemanager

import (
	"testing"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

func TestBlockSubsidy(t *testing.T) {
	tests := []struct {
		name     string
		params   *chaincfg.Params
		height   int32
		expected int64
	}{
		{name: "main genesis", params: &chaincfg.MainnetParams, height: 0,
			expected: 9536743164 + 15916928404},
		{name: "main halfway", params: &chaincfg.MainnetParams, height: 80640,
			expected: 9536743164 + 15916928404/2},
		{name: "main last excess", params: &chaincfg.MainnetParams, height: 161279,
			expected: 9536743164 + 15916928404/161280},
		{name: "main equilibrium", params: &chaincfg.MainnetParams, height: 161280, expected: 9536743164},
		{name: "main far future", params: &chaincfg.MainnetParams, height: 10000000, expected: 9536743164},
		{name: "regtest first era", params: &chaincfg.RegressionNetParams, height: 149, expected: 5000000000},
		{name: "regtest second era", params: &chaincfg.RegressionNetParams, height: 150, expected: 2500000000},
		{name: "regtest exhausted", params: &chaincfg.RegressionNetParams, height: 150 * 64, expected: 0},
	}
	for _, test := range tests {
		subsidy := New(test.params).BlockSubsidy(test.height)
		if subsidy != test.expected {
			t.Errorf("TestBlockSubsidy: %s: expected %d, got %d", test.name, test.expected, subsidy)
		}
	}
}

func coinbaseWithHeightScript(sigScript []byte, lockHeight uint32, values ...int64) *externalapi.DomainTransaction {
	tx := &externalapi.DomainTransaction{
		Version: 1,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: 0xffffffff},
			SignatureScript:  sigScript,
			Sequence:         externalapi.MaxTxInSequenceNum,
		}},
		LockHeight: lockHeight,
	}
	for _, value := range values {
		tx.Outputs = append(tx.Outputs, &externalapi.DomainTransactionOutput{Value: value, ScriptPublicKey: []byte{0x51}})
	}
	return tx
}

func TestValidateCoinbaseHeight(t *testing.T) {
	cm := New(&chaincfg.MainnetParams)

	tests := []struct {
		name       string
		sigScript  []byte
		lockHeight uint32
		height     int32
		skipScript bool
		expected   error
	}{
		{name: "small height", sigScript: []byte{0x55, 0x00}, lockHeight: 5, height: 5},
		{name: "push height", sigScript: []byte{0x03, 0x64, 0x92, 0x00, 0xaa}, lockHeight: 37476, height: 37476},
		{name: "wrong height", sigScript: []byte{0x03, 0x65, 0x92, 0x00}, lockHeight: 37476, height: 37476,
			expected: ruleerrors.ErrBadCoinbaseHeight},
		{name: "non minimal", sigScript: []byte{0x01, 0x05}, lockHeight: 5, height: 5,
			expected: ruleerrors.ErrBadCoinbaseHeight},
		{name: "lock height mismatch", sigScript: []byte{0x55}, lockHeight: 4, height: 5,
			expected: ruleerrors.ErrBadCoinbaseLockHeight},
		{name: "unrestricted script", sigScript: []byte{0x03, 0x65, 0x92, 0x00}, lockHeight: 37476, height: 37476,
			skipScript: true},
		{name: "unrestricted script lock height mismatch", sigScript: []byte{0x55}, lockHeight: 4, height: 5,
			skipScript: true, expected: ruleerrors.ErrBadCoinbaseLockHeight},
	}
	for _, test := range tests {
		err := cm.ValidateCoinbaseHeight(coinbaseWithHeightScript(test.sigScript, test.lockHeight), test.height,
			!test.skipScript)
		if test.expected == nil && err != nil {
			t.Fatalf("TestValidateCoinbaseHeight: %s: unexpected error: %s", test.name, err)
		}
		if test.expected != nil && !errors.Is(err, test.expected) {
			t.Fatalf("TestValidateCoinbaseHeight: %s: expected %s, got %v", test.name, test.expected, err)
		}
	}
}

func TestValidateCoinbaseClaim(t *testing.T) {
	params := chaincfg.RegressionNetParams
	cm := New(&params)

	err := cm.ValidateCoinbaseClaim(coinbaseWithHeightScript(nil, 1, 4000000000, 1000000100), 1, 100)
	if err != nil {
		t.Fatalf("TestValidateCoinbaseClaim: exact claim: %s", err)
	}
	err = cm.ValidateCoinbaseClaim(coinbaseWithHeightScript(nil, 1, 4000000000), 1, 0)
	if err != nil {
		t.Fatalf("TestValidateCoinbaseClaim: claiming less: %s", err)
	}
	err = cm.ValidateCoinbaseClaim(coinbaseWithHeightScript(nil, 1, 5000000000, 101), 1, 100)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseAmount) {
		t.Fatalf("TestValidateCoinbaseClaim: expected ErrBadCoinbaseAmount, got %v", err)
	}
}
