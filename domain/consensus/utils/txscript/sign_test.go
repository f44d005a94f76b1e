package txscript

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
)

const testAmount = 50 * 100_000_000

func testPrivateKey(seed byte) *secp256k1.PrivateKey {
	keyBytes := make([]byte, 32)
	keyBytes[31] = seed
	keyBytes[0] = 0x11
	return secp256k1.PrivKeyFromBytes(keyBytes)
}

// spendingTx returns a transaction with numInputs inputs spending distinct
// outputs of a fake funding transaction and numOutputs outputs.
func spendingTx(numInputs, numOutputs int) *externalapi.MutableTransaction {
	mtx := externalapi.NewMutableTransaction(2)
	fundingID := externalapi.DomainTransactionID{0x01, 0x02, 0x03}
	for i := 0; i < numInputs; i++ {
		mtx.AddInput(externalapi.DomainOutpoint{TransactionID: fundingID, Index: uint32(i)},
			constants.MaxTxInSequenceNum)
	}
	for i := 0; i < numOutputs; i++ {
		mtx.AddOutput(testAmount-1000, []byte{OP_TRUE})
	}
	mtx.LockHeight = 12345
	return mtx
}

func TestSignAndVerifyPayToPubKeyHash(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{true, false} {
		key := testPrivateKey(1)
		pubKey := key.PubKey().SerializeUncompressed()
		if compress {
			pubKey = key.PubKey().SerializeCompressed()
		}
		pkScript, err := PayToPubKeyHashScript(pubKey)
		if err != nil {
			t.Fatalf("PayToPubKeyHashScript: %s", err)
		}

		mtx := spendingTx(1, 1)
		tx := mtx.Transaction()
		sigScript, err := SignatureScript(tx, 0, pkScript, consensushashing.SigHashAll, key, compress)
		if err != nil {
			t.Fatalf("SignatureScript: %s", err)
		}
		tx.Inputs[0].SignatureScript = sigScript

		checker := NewTransactionSigChecker(tx, 0, testAmount, nil, nil)
		if err := VerifyScript(sigScript, pkScript, nil, StandardVerifyFlags, checker); err != nil {
			t.Fatalf("TestSignAndVerifyPayToPubKeyHash: compress=%t: %s", compress, err)
		}

		// Any change to the signed outputs invalidates the signature.
		tx.Outputs[0].Value--
		err = VerifyScript(sigScript, pkScript, nil, StandardVerifyFlags, checker)
		if !IsErrorCode(err, ErrNullFail) {
			t.Fatalf("TestSignAndVerifyPayToPubKeyHash: expected ErrNullFail after tampering, got %v", err)
		}
	}
}

func TestSignAndVerifyPayToWitnessPubKeyHash(t *testing.T) {
	t.Parallel()

	key := testPrivateKey(2)
	pkScript, err := PayToWitnessPubKeyHashScript(key.PubKey().SerializeCompressed())
	if err != nil {
		t.Fatalf("PayToWitnessPubKeyHashScript: %s", err)
	}

	tx := spendingTx(1, 1).Transaction()
	precomputed := consensushashing.NewPrecomputedTransactionData(tx)
	witness, err := WitnessSignature(tx, 0, testAmount, consensushashing.SigHashAll, key, precomputed)
	if err != nil {
		t.Fatalf("WitnessSignature: %s", err)
	}
	tx.Inputs[0].Witness = witness

	checker := NewTransactionSigChecker(tx, 0, testAmount, precomputed, nil)
	if err := VerifyScript(nil, pkScript, witness, StandardVerifyFlags, checker); err != nil {
		t.Fatalf("TestSignAndVerifyPayToWitnessPubKeyHash: %s", err)
	}

	// Witness digests commit to the spent amount.
	wrongAmount := NewTransactionSigChecker(tx, 0, testAmount+1, precomputed, nil)
	err = VerifyScript(nil, pkScript, witness, StandardVerifyFlags, wrongAmount)
	if !IsErrorCode(err, ErrNullFail) {
		t.Fatalf("TestSignAndVerifyPayToWitnessPubKeyHash: expected ErrNullFail, got %v", err)
	}

	// The signature must not be in the signature script.
	sigScript, _ := NewScriptBuilder().AddData(witness[0]).Script()
	err = VerifyScript(sigScript, pkScript, witness, StandardVerifyFlags, checker)
	if !IsErrorCode(err, ErrWitnessMalleated) {
		t.Fatalf("TestSignAndVerifyPayToWitnessPubKeyHash: expected ErrWitnessMalleated, got %v", err)
	}
}

func TestSigHashSingleWithoutMatchingOutput(t *testing.T) {
	t.Parallel()

	key := testPrivateKey(3)
	pubKey := key.PubKey().SerializeCompressed()
	pkScript, err := PayToPubKeyHashScript(pubKey)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %s", err)
	}

	tx := spendingTx(2, 1).Transaction()
	if _, err := RawTxInSignature(tx, 1, pkScript, consensushashing.SigHashSingle, 0,
		consensushashing.SigVersionBase, key, nil); err == nil {
		t.Fatalf("TestSigHashSingleWithoutMatchingOutput: signing input 1 with SINGLE unexpectedly succeeded")
	}

	sig, err := RawTxInSignature(tx, 1, pkScript, consensushashing.SigHashAll, 0,
		consensushashing.SigVersionBase, key, nil)
	if err != nil {
		t.Fatalf("RawTxInSignature: %s", err)
	}
	sig[len(sig)-1] = byte(consensushashing.SigHashSingle)
	sigScript, _ := NewScriptBuilder().AddData(sig).AddData(pubKey).Script()

	for _, flags := range []ScriptFlags{0, ScriptBip16, StandardVerifyFlags} {
		checker := NewTransactionSigChecker(tx, 1, testAmount, nil, nil)
		err := VerifyScript(sigScript, pkScript, nil, flags, checker)
		if !IsErrorCode(err, ErrSigHashSingleIndex) {
			t.Fatalf("TestSigHashSingleWithoutMatchingOutput: flags %x: expected "+
				"ErrSigHashSingleIndex, got %v", flags, err)
		}
	}

	// Input 0 has a matching output.
	sig, err = RawTxInSignature(tx, 0, pkScript, consensushashing.SigHashSingle, 0,
		consensushashing.SigVersionBase, key, nil)
	if err != nil {
		t.Fatalf("RawTxInSignature: %s", err)
	}
	sigScript, _ = NewScriptBuilder().AddData(sig).AddData(pubKey).Script()
	checker := NewTransactionSigChecker(tx, 0, testAmount, nil, nil)
	if err := VerifyScript(sigScript, pkScript, nil, StandardVerifyFlags, checker); err != nil {
		t.Fatalf("TestSigHashSingleWithoutMatchingOutput: input 0: %s", err)
	}
}

func TestCompatTransactionSigChecker(t *testing.T) {
	t.Parallel()

	key := testPrivateKey(4)
	pubKey := key.PubKey().SerializeCompressed()
	pkScript, err := PayToPubKeyHashScript(pubKey)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %s", err)
	}

	tx := spendingTx(1, 1).Transaction()
	sig, err := RawTxInSignature(tx, 0, pkScript,
		consensushashing.SigHashAll|consensushashing.SigHashNoLockHeight, 0,
		consensushashing.SigVersionBase, key, nil)
	if err != nil {
		t.Fatalf("RawTxInSignature: %s", err)
	}
	if sig[len(sig)-1] != byte(consensushashing.SigHashAll) {
		t.Fatalf("TestCompatTransactionSigChecker: unexpected hash type byte %x", sig[len(sig)-1])
	}
	sigScript, _ := NewScriptBuilder().AddData(sig).AddData(pubKey).Script()

	flags := ScriptBip16 | ScriptVerifyDERSignatures | ScriptVerifyStrictEncoding
	if err := VerifyScript(sigScript, pkScript, nil, flags,
		NewCompatTransactionSigChecker(tx, 0, testAmount)); err != nil {
		t.Fatalf("TestCompatTransactionSigChecker: compat checker: %s", err)
	}
	err = VerifyScript(sigScript, pkScript, nil, flags, NewTransactionSigChecker(tx, 0, testAmount, nil, nil))
	if !IsErrorCode(err, ErrEvalFalse) {
		t.Fatalf("TestCompatTransactionSigChecker: expected ErrEvalFalse from the regular checker, got %v", err)
	}
}

func TestMutableTransactionSigChecker(t *testing.T) {
	t.Parallel()

	key := testPrivateKey(5)
	pubKey := key.PubKey().SerializeCompressed()
	pkScript, err := PayToPubKeyHashScript(pubKey)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %s", err)
	}

	mtx := spendingTx(1, 1)
	sigScript, err := SignatureScript(mtx.Snapshot(), 0, pkScript, consensushashing.SigHashAll, key, true)
	if err != nil {
		t.Fatalf("SignatureScript: %s", err)
	}
	mtx.Inputs[0].SignatureScript = sigScript

	checker := NewMutableTransactionSigChecker(mtx, 0, testAmount)
	mtx.Outputs[0].Value = 1
	if err := VerifyScript(sigScript, pkScript, nil, StandardVerifyFlags, checker); err != nil {
		t.Fatalf("TestMutableTransactionSigChecker: checker saw a later change: %s", err)
	}

	checker = NewMutableTransactionSigChecker(mtx, 0, testAmount)
	err = VerifyScript(sigScript, pkScript, nil, StandardVerifyFlags, checker)
	if !IsErrorCode(err, ErrNullFail) {
		t.Fatalf("TestMutableTransactionSigChecker: expected ErrNullFail, got %v", err)
	}
}

func TestMultiSigOneOfTwo(t *testing.T) {
	t.Parallel()

	key1, key2 := testPrivateKey(6), testPrivateKey(7)
	pkScript, err := MultiSigScript([][]byte{
		key1.PubKey().SerializeCompressed(),
		key2.PubKey().SerializeCompressed(),
	}, 1)
	if err != nil {
		t.Fatalf("MultiSigScript: %s", err)
	}

	tx := spendingTx(1, 1).Transaction()
	sig, err := RawTxInSignature(tx, 0, pkScript, consensushashing.SigHashAll, 0,
		consensushashing.SigVersionBase, key2, nil)
	if err != nil {
		t.Fatalf("RawTxInSignature: %s", err)
	}
	checker := NewTransactionSigChecker(tx, 0, testAmount, nil, nil)

	sigScript, _ := NewScriptBuilder().AddOp(OP_0).AddData(sig).Script()
	if err := VerifyScript(sigScript, pkScript, nil, StandardVerifyFlags, checker); err != nil {
		t.Fatalf("TestMultiSigOneOfTwo: %s", err)
	}

	badDummy, _ := NewScriptBuilder().AddOp(OP_1).AddData(sig).Script()
	err = VerifyScript(badDummy, pkScript, nil, StandardVerifyFlags, checker)
	if !IsErrorCode(err, ErrSigNullDummy) {
		t.Fatalf("TestMultiSigOneOfTwo: expected ErrSigNullDummy, got %v", err)
	}
	if err := VerifyScript(badDummy, pkScript, nil, ScriptBip16, checker); err != nil {
		t.Fatalf("TestMultiSigOneOfTwo: non-null dummy without NULLDUMMY: %s", err)
	}
}

// paddedSignature returns a signature of input 0 of a transaction whose R
// value is DER encoded with a superfluous leading zero. The lock height is
// varied until R and S have their high bit clear, so the padded encoding
// still fits the DER length bounds.
func paddedSignature(t *testing.T, key *secp256k1.PrivateKey, pkScript []byte) (
	*externalapi.DomainTransaction, []byte) {

	for lockHeight := uint32(0); ; lockHeight++ {
		mtx := spendingTx(1, 1)
		mtx.LockHeight = lockHeight
		tx := mtx.Transaction()

		hash, err := consensushashing.CalculateSignatureHash(pkScript, tx, 0, consensushashing.SigHashAll, 0,
			consensushashing.SigVersionBase, nil)
		if err != nil {
			t.Fatalf("CalculateSignatureHash: %s", err)
		}
		signature := ecdsa.Sign(key, hash[:])
		r, s := signature.R(), signature.S()
		rBytes, sBytes := r.Bytes(), s.Bytes()
		if rBytes[0] == 0 || rBytes[0]&0x80 != 0 || sBytes[0] == 0 || sBytes[0]&0x80 != 0 {
			continue
		}

		sig := []byte{0x30, 0x45, 0x02, 0x21, 0x00}
		sig = append(sig, rBytes[:]...)
		sig = append(sig, 0x02, 0x20)
		sig = append(sig, sBytes[:]...)
		sig = append(sig, byte(consensushashing.SigHashAll))
		return tx, sig
	}
}

func TestLaxDERSignature(t *testing.T) {
	t.Parallel()

	key := testPrivateKey(8)
	pubKey := key.PubKey().SerializeCompressed()
	pkScript, err := PayToPubKeyHashScript(pubKey)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %s", err)
	}
	tx, sig := paddedSignature(t, key, pkScript)
	sigScript, _ := NewScriptBuilder().AddData(sig).AddData(pubKey).Script()
	checker := NewTransactionSigChecker(tx, 0, testAmount, nil, nil)

	if err := VerifyScript(sigScript, pkScript, nil, ScriptBip16, checker); err != nil {
		t.Fatalf("TestLaxDERSignature: padded signature rejected without DER rules: %s", err)
	}
	err = VerifyScript(sigScript, pkScript, nil, ScriptBip16|ScriptVerifyDERSignatures, checker)
	if !IsErrorCode(err, ErrSigTooMuchRPadding) {
		t.Fatalf("TestLaxDERSignature: expected ErrSigTooMuchRPadding, got %v", err)
	}
}

func TestCheckLockTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		txLockTime uint32
		sequence   uint32
		lockTime   int64
		expected   bool
	}{
		{"below height", 100, 0, 50, true},
		{"equal height", 100, 0, 100, true},
		{"above height", 100, 0, 101, false},
		{"height against time", 100, 0, constants.LockTimeThreshold, false},
		{"final input", 100, constants.MaxTxInSequenceNum, 50, false},
		{"time below", constants.LockTimeThreshold + 100, 0, constants.LockTimeThreshold + 50, true},
		{"time against height", constants.LockTimeThreshold + 100, 0, 50, false},
	}
	for _, test := range tests {
		mtx := spendingTx(1, 1)
		mtx.LockTime = test.txLockTime
		mtx.Inputs[0].Sequence = test.sequence
		checker := NewTransactionSigChecker(mtx.Transaction(), 0, testAmount, nil, nil)
		if got := checker.CheckLockTime(test.lockTime); got != test.expected {
			t.Errorf("TestCheckLockTime: %s: got %t, want %t", test.name, got, test.expected)
		}
	}
}

func TestCheckSequence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		txVersion  int32
		txSequence uint32
		sequence   int64
		expected   bool
	}{
		{"below blocks", 2, 10, 5, true},
		{"equal blocks", 2, 10, 10, true},
		{"above blocks", 2, 10, 11, false},
		{"blocks against seconds", 2, 10, constants.SequenceLockTimeIsSeconds | 5, false},
		{"seconds", 2, constants.SequenceLockTimeIsSeconds | 10, constants.SequenceLockTimeIsSeconds | 5, true},
		{"version 1", 1, 10, 5, false},
		{"disabled input", 2, constants.SequenceLockTimeDisabled | 10, 5, false},
	}
	for _, test := range tests {
		mtx := spendingTx(1, 1)
		mtx.Version = test.txVersion
		mtx.Inputs[0].Sequence = test.txSequence
		checker := NewTransactionSigChecker(mtx.Transaction(), 0, testAmount, nil, nil)
		if got := checker.CheckSequence(test.sequence); got != test.expected {
			t.Errorf("TestCheckSequence: %s: got %t, want %t", test.name, got, test.expected)
		}
	}

	if (BaseSignatureChecker{}).CheckSequence(0) || (BaseSignatureChecker{}).CheckLockTime(0) {
		t.Errorf("TestCheckSequence: base checker accepted a lock")
	}
}
