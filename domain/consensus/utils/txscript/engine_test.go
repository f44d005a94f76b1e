package txscript

import (
	"bytes"
	"crypto/sha256"
	"math/rand"
	"testing"

	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
)

// TestEvalScript runs single scripts against the base checker.
func TestEvalScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
		flags  ScriptFlags
		err    ErrorCode
		valid  bool
	}{
		{name: "true", script: "1", valid: true},
		{name: "arithmetic", script: "2 3 ADD 5 EQUAL", valid: true},
		{name: "if else", script: "0 IF 0 ELSE 1 ENDIF", valid: true},
		{name: "nested skipped branches", script: "0 IF 0 IF RETURN ENDIF ENDIF 1", valid: true},
		{name: "unbalanced if", script: "1 IF 1", err: ErrUnbalancedConditional},
		{name: "else without if", script: "1 ELSE", err: ErrUnbalancedConditional},
		{name: "return", script: "1 RETURN", err: ErrEarlyReturn},
		{name: "verify false", script: "0 VERIFY 1", err: ErrVerify},
		{name: "alt stack round trip", script: "7 TOALTSTACK FROMALTSTACK 7 EQUAL", valid: true},
		{name: "hash160", script: "'' HASH160 0x14 0xb472a266d0bd89c13706a4132ccfb16f7c3b9fcb EQUAL", valid: true},
		{name: "sha256", script: "'' SHA256 0x20 0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855 EQUAL", valid: true},

		// Disabled opcodes fail wherever they appear, reserved ones only
		// when executed.
		{name: "disabled in executed branch", script: "1 1 CAT", err: ErrDisabledOpcode},
		{name: "disabled in skipped branch", script: "0 IF CAT ENDIF 1", err: ErrDisabledOpcode},
		{name: "reserved in skipped branch", script: "0 IF VER ENDIF 1", valid: true},
		{name: "reserved in executed branch", script: "1 IF VER ENDIF 1", err: ErrReservedOpcode},
		{name: "verif in skipped branch", script: "0 IF VERIF ENDIF 1", err: ErrReservedOpcode},
		{name: "unknown opcode in skipped branch", script: "0 IF 0xba ENDIF 1", valid: true},
		{name: "unknown opcode executed", script: "1 0xba", err: ErrReservedOpcode},

		{name: "non minimal push", script: "0x01 0x05", flags: ScriptVerifyMinimalData, err: ErrMinimalData},
		{name: "non minimal push allowed", script: "0x01 0x05", valid: true},
		{name: "discouraged nop", script: "1 NOP5", flags: ScriptDiscourageUpgradableNops, err: ErrDiscourageUpgradableNOPs},

		// Protocol cleanup stops at the first executed undefined opcode.
		{name: "cleanup disabled opcode", script: "1 CAT", flags: ScriptVerifyProtocolCleanup, valid: true},
		{name: "cleanup stops on undefined", script: "1 VERIF RETURN", flags: ScriptVerifyProtocolCleanup, valid: true},
		{name: "cleanup skipped undefined", script: "0 IF CAT ENDIF 0", flags: ScriptVerifyProtocolCleanup, valid: false},
		{name: "cleanup stop keeps the stack", script: "0 VERIF", flags: ScriptVerifyProtocolCleanup, valid: false},
	}

	for _, test := range tests {
		script := mustParseShortForm(test.script)
		stk, err := EvalScript(nil, script, test.flags, BaseSignatureChecker{}, consensushashing.SigVersionBase)
		if test.err != 0 || !test.valid && err != nil {
			if !IsErrorCode(err, test.err) {
				t.Errorf("%s: expected error %s, got %v", test.name, test.err, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %s", test.name, err)
			continue
		}
		valid := checkFinalStack(stk) == nil
		if valid != test.valid {
			t.Errorf("%s: expected valid=%t, got %t (stack %x)", test.name, test.valid, valid, stk)
		}
	}
}

// TestLimits checks every engine limit and that protocol cleanup lifts it.
func TestLimits(t *testing.T) {
	t.Parallel()

	bigScript := bytes.Repeat([]byte{OP_NOP}, MaxScriptSize)
	bigScript = append(bigScript, OP_1)

	bigElement, _ := NewScriptBuilder().AddFullData(make([]byte, MaxScriptElementSize+1)).AddOp(OP_1).Script()

	manyOps := bytes.Repeat([]byte{OP_NOP}, MaxOpsPerScript+1)
	manyOps = append(manyOps, OP_1)

	deepStack := bytes.Repeat([]byte{OP_1}, MaxStackSize+1)

	tests := []struct {
		name   string
		script []byte
		err    ErrorCode
	}{
		{"script size", bigScript, ErrScriptTooBig},
		{"element size", bigElement, ErrElementTooBig},
		{"operation count", manyOps, ErrTooManyOperations},
		{"stack size", deepStack, ErrStackOverflow},
	}

	for _, test := range tests {
		_, err := EvalScript(nil, test.script, 0, BaseSignatureChecker{}, consensushashing.SigVersionBase)
		if !IsErrorCode(err, test.err) {
			t.Errorf("%s: expected error %s, got %v", test.name, test.err, err)
		}
		_, err = EvalScript(nil, test.script, ScriptVerifyProtocolCleanup, BaseSignatureChecker{},
			consensushashing.SigVersionBase)
		if err != nil {
			t.Errorf("%s: unexpected error under protocol cleanup: %s", test.name, err)
		}
	}
}

// TestPushOnlyScriptsNeverDispatchFail feeds random push-only signature
// scripts through VerifyScript and checks none of them reaches an opcode
// dispatch failure.
func TestPushOnlyScriptsNeverDispatchFail(t *testing.T) {
	t.Parallel()

	random := rand.New(rand.NewSource(1))
	scriptPubKey := mustParseShortForm("DEPTH 0 GREATERTHAN")
	dispatchErrors := []ErrorCode{ErrDisabledOpcode, ErrReservedOpcode, ErrMalformedPush,
		ErrUnbalancedConditional, ErrTooManyOperations}

	for i := 0; i < 500; i++ {
		builder := NewScriptBuilder()
		for j := random.Intn(10); j >= 0; j-- {
			if random.Intn(4) == 0 {
				builder.AddInt64(int64(random.Intn(17)))
				continue
			}
			data := make([]byte, random.Intn(MaxScriptElementSize+1))
			random.Read(data)
			builder.AddData(data)
		}
		scriptSig, err := builder.Script()
		if err != nil {
			t.Fatalf("TestPushOnlyScriptsNeverDispatchFail: %s", err)
		}
		if !IsPushOnlyScript(scriptSig) {
			t.Fatalf("TestPushOnlyScriptsNeverDispatchFail: builder produced a non push-only script %x", scriptSig)
		}

		err = VerifyScript(scriptSig, scriptPubKey, nil, StandardVerifyFlags&^ScriptVerifyCleanStack,
			BaseSignatureChecker{})
		for _, code := range dispatchErrors {
			if IsErrorCode(err, code) {
				t.Fatalf("TestPushOnlyScriptsNeverDispatchFail: script %x hit %s", scriptSig, code)
			}
		}
		if err != nil {
			t.Fatalf("TestPushOnlyScriptsNeverDispatchFail: script %x: %s", scriptSig, err)
		}
	}
}

// TestVerifyScriptFlagCombinations checks the rejected flag combinations.
func TestVerifyScriptFlagCombinations(t *testing.T) {
	t.Parallel()

	for _, flags := range []ScriptFlags{
		ScriptVerifyCleanStack,
		ScriptVerifyCleanStack | ScriptBip16,
		ScriptVerifyWitness,
	} {
		err := VerifyScript(nil, []byte{OP_1}, nil, flags, BaseSignatureChecker{})
		if !IsErrorCode(err, ErrInvalidFlags) {
			t.Errorf("TestVerifyScriptFlagCombinations: flags %x: expected ErrInvalidFlags, got %v", flags, err)
		}
	}
}

// TestPayToScriptHash runs redeem scripts through pay-to-script-hash.
func TestPayToScriptHash(t *testing.T) {
	t.Parallel()

	redeemScript := mustParseShortForm("2 EQUAL")
	scriptPubKey, err := PayToScriptHashScript(redeemScript)
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %s", err)
	}

	good, _ := NewScriptBuilder().AddInt64(2).AddData(redeemScript).Script()
	bad, _ := NewScriptBuilder().AddInt64(3).AddData(redeemScript).Script()
	notPushOnly := append([]byte{OP_NOP}, good...)

	if err := VerifyScript(good, scriptPubKey, nil, ScriptBip16, BaseSignatureChecker{}); err != nil {
		t.Fatalf("TestPayToScriptHash: valid spend failed: %s", err)
	}
	if err := VerifyScript(bad, scriptPubKey, nil, ScriptBip16, BaseSignatureChecker{}); !IsErrorCode(err, ErrEvalFalse) {
		t.Fatalf("TestPayToScriptHash: expected ErrEvalFalse, got %v", err)
	}
	// Before BIP16 only the hash is checked.
	if err := VerifyScript(bad, scriptPubKey, nil, 0, BaseSignatureChecker{}); err != nil {
		t.Fatalf("TestPayToScriptHash: spend without bip16 failed: %s", err)
	}
	if err := VerifyScript(notPushOnly, scriptPubKey, nil, ScriptBip16, BaseSignatureChecker{}); !IsErrorCode(err, ErrNotPushOnly) {
		t.Fatalf("TestPayToScriptHash: expected ErrNotPushOnly, got %v", err)
	}
}

// TestWitnessScriptHash runs native and nested version 0 script hash
// programs.
func TestWitnessScriptHash(t *testing.T) {
	t.Parallel()

	flags := ScriptBip16 | ScriptVerifyWitness | ScriptVerifyCleanStack
	witnessScript := mustParseShortForm("5 EQUAL")
	scriptPubKey, err := PayToWitnessScriptHashScript(witnessScript)
	if err != nil {
		t.Fatalf("PayToWitnessScriptHashScript: %s", err)
	}
	programHash := sha256.Sum256(witnessScript)
	if !bytes.Equal(scriptPubKey[2:], programHash[:]) {
		t.Fatalf("TestWitnessScriptHash: unexpected program %x", scriptPubKey)
	}

	witness := [][]byte{{5}, witnessScript}
	if err := VerifyScript(nil, scriptPubKey, witness, flags, BaseSignatureChecker{}); err != nil {
		t.Fatalf("TestWitnessScriptHash: native spend failed: %s", err)
	}
	if err := VerifyScript(nil, scriptPubKey, [][]byte{{5}, {OP_1}}, flags, BaseSignatureChecker{}); !IsErrorCode(err, ErrWitnessProgramMismatch) {
		t.Fatalf("TestWitnessScriptHash: expected ErrWitnessProgramMismatch, got %v", err)
	}
	if err := VerifyScript(nil, scriptPubKey, nil, flags, BaseSignatureChecker{}); !IsErrorCode(err, ErrWitnessProgramEmpty) {
		t.Fatalf("TestWitnessScriptHash: expected ErrWitnessProgramEmpty, got %v", err)
	}
	if err := VerifyScript([]byte{OP_1}, scriptPubKey, witness, flags, BaseSignatureChecker{}); !IsErrorCode(err, ErrWitnessMalleated) {
		t.Fatalf("TestWitnessScriptHash: expected ErrWitnessMalleated, got %v", err)
	}

	// Nested in pay-to-script-hash.
	p2sh, err := PayToScriptHashScript(scriptPubKey)
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %s", err)
	}
	scriptSig, _ := NewScriptBuilder().AddData(scriptPubKey).Script()
	if err := VerifyScript(scriptSig, p2sh, witness, flags, BaseSignatureChecker{}); err != nil {
		t.Fatalf("TestWitnessScriptHash: nested spend failed: %s", err)
	}
	nonCanonical := append([]byte{OP_PUSHDATA1, byte(len(scriptPubKey))}, scriptPubKey...)
	if err := VerifyScript(nonCanonical, p2sh, witness, flags, BaseSignatureChecker{}); !IsErrorCode(err, ErrWitnessMalleatedP2SH) {
		t.Fatalf("TestWitnessScriptHash: expected ErrWitnessMalleatedP2SH, got %v", err)
	}

	// Witness data on an input that is not a witness program.
	if err := VerifyScript(nil, []byte{OP_1}, witness, flags, BaseSignatureChecker{}); !IsErrorCode(err, ErrWitnessUnexpected) {
		t.Fatalf("TestWitnessScriptHash: expected ErrWitnessUnexpected, got %v", err)
	}
}
