// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/infrastructure/logger"
)

// ScriptFlags is a bitmask defining additional operations or tests that will be
// done when executing a script pair.
type ScriptFlags uint32

const (
	// ScriptBip16 defines whether the bip16 threshold has passed and thus
	// pay-to-script hash transactions will be fully validated.
	ScriptBip16 ScriptFlags = 1 << iota

	// ScriptVerifyStrictEncoding defines that signature scripts and
	// public keys must follow the strict encoding requirements.
	ScriptVerifyStrictEncoding

	// ScriptVerifyDERSignatures defines that signatures are required
	// to comply with the DER format.
	ScriptVerifyDERSignatures

	// ScriptVerifyLowS defines that signtures are required to comply with
	// the DER format and whose S value is <= order / 2. This is rule 5
	// of BIP0062.
	ScriptVerifyLowS

	// ScriptVerifyNullDummy defines that the dummy element of a multisig
	// script must be empty.
	ScriptVerifyNullDummy

	// ScriptVerifySigPushOnly defines that signature scripts must contain
	// only pushed data. This is rule 2 of BIP0062.
	ScriptVerifySigPushOnly

	// ScriptVerifyMinimalData defines that signatures must use the smallest
	// push operator. This is both rules 3 and 4 of BIP0062.
	ScriptVerifyMinimalData

	// ScriptDiscourageUpgradableNops defines whether to verify that
	// NOP1 through NOP10 are reserved for future soft-fork upgrades. This
	// flag must not be used for consensus critical code nor applied to
	// blocks as this flag is only for stricter standard transaction
	// checks. This flag is only applied when the above opcodes are
	// executed.
	ScriptDiscourageUpgradableNops

	// ScriptVerifyCleanStack defines that the stack must contain only
	// one stack element after evaluation and that the element must be
	// true if interpreted as a boolean. This is rule 6 of BIP0062.
	// This flag should never be used without the ScriptBip16 and
	// ScriptVerifyWitness flags.
	ScriptVerifyCleanStack

	// ScriptVerifyCheckLockTimeVerify defines whether to verify that
	// a transaction output is spendable based on the locktime.
	// This is BIP0065.
	ScriptVerifyCheckLockTimeVerify

	// ScriptVerifyCheckSequenceVerify defines whether to allow execution
	// pathways of a script to be restricted based on the age of the output
	// being spent. This is BIP0112.
	ScriptVerifyCheckSequenceVerify

	// ScriptVerifyWitness defines whether or not to verify a transaction
	// output using a witness program template.
	ScriptVerifyWitness

	// ScriptVerifyDiscourageUpgradeableWitnessProgram makes witness
	// program with versions 2-16 non-standard.
	ScriptVerifyDiscourageUpgradeableWitnessProgram

	// ScriptVerifyMinimalIf makes a script with an OP_IF/OP_NOTIF whose
	// operand is anything other than empty vector or [0x01] non-standard.
	ScriptVerifyMinimalIf

	// ScriptVerifyNullFail defines that signatures must be empty if
	// a CHECKSIG or CHECKMULTISIG operation fails.
	ScriptVerifyNullFail

	// ScriptVerifyWitnessPubKeyType makes a script within a check-sig
	// operation whose public key isn't serialized in a compressed format
	// non-standard.
	ScriptVerifyWitnessPubKeyType

	// ScriptVerifyProtocolCleanup lifts the size, push, stack and
	// operation count limits, stops rejecting disabled opcodes on sight
	// and makes the execution of any undefined opcode end the script
	// successfully.
	ScriptVerifyProtocolCleanup
)

const (
	// MaxStackSize is the maximum combined height of stack and alt stack
	// during execution.
	MaxStackSize = 1000

	// MaxScriptSize is the maximum allowed length of a raw script.
	MaxScriptSize = 10000

	// MaxScriptElementSize is the maximum number of bytes a single
	// element pushed to the stack may have.
	MaxScriptElementSize = 520

	// MaxOpsPerScript is the maximum number of non-push operations per
	// script.
	MaxOpsPerScript = 201

	// MaxPubKeysPerMultiSig is the maximum number of public keys allowed
	// in a multisig script.
	MaxPubKeysPerMultiSig = 20
)

// Engine is the virtual machine that executes a single script over a data
// stack. The alternate stack, the conditional stack and the operation count
// are local to that one script; the data stack is handed in and out.
type Engine struct {
	flags       ScriptFlags
	checker     SignatureChecker
	sigVersion  consensushashing.SigVersion
	script      []parsedOpcode
	opIdx       int
	lastCodeSep int
	dstack      stack
	astack      stack
	condStack   []bool
	numOps      int
}

// hasFlag returns whether the script engine instance has the passed flag set.
func (vm *Engine) hasFlag(flag ScriptFlags) bool {
	return vm.flags&flag == flag
}

// isBranchExecuting returns whether or not the current conditional branch is
// actively executing. For example, when the data stack has an OP_FALSE on it
// and an OP_IF is encountered, the branch is inactive until an OP_ELSE or
// OP_ENDIF is encountered. It properly handles nested conditionals.
func (vm *Engine) isBranchExecuting() bool {
	for _, cond := range vm.condStack {
		if !cond {
			return false
		}
	}
	return true
}

// executeOpcode performs execution on the passed opcode. It takes into account
// whether or not it is hidden by conditionals, but some rules still must be
// tested in this case. done is set when a protocol-cleanup script ends early
// on an undefined opcode.
func (vm *Engine) executeOpcode(pop *parsedOpcode) (done bool, err error) {
	cleanup := vm.hasFlag(ScriptVerifyProtocolCleanup)

	// Disallow entries that are too large.
	if len(pop.data) > MaxScriptElementSize && !cleanup {
		str := fmt.Sprintf("element size %d exceeds max allowed size %d",
			len(pop.data), MaxScriptElementSize)
		return false, scriptError(ErrElementTooBig, str)
	}

	// Note that this includes OP_RESERVED which counts as a push operation.
	if pop.opcode.value > OP_16 {
		vm.numOps++
		if vm.numOps > MaxOpsPerScript && !cleanup {
			str := fmt.Sprintf("exceeded max operation limit of %d",
				MaxOpsPerScript)
			return false, scriptError(ErrTooManyOperations, str)
		}
	}

	if !cleanup {
		// Disabled opcodes are fail on program counter.
		if pop.isDisabled() {
			str := fmt.Sprintf("attempt to execute disabled opcode %s",
				pop.opcode.name)
			return false, scriptError(ErrDisabledOpcode, str)
		}

		// Always-illegal opcodes are fail on program counter.
		if pop.alwaysIllegal() {
			str := fmt.Sprintf("attempt to execute reserved opcode %s",
				pop.opcode.name)
			return false, scriptError(ErrReservedOpcode, str)
		}
	}

	// Nothing left to do when this is not a conditional opcode and it is
	// not in an executing branch.
	if !vm.isBranchExecuting() && !pop.isConditional() {
		return false, nil
	}

	if cleanup && pop.isUndefined() {
		return true, nil
	}

	// Ensure all executed data push opcodes use the minimal encoding when
	// the minimal data verification flag is set.
	if vm.dstack.verifyMinimalData && vm.isBranchExecuting() &&
		pop.opcode.value <= OP_PUSHDATA4 {

		if err := pop.checkMinimalDataPush(); err != nil {
			return false, err
		}
	}

	return false, pop.opcode.opfunc(pop, vm)
}

// subScript returns the script since the last OP_CODESEPARATOR.
func (vm *Engine) subScript() []parsedOpcode {
	return vm.script[vm.lastCodeSep:]
}

// scriptCode serializes subScript as the script code committed to by a
// signature. The base digest additionally drops every OP_CODESEPARATOR.
func (vm *Engine) scriptCode(subScript []parsedOpcode) ([]byte, error) {
	if vm.sigVersion == consensushashing.SigVersionBase {
		subScript = removeOpcode(subScript, OP_CODESEPARATOR)
	}
	return unparseScript(subScript)
}

// execute runs script to completion over the current data stack.
func (vm *Engine) execute(script []byte) error {
	cleanup := vm.hasFlag(ScriptVerifyProtocolCleanup)
	if len(script) > MaxScriptSize && !cleanup {
		str := fmt.Sprintf("script size %d is larger than max "+
			"allowed size %d", len(script), MaxScriptSize)
		return scriptError(ErrScriptTooBig, str)
	}

	pops, err := parseScript(script)
	if err != nil {
		return err
	}
	vm.script = pops
	vm.lastCodeSep = 0
	vm.numOps = 0
	vm.condStack = nil
	vm.astack = stack{verifyMinimalData: vm.dstack.verifyMinimalData}

	for vm.opIdx = 0; vm.opIdx < len(vm.script); vm.opIdx++ {
		pop := &vm.script[vm.opIdx]
		log.Tracef("%s", logger.NewLogClosure(func() string {
			return fmt.Sprintf("stepping %02d: %s", vm.opIdx, pop.print(false))
		}))

		done, err := vm.executeOpcode(pop)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		// The number of elements in the combination of the data and alt
		// stacks must not exceed the maximum number of stack elements
		// allowed.
		combinedStackSize := vm.dstack.Depth() + vm.astack.Depth()
		if combinedStackSize > MaxStackSize && !cleanup {
			str := fmt.Sprintf("combined stack size %d > max "+
				"allowed %d", combinedStackSize, MaxStackSize)
			return scriptError(ErrStackOverflow, str)
		}
	}

	if len(vm.condStack) != 0 {
		return scriptError(ErrUnbalancedConditional,
			"end of script reached in conditional execution")
	}
	return nil
}

// EvalScript executes script over the data stack stk and returns the
// resulting data stack. stk is not modified.
func EvalScript(stk [][]byte, script []byte, flags ScriptFlags, checker SignatureChecker,
	sigVersion consensushashing.SigVersion) ([][]byte, error) {

	vm := &Engine{
		flags:      flags,
		checker:    checker,
		sigVersion: sigVersion,
		dstack: stack{
			stk:               append([][]byte(nil), stk...),
			verifyMinimalData: flags&ScriptVerifyMinimalData == ScriptVerifyMinimalData,
		},
	}
	if err := vm.execute(script); err != nil {
		return nil, err
	}
	return vm.dstack.stk, nil
}

// checkFinalStack requires a non-empty stack whose top item is true.
func checkFinalStack(stk [][]byte) error {
	if len(stk) == 0 {
		return scriptError(ErrEmptyStack,
			"stack empty at end of script execution")
	}
	if !asBool(stk[len(stk)-1]) {
		return scriptError(ErrEvalFalse,
			"false stack entry at end of script execution")
	}
	return nil
}

// VerifyScript verifies that scriptSig (and witness, for witness programs)
// satisfies scriptPubKey under flags.
//
// The signature script runs first, then the public key script over the
// resulting stack. Pay-to-script-hash outputs re-run the last item pushed by
// the signature script as a script, and witness programs, native or nested
// in pay-to-script-hash, are checked against the witness.
func VerifyScript(scriptSig, scriptPubKey []byte, witness [][]byte, flags ScriptFlags,
	checker SignatureChecker) error {

	if flags&ScriptVerifyCleanStack == ScriptVerifyCleanStack &&
		(flags&ScriptBip16 != ScriptBip16 || flags&ScriptVerifyWitness != ScriptVerifyWitness) {

		return scriptError(ErrInvalidFlags,
			"invalid flags combination: clean stack requires bip16 and witness")
	}
	if flags&ScriptVerifyWitness == ScriptVerifyWitness && flags&ScriptBip16 != ScriptBip16 {
		return scriptError(ErrInvalidFlags,
			"invalid flags combination: witness requires bip16")
	}

	if flags&ScriptVerifySigPushOnly == ScriptVerifySigPushOnly && !IsPushOnlyScript(scriptSig) {
		return scriptError(ErrNotPushOnly,
			"signature script is not push only")
	}

	stk, err := EvalScript(nil, scriptSig, flags, checker, consensushashing.SigVersionBase)
	if err != nil {
		return err
	}
	var stkCopy [][]byte
	if flags&ScriptBip16 == ScriptBip16 {
		stkCopy = append([][]byte(nil), stk...)
	}

	stk, err = EvalScript(stk, scriptPubKey, flags, checker, consensushashing.SigVersionBase)
	if err != nil {
		return err
	}
	if err := checkFinalStack(stk); err != nil {
		return err
	}

	hadWitness := false
	if flags&ScriptVerifyWitness == ScriptVerifyWitness {
		if version, program, ok := ExtractWitnessProgramInfo(scriptPubKey); ok {
			hadWitness = true
			if len(scriptSig) != 0 {
				return scriptError(ErrWitnessMalleated,
					"native witness program cannot also have a signature script")
			}
			if err := verifyWitnessProgram(witness, version, program, flags, checker); err != nil {
				return err
			}
			// Bypass the clean stack check below.
			stk = stk[:1]
		}
	}

	if flags&ScriptBip16 == ScriptBip16 && IsPayToScriptHash(scriptPubKey) {
		if !IsPushOnlyScript(scriptSig) {
			return scriptError(ErrNotPushOnly,
				"pay to script hash is not push only")
		}

		// The signature script has already been run, so it pushed at
		// least one item for the public key script to have succeeded.
		stk = stkCopy
		redeemScript := stk[len(stk)-1]
		stk = stk[:len(stk)-1]

		stk, err = EvalScript(stk, redeemScript, flags, checker, consensushashing.SigVersionBase)
		if err != nil {
			return err
		}
		if err := checkFinalStack(stk); err != nil {
			return err
		}

		if flags&ScriptVerifyWitness == ScriptVerifyWitness {
			if version, program, ok := ExtractWitnessProgramInfo(redeemScript); ok {
				hadWitness = true
				expectedSigScript, err := NewScriptBuilder().AddFullData(redeemScript).Script()
				if err != nil {
					return err
				}
				if !bytes.Equal(scriptSig, expectedSigScript) {
					return scriptError(ErrWitnessMalleatedP2SH,
						"signature script for witness nested p2sh is not canonical")
				}
				if err := verifyWitnessProgram(witness, version, program, flags, checker); err != nil {
					return err
				}
				stk = stk[:1]
			}
		}
	}

	if flags&ScriptVerifyCleanStack == ScriptVerifyCleanStack && len(stk) != 1 {
		str := fmt.Sprintf("stack contains %d unexpected items", len(stk)-1)
		return scriptError(ErrCleanStack, str)
	}

	if flags&ScriptVerifyWitness == ScriptVerifyWitness && !hadWitness && len(witness) != 0 {
		return scriptError(ErrWitnessUnexpected,
			"non-witness inputs cannot have a witness")
	}
	return nil
}

// verifyWitnessProgram validates the stored witness program using the passed
// witness as input.
func verifyWitnessProgram(witness [][]byte, version int, program []byte, flags ScriptFlags,
	checker SignatureChecker) error {

	var stk [][]byte
	var witnessScript []byte
	switch {
	case version == 0 && len(program) == payToWitnessScriptHashDataSize:
		// Additionally, The witness stack MUST NOT be empty at
		// this point.
		if len(witness) == 0 {
			return scriptError(ErrWitnessProgramEmpty,
				"witness program empty passed empty witness")
		}

		// Obtain the witness script which should be the last
		// element in the passed stack. The size of the script
		// MUST NOT exceed the max script size.
		witnessScript = witness[len(witness)-1]
		stk = witness[:len(witness)-1]

		// Ensure that the serialized pkScript at the end of
		// the witness stack matches the witness program.
		witnessHash := sha256.Sum256(witnessScript)
		if !bytes.Equal(witnessHash[:], program) {
			return scriptError(ErrWitnessProgramMismatch,
				"witness program hash mismatch")
		}

	case version == 0 && len(program) == payToWitnessPubKeyHashDataSize:
		// The witness stack should consist of exactly two
		// items: the signature, and the pubkey.
		if len(witness) != 2 {
			err := fmt.Sprintf("should have exactly two "+
				"items in witness, instead have %v", len(witness))
			return scriptError(ErrWitnessProgramMismatch, err)
		}

		// Now we'll resume execution as if it were a regular
		// p2pkh transaction.
		var err error
		witnessScript, err = payToPubKeyHashScript(program)
		if err != nil {
			return err
		}
		stk = witness

	case version == 0:
		errStr := fmt.Sprintf("length of witness program "+
			"must either be %v or %v bytes, instead is %v bytes",
			payToWitnessPubKeyHashDataSize,
			payToWitnessScriptHashDataSize, len(program))
		return scriptError(ErrWitnessProgramWrongLength, errStr)

	case flags&ScriptVerifyDiscourageUpgradeableWitnessProgram == ScriptVerifyDiscourageUpgradeableWitnessProgram:
		errStr := fmt.Sprintf("new witness program versions "+
			"invalid: %v", version)
		return scriptError(ErrDiscourageUpgradableWitnessProgram, errStr)

	default:
		// If we encounter an unknown witness program version and we
		// aren't discouraging future unknown witness based soft-forks,
		// then we de-activate the segwit behavior within the VM for
		// the remainder of execution.
		return nil
	}

	// All elements within the witness stack, other than a witness
	// script, must not be greater than the maximum bytes which are
	// allowed to be pushed onto the stack.
	if flags&ScriptVerifyProtocolCleanup != ScriptVerifyProtocolCleanup {
		for _, witElement := range stk {
			if len(witElement) > MaxScriptElementSize {
				str := fmt.Sprintf("element size %d exceeds "+
					"max allowed size %d", len(witElement),
					MaxScriptElementSize)
				return scriptError(ErrElementTooBig, str)
			}
		}
	}

	stk, err := EvalScript(stk, witnessScript, flags, checker, consensushashing.SigVersionWitnessV0)
	if err != nil {
		return err
	}

	// Scripts inside witness implicitly require cleanstack behaviour.
	if len(stk) != 1 {
		return scriptError(ErrEvalFalse,
			"witness program must leave exactly one stack item")
	}
	if !asBool(stk[0]) {
		return scriptError(ErrEvalFalse,
			"false stack entry at end of witness program execution")
	}
	return nil
}
