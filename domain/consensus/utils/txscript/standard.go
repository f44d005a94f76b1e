// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/freicoin/freicoind/domain/consensus/utils/hashes"
	"github.com/pkg/errors"
)

const (
	// payToWitnessPubKeyHashDataSize is the size of the witness program's
	// data push for a pay-to-witness-pub-key-hash output.
	payToWitnessPubKeyHashDataSize = 20

	// payToWitnessScriptHashDataSize is the size of the witness program's
	// data push for a pay-to-witness-script-hash output.
	payToWitnessScriptHashDataSize = 32
)

// ScriptClass is an enumeration for the list of standard types of script.
type ScriptClass byte

// Classes of script payment known about in the blockchain.
const (
	NonStandardTy         ScriptClass = iota // None of the recognized forms.
	PubKeyTy                                 // Pay pubkey.
	PubKeyHashTy                             // Pay pubkey hash.
	ScriptHashTy                             // Pay to script hash.
	WitnessV0PubKeyHashTy                    // Pay to witness pubkey hash.
	WitnessV0ScriptHashTy                    // Pay to witness script hash.
	MultiSigTy                               // Multi signature.
	NullDataTy                               // Empty data-only (provably prunable).
	WitnessUnknownTy                         // Witness program of a future version.
)

// scriptClassToName houses the human-readable strings which describe each
// script class.
var scriptClassToName = []string{
	NonStandardTy:         "nonstandard",
	PubKeyTy:              "pubkey",
	PubKeyHashTy:          "pubkeyhash",
	ScriptHashTy:          "scripthash",
	WitnessV0PubKeyHashTy: "witness_v0_keyhash",
	WitnessV0ScriptHashTy: "witness_v0_scripthash",
	MultiSigTy:            "multisig",
	NullDataTy:            "nulldata",
	WitnessUnknownTy:      "witness_unknown",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

func isPubKey(pops []parsedOpcode) bool {
	return len(pops) == 2 &&
		(len(pops[0].data) == 33 || len(pops[0].data) == 65) &&
		pops[1].opcode.value == OP_CHECKSIG
}

func isPubKeyHash(pops []parsedOpcode) bool {
	return len(pops) == 5 &&
		pops[0].opcode.value == OP_DUP &&
		pops[1].opcode.value == OP_HASH160 &&
		pops[2].opcode.value == OP_DATA_20 &&
		pops[3].opcode.value == OP_EQUALVERIFY &&
		pops[4].opcode.value == OP_CHECKSIG
}

// isMultiSig returns whether pops is "m <pubkey>... n OP_CHECKMULTISIG"
// with 1 <= m <= n.
func isMultiSig(pops []parsedOpcode) bool {
	l := len(pops)
	if l < 4 {
		return false
	}
	if !isSmallInt(pops[0].opcode) || !isSmallInt(pops[l-2].opcode) {
		return false
	}
	if pops[l-1].opcode.value != OP_CHECKMULTISIG {
		return false
	}
	required := asSmallInt(pops[0].opcode)
	keys := asSmallInt(pops[l-2].opcode)
	if required < 1 || keys < required || keys != l-3 {
		return false
	}
	for _, pop := range pops[1 : l-2] {
		if len(pop.data) != 33 && len(pop.data) != 65 {
			return false
		}
	}
	return true
}

// isNullData returns whether pops is OP_RETURN followed by at most one
// push.
func isNullData(pops []parsedOpcode) bool {
	l := len(pops)
	if l == 1 && pops[0].opcode.value == OP_RETURN {
		return true
	}
	return l == 2 &&
		pops[0].opcode.value == OP_RETURN &&
		(isSmallInt(pops[1].opcode) || pops[1].opcode.value <= OP_PUSHDATA4)
}

// GetScriptClass returns the class of the script passed. Witness programs
// are recognized on their exact byte layout, before parsing.
func GetScriptClass(script []byte) ScriptClass {
	if version, program, ok := ExtractWitnessProgramInfo(script); ok {
		switch {
		case version == 0 && len(program) == payToWitnessPubKeyHashDataSize:
			return WitnessV0PubKeyHashTy
		case version == 0 && len(program) == payToWitnessScriptHashDataSize:
			return WitnessV0ScriptHashTy
		case version == 0:
			return NonStandardTy
		default:
			return WitnessUnknownTy
		}
	}
	if IsPayToScriptHash(script) {
		return ScriptHashTy
	}

	pops, err := parseScript(script)
	if err != nil {
		return NonStandardTy
	}
	switch {
	case isPubKey(pops):
		return PubKeyTy
	case isPubKeyHash(pops):
		return PubKeyHashTy
	case isMultiSig(pops):
		return MultiSigTy
	case isNullData(pops):
		return NullDataTy
	}
	return NonStandardTy
}

// payToPubKeyHashScript creates a new script to pay a transaction
// output to a 20-byte pubkey hash. It is expected that the input is a valid
// hash.
func payToPubKeyHashScript(pubKeyHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_DUP).AddOp(OP_HASH160).
		AddData(pubKeyHash).AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).
		Script()
}

// PayToPubKeyHashScript returns the P2PKH script paying to the hash of
// pubKey.
func PayToPubKeyHashScript(pubKey []byte) ([]byte, error) {
	return payToPubKeyHashScript(hashes.Hash160(pubKey))
}

// PayToPubKeyScript returns the script paying directly to pubKey.
func PayToPubKeyScript(pubKey []byte) ([]byte, error) {
	return NewScriptBuilder().AddData(pubKey).AddOp(OP_CHECKSIG).Script()
}

// PayToScriptHashScript returns the P2SH script paying to the hash of
// redeemScript.
func PayToScriptHashScript(redeemScript []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_HASH160).AddData(hashes.Hash160(redeemScript)).
		AddOp(OP_EQUAL).Script()
}

// PayToWitnessPubKeyHashScript returns the version 0 witness program paying
// to the hash of pubKey.
func PayToWitnessPubKeyHashScript(pubKey []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_0).AddData(hashes.Hash160(pubKey)).Script()
}

// PayToWitnessScriptHashScript returns the version 0 witness program paying
// to the SHA256 of witnessScript.
func PayToWitnessScriptHashScript(witnessScript []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_0).AddData(hashes.SHA256(witnessScript)).Script()
}

// MultiSigScript returns a script for a multisig redemption with nRequired
// of pubKeys required to sign.
func MultiSigScript(pubKeys [][]byte, nRequired int) ([]byte, error) {
	if nRequired < 1 || len(pubKeys) < nRequired || len(pubKeys) > 16 {
		return nil, errors.Errorf("unable to generate multisig script with "+
			"%d required signatures when there are %d public keys available",
			nRequired, len(pubKeys))
	}

	builder := NewScriptBuilder().AddInt64(int64(nRequired))
	for _, key := range pubKeys {
		builder.AddData(key)
	}
	builder.AddInt64(int64(len(pubKeys)))
	builder.AddOp(OP_CHECKMULTISIG)
	return builder.Script()
}

// NullDataScript creates a provably-prunable script containing OP_RETURN
// followed by the passed data.
func NullDataScript(data []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_RETURN).AddData(data).Script()
}

// PushedData returns an array of byte slices containing any pushed data found
// in the passed script. This includes OP_0, but not OP_1 - OP_16.
func PushedData(script []byte) ([][]byte, error) {
	pops, err := parseScript(script)
	if err != nil {
		return nil, err
	}

	var data [][]byte
	for _, pop := range pops {
		if pop.data != nil {
			data = append(data, pop.data)
		} else if pop.opcode.value == OP_0 {
			data = append(data, nil)
		}
	}
	return data, nil
}
