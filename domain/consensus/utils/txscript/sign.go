// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
)

// RawTxInSignature returns the DER signature of input idx of tx, with
// hashType appended to it. scriptCode and amount are those of the output the
// input spends; amount is only committed to by witness signatures.
func RawTxInSignature(tx *externalapi.DomainTransaction, idx int, scriptCode []byte,
	hashType consensushashing.SigHashType, amount int64, sigVersion consensushashing.SigVersion,
	key *secp256k1.PrivateKey, precomputed *consensushashing.PrecomputedTransactionData) ([]byte, error) {

	hash, err := consensushashing.CalculateSignatureHash(scriptCode, tx, idx, hashType, amount,
		sigVersion, precomputed)
	if err != nil {
		return nil, err
	}
	signature := ecdsa.Sign(key, hash[:])
	return append(signature.Serialize(), byte(hashType)), nil
}

// SignatureScript returns the signature script spending a pay-to-pubkey-hash
// output, locked by script, as input idx of tx. The public key of privKey is
// serialized compressed or not according to compress, which must match the
// form hashed into script.
func SignatureScript(tx *externalapi.DomainTransaction, idx int, script []byte,
	hashType consensushashing.SigHashType, privKey *secp256k1.PrivateKey, compress bool) ([]byte, error) {

	sig, err := RawTxInSignature(tx, idx, script, hashType, 0, consensushashing.SigVersionBase, privKey, nil)
	if err != nil {
		return nil, err
	}

	pk := privKey.PubKey()
	var pkData []byte
	if compress {
		pkData = pk.SerializeCompressed()
	} else {
		pkData = pk.SerializeUncompressed()
	}

	return NewScriptBuilder().AddData(sig).AddData(pkData).Script()
}

// WitnessSignature returns the witness of input idx of tx spending a
// pay-to-witness-pubkey-hash output worth amount: the signature and the
// compressed public key.
func WitnessSignature(tx *externalapi.DomainTransaction, idx int, amount int64,
	hashType consensushashing.SigHashType, privKey *secp256k1.PrivateKey,
	precomputed *consensushashing.PrecomputedTransactionData) ([][]byte, error) {

	pkData := privKey.PubKey().SerializeCompressed()
	scriptCode, err := PayToPubKeyHashScript(pkData)
	if err != nil {
		return nil, err
	}
	sig, err := RawTxInSignature(tx, idx, scriptCode, hashType, amount, consensushashing.SigVersionWitnessV0,
		privKey, precomputed)
	if err != nil {
		return nil, err
	}
	return [][]byte{sig, pkData}, nil
}
