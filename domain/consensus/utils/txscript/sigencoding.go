// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
)

// checkHashTypeEncoding returns whether or not the passed hashtype adheres to
// the strict encoding requirements if enabled.
func (vm *Engine) checkHashTypeEncoding(hashType consensushashing.SigHashType) error {
	if !vm.hasFlag(ScriptVerifyStrictEncoding) {
		return nil
	}

	sigHashType := hashType & ^consensushashing.SigHashAnyOneCanPay
	if sigHashType < consensushashing.SigHashAll || sigHashType > consensushashing.SigHashSingle {
		str := fmt.Sprintf("invalid hash type 0x%x", hashType)
		return scriptError(ErrInvalidSigHashType, str)
	}
	return nil
}

// checkPubKeyEncoding returns whether or not the passed public key adheres to
// the strict encoding requirements if enabled.
func (vm *Engine) checkPubKeyEncoding(pubKey []byte) error {
	if vm.hasFlag(ScriptVerifyStrictEncoding) && !isCompressedOrUncompressedPubKey(pubKey) {
		return scriptError(ErrPubKeyType, "unsupported public key type")
	}

	if vm.hasFlag(ScriptVerifyWitnessPubKeyType) &&
		vm.sigVersion == consensushashing.SigVersionWitnessV0 && !isCompressedPubKey(pubKey) {

		str := "only compressed keys are accepted post-segwit"
		return scriptError(ErrWitnessPubKeyType, str)
	}

	return nil
}

func isCompressedOrUncompressedPubKey(pubKey []byte) bool {
	if len(pubKey) < secp256k1.PubKeyBytesLenCompressed {
		return false
	}
	switch pubKey[0] {
	case secp256k1.PubKeyFormatUncompressed:
		return len(pubKey) == secp256k1.PubKeyBytesLenUncompressed
	case secp256k1.PubKeyFormatCompressedEven, secp256k1.PubKeyFormatCompressedOdd:
		return len(pubKey) == secp256k1.PubKeyBytesLenCompressed
	}
	return false
}

func isCompressedPubKey(pubKey []byte) bool {
	return len(pubKey) == secp256k1.PubKeyBytesLenCompressed &&
		(pubKey[0] == secp256k1.PubKeyFormatCompressedEven ||
			pubKey[0] == secp256k1.PubKeyFormatCompressedOdd)
}

// checkSignatureEncoding returns whether or not the passed signature, with
// its trailing hash type byte, adheres to the strict encoding requirements
// if enabled. An empty signature always passes; it can only fail
// verification.
func (vm *Engine) checkSignatureEncoding(sig []byte) error {
	if len(sig) == 0 {
		return nil
	}

	if vm.hasFlag(ScriptVerifyDERSignatures) || vm.hasFlag(ScriptVerifyLowS) ||
		vm.hasFlag(ScriptVerifyStrictEncoding) {

		if err := checkStrictDEREncoding(sig); err != nil {
			return err
		}
	}

	if vm.hasFlag(ScriptVerifyLowS) && !isLowS(sig) {
		str := "signature is not canonical due to unnecessarily high S value"
		return scriptError(ErrSigHighS, str)
	}

	return vm.checkHashTypeEncoding(consensushashing.SigHashType(sig[len(sig)-1]))
}

// checkStrictDEREncoding checks the BIP0066 encoding of sig, which still
// carries its hash type byte:
//
// 0x30 <total length> 0x02 <length of R> <R> 0x02 <length of S> <S> <hashtype>
//
// R and S are minimally encoded positive big-endian integers.
func checkStrictDEREncoding(sig []byte) error {
	const (
		asn1SequenceID = 0x30
		asn1IntegerID  = 0x02

		// minSigLen is the minimum length of a DER encoded signature and
		// is when both R and S are 1 byte each, plus the hash type.
		//
		// 0x30 + <1-byte> + 0x02 + 0x01 + <byte> + 0x2 + 0x01 + <byte> + <hashtype>
		minSigLen = 9

		// maxSigLen is the maximum length of a DER encoded signature and
		// is when both R and S are 33 bytes each, plus the hash type. It
		// is 33 bytes because a 256-bit integer requires 32 bytes and an
		// additional leading null byte might be required if the high bit
		// is set in the value.
		//
		// 0x30 + <1-byte> + 0x02 + 0x21 + <33 bytes> + 0x2 + 0x21 + <33 bytes> + <hashtype>
		maxSigLen = 73

		sequenceOffset = 0
		dataLenOffset  = 1
		rTypeOffset    = 2
		rLenOffset     = 3
		rOffset        = 4
	)

	sigLen := len(sig)
	if sigLen < minSigLen {
		str := fmt.Sprintf("malformed signature: too short: %d < %d", sigLen,
			minSigLen)
		return scriptError(ErrSigTooShort, str)
	}
	if sigLen > maxSigLen {
		str := fmt.Sprintf("malformed signature: too long: %d > %d", sigLen,
			maxSigLen)
		return scriptError(ErrSigTooLong, str)
	}

	// The signature must start with the ASN.1 sequence identifier.
	if sig[sequenceOffset] != asn1SequenceID {
		str := fmt.Sprintf("malformed signature: format has wrong type: %#x",
			sig[sequenceOffset])
		return scriptError(ErrSigInvalidSeqID, str)
	}

	// The signature must indicate the correct amount of data for all elements
	// related to R and S.
	if int(sig[dataLenOffset]) != sigLen-3 {
		str := fmt.Sprintf("malformed signature: bad length: %d != %d",
			sig[dataLenOffset], sigLen-3)
		return scriptError(ErrSigInvalidDataLen, str)
	}

	// Calculate the offsets of the elements related to S and ensure S is inside
	// the signature.
	rLen := int(sig[rLenOffset])
	sTypeOffset := rOffset + rLen
	sLenOffset := sTypeOffset + 1
	if sTypeOffset >= sigLen {
		str := "malformed signature: S type indicator missing"
		return scriptError(ErrSigMissingSTypeID, str)
	}
	if sLenOffset >= sigLen {
		str := "malformed signature: S length missing"
		return scriptError(ErrSigMissingSLen, str)
	}

	// The lengths of R and S must match the overall length of the signature.
	sOffset := sLenOffset + 1
	sLen := int(sig[sLenOffset])
	if sOffset+sLen != sigLen-1 {
		str := "malformed signature: invalid S length"
		return scriptError(ErrSigInvalidSLen, str)
	}

	// R elements must be ASN.1 integers.
	if sig[rTypeOffset] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: R integer marker: %#x != %#x",
			sig[rTypeOffset], asn1IntegerID)
		return scriptError(ErrSigInvalidRIntID, str)
	}

	// Zero-length integers are not allowed for R.
	if rLen == 0 {
		str := "malformed signature: R length is zero"
		return scriptError(ErrSigZeroRLen, str)
	}

	// R must not be negative.
	if sig[rOffset]&0x80 != 0 {
		str := "malformed signature: R is negative"
		return scriptError(ErrSigNegativeR, str)
	}

	// Null bytes at the start of R are not allowed, unless R would otherwise be
	// interpreted as a negative number.
	if rLen > 1 && sig[rOffset] == 0x00 && sig[rOffset+1]&0x80 == 0 {
		str := "malformed signature: R value has too much padding"
		return scriptError(ErrSigTooMuchRPadding, str)
	}

	// S elements must be ASN.1 integers.
	if sig[sTypeOffset] != asn1IntegerID {
		str := fmt.Sprintf("malformed signature: S integer marker: %#x != %#x",
			sig[sTypeOffset], asn1IntegerID)
		return scriptError(ErrSigInvalidSIntID, str)
	}

	// Zero-length integers are not allowed for S.
	if sLen == 0 {
		str := "malformed signature: S length is zero"
		return scriptError(ErrSigZeroSLen, str)
	}

	// S must not be negative.
	if sig[sOffset]&0x80 != 0 {
		str := "malformed signature: S is negative"
		return scriptError(ErrSigNegativeS, str)
	}

	// Null bytes at the start of S are not allowed, unless S would otherwise be
	// interpreted as a negative number.
	if sLen > 1 && sig[sOffset] == 0x00 && sig[sOffset+1]&0x80 == 0 {
		str := "malformed signature: S value has too much padding"
		return scriptError(ErrSigTooMuchSPadding, str)
	}

	return nil
}

// isLowS reports whether the S value of a strictly encoded signature (with
// hash type byte) is at most half the group order. An S that does not fit
// the group order parses to the zero signature and counts as low.
func isLowS(sig []byte) bool {
	rLen := int(sig[3])
	sLen := int(sig[5+rLen])
	sBytes := sig[6+rLen : 6+rLen+sLen]
	for len(sBytes) > 0 && sBytes[0] == 0 {
		sBytes = sBytes[1:]
	}
	if len(sBytes) > 32 {
		return true
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sBytes); overflow {
		return true
	}
	return !s.IsOverHalfOrder()
}
