package txscript

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// SignatureChecker is what the engine needs to know about the transaction
// spending a script.
type SignatureChecker interface {
	// CheckSig reports whether signature, with its trailing hash type
	// byte, is a valid signature by pubKey of the digest committing to
	// scriptCode. An error is returned only when the signature can never
	// be valid for reasons other than the signature itself.
	CheckSig(signature, pubKey, scriptCode []byte, sigVersion consensushashing.SigVersion) (bool, error)

	// CheckLockTime reports whether the spending transaction satisfies an
	// absolute lock of lockTime.
	CheckLockTime(lockTime int64) bool

	// CheckSequence reports whether the spending input satisfies a
	// relative lock of sequence.
	CheckSequence(sequence int64) bool
}

// BaseSignatureChecker fails every check. It is used to run scripts that
// are not bound to a transaction.
type BaseSignatureChecker struct{}

// CheckSig always returns false.
func (BaseSignatureChecker) CheckSig([]byte, []byte, []byte, consensushashing.SigVersion) (bool, error) {
	return false, nil
}

// CheckLockTime always returns false.
func (BaseSignatureChecker) CheckLockTime(int64) bool { return false }

// CheckSequence always returns false.
func (BaseSignatureChecker) CheckSequence(int64) bool { return false }

// TransactionSigChecker checks signatures and locks against one input of a
// transaction.
type TransactionSigChecker struct {
	tx          *externalapi.DomainTransaction
	idx         int
	amount      int64
	precomputed *consensushashing.PrecomputedTransactionData
	sigCache    *SigCache
	extraHash   consensushashing.SigHashType
}

// NewTransactionSigChecker returns a checker for input idx of tx, which
// spends an output worth amount. precomputed and sigCache may be nil.
func NewTransactionSigChecker(tx *externalapi.DomainTransaction, idx int, amount int64,
	precomputed *consensushashing.PrecomputedTransactionData, sigCache *SigCache) *TransactionSigChecker {

	return &TransactionSigChecker{
		tx:          tx,
		idx:         idx,
		amount:      amount,
		precomputed: precomputed,
		sigCache:    sigCache,
	}
}

// NewMutableTransactionSigChecker returns a checker for input idx of the
// transaction being built by mtx. The checker works on a snapshot, so later
// changes to mtx are not seen.
func NewMutableTransactionSigChecker(mtx *externalapi.MutableTransaction, idx int,
	amount int64) *TransactionSigChecker {

	return NewTransactionSigChecker(mtx.Snapshot(), idx, amount, nil, nil)
}

// CheckSig implements SignatureChecker.
func (c *TransactionSigChecker) CheckSig(signature, pubKey, scriptCode []byte,
	sigVersion consensushashing.SigVersion) (bool, error) {

	if len(signature) == 0 {
		return false, nil
	}
	hashType := consensushashing.SigHashType(signature[len(signature)-1])
	sigBytes := signature[:len(signature)-1]

	if hashType&consensushashing.SigHashMask == consensushashing.SigHashSingle && c.idx >= len(c.tx.Outputs) {
		return false, scriptError(ErrSigHashSingleIndex,
			"sighash single on an input without a matching output")
	}

	key, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false, nil
	}

	sigHash, err := consensushashing.CalculateSignatureHash(scriptCode, c.tx, c.idx, hashType|c.extraHash,
		c.amount, sigVersion, c.precomputed)
	if err != nil {
		if errors.Is(err, consensushashing.ErrSigHashSingleOutOfRange) {
			return false, scriptError(ErrSigHashSingleIndex, err.Error())
		}
		return false, err
	}

	sig, ok := parseDERSignatureLax(sigBytes)
	if !ok {
		return false, nil
	}

	if c.sigCache != nil && c.sigCache.Exists(sigHash, sigBytes, pubKey) {
		return true, nil
	}
	if !sig.Verify(sigHash[:], key) {
		return false, nil
	}
	if c.sigCache != nil {
		c.sigCache.Add(sigHash, sigBytes, pubKey)
	}
	return true, nil
}

// CheckLockTime implements SignatureChecker.
func (c *TransactionSigChecker) CheckLockTime(lockTime int64) bool {
	txLockTime := int64(c.tx.LockTime)

	// The lock time and the transaction lock time must both be block
	// heights or both be timestamps.
	if !((txLockTime < constants.LockTimeThreshold && lockTime < constants.LockTimeThreshold) ||
		(txLockTime >= constants.LockTimeThreshold && lockTime >= constants.LockTimeThreshold)) {
		return false
	}
	if lockTime > txLockTime {
		return false
	}

	// A finalized input would let the transaction skip lock time
	// enforcement altogether.
	return c.tx.Inputs[c.idx].Sequence != constants.MaxTxInSequenceNum
}

// CheckSequence implements SignatureChecker.
func (c *TransactionSigChecker) CheckSequence(sequence int64) bool {
	txSequence := int64(c.tx.Inputs[c.idx].Sequence)

	// Relative locks only exist from version 2 on.
	if c.tx.Version < 2 {
		return false
	}
	if txSequence&constants.SequenceLockTimeDisabled != 0 {
		return false
	}

	const mask = constants.SequenceLockTimeIsSeconds | constants.SequenceLockTimeMask
	txSequenceMasked := txSequence & mask
	sequenceMasked := sequence & mask

	if !((txSequenceMasked < constants.SequenceLockTimeIsSeconds && sequenceMasked < constants.SequenceLockTimeIsSeconds) ||
		(txSequenceMasked >= constants.SequenceLockTimeIsSeconds && sequenceMasked >= constants.SequenceLockTimeIsSeconds)) {
		return false
	}
	return sequenceMasked <= txSequenceMasked
}

// parseDERSignatureLax parses a signature the way the reference node always
// has, accepting encodings that predate strict DER. Values of R or S that
// do not fit the group order yield a signature that never verifies. The
// result has a low S.
func parseDERSignatureLax(sig []byte) (*ecdsa.Signature, bool) {
	pos := 0

	readLength := func() (int, bool) {
		if pos == len(sig) {
			return 0, false
		}
		lenByte := int(sig[pos])
		pos++
		if lenByte&0x80 == 0 {
			return lenByte, true
		}
		lenByte -= 0x80
		if lenByte > len(sig)-pos {
			return 0, false
		}
		for lenByte > 0 && sig[pos] == 0 {
			pos++
			lenByte--
		}
		if lenByte >= 8 {
			return 0, false
		}
		length := 0
		for ; lenByte > 0; lenByte-- {
			length = length<<8 | int(sig[pos])
			pos++
		}
		return length, true
	}

	// Sequence tag and its length, which is not checked.
	if pos == len(sig) || sig[pos] != 0x30 {
		return nil, false
	}
	pos++
	if pos == len(sig) {
		return nil, false
	}
	lenByte := int(sig[pos])
	pos++
	if lenByte&0x80 != 0 {
		lenByte -= 0x80
		if lenByte > len(sig)-pos {
			return nil, false
		}
		pos += lenByte
	}

	readInteger := func() ([]byte, bool) {
		if pos == len(sig) || sig[pos] != 0x02 {
			return nil, false
		}
		pos++
		length, ok := readLength()
		if !ok || length > len(sig)-pos {
			return nil, false
		}
		value := sig[pos : pos+length]
		pos += length
		return value, true
	}

	rBytes, ok := readInteger()
	if !ok {
		return nil, false
	}
	sBytes, ok := readInteger()
	if !ok {
		return nil, false
	}

	var r, s secp256k1.ModNScalar
	if !setScalarLax(&r, rBytes) || !setScalarLax(&s, sBytes) {
		r.Zero()
		s.Zero()
	}
	if s.IsOverHalfOrder() {
		s.Negate()
	}
	return ecdsa.NewSignature(&r, &s), true
}

// setScalarLax sets scalar to the big-endian value, ignoring leading zeros.
// It returns false when the value does not fit the group order.
func setScalarLax(scalar *secp256k1.ModNScalar, value []byte) bool {
	for len(value) > 0 && value[0] == 0 {
		value = value[1:]
	}
	if len(value) > 32 {
		return false
	}
	return !scalar.SetByteSlice(value)
}
