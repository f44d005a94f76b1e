package externalapi

// MutableTransaction is the builder form of a transaction. Signers fill in
// scripts and witnesses on it and call Transaction to obtain the immutable
// form.
type MutableTransaction struct {
	Version    int32
	Inputs     []*DomainTransactionInput
	Outputs    []*DomainTransactionOutput
	LockTime   uint32
	LockHeight uint32
}

// NewMutableTransaction returns an empty builder for a transaction of the
// given version.
func NewMutableTransaction(version int32) *MutableTransaction {
	return &MutableTransaction{Version: version}
}

// MutableTransactionFrom returns a builder holding a deep copy of tx.
func MutableTransactionFrom(tx *DomainTransaction) *MutableTransaction {
	clone := tx.Clone()
	return &MutableTransaction{
		Version:    clone.Version,
		Inputs:     clone.Inputs,
		Outputs:    clone.Outputs,
		LockTime:   clone.LockTime,
		LockHeight: clone.LockHeight,
	}
}

// AddInput appends an input spending outpoint.
func (mtx *MutableTransaction) AddInput(outpoint DomainOutpoint, sequence uint32) *DomainTransactionInput {
	input := &DomainTransactionInput{PreviousOutpoint: outpoint, Sequence: sequence}
	mtx.Inputs = append(mtx.Inputs, input)
	return input
}

// AddOutput appends an output.
func (mtx *MutableTransaction) AddOutput(value int64, scriptPublicKey []byte) {
	mtx.Outputs = append(mtx.Outputs, &DomainTransactionOutput{Value: value, ScriptPublicKey: scriptPublicKey})
}

// Snapshot returns an immutable deep copy of the transaction being built,
// leaving the builder usable.
func (mtx *MutableTransaction) Snapshot() *DomainTransaction {
	view := &DomainTransaction{
		Version:    mtx.Version,
		Inputs:     mtx.Inputs,
		Outputs:    mtx.Outputs,
		LockTime:   mtx.LockTime,
		LockHeight: mtx.LockHeight,
	}
	return view.Clone()
}

// Transaction converts the builder into an immutable transaction. The
// builder's inputs and outputs are moved into the result and the builder is
// left empty.
func (mtx *MutableTransaction) Transaction() *DomainTransaction {
	tx := &DomainTransaction{
		Version:    mtx.Version,
		Inputs:     mtx.Inputs,
		Outputs:    mtx.Outputs,
		LockTime:   mtx.LockTime,
		LockHeight: mtx.LockHeight,
	}
	mtx.Inputs = nil
	mtx.Outputs = nil
	return tx
}
