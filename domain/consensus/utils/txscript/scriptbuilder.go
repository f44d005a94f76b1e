// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"fmt"
)

// defaultScriptAlloc is the initial capacity of a builder's script. It fits
// the vast majority of scripts without growing.
const defaultScriptAlloc = 500

// ErrScriptNotCanonical identifies a script a builder refused to produce
// because the engine would never execute it.
type ErrScriptNotCanonical string

// Error implements the error interface.
func (e ErrScriptNotCanonical) Error() string {
	return string(e)
}

// ScriptBuilder builds scripts with canonical pushes. Pushes that would take
// the script or an element past the engine limits are refused and the first
// such failure is returned by Script.
//
//	builder := txscript.NewScriptBuilder()
//	builder.AddOp(txscript.OP_2).AddData(pubKey1).AddData(pubKey2)
//	builder.AddData(pubKey3).AddOp(txscript.OP_3)
//	builder.AddOp(txscript.OP_CHECKMULTISIG)
//	script, err := builder.Script()
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns an empty builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{
		script: make([]byte, 0, defaultScriptAlloc),
	}
}

func (b *ScriptBuilder) fits(size int, what string) bool {
	if len(b.script)+size > MaxScriptSize {
		str := fmt.Sprintf("adding %s would exceed the maximum allowed "+
			"canonical script length of %d", what, MaxScriptSize)
		b.err = ErrScriptNotCanonical(str)
		return false
	}
	return true
}

// AddOp appends opcode.
func (b *ScriptBuilder) AddOp(opcode byte) *ScriptBuilder {
	if b.err != nil || !b.fits(1, "an opcode") {
		return b
	}
	b.script = append(b.script, opcode)
	return b
}

// AddOps appends opcodes as they are.
func (b *ScriptBuilder) AddOps(opcodes []byte) *ScriptBuilder {
	if b.err != nil || !b.fits(len(opcodes), "opcodes") {
		return b
	}
	b.script = append(b.script, opcodes...)
	return b
}

// canonicalDataSize returns the number of bytes the canonical push of data
// takes.
func canonicalDataSize(data []byte) int {
	dataLen := len(data)
	switch {
	case dataLen == 0:
		return 1
	case dataLen == 1 && (data[0] <= 16 || data[0] == 0x81):
		return 1
	case dataLen < OP_PUSHDATA1:
		return 1 + dataLen
	case dataLen <= 0xff:
		return 2 + dataLen
	case dataLen <= 0xffff:
		return 3 + dataLen
	}
	return 5 + dataLen
}

// addData appends the canonical push of data without enforcing any limit.
// Single small numbers become OP_0, OP_1 through OP_16 or OP_1NEGATE.
func (b *ScriptBuilder) addData(data []byte) *ScriptBuilder {
	dataLen := len(data)

	switch {
	case dataLen == 0 || dataLen == 1 && data[0] == 0:
		b.script = append(b.script, OP_0)
		return b
	case dataLen == 1 && data[0] <= 16:
		b.script = append(b.script, (OP_1-1)+data[0])
		return b
	case dataLen == 1 && data[0] == 0x81:
		b.script = append(b.script, byte(OP_1NEGATE))
		return b
	}

	switch {
	case dataLen < OP_PUSHDATA1:
		b.script = append(b.script, byte((OP_DATA_1-1)+dataLen))
	case dataLen <= 0xff:
		b.script = append(b.script, OP_PUSHDATA1, byte(dataLen))
	case dataLen <= 0xffff:
		b.script = append(b.script, OP_PUSHDATA2)
		b.script = binary.LittleEndian.AppendUint16(b.script, uint16(dataLen))
	default:
		b.script = append(b.script, OP_PUSHDATA4)
		b.script = binary.LittleEndian.AppendUint32(b.script, uint32(dataLen))
	}
	b.script = append(b.script, data...)
	return b
}

// AddFullData appends a canonical push of data ignoring every limit. It
// exists for tests that need scripts the engine rejects, and for
// recomputing the exact signature script of nested witness programs.
func (b *ScriptBuilder) AddFullData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	return b.addData(data)
}

// AddData appends a canonical push of data. Data larger than
// MaxScriptElementSize is refused.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	dataSize := canonicalDataSize(data)
	if !b.fits(dataSize, fmt.Sprintf("%d bytes of data", dataSize)) {
		return b
	}
	if len(data) > MaxScriptElementSize {
		str := fmt.Sprintf("adding a data element of %d bytes would "+
			"exceed the maximum allowed script element size of %d",
			len(data), MaxScriptElementSize)
		b.err = ErrScriptNotCanonical(str)
		return b
	}
	return b.addData(data)
}

// AddInt64 appends the minimal push of val.
func (b *ScriptBuilder) AddInt64(val int64) *ScriptBuilder {
	if b.err != nil || !b.fits(1, "an integer") {
		return b
	}
	if val == 0 {
		b.script = append(b.script, OP_0)
		return b
	}
	if val == -1 || (val >= 1 && val <= 16) {
		b.script = append(b.script, byte((OP_1-1)+val))
		return b
	}
	return b.AddData(scriptNum(val).Bytes())
}

// Reset empties the builder and clears its error.
func (b *ScriptBuilder) Reset() *ScriptBuilder {
	b.script = b.script[0:0]
	b.err = nil
	return b
}

// Script returns the script built so far and the first error met, if any.
func (b *ScriptBuilder) Script() ([]byte, error) {
	return b.script, b.err
}
