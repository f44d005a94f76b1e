package txscript

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// shortFormOps maps opcode names, with and without their OP_ prefix, to
// their values. Names of small integers keep the prefix so they do not
// collide with plain numbers.
var shortFormOps map[string]byte

// parseShortForm parses a script written as space separated tokens:
//   - OP_NAME or NAME for opcodes
//   - plain numbers for minimal pushes of numbers
//   - 0x followed by hex for raw bytes copied as they are
//   - single quoted strings for pushes of their bytes
func parseShortForm(script string) ([]byte, error) {
	if shortFormOps == nil {
		ops := make(map[string]byte)
		for opcodeName, opcodeValue := range OpcodeByName {
			if strings.Contains(opcodeName, "OP_UNKNOWN") {
				continue
			}
			ops[opcodeName] = opcodeValue
			if (opcodeName == "OP_FALSE" || opcodeName == "OP_TRUE") ||
				(opcodeValue != OP_0 && (opcodeValue < OP_1 || opcodeValue > OP_16)) {

				ops[strings.TrimPrefix(opcodeName, "OP_")] = opcodeValue
			}
		}
		shortFormOps = ops
	}

	builder := NewScriptBuilder()
	for _, tok := range strings.Fields(script) {
		if num, err := strconv.ParseInt(tok, 10, 64); err == nil {
			builder.AddInt64(num)
			continue
		}
		if strings.HasPrefix(tok, "0x") {
			raw, err := hex.DecodeString(tok[2:])
			if err != nil {
				return nil, errors.Wrapf(err, "bad hex token %q", tok)
			}
			// Appended directly since tests deliberately build
			// scripts the builder would refuse.
			if builder.err == nil {
				builder.script = append(builder.script, raw...)
			}
			continue
		}
		if len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
			builder.AddFullData([]byte(tok[1 : len(tok)-1]))
			continue
		}
		opcode, ok := shortFormOps[tok]
		if !ok {
			return nil, errors.Errorf("bad token %q", tok)
		}
		builder.AddOp(opcode)
	}
	return builder.Script()
}

// mustParseShortForm parses the passed short form script and returns the
// resulting bytes. It panics if an error occurs. This is only used in the
// tests as a helper since the only way it can fail is if there is an error in
// the test source code.
func mustParseShortForm(script string) []byte {
	s, err := parseShortForm(script)
	if err != nil {
		panic("invalid short form script in test source: err " +
			err.Error() + ", script: " + script)
	}
	return s
}

// hexToBytes converts the passed hex string into bytes and will panic if there
// is an error. This is only provided for the hard-coded constants so errors in
// the source code can be detected. It will only (and must only) be called with
// hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}
