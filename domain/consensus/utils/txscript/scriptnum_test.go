// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"testing"
)

func TestScriptNumBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		num        scriptNum
		serialized []byte
	}{
		{0, nil},
		{1, hexToBytes("01")},
		{-1, hexToBytes("81")},
		{127, hexToBytes("7f")},
		{-127, hexToBytes("ff")},
		{128, hexToBytes("8000")},
		{-128, hexToBytes("8080")},
		{255, hexToBytes("ff00")},
		{-255, hexToBytes("ff80")},
		{32768, hexToBytes("008000")},
		{-32768, hexToBytes("008080")},
		{2147483647, hexToBytes("ffffff7f")},
		{-2147483647, hexToBytes("ffffffff")},
		{2147483648, hexToBytes("0000008000")},
		{-2147483648, hexToBytes("0000008080")},
	}
	for _, test := range tests {
		if got := test.num.Bytes(); !bytes.Equal(got, test.serialized) {
			t.Errorf("TestScriptNumBytes: %d: got %x, want %x", test.num, got, test.serialized)
			continue
		}
		if len(test.serialized) > defaultScriptNumLen {
			continue
		}
		num, err := makeScriptNum(test.serialized, true, defaultScriptNumLen)
		if err != nil {
			t.Errorf("TestScriptNumBytes: makeScriptNum(%x): %s", test.serialized, err)
			continue
		}
		if num != test.num {
			t.Errorf("TestScriptNumBytes: makeScriptNum(%x) = %d, want %d", test.serialized, num, test.num)
		}
	}
}

func TestMakeScriptNumErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		serialized     []byte
		requireMinimal bool
		expected       ErrorCode
	}{
		{hexToBytes("0000008000"), false, ErrNumberTooBig},
		{hexToBytes("00"), true, ErrMinimalData},
		{hexToBytes("80"), true, ErrMinimalData},
		{hexToBytes("0100"), true, ErrMinimalData},
		{hexToBytes("7f80"), true, ErrMinimalData},
	}
	for _, test := range tests {
		_, err := makeScriptNum(test.serialized, test.requireMinimal, defaultScriptNumLen)
		if !IsErrorCode(err, test.expected) {
			t.Errorf("TestMakeScriptNumErrors: %x: expected %s, got %v", test.serialized, test.expected, err)
		}
	}

	// Non-minimal encodings are accepted when minimality is not required.
	num, err := makeScriptNum(hexToBytes("0100"), false, defaultScriptNumLen)
	if err != nil || num != 1 {
		t.Errorf("TestMakeScriptNumErrors: lax 0100 gave %d, %v", num, err)
	}
	// 0xff80 is -255 and minimal, because 0xff alone is -127.
	if _, err := makeScriptNum(hexToBytes("ff80"), true, defaultScriptNumLen); err != nil {
		t.Errorf("TestMakeScriptNumErrors: ff80: %s", err)
	}
}

func TestScriptNumInt32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   scriptNum
		want int32
	}{
		{0, 0},
		{-5, -5},
		{maxInt32, maxInt32},
		{maxInt32 + 1, maxInt32},
		{minInt32 - 1, minInt32},
		{1 << 40, maxInt32},
	}
	for _, test := range tests {
		if got := test.in.Int32(); got != test.want {
			t.Errorf("TestScriptNumInt32: %d: got %d, want %d", test.in, got, test.want)
		}
	}
}
