// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"errors"
	"math/big"
	"testing"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
)

func TestBigToCompact(t *testing.T) {
	tests := []struct {
		in  int64
		out uint32
	}{
		{0, 0},
		{-1, 25231360},
		{0x12, 0x01120000},
		{0x1234, 0x02123400},
		{0x80, 0x02008000},
	}

	for x, test := range tests {
		n := big.NewInt(test.in)
		r := BigToCompact(n)
		if r != test.out {
			t.Errorf("TestBigToCompact test #%d failed: got %d want %d\n",
				x, r, test.out)
			return
		}
	}
}

func TestCompactToBig(t *testing.T) {
	tests := []struct {
		in       uint32
		out      int64
		negative bool
		overflow bool
	}{
		{10000000, 0, false, false},
		{0x01003456, 0, false, false},
		{0x01123456, 0x12, false, false},
		{0x02008000, 0x80, false, false},
		{0x05009234, 0x92340000, false, false},
		{0x04923456, -0x12345600, true, false},
		{0x04123456, 0x12345600, false, false},
		{0x01803456, 0, false, false},
		{0xff123456, 0, false, true},
	}

	for x, test := range tests {
		n, negative, overflow := CompactToBigChecked(test.in)
		if negative != test.negative || overflow != test.overflow {
			t.Errorf("TestCompactToBig test #%d: negative %t overflow %t", x, negative, overflow)
			continue
		}
		if test.overflow {
			continue
		}
		want := big.NewInt(test.out)
		if n.Cmp(want) != 0 {
			t.Errorf("TestCompactToBig test #%d failed: got %d want %d\n",
				x, n.Int64(), want.Int64())
		}
	}
}

func TestCalcWork(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
		{0x207fffff, 2},
		{0x04923456, 0},
	}

	for x, test := range tests {
		r := CalcWork(test.in)
		if r.Int64() != test.out {
			t.Errorf("TestCalcWork test #%d failed: got %v want %d\n",
				x, r.Int64(), test.out)
		}
	}

	if CalcWork(0x1d00ffff).Cmp(big.NewInt(0x100010001)) != 0 {
		t.Errorf("TestCalcWork: the work of a difficulty one block is 0x100010001, got %x", CalcWork(0x1d00ffff))
	}
}

func TestCheckProofOfWork(t *testing.T) {
	powLimit := CompactToBig(0x207fffff)
	lowHash := &externalapi.DomainHash{}
	highHash := &externalapi.DomainHash{}
	highHash[31] = 0xff

	if err := CheckProofOfWork(lowHash, 0x207fffff, powLimit); err != nil {
		t.Fatalf("TestCheckProofOfWork: unexpected error %s", err)
	}
	if err := CheckProofOfWork(highHash, 0x207fffff, powLimit); !errors.Is(err, ruleerrors.ErrHighHash) {
		t.Fatalf("TestCheckProofOfWork: expected ErrHighHash, got %v", err)
	}

	for _, bits := range []uint32{0, 0x04923456, 0xff123456, 0x21010000} {
		err := CheckProofOfWork(lowHash, bits, powLimit)
		if !errors.Is(err, ruleerrors.ErrTargetOutOfRange) {
			t.Fatalf("TestCheckProofOfWork: bits %08x: expected ErrTargetOutOfRange, got %v", bits, err)
		}
	}
}
