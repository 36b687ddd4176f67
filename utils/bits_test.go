package utils

import (
	"math/rand"
	"testing"
)

func TestBitChunkerExact(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, size := range []int{0, 1, 3, 17} {
		mask := make([]byte, size)
		rnd.Read(mask)
		total := size * 8

		for _, width := range []int{1, 3, 5, 8, 13, 64, 200} {
			c := NewBitChunker(mask, width)
			var all []bool
			full, short := 0, 0
			for {
				group, ok := c.Next()
				if !ok {
					break
				}
				if len(group) == width {
					full++
				} else {
					short++
					if len(group) != total%width {
						t.Errorf("size %d width %d: remainder %d bits; expected %d", size, width, len(group), total%width)
					}
				}
				all = append(all, group...)
			}

			if full != total/width {
				t.Errorf("size %d width %d: %d full groups; expected %d", size, width, full, total/width)
			}
			expectedShort := 0
			if total%width != 0 {
				expectedShort = 1
			}
			if short != expectedShort {
				t.Errorf("size %d width %d: %d short groups; expected %d", size, width, short, expectedShort)
			}
			if len(all) != total || c.Remaining() != 0 || c.Consumed() != total {
				t.Fatalf("size %d width %d: yielded %d of %d bits", size, width, len(all), total)
			}
			for i, b := range all {
				if b != Bit(mask, i) {
					t.Errorf("size %d width %d: bit %d out of order", size, width, i)
				}
			}
		}
	}
}

func TestBitChunkerLSBFirst(t *testing.T) {
	c := NewBitChunker([]byte{0x0a, 0x01}, 4)
	expected := [][]bool{
		{false, true, false, true},
		{false, false, false, false},
		{true, false, false, false},
	}
	for i, e := range expected {
		group, ok := c.Next()
		if !ok {
			t.Fatalf("group %d missing", i)
		}
		for j := range e {
			if group[j] != e[j] {
				t.Errorf("group %d bit %d = %v", i, j, group[j])
			}
		}
	}
	if !c.RestIsZero() {
		t.Errorf("rest of 0x0a01 reported non-zero after bit 12")
	}

	c = NewBitChunker([]byte{0x0a, 0x81}, 4)
	for i := 0; i < 3; i++ {
		c.Next()
	}
	if c.RestIsZero() {
		t.Errorf("bit 15 not detected")
	}
}

func TestSetBitCount(t *testing.T) {
	mask := make([]byte, BitVectorSize(21))
	if len(mask) != 3 {
		t.Fatalf("BitVectorSize(21) = %d", len(mask))
	}
	for _, i := range []int{0, 7, 8, 20} {
		SetBit(mask, i)
	}
	if mask[0] != 0x81 || mask[1] != 0x01 || mask[2] != 0x10 {
		t.Errorf("mask % x", mask)
	}
	if CountSetBits(mask) != 4 {
		t.Errorf("CountSetBits = %d", CountSetBits(mask))
	}
	if _, ok := NewBitChunker(mask, 0).Next(); ok {
		t.Errorf("zero width chunker yielded a group")
	}
}
