package utils

import "math/bits"

// BitChunker lazily splits a packed mask into successive groups of width
// bits, least significant bit of every byte first.
type BitChunker struct {
	mask  []byte
	width int
	pos   int
	group []bool
}

func NewBitChunker(mask []byte, width int) *BitChunker {
	c := &BitChunker{mask: mask, width: width}
	if width > 0 {
		c.group = make([]bool, width)
	}
	return c
}

// Next returns the next group. The last group is shorter when the mask
// length is not a multiple of the width. The returned slice is reused by
// the following call.
func (c *BitChunker) Next() ([]bool, bool) {
	total := len(c.mask) * 8
	if c.width <= 0 || c.pos >= total {
		return nil, false
	}
	n := c.width
	if rest := total - c.pos; rest < n {
		n = rest
	}
	group := c.group[:n]
	for i := range group {
		group[i] = Bit(c.mask, c.pos+i)
	}
	c.pos += n
	return group, true
}

// Consumed returns how many bits were yielded so far.
func (c *BitChunker) Consumed() int {
	return c.pos
}

func (c *BitChunker) Remaining() int {
	return len(c.mask)*8 - c.pos
}

// RestIsZero reports whether every bit not yet yielded is unset.
func (c *BitChunker) RestIsZero() bool {
	total := len(c.mask) * 8
	i := c.pos
	for ; i < total && i&7 != 0; i++ {
		if Bit(c.mask, i) {
			return false
		}
	}
	for _, b := range c.mask[i>>3:] {
		if bits.OnesCount8(b) != 0 {
			return false
		}
	}
	return true
}

func Bit(mask []byte, i int) bool {
	return mask[i>>3]&(1<<(uint(i)&7)) != 0
}

func SetBit(mask []byte, i int) {
	mask[i>>3] |= 1 << (uint(i) & 7)
}

// BitVectorSize returns how many bytes hold n packed bits.
func BitVectorSize(n int) int {
	return (n + 7) / 8
}

// CountSetBits counts set bits in a packed mask.
func CountSetBits(mask []byte) int {
	n := 0
	for _, b := range mask {
		n += bits.OnesCount8(b)
	}
	return n
}
