// Package binrw describes binary records once and runs that description
// for reading, writing, and offset/pointer computation.
package binrw

import (
	"encoding/binary"
)

// Target is the primitive surface every record layout is written against.
// There are four implementations: Reader, Writer, OffsetTracker and
// PointerCalculator.
//
// Errors are sticky: after the first failure every operation is a no-op and
// Err returns the failure. A failed Target must not be reused.
type Target interface {
	Offset() int64
	ByteOrder() binary.ByteOrder
	SetByteOrder(o binary.ByteOrder)
	// Reading reports whether values flow from the stream into the record,
	// so layouts know when to allocate slices.
	Reading() bool
	Err() error
	Fail(err error)

	U8(v *uint8)
	U16(v *uint16)
	U32(v *uint32)
	U64(v *uint64)
	I8(v *int8)
	I16(v *int16)
	I32(v *int32)
	I64(v *int64)
	F16(v *float32)
	F32(v *float32)
	F64(v *float64)
	Bytes(b []byte)
	FixedString(s *string, size int)
	CString(s *string)

	// Align pads to the next multiple of n using fill.
	Align(n int64, fill byte)

	// Assertions validate under Reader only.
	AssertEqual(what string, expected, actual interface{})
	AssertZero(what string, v interface{})
	AssertOffset(what string, expected int64)

	// Tie stores the current offset into p under PointerCalculator only.
	TieU16(p *uint16)
	TieU32(p *uint32)

	// Mark remembers where a named section starts.
	Mark(name string)
}

// Record is implemented by everything that has an on-disk layout.
type Record interface {
	Layout(t Target)
}

// Preparer is implemented by records that derive counts, sizes and other
// redundant header fields from their content before being encoded.
type Preparer interface {
	Prepare() error
}

type cursor struct {
	off   int64
	order binary.ByteOrder
	err   error
	marks map[string]int64
}

func newCursor(off int64) cursor {
	return cursor{off: off, order: binary.LittleEndian}
}

func (c *cursor) Offset() int64                   { return c.off }
func (c *cursor) ByteOrder() binary.ByteOrder     { return c.order }
func (c *cursor) SetByteOrder(o binary.ByteOrder) { c.order = o }
func (c *cursor) Err() error                      { return c.err }

func (c *cursor) Fail(err error) {
	if c.err == nil && err != nil {
		c.err = err
	}
}

func (c *cursor) mark(name string) {
	if c.err != nil {
		return
	}
	if c.marks == nil {
		c.marks = make(map[string]int64)
	}
	c.marks[name] = c.off
}

// Marks returns section start offsets recorded with Mark.
func (c *cursor) Marks() map[string]int64 {
	return c.marks
}

func (c *cursor) padding(n int64) int64 {
	if n <= 1 {
		return 0
	}
	if rem := c.off % n; rem != 0 {
		return n - rem
	}
	return 0
}
