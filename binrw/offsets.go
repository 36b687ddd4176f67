package binrw

import (
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/utils"
)

// OffsetTracker walks a layout advancing a virtual cursor without
// producing bytes.
type OffsetTracker struct {
	cursor
}

func NewOffsetTracker(base int64) *OffsetTracker {
	return &OffsetTracker{cursor: newCursor(base)}
}

func (o *OffsetTracker) Reading() bool { return false }

func (o *OffsetTracker) skip(n int64) {
	if o.err == nil {
		o.off += n
	}
}

func (o *OffsetTracker) U8(*uint8)    { o.skip(1) }
func (o *OffsetTracker) U16(*uint16)  { o.skip(2) }
func (o *OffsetTracker) U32(*uint32)  { o.skip(4) }
func (o *OffsetTracker) U64(*uint64)  { o.skip(8) }
func (o *OffsetTracker) I8(*int8)     { o.skip(1) }
func (o *OffsetTracker) I16(*int16)   { o.skip(2) }
func (o *OffsetTracker) I32(*int32)   { o.skip(4) }
func (o *OffsetTracker) I64(*int64)   { o.skip(8) }
func (o *OffsetTracker) F16(*float32) { o.skip(2) }
func (o *OffsetTracker) F32(*float32) { o.skip(4) }
func (o *OffsetTracker) F64(*float64) { o.skip(8) }

func (o *OffsetTracker) Bytes(b []byte) { o.skip(int64(len(b))) }

func (o *OffsetTracker) FixedString(s *string, size int) { o.skip(int64(size)) }

func (o *OffsetTracker) CString(s *string) {
	if o.err != nil {
		return
	}
	raw, err := utils.EncodeString(*s)
	if err != nil {
		o.err = errors.Wrapf(err, "string at offset 0x%x", o.off)
		return
	}
	o.skip(int64(len(raw)) + 1)
}

func (o *OffsetTracker) Align(n int64, fill byte) { o.skip(o.padding(n)) }

func (o *OffsetTracker) AssertEqual(what string, expected, actual interface{}) {}
func (o *OffsetTracker) AssertZero(what string, v interface{})                 {}
func (o *OffsetTracker) AssertOffset(what string, expected int64)              {}

func (o *OffsetTracker) TieU16(p *uint16) {}
func (o *OffsetTracker) TieU32(p *uint32) {}

func (o *OffsetTracker) Mark(name string) { o.mark(name) }

// PointerCalculator is an OffsetTracker that also resolves forward
// pointer fields to the virtual offset they are tied at.
type PointerCalculator struct {
	OffsetTracker
}

func NewPointerCalculator(base int64) *PointerCalculator {
	return &PointerCalculator{OffsetTracker: OffsetTracker{cursor: newCursor(base)}}
}

func (p *PointerCalculator) TieU16(v *uint16) {
	if p.err != nil {
		return
	}
	if p.off > 0xffff {
		p.err = errors.Errorf("offset 0x%x does not fit 16-bit pointer", p.off)
		return
	}
	*v = uint16(p.off)
}

func (p *PointerCalculator) TieU32(v *uint32) {
	if p.err != nil {
		return
	}
	if p.off > 0xffffffff {
		p.err = errors.Errorf("offset 0x%x does not fit 32-bit pointer", p.off)
		return
	}
	*v = uint32(p.off)
}
