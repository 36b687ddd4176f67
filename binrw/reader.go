package binrw

import (
	"bufio"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/utils"
)

// Reader materializes records from a byte stream.
type Reader struct {
	cursor
	r   *bufio.Reader
	buf [8]byte
}

func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{cursor: newCursor(0), r: br}
}

func (r *Reader) Reading() bool { return true }

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		r.err = errors.Wrapf(err, "read %d bytes at offset 0x%x", len(p), r.off)
		return false
	}
	r.off += int64(len(p))
	return true
}

func (r *Reader) U8(v *uint8) {
	if r.read(r.buf[:1]) {
		*v = r.buf[0]
	}
}

func (r *Reader) U16(v *uint16) {
	if r.read(r.buf[:2]) {
		*v = r.order.Uint16(r.buf[:2])
	}
}

func (r *Reader) U32(v *uint32) {
	if r.read(r.buf[:4]) {
		*v = r.order.Uint32(r.buf[:4])
	}
}

func (r *Reader) U64(v *uint64) {
	if r.read(r.buf[:8]) {
		*v = r.order.Uint64(r.buf[:8])
	}
}

func (r *Reader) I8(v *int8) {
	if r.read(r.buf[:1]) {
		*v = int8(r.buf[0])
	}
}

func (r *Reader) I16(v *int16) {
	if r.read(r.buf[:2]) {
		*v = int16(r.order.Uint16(r.buf[:2]))
	}
}

func (r *Reader) I32(v *int32) {
	if r.read(r.buf[:4]) {
		*v = int32(r.order.Uint32(r.buf[:4]))
	}
}

func (r *Reader) I64(v *int64) {
	if r.read(r.buf[:8]) {
		*v = int64(r.order.Uint64(r.buf[:8]))
	}
}

func (r *Reader) F16(v *float32) {
	if r.read(r.buf[:2]) {
		*v = HalfToFloat32(r.order.Uint16(r.buf[:2]))
	}
}

func (r *Reader) F32(v *float32) {
	if r.read(r.buf[:4]) {
		*v = math.Float32frombits(r.order.Uint32(r.buf[:4]))
	}
}

func (r *Reader) F64(v *float64) {
	if r.read(r.buf[:8]) {
		*v = math.Float64frombits(r.order.Uint64(r.buf[:8]))
	}
}

func (r *Reader) Bytes(b []byte) {
	r.read(b)
}

func (r *Reader) FixedString(s *string, size int) {
	raw := make([]byte, size)
	if !r.read(raw) {
		return
	}
	str, err := utils.DecodeString(raw[:utils.BytesStringLength(raw)])
	if err != nil {
		r.err = errors.Wrapf(err, "string at offset 0x%x", r.off-int64(size))
		return
	}
	*s = str
}

func (r *Reader) CString(s *string) {
	if r.err != nil {
		return
	}
	start := r.off
	raw, err := r.r.ReadBytes(0)
	if err != nil {
		r.err = errors.Wrapf(err, "unterminated string at offset 0x%x", start)
		return
	}
	r.off += int64(len(raw))
	str, err := utils.DecodeString(raw[:len(raw)-1])
	if err != nil {
		r.err = errors.Wrapf(err, "string at offset 0x%x", start)
		return
	}
	*s = str
}

func (r *Reader) Align(n int64, fill byte) {
	pad := r.padding(n)
	for i := int64(0); i < pad && r.err == nil; i++ {
		if r.read(r.buf[:1]) && r.buf[0] != fill {
			r.err = &AssertionError{What: "alignment padding", Expected: fill, Actual: r.buf[0], Offset: r.off - 1}
		}
	}
}

func (r *Reader) AssertEqual(what string, expected, actual interface{}) {
	if r.err == nil && !equalValues(expected, actual) {
		r.err = &AssertionError{What: what, Expected: expected, Actual: actual, Offset: r.off}
	}
}

func (r *Reader) AssertZero(what string, v interface{}) {
	if r.err == nil && !isZeroValue(v) {
		r.err = &AssertionError{What: what, Expected: 0, Actual: v, Offset: r.off}
	}
}

func (r *Reader) AssertOffset(what string, expected int64) {
	if r.err == nil && r.off != expected {
		r.err = &AssertionError{What: "position of " + what, Expected: expected, Actual: r.off, Offset: r.off}
	}
}

func (r *Reader) TieU16(p *uint16) {}
func (r *Reader) TieU32(p *uint32) {}

func (r *Reader) Mark(name string) { r.mark(name) }
