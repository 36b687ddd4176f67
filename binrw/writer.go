package binrw

import (
	"bufio"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/utils"
)

// Writer emits the bytes a record layout describes.
type Writer struct {
	cursor
	w   *bufio.Writer
	buf [8]byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{cursor: newCursor(0), w: bufio.NewWriter(w)}
}

func (w *Writer) Reading() bool { return false }

// Flush pushes buffered bytes to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = errors.Wrap(err, "flush")
	}
	return w.err
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(p); err != nil {
		w.err = errors.Wrapf(err, "write %d bytes at offset 0x%x", len(p), w.off)
		return
	}
	w.off += int64(len(p))
}

func (w *Writer) U8(v *uint8) {
	w.buf[0] = *v
	w.write(w.buf[:1])
}

func (w *Writer) U16(v *uint16) {
	w.order.PutUint16(w.buf[:2], *v)
	w.write(w.buf[:2])
}

func (w *Writer) U32(v *uint32) {
	w.order.PutUint32(w.buf[:4], *v)
	w.write(w.buf[:4])
}

func (w *Writer) U64(v *uint64) {
	w.order.PutUint64(w.buf[:8], *v)
	w.write(w.buf[:8])
}

func (w *Writer) I8(v *int8) {
	w.buf[0] = uint8(*v)
	w.write(w.buf[:1])
}

func (w *Writer) I16(v *int16) {
	w.order.PutUint16(w.buf[:2], uint16(*v))
	w.write(w.buf[:2])
}

func (w *Writer) I32(v *int32) {
	w.order.PutUint32(w.buf[:4], uint32(*v))
	w.write(w.buf[:4])
}

func (w *Writer) I64(v *int64) {
	w.order.PutUint64(w.buf[:8], uint64(*v))
	w.write(w.buf[:8])
}

func (w *Writer) F16(v *float32) {
	w.order.PutUint16(w.buf[:2], HalfFromFloat32(*v))
	w.write(w.buf[:2])
}

func (w *Writer) F32(v *float32) {
	w.order.PutUint32(w.buf[:4], math.Float32bits(*v))
	w.write(w.buf[:4])
}

func (w *Writer) F64(v *float64) {
	w.order.PutUint64(w.buf[:8], math.Float64bits(*v))
	w.write(w.buf[:8])
}

func (w *Writer) Bytes(b []byte) {
	w.write(b)
}

func (w *Writer) FixedString(s *string, size int) {
	if w.err != nil {
		return
	}
	raw, err := utils.EncodeString(*s)
	if err != nil {
		w.err = errors.Wrapf(err, "string at offset 0x%x", w.off)
		return
	}
	if len(raw) > size {
		w.err = errors.Errorf("string %q does not fit %d bytes at offset 0x%x", *s, size, w.off)
		return
	}
	buf := make([]byte, size)
	copy(buf, raw)
	w.write(buf)
}

func (w *Writer) CString(s *string) {
	if w.err != nil {
		return
	}
	raw, err := utils.EncodeString(*s)
	if err != nil {
		w.err = errors.Wrapf(err, "string at offset 0x%x", w.off)
		return
	}
	w.write(append(raw, 0))
}

func (w *Writer) Align(n int64, fill byte) {
	pad := w.padding(n)
	if pad == 0 {
		return
	}
	buf := make([]byte, pad)
	if fill != 0 {
		for i := range buf {
			buf[i] = fill
		}
	}
	w.write(buf)
}

func (w *Writer) AssertEqual(what string, expected, actual interface{}) {}
func (w *Writer) AssertZero(what string, v interface{})                 {}
func (w *Writer) AssertOffset(what string, expected int64)              {}

func (w *Writer) TieU16(p *uint16) {}
func (w *Writer) TieU32(p *uint32) {}

func (w *Writer) Mark(name string) {}
