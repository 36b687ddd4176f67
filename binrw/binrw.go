package binrw

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/config"
)

// Read runs rec's layout under a fresh Reader.
func Read(r io.Reader, rec Record) error {
	rd := NewReader(r)
	rd.SetByteOrder(config.GetByteOrder())
	rec.Layout(rd)
	return rd.Err()
}

// ReadFile opens path, reads rec from it and closes the file on every path.
func ReadFile(path string, rec Record) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	return errors.Wrapf(Read(f, rec), "read %q", path)
}

// Write runs rec's layout under a Writer. Pointer and size fields must
// already be resolved; use Encode for that.
func Write(w io.Writer, rec Record) error {
	wr := NewWriter(w)
	wr.SetByteOrder(config.GetByteOrder())
	rec.Layout(wr)
	return wr.Flush()
}

// Measure returns the size of rec's layout.
func Measure(rec Record) (int64, error) {
	return MeasureAt(0, rec)
}

// MeasureAt returns the size of rec's layout when it starts at base.
func MeasureAt(base int64, rec Record) (int64, error) {
	ot := NewOffsetTracker(base)
	ot.SetByteOrder(config.GetByteOrder())
	rec.Layout(ot)
	if err := ot.Err(); err != nil {
		return 0, errors.Wrap(err, "measure")
	}
	return ot.Offset() - base, nil
}

// ResolvePointers fills every tied pointer field of rec and returns the
// section offsets it marked.
func ResolvePointers(rec Record) (map[string]int64, error) {
	pc := NewPointerCalculator(0)
	pc.SetByteOrder(config.GetByteOrder())
	rec.Layout(pc)
	if err := pc.Err(); err != nil {
		return nil, errors.Wrap(err, "resolve pointers")
	}
	return pc.Marks(), nil
}

// Encode prepares rec, measures it, resolves its pointers and writes it.
func Encode(rec Record) ([]byte, error) {
	if p, ok := rec.(Preparer); ok {
		if err := p.Prepare(); err != nil {
			return nil, errors.Wrap(err, "prepare")
		}
	}

	size, err := Measure(rec)
	if err != nil {
		return nil, err
	}
	if _, err := ResolvePointers(rec); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(int(size))
	if err := Write(&buf, rec); err != nil {
		return nil, errors.Wrap(err, "write")
	}
	if int64(buf.Len()) != size {
		return nil, errors.Errorf("written %d bytes, measured %d", buf.Len(), size)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes rec and stores it at path.
func WriteFile(path string, rec Record) error {
	data, err := Encode(rec)
	if err != nil {
		return errors.Wrapf(err, "encode %q", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %q", path)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(err, "write %q", path)
	}
	return errors.Wrapf(f.Sync(), "sync %q", path)
}
