package binrw

import (
	"github.com/pkg/errors"
)

// Slice makes *s hold n elements: Reader allocates, every other target
// requires the record to already carry exactly n.
func Slice[T any](t Target, s *[]T, n int, what string) bool {
	if t.Err() != nil {
		return false
	}
	if t.Reading() {
		*s = make([]T, n)
		return true
	}
	if len(*s) != n {
		t.Fail(errors.Errorf("%s: record holds %d elements, layout declares %d", what, len(*s), n))
		return false
	}
	return true
}

// Array lays out n homogeneous elements using elem for each of them.
func Array[T any](t Target, s *[]T, n int, what string, elem func(Target, *T)) {
	if !Slice(t, s, n, what) {
		return
	}
	for i := range *s {
		if t.Err() != nil {
			return
		}
		elem(t, &(*s)[i])
	}
}

// Records lays out n nested records.
func Records[T any, PT interface {
	*T
	Record
}](t Target, s *[]T, n int, what string) {
	Array(t, s, n, what, func(t Target, v *T) { PT(v).Layout(t) })
}

func ByteSlice(t Target, s *[]byte, n int, what string) {
	if Slice(t, s, n, what) {
		t.Bytes(*s)
	}
}

func U16s(t Target, s *[]uint16, n int, what string) {
	Array(t, s, n, what, Target.U16)
}

func I16s(t Target, s *[]int16, n int, what string) {
	Array(t, s, n, what, Target.I16)
}

func U32s(t Target, s *[]uint32, n int, what string) {
	Array(t, s, n, what, Target.U32)
}

func F32s(t Target, s *[]float32, n int, what string) {
	Array(t, s, n, what, Target.F32)
}

func F16s(t Target, s *[]float32, n int, what string) {
	Array(t, s, n, what, Target.F16)
}

func CStrings(t Target, s *[]string, n int, what string) {
	Array(t, s, n, what, Target.CString)
}

// Section32 starts a section referenced by a 32-bit pointer field: the
// pointer is resolved under PointerCalculator and verified under Reader.
func Section32(t Target, ptr *uint32, name string) {
	t.TieU32(ptr)
	t.AssertOffset(name, int64(*ptr))
	t.Mark(name)
}

// Section16 is Section32 for 16-bit pointer fields.
func Section16(t Target, ptr *uint16, name string) {
	t.TieU16(ptr)
	t.AssertOffset(name, int64(*ptr))
	t.Mark(name)
}
