package binrw

import (
	"fmt"
	"reflect"
)

// AssertionError is raised by Reader when a value or position differs from
// what the layout declares.
type AssertionError struct {
	What     string
	Expected interface{}
	Actual   interface{}
	Offset   int64
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %v, got %v (offset 0x%x)", e.What, e.Expected, e.Actual, e.Offset)
}

func equalValues(expected, actual interface{}) bool {
	return reflect.DeepEqual(expected, actual)
}

func isZeroValue(v interface{}) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
