package utils

import (
	"github.com/davecgh/go-spew/spew"
)

var spewConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
	MaxDepth:                8,
}

// SDump formats decoded records for the dump views.
func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// Dump writes a record dump to l.
func (l *Logger) Dump(a ...interface{}) {
	if l != nil {
		spewConfig.Fdump(l, a...)
	}
}
