// Package vfs abstracts the directory the asset browser serves files from.
package vfs

import (
	"io"
)

type Element interface {
	Name() string
	IsDirectory() bool
}

// File is opened before Reader or Copy are used and closed afterwards.
type File interface {
	Element
	Size() int64
	Open(readonly bool) error
	Close() error
	Reader() (*io.SectionReader, error)
	Copy(src io.Reader) error
}

type Directory interface {
	Element
	List() ([]string, error)
	GetElement(name string) (Element, error)
}
