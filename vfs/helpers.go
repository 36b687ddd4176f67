package vfs

import (
	"io"

	"github.com/pkg/errors"
)

// OpenFileAndGetReader opens f read-only. The caller closes f.
func OpenFileAndGetReader(f File) (*io.SectionReader, error) {
	if err := f.Open(true); err != nil {
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func OpenFileAndCopy(f File, src io.Reader) error {
	if err := f.Open(false); err != nil {
		return err
	}
	defer f.Close()
	return f.Copy(src)
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	e, err := d.GetElement(name)
	if err != nil {
		return nil, err
	}
	f, ok := e.(File)
	if !ok {
		return nil, errors.Errorf("%q is a directory", name)
	}
	return f, nil
}
