package vfs

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// DirectoryDriver exposes an OS directory. Names never leave it: path
// separators and parent references are rejected.
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	entries, err := os.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "list directory %q", dd.path)
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.Name())
	}
	sort.Strings(result)
	return result, nil
}

func (dd *DirectoryDriver) resolve(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", errors.Errorf("invalid element name %q", name)
	}
	return filepath.Join(dd.path, name), nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	path, err := dd.resolve(name)
	if err != nil {
		return nil, err
	}
	s, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %q", path)
	}
	if s.IsDir() {
		return NewDirectoryDriver(path), nil
	}
	return &DirectoryDriverFile{path: path}, nil
}

type DirectoryDriverFile struct {
	path string
	f    *os.File
}

func (ddf *DirectoryDriverFile) Name() string {
	return filepath.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Size() int64 {
	stat, err := os.Stat(ddf.path)
	if err != nil {
		return 0
	}
	return stat.Size()
}

func (ddf *DirectoryDriverFile) Open(readonly bool) error {
	if ddf.f != nil {
		return errors.Errorf("%q already opened", ddf.path)
	}
	flags := os.O_RDWR
	if readonly {
		flags = os.O_RDONLY
	}
	f, err := os.OpenFile(ddf.path, flags, 0)
	if err != nil {
		return errors.Wrapf(err, "open %q", ddf.path)
	}
	ddf.f = f
	return nil
}

func (ddf *DirectoryDriverFile) Close() error {
	if ddf.f == nil {
		return nil
	}
	err := ddf.f.Close()
	ddf.f = nil
	return errors.Wrapf(err, "close %q", ddf.path)
}

func (ddf *DirectoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, errors.Errorf("%q is not opened", ddf.path)
	}
	return io.NewSectionReader(ddf.f, 0, ddf.Size()), nil
}

// Copy replaces the file content with src.
func (ddf *DirectoryDriverFile) Copy(src io.Reader) error {
	if ddf.f == nil {
		return errors.Errorf("%q is not opened", ddf.path)
	}
	if err := ddf.f.Truncate(0); err != nil {
		return errors.Wrapf(err, "truncate %q", ddf.path)
	}
	if _, err := ddf.f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek %q", ddf.path)
	}
	if _, err := io.Copy(ddf.f, src); err != nil {
		return errors.Wrapf(err, "write %q", ddf.path)
	}
	return errors.Wrapf(ddf.f.Sync(), "sync %q", ddf.path)
}
