// Package pack decodes files of a directory through loaders registered per
// file extension.
package pack

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/vfs"
)

// Source describes the file a loader runs on.
type Source interface {
	Name() string
	Size() int64
	Directory() vfs.Directory
}

type FileLoader func(src Source, r *io.SectionReader) (interface{}, error)

var gHandlers = make(map[string]FileLoader)

func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

func HasHandler(name string) bool {
	_, found := gHandlers[strings.ToUpper(filepath.Ext(name))]
	return found
}

func CallHandler(s Source, r *io.SectionReader) (interface{}, error) {
	ext := strings.ToUpper(filepath.Ext(s.Name()))
	h, found := gHandlers[ext]
	if !found {
		return nil, errors.Errorf("[pack] no handler for %q extension", ext)
	}
	return h(s, r)
}

type PackResSrc struct {
	pf vfs.File
	d  vfs.Directory
}

func (s *PackResSrc) Name() string {
	return s.pf.Name()
}

func (s *PackResSrc) Size() int64 {
	return s.pf.Size()
}

func (s *PackResSrc) Directory() vfs.Directory {
	return s.d
}

// GetInstanceHandler decodes fileName of d with the loader of its extension.
func GetInstanceHandler(d vfs.Directory, fileName string) (interface{}, error) {
	f, err := vfs.DirectoryGetFile(d, fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] get %q", fileName)
	}

	r, err := vfs.OpenFileAndGetReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] open %q", fileName)
	}
	defer f.Close()

	inst, err := CallHandler(&PackResSrc{d: d, pf: f}, r)
	if err != nil {
		return nil, errors.Wrapf(err, "[pack] %q", fileName)
	}
	return inst, nil
}
