package anim

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/pack"
	"github.com/mogaika/assetcodec/vfs"
)

// Asset is an animation file decoded against the skeleton stored next to it.
type Asset struct {
	Name         string
	SkeletonName string
	Skeleton     *skel.Skeleton `json:"-"`
	Binary       *AnimBinary    `json:"-"`
	Anim         *AnimInterface
}

// SkeletonName returns the skeleton file an animation file belongs to:
// "walk.anim" and "walk.run.anim" both use "walk.skel". An upper case
// extension gives an upper case one ("WALK.ANIM" uses "WALK.SKEL").
func SkeletonName(animName string) string {
	ext := filepath.Ext(animName)
	base := strings.TrimSuffix(animName, ext)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if ext != strings.ToLower(ext) && ext == strings.ToUpper(ext) {
		return base + ".SKEL"
	}
	return base + ".skel"
}

func LoadSkeleton(d vfs.Directory, animName string) (*skel.Skeleton, string, error) {
	name := SkeletonName(animName)
	inst, err := pack.GetInstanceHandler(d, name)
	if err != nil {
		return nil, name, err
	}
	sk, ok := inst.(*skel.Skeleton)
	if !ok {
		return nil, name, errors.Errorf("%q is not a skeleton", name)
	}
	return sk, name, nil
}

func init() {
	pack.SetHandler(".ANIM", func(src pack.Source, r *io.SectionReader) (interface{}, error) {
		sk, skelName, err := LoadSkeleton(src.Directory(), src.Name())
		if err != nil {
			return nil, err
		}
		ab, err := ReadBinary(r, sk)
		if err != nil {
			return nil, err
		}
		ai, err := FromBinary(ab)
		if err != nil {
			return nil, err
		}
		return &Asset{Name: src.Name(), SkeletonName: skelName, Skeleton: sk, Binary: ab, Anim: ai}, nil
	})
}
