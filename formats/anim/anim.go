// Package anim implements the compressed keyframe animation format and its
// decoded, per-channel sparse representation.
package anim

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/binrw"
	"github.com/mogaika/assetcodec/formats/skel"
)

// ReadBinary reads the on-disk record without rebuilding tracks.
func ReadBinary(r io.Reader, sk *skel.Skeleton) (*AnimBinary, error) {
	ab := NewAnimBinary(sk)
	if err := binrw.Read(r, ab); err != nil {
		return nil, errors.Wrap(err, "animation")
	}
	return ab, nil
}

func ReadBinaryFile(path string, sk *skel.Skeleton) (*AnimBinary, error) {
	ab := NewAnimBinary(sk)
	if err := binrw.ReadFile(path, ab); err != nil {
		return nil, errors.Wrap(err, "animation")
	}
	return ab, nil
}

func Decode(r io.Reader, sk *skel.Skeleton) (*AnimInterface, error) {
	ab, err := ReadBinary(r, sk)
	if err != nil {
		return nil, err
	}
	return FromBinary(ab)
}

func DecodeFile(path string, sk *skel.Skeleton) (*AnimInterface, error) {
	ab, err := ReadBinaryFile(path, sk)
	if err != nil {
		return nil, err
	}
	ai, err := FromBinary(ab)
	if err != nil {
		return nil, errors.Wrapf(err, "animation %q", path)
	}
	return ai, nil
}

func (ai *AnimInterface) Encode(sk *skel.Skeleton, opts EncodeOptions) ([]byte, error) {
	ab, err := ai.ToBinary(sk, opts)
	if err != nil {
		return nil, err
	}
	return binrw.Encode(ab)
}

func (ai *AnimInterface) EncodeFile(path string, sk *skel.Skeleton, opts EncodeOptions) error {
	ab, err := ai.ToBinary(sk, opts)
	if err != nil {
		return errors.Wrapf(err, "animation %q", path)
	}
	return binrw.WriteFile(path, ab)
}
