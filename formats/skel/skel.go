// Package skel implements the skeleton descriptor format animations are
// decoded against.
package skel

import (
	"hash/fnv"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/binrw"
	"github.com/mogaika/assetcodec/pack"
)

const (
	Tag        = "SKEL"
	Version    = 1
	HeaderSize = 0x30
)

type Bone struct {
	Name     string
	Parent   int16 // -1 for roots
	Rotation mgl32.Quat
	Location mgl32.Vec3
	Scale    mgl32.Vec3
}

// FloatChannel is a named scalar animated alongside the bones (blend
// shape weights, material parameters). Default is stored as a half float.
type FloatChannel struct {
	Name    string
	Default float32
}

type header struct {
	Tag                 [4]byte
	Version             uint32
	BoneCount           uint16
	FloatChannelCount   uint16
	Reserved            uint32
	ParentsOffset       uint32
	PoseOffset          uint32
	NamesOffset         uint32
	FloatChannelsOffset uint32
}

type Skeleton struct {
	Bones         []Bone
	FloatChannels []FloatChannel
	Hash          uint64

	header header
}

func New(bones []Bone, channels []FloatChannel) *Skeleton {
	return &Skeleton{Bones: bones, FloatChannels: channels}
}

func (s *Skeleton) BoneCount() int {
	return len(s.Bones)
}

func (s *Skeleton) FloatChannelCount() int {
	return len(s.FloatChannels)
}

// FindBone returns the index of the bone called name, or -1.
func (s *Skeleton) FindBone(name string) int {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return i
		}
	}
	return -1
}

func (s *Skeleton) FindFloatChannel(name string) int {
	for i := range s.FloatChannels {
		if s.FloatChannels[i].Name == name {
			return i
		}
	}
	return -1
}

// NameHash identifies a skeleton by its bone names.
func (s *Skeleton) NameHash() uint64 {
	h := fnv.New64a()
	for i := range s.Bones {
		io.WriteString(h, s.Bones[i].Name)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Validate checks that parents precede their children.
func (s *Skeleton) Validate() error {
	if len(s.Bones) > 0xffff || len(s.FloatChannels) > 0xffff {
		return errors.Errorf("skeleton too large: %d bones, %d float channels", len(s.Bones), len(s.FloatChannels))
	}
	for i := range s.Bones {
		if p := s.Bones[i].Parent; p < -1 || int(p) >= i {
			return errors.Errorf("bone %d %q: parent %d must precede it", i, s.Bones[i].Name, p)
		}
	}
	return nil
}

func (s *Skeleton) Prepare() error {
	if err := s.Validate(); err != nil {
		return err
	}
	h := &s.header
	copy(h.Tag[:], Tag)
	h.Version = Version
	h.BoneCount = uint16(len(s.Bones))
	h.FloatChannelCount = uint16(len(s.FloatChannels))
	h.Reserved = 0
	s.Hash = s.NameHash()
	return nil
}

func layoutQuat(t binrw.Target, q *mgl32.Quat) {
	t.F32(&q.V[0])
	t.F32(&q.V[1])
	t.F32(&q.V[2])
	t.F32(&q.W)
}

func layoutVec3(t binrw.Target, v *mgl32.Vec3) {
	t.F32(&v[0])
	t.F32(&v[1])
	t.F32(&v[2])
}

func (s *Skeleton) Layout(t binrw.Target) {
	h := &s.header
	t.Bytes(h.Tag[:])
	t.AssertEqual("skeleton tag", Tag, string(h.Tag[:]))
	t.U32(&h.Version)
	t.AssertEqual("skeleton version", uint32(Version), h.Version)
	t.U64(&s.Hash)
	t.U16(&h.BoneCount)
	t.U16(&h.FloatChannelCount)
	t.U32(&h.Reserved)
	t.AssertZero("skeleton reserved", h.Reserved)
	t.U32(&h.ParentsOffset)
	t.U32(&h.PoseOffset)
	t.U32(&h.NamesOffset)
	t.U32(&h.FloatChannelsOffset)
	t.Align(16, 0)
	t.AssertOffset("skeleton header end", HeaderSize)

	binrw.Slice(t, &s.Bones, int(h.BoneCount), "bones")

	t.Align(16, 0)
	binrw.Section32(t, &h.ParentsOffset, "parents")
	for i := range s.Bones {
		t.I16(&s.Bones[i].Parent)
	}

	t.Align(16, 0)
	binrw.Section32(t, &h.PoseOffset, "bind pose")
	for i := range s.Bones {
		b := &s.Bones[i]
		layoutQuat(t, &b.Rotation)
		layoutVec3(t, &b.Location)
		layoutVec3(t, &b.Scale)
	}

	t.Align(16, 0)
	binrw.Section32(t, &h.NamesOffset, "bone names")
	for i := range s.Bones {
		t.CString(&s.Bones[i].Name)
	}

	binrw.Slice(t, &s.FloatChannels, int(h.FloatChannelCount), "float channels")

	t.Align(16, 0)
	binrw.Section32(t, &h.FloatChannelsOffset, "float channels")
	for i := range s.FloatChannels {
		t.CString(&s.FloatChannels[i].Name)
	}
	t.Align(4, 0)
	for i := range s.FloatChannels {
		t.F16(&s.FloatChannels[i].Default)
	}
	t.Align(16, 0)

	if t.Reading() && t.Err() == nil {
		t.AssertEqual("skeleton name hash", s.NameHash(), s.Hash)
	}
}

func Decode(r io.Reader) (*Skeleton, error) {
	s := &Skeleton{}
	if err := binrw.Read(r, s); err != nil {
		return nil, errors.Wrap(err, "skeleton")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func DecodeFile(path string) (*Skeleton, error) {
	s := &Skeleton{}
	if err := binrw.ReadFile(path, s); err != nil {
		return nil, errors.Wrap(err, "skeleton")
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "skeleton %q", path)
	}
	return s, nil
}

func (s *Skeleton) Encode() ([]byte, error) {
	return binrw.Encode(s)
}

func (s *Skeleton) EncodeFile(path string) error {
	return binrw.WriteFile(path, s)
}

func init() {
	pack.SetHandler(".SKEL", func(src pack.Source, r *io.SectionReader) (interface{}, error) {
		return Decode(r)
	})
}
