package anim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/binrw"
	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/utils"
)

const (
	Tag        = "ANIM"
	HeaderSize = 0x50
)

// Kind selects one of the four channel families. The order is the order
// channels appear in every list, table and bit-vector.
type Kind int

const (
	KindRotation Kind = iota
	KindLocation
	KindScale
	KindFloat
	kindCount
)

var kindNames = [kindCount]string{"rotation", "location", "scale", "float-channel"}

func (k Kind) String() string {
	if k >= 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ElementSize returns the stored size of one value of kind k.
func (k Kind) ElementSize() int {
	switch k {
	case KindRotation:
		return CompactQuatSize
	case KindLocation, KindScale:
		return 12
	default:
		return 4
	}
}

type Header struct {
	Tag               [4]byte
	Duration          float32
	Rate              float32
	AnimMaskOffset    uint16
	BoneCount         uint16
	FrameCount        uint16
	ChunkCount        uint16
	RotationPrecision uint16
	StaticCounts      [kindCount]uint16
	AnimatedCounts    [kindCount]uint16
	Reserved          uint16
	AnimMaskSize      uint32
	BoneMaskOffset    uint32
	ChunkOffsetsAt    uint32
	ChunkSpansAt      uint32
	StaticOffsets     [kindCount]uint32
}

func (h *Header) Layout(t binrw.Target) {
	t.Bytes(h.Tag[:])
	t.AssertEqual("animation tag", Tag, string(h.Tag[:]))
	t.F32(&h.Duration)
	t.F32(&h.Rate)
	t.U16(&h.AnimMaskOffset)
	t.U16(&h.BoneCount)
	t.U16(&h.FrameCount)
	t.U16(&h.ChunkCount)
	t.U16(&h.RotationPrecision)
	t.AssertEqual("rotation precision", uint16(RotationPrecision), h.RotationPrecision)
	for k := range h.StaticCounts {
		t.U16(&h.StaticCounts[k])
	}
	for k := range h.AnimatedCounts {
		t.U16(&h.AnimatedCounts[k])
	}
	t.U16(&h.Reserved)
	t.AssertZero("header reserved", h.Reserved)
	t.U32(&h.AnimMaskSize)
	t.U32(&h.BoneMaskOffset)
	t.U32(&h.ChunkOffsetsAt)
	t.U32(&h.ChunkSpansAt)
	for k := range h.StaticOffsets {
		t.U32(&h.StaticOffsets[k])
	}
	t.Align(16, 0)
}

func (h *Header) AnimatedTotal() int {
	n := 0
	for _, c := range h.AnimatedCounts {
		n += int(c)
	}
	return n
}

// ChunkOffset is one entry of the keyframe-chunk offset table.
type ChunkOffset struct {
	Reserved uint16
	Size     uint16
	Offset   uint32
}

func (c *ChunkOffset) Layout(t binrw.Target) {
	t.U16(&c.Reserved)
	t.AssertZero("chunk offset reserved", c.Reserved)
	t.U16(&c.Size)
	t.U32(&c.Offset)
}

// ChunkSpan is one entry of the keyframe-chunk count table. The chunk holds
// frame Start in its frame-0 tables and frames Start+1..Start+Count in its
// keyframe pools.
type ChunkSpan struct {
	Start uint16
	Count uint16
}

func (c *ChunkSpan) Layout(t binrw.Target) {
	t.U16(&c.Start)
	t.U16(&c.Count)
}

// AnimMask flags bones and float channels that carry no animation at all.
type AnimMask struct {
	Bones         []uint8
	FloatChannels []uint8

	boneCount, floatCount int
}

func (m *AnimMask) Layout(t binrw.Target) {
	binrw.Array(t, &m.Bones, m.boneCount, "bone mask", maskByte)
	t.Align(4, 0)
	binrw.Array(t, &m.FloatChannels, m.floatCount, "float-channel mask", maskByte)
	t.Align(4, 0)
}

func maskByte(t binrw.Target, v *uint8) {
	t.U8(v)
	t.AssertEqual("animation mask flag", uint8(0), *v&^1)
}

// AnimBinary is the on-disk form of one animation. It can only be laid out
// against the skeleton it animates.
type AnimBinary struct {
	Header Header

	StaticIndices   [kindCount][]uint16
	AnimatedIndices [kindCount][]uint16

	StaticRotations []CompactQuat
	StaticLocations []mgl32.Vec3
	StaticScales    []mgl32.Vec3
	StaticFloats    []float32

	ChunkOffsets []ChunkOffset
	ChunkSpans   []ChunkSpan
	Mask         AnimMask
	Chunks       []KeyframeChunk

	// Logger receives a trace of chunk decoding when set.
	Logger *utils.Logger

	skel *skel.Skeleton
}

func NewAnimBinary(sk *skel.Skeleton) *AnimBinary {
	return &AnimBinary{skel: sk}
}

func (ab *AnimBinary) Skeleton() *skel.Skeleton {
	return ab.skel
}

func layoutVec3(t binrw.Target, v *mgl32.Vec3) {
	t.F32(&v[0])
	t.F32(&v[1])
	t.F32(&v[2])
}

func (ab *AnimBinary) bindMask() {
	ab.Mask.boneCount = ab.skel.BoneCount()
	ab.Mask.floatCount = ab.skel.FloatChannelCount()
}

func (ab *AnimBinary) Layout(t binrw.Target) {
	if ab.skel == nil {
		t.Fail(errors.New("animation layout needs a decoded skeleton"))
		return
	}
	h := &ab.Header
	h.Layout(t)
	t.AssertOffset("animation header end", HeaderSize)
	t.AssertEqual("bone count", uint16(ab.skel.BoneCount()), h.BoneCount)

	binrw.Section32(t, &h.BoneMaskOffset, "bone-index lists")
	for k := Kind(0); k < kindCount; k++ {
		binrw.U16s(t, &ab.StaticIndices[k], int(h.StaticCounts[k]), "static "+k.String()+" indices")
		t.Align(4, 0)
	}
	for k := Kind(0); k < kindCount; k++ {
		binrw.U16s(t, &ab.AnimatedIndices[k], int(h.AnimatedCounts[k]), "animated "+k.String()+" indices")
		t.Align(4, 0)
	}

	t.Align(16, 0)
	binrw.Section32(t, &h.StaticOffsets[KindRotation], "static rotations")
	binrw.Records(t, &ab.StaticRotations, int(h.StaticCounts[KindRotation]), "static rotations")
	t.Align(16, 0)
	binrw.Section32(t, &h.StaticOffsets[KindLocation], "static locations")
	binrw.Array(t, &ab.StaticLocations, int(h.StaticCounts[KindLocation]), "static locations", layoutVec3)
	t.Align(16, 0)
	binrw.Section32(t, &h.StaticOffsets[KindScale], "static scales")
	binrw.Array(t, &ab.StaticScales, int(h.StaticCounts[KindScale]), "static scales", layoutVec3)
	t.Align(16, 0)
	binrw.Section32(t, &h.StaticOffsets[KindFloat], "static float-channels")
	binrw.F32s(t, &ab.StaticFloats, int(h.StaticCounts[KindFloat]), "static float-channels")

	t.Align(16, 0)
	binrw.Section32(t, &h.ChunkOffsetsAt, "keyframe-chunk offset table")
	binrw.Records(t, &ab.ChunkOffsets, int(h.ChunkCount), "keyframe-chunk offset table")
	t.Align(16, 0)
	binrw.Section32(t, &h.ChunkSpansAt, "keyframe-chunk count table")
	binrw.Records(t, &ab.ChunkSpans, int(h.ChunkCount), "keyframe-chunk count table")

	t.Align(16, 0)
	binrw.Section16(t, &h.AnimMaskOffset, "animation mask")
	maskStart := t.Offset()
	ab.bindMask()
	ab.Mask.Layout(t)
	t.AssertEqual("animation mask size", h.AnimMaskSize, uint32(t.Offset()-maskStart))

	if !binrw.Slice(t, &ab.Chunks, int(h.ChunkCount), "keyframe chunks") {
		return
	}
	for i := range ab.Chunks {
		t.Align(16, 0)
		entry := &ab.ChunkOffsets[i]
		binrw.Section32(t, &entry.Offset, fmt.Sprintf("keyframe chunk %d", i))
		c := &ab.Chunks[i]
		c.bind(h.AnimatedCounts, int(ab.ChunkSpans[i].Count))
		start := t.Offset()
		c.Layout(t)
		t.AssertEqual(fmt.Sprintf("keyframe chunk %d size", i), entry.Size, uint16(t.Offset()-start))
	}
}

// Prepare derives every count and size field from the record content.
// Offsets are left to the pointer pass.
func (ab *AnimBinary) Prepare() error {
	if ab.skel == nil {
		return errors.New("animation needs a decoded skeleton")
	}
	h := &ab.Header
	copy(h.Tag[:], Tag)
	h.RotationPrecision = RotationPrecision
	h.Reserved = 0
	if ab.skel.BoneCount() > 0xffff {
		return errors.Errorf("%d bones do not fit the header", ab.skel.BoneCount())
	}
	h.BoneCount = uint16(ab.skel.BoneCount())

	staticValues := [kindCount]int{
		len(ab.StaticRotations), len(ab.StaticLocations), len(ab.StaticScales), len(ab.StaticFloats),
	}
	for k := Kind(0); k < kindCount; k++ {
		if len(ab.StaticIndices[k]) != staticValues[k] {
			return errors.Errorf("%d static %s indices for %d values", len(ab.StaticIndices[k]), k, staticValues[k])
		}
		if len(ab.StaticIndices[k]) > 0xffff || len(ab.AnimatedIndices[k]) > 0xffff {
			return errors.Errorf("too many %s channels", k)
		}
		h.StaticCounts[k] = uint16(len(ab.StaticIndices[k]))
		h.AnimatedCounts[k] = uint16(len(ab.AnimatedIndices[k]))
	}

	if len(ab.Chunks) != len(ab.ChunkSpans) {
		return errors.Errorf("%d keyframe chunks for %d spans", len(ab.Chunks), len(ab.ChunkSpans))
	}
	if len(ab.Chunks) > 0xffff {
		return errors.Errorf("%d keyframe chunks do not fit the header", len(ab.Chunks))
	}
	h.ChunkCount = uint16(len(ab.Chunks))
	if len(ab.ChunkOffsets) != len(ab.Chunks) {
		ab.ChunkOffsets = make([]ChunkOffset, len(ab.Chunks))
	}
	for i := range ab.Chunks {
		c := &ab.Chunks[i]
		c.bind(h.AnimatedCounts, int(ab.ChunkSpans[i].Count))
		if err := c.prepare(); err != nil {
			return errors.Wrapf(err, "keyframe chunk %d", i)
		}
		size, err := binrw.Measure(c)
		if err != nil {
			return errors.Wrapf(err, "keyframe chunk %d", i)
		}
		if size > 0xffff {
			return errors.Errorf("keyframe chunk %d takes %d bytes, more than its size field holds", i, size)
		}
		ab.ChunkOffsets[i].Reserved = 0
		ab.ChunkOffsets[i].Size = uint16(size)
	}

	ab.bindMask()
	maskSize, err := binrw.Measure(&ab.Mask)
	if err != nil {
		return errors.Wrap(err, "animation mask")
	}
	h.AnimMaskSize = uint32(maskSize)
	return nil
}
