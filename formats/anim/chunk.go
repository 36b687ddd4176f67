package anim

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/binrw"
	"github.com/mogaika/assetcodec/utils"
)

var errChunkTooLarge = errors.New("keyframe chunk too large")

// KeyframeChunk stores one frame span for every animated channel. The frame-0
// tables hold the value at the span start, the bit-vector marks which of the
// following frames carry a value, and the pools hold those values in channel
// order.
type KeyframeChunk struct {
	// frame-0 rot, loc, scale, float; keyframed rot, loc, scale, float
	ByteCounts [2 * kindCount]uint16

	Frame0Rotations []CompactQuat
	Frame0Locations []mgl32.Vec3
	Frame0Scales    []mgl32.Vec3
	Frame0Floats    []float32

	KeyframesInUse []byte

	Rotations []CompactQuat
	Locations []mgl32.Vec3
	Scales    []mgl32.Vec3
	Floats    []float32

	animated [kindCount]int
	frames   int
}

// bind passes the header counts a chunk layout depends on.
func (c *KeyframeChunk) bind(animated [kindCount]uint16, frames int) {
	for k := range animated {
		c.animated[k] = int(animated[k])
	}
	c.frames = frames
}

func (c *KeyframeChunk) animatedTotal() int {
	n := 0
	for _, a := range c.animated {
		n += a
	}
	return n
}

// BitCount is the number of meaningful bits in the keyframes-in-use vector.
func (c *KeyframeChunk) BitCount() int {
	return c.animatedTotal() * c.frames
}

func (c *KeyframeChunk) poolLen(k Kind) int {
	switch k {
	case KindRotation:
		return len(c.Rotations)
	case KindLocation:
		return len(c.Locations)
	case KindScale:
		return len(c.Scales)
	default:
		return len(c.Floats)
	}
}

func (c *KeyframeChunk) prepare() error {
	for k := Kind(0); k < kindCount; k++ {
		size := k.ElementSize()
		frame0 := c.animated[k] * size
		pool := c.poolLen(k) * size
		if frame0 > 0xffff || pool > 0xffff {
			return errors.Wrapf(errChunkTooLarge, "%s tables take %d and %d bytes", k, frame0, pool)
		}
		c.ByteCounts[k] = uint16(frame0)
		c.ByteCounts[kindCount+k] = uint16(pool)
	}
	return nil
}

func (c *KeyframeChunk) frame0Bytes(t binrw.Target, k Kind) {
	t.AssertEqual("frame-0 "+k.String()+" byte count", uint16(c.animated[k]*k.ElementSize()), c.ByteCounts[k])
}

// poolCount returns how many values the pool of kind k holds according to
// its byte count.
func (c *KeyframeChunk) poolCount(t binrw.Target, k Kind) int {
	bytes := int(c.ByteCounts[kindCount+k])
	t.AssertZero("keyframed "+k.String()+" byte count remainder", bytes%k.ElementSize())
	return bytes / k.ElementSize()
}

func (c *KeyframeChunk) Layout(t binrw.Target) {
	for i := range c.ByteCounts {
		t.U16(&c.ByteCounts[i])
	}

	c.frame0Bytes(t, KindRotation)
	binrw.Records(t, &c.Frame0Rotations, c.animated[KindRotation], "frame-0 rotations")
	t.Align(4, 0)
	c.frame0Bytes(t, KindLocation)
	binrw.Array(t, &c.Frame0Locations, c.animated[KindLocation], "frame-0 locations", layoutVec3)
	t.Align(4, 0)
	c.frame0Bytes(t, KindScale)
	binrw.Array(t, &c.Frame0Scales, c.animated[KindScale], "frame-0 scales", layoutVec3)
	t.Align(4, 0)
	c.frame0Bytes(t, KindFloat)
	binrw.F32s(t, &c.Frame0Floats, c.animated[KindFloat], "frame-0 float-channels")
	t.Align(4, 0)

	binrw.ByteSlice(t, &c.KeyframesInUse, utils.BitVectorSize(c.BitCount()), "keyframes-in-use")
	t.Align(4, 0)

	binrw.Records(t, &c.Rotations, c.poolCount(t, KindRotation), "keyframed rotations")
	t.Align(4, 0)
	binrw.Array(t, &c.Locations, c.poolCount(t, KindLocation), "keyframed locations", layoutVec3)
	t.Align(4, 0)
	binrw.Array(t, &c.Scales, c.poolCount(t, KindScale), "keyframed scales", layoutVec3)
	t.Align(4, 0)
	binrw.F32s(t, &c.Floats, c.poolCount(t, KindFloat), "keyframed float-channels")
	t.Align(16, 0)
}
