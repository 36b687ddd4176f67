package anim

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/utils"
)

// pool hands out the values of one keyframed pool in storage order.
type pool[T any] struct {
	kind   Kind
	values []T
	pos    int
}

func (p *pool[T]) pop() (T, error) {
	var zero T
	if p.pos >= len(p.values) {
		return zero, errors.Errorf("keyframed %s pool exhausted after %d values", p.kind, len(p.values))
	}
	v := p.values[p.pos]
	p.pos++
	return v, nil
}

func (p *pool[T]) drained() error {
	if p.pos != len(p.values) {
		return errors.Errorf("keyframed %s pool holds %d values, bit-vector used %d", p.kind, len(p.values), p.pos)
	}
	return nil
}

func keepVec3(v mgl32.Vec3) mgl32.Vec3 { return v }
func keepFloat(v float32) float32      { return v }

func checkIndices(indices []uint16, limit int, what string) error {
	for i, idx := range indices {
		if int(idx) >= limit {
			return errors.Errorf("%s index %d is %d, only %d exist", what, i, idx, limit)
		}
	}
	return nil
}

func seed[S, T any](tracks []Track[T], indices []uint16, values []S, frame int, conv func(S) T) {
	for i, idx := range indices {
		tracks[idx][frame] = conv(values[i])
	}
}

// scatter assigns every set bit of each channel's sub-vector the next value
// of the shared pool.
func scatter[S, T any](bits *utils.BitChunker, count, start int, indices []uint16, tracks []Track[T], p *pool[S], conv func(S) T) error {
	for _, idx := range indices {
		group, ok := bits.Next()
		if !ok || len(group) != count {
			return errors.Errorf("keyframes-in-use bit-vector exhausted at %s channel %d", p.kind, idx)
		}
		for j, set := range group {
			if !set {
				continue
			}
			v, err := p.pop()
			if err != nil {
				return errors.Wrapf(err, "%s channel %d frame %d", p.kind, idx, start+j+1)
			}
			tracks[idx][start+j+1] = conv(v)
		}
	}
	return p.drained()
}

// FromBinary rebuilds the sparse tracks of ab. No animation is returned when
// any chunk is inconsistent.
func FromBinary(ab *AnimBinary) (*AnimInterface, error) {
	sk := ab.Skeleton()
	if sk == nil {
		return nil, errors.New("animation has no skeleton")
	}
	h := &ab.Header
	ai := NewAnimInterface(sk.BoneCount(), sk.FloatChannelCount())
	ai.Duration = h.Duration
	ai.Rate = h.Rate
	ai.FrameCount = int(h.FrameCount)

	limits := [kindCount]int{sk.BoneCount(), sk.BoneCount(), sk.BoneCount(), sk.FloatChannelCount()}
	for k := Kind(0); k < kindCount; k++ {
		if err := checkIndices(ab.StaticIndices[k], limits[k], "static "+k.String()); err != nil {
			return nil, err
		}
		if err := checkIndices(ab.AnimatedIndices[k], limits[k], "animated "+k.String()); err != nil {
			return nil, err
		}
	}

	seed(ai.Rotations, ab.StaticIndices[KindRotation], ab.StaticRotations, 0, CompactQuat.Quat)
	seed(ai.Locations, ab.StaticIndices[KindLocation], ab.StaticLocations, 0, keepVec3)
	seed(ai.Scales, ab.StaticIndices[KindScale], ab.StaticScales, 0, keepVec3)
	seed(ai.FloatChannels, ab.StaticIndices[KindFloat], ab.StaticFloats, 0, keepFloat)

	for i := range ab.Chunks {
		if err := ab.decodeChunk(ai, i); err != nil {
			return nil, errors.Wrapf(err, "keyframe chunk %d", i)
		}
	}

	ai.CanonicalizeRotationSigns()
	ai.Source = newSourceLayout(ab)
	return ai, nil
}

func (ab *AnimBinary) decodeChunk(ai *AnimInterface, i int) error {
	c := &ab.Chunks[i]
	span := ab.ChunkSpans[i]
	start, count := int(span.Start), int(span.Count)
	if start+count >= ai.FrameCount {
		return errors.Errorf("frames %d..%d outside the %d frame animation", start, start+count, ai.FrameCount)
	}
	c.bind(ab.Header.AnimatedCounts, count)

	idx := &ab.AnimatedIndices
	seed(ai.Rotations, idx[KindRotation], c.Frame0Rotations, start, CompactQuat.Quat)
	seed(ai.Locations, idx[KindLocation], c.Frame0Locations, start, keepVec3)
	seed(ai.Scales, idx[KindScale], c.Frame0Scales, start, keepVec3)
	seed(ai.FloatChannels, idx[KindFloat], c.Frame0Floats, start, keepFloat)

	if len(c.KeyframesInUse) < utils.BitVectorSize(c.BitCount()) {
		return errors.Errorf("keyframes-in-use bit-vector holds %d bytes, %d bits needed", len(c.KeyframesInUse), c.BitCount())
	}
	bits := utils.NewBitChunker(c.KeyframesInUse, count)
	if count > 0 {
		if err := scatter(bits, count, start, idx[KindRotation], ai.Rotations,
			&pool[CompactQuat]{kind: KindRotation, values: c.Rotations}, CompactQuat.Quat); err != nil {
			return err
		}
		if err := scatter(bits, count, start, idx[KindLocation], ai.Locations,
			&pool[mgl32.Vec3]{kind: KindLocation, values: c.Locations}, keepVec3); err != nil {
			return err
		}
		if err := scatter(bits, count, start, idx[KindScale], ai.Scales,
			&pool[mgl32.Vec3]{kind: KindScale, values: c.Scales}, keepVec3); err != nil {
			return err
		}
		if err := scatter(bits, count, start, idx[KindFloat], ai.FloatChannels,
			&pool[float32]{kind: KindFloat, values: c.Floats}, keepFloat); err != nil {
			return err
		}
	} else if len(c.Rotations)+len(c.Locations)+len(c.Scales)+len(c.Floats) != 0 {
		return errors.New("keyframed pools are not empty in a chunk without frames")
	}
	if !bits.RestIsZero() {
		return errors.Errorf("keyframes-in-use padding bits set after bit %d", bits.Consumed())
	}

	ab.Logger.Printf("chunk %d: frames %d..%d, %d keyed values", i, start, start+count, utils.CountSetBits(c.KeyframesInUse))
	return nil
}
