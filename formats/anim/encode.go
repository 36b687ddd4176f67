package anim

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/binrw"
	"github.com/mogaika/assetcodec/config"
	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/utils"
)

type EncodeOptions struct {
	// FramesPerChunk is the number of frames each keyframe chunk covers,
	// including the one kept in its frame-0 tables.
	FramesPerChunk int
	// Relayout ignores the source layout of a decoded animation.
	Relayout bool
	Logger   *utils.Logger
}

func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{FramesPerChunk: config.GetFramesPerChunk()}
}

// classify splits the channels of one kind into static ones, keyed only at
// frame 0, and animated ones. Empty tracks are left out.
func classify[T any](tracks []Track[T], limit, frameCount int, kind Kind) (static, animated []uint16, err error) {
	if len(tracks) > limit {
		return nil, nil, errors.Errorf("%d %s tracks, skeleton has room for %d", len(tracks), kind, limit)
	}
	for i, track := range tracks {
		for f := range track {
			if f < 0 || f >= frameCount {
				return nil, nil, errors.Errorf("%s track %d keyed at frame %d, animation has %d frames", kind, i, f, frameCount)
			}
		}
		switch _, keyed0 := track[0]; {
		case len(track) == 0:
		case len(track) == 1 && keyed0:
			static = append(static, uint16(i))
		default:
			animated = append(animated, uint16(i))
		}
	}
	return static, animated, nil
}

// fitsSource reports whether tracks can be stored with the static and
// animated lists of a source layout: every non-empty track listed once,
// static ones keyed only at frame 0, animated keys inside the spans.
func fitsSource[T any](tracks []Track[T], src *SourceLayout, k Kind) bool {
	listed := make([]bool, len(tracks))
	for _, idx := range src.Static[k] {
		if int(idx) >= len(tracks) || listed[idx] {
			return false
		}
		track := tracks[idx]
		if _, ok := track[0]; !ok || len(track) != 1 {
			return false
		}
		listed[idx] = true
	}
	for _, idx := range src.Animated[k] {
		if int(idx) >= len(tracks) || listed[idx] || len(tracks[idx]) == 0 {
			return false
		}
		for f := range tracks[idx] {
			if !src.covers(f) {
				return false
			}
		}
		listed[idx] = true
	}
	for i, track := range tracks {
		if len(track) != 0 && !listed[i] {
			return false
		}
	}
	return true
}

// sourceFits reports whether ai can be encoded with its source layout.
func (ai *AnimInterface) sourceFits(bones, floats int) bool {
	src := ai.Source
	if src == nil || len(src.BoneMask) != bones || len(src.FloatChannelMask) != floats {
		return false
	}
	return src.validSpans(ai.FrameCount) &&
		fitsSource(ai.Rotations, src, KindRotation) &&
		fitsSource(ai.Locations, src, KindLocation) &&
		fitsSource(ai.Scales, src, KindScale) &&
		fitsSource(ai.FloatChannels, src, KindFloat)
}

func staticValues[T, S any](tracks []Track[T], indices []uint16, conv func(T) S) []S {
	values := make([]S, len(indices))
	for i, idx := range indices {
		values[i] = conv(tracks[idx][0])
	}
	return values
}

func samplers[T any](tracks []Track[T], indices []uint16, lerp func(a, b T, t float32) T) []*sampler[T] {
	s := make([]*sampler[T], len(indices))
	for i, idx := range indices {
		s[i] = newSampler(tracks[idx], lerp)
	}
	return s
}

func isEmpty[T any](tracks []Track[T], i int) bool {
	return i >= len(tracks) || len(tracks[i]) == 0
}

// fill builds the frame-0 table and the keyed pool of one kind for frames
// a..b and sets the matching bits starting at *bit.
func fill[T, S any](channels []*sampler[T], a, b int, bits []byte, bit *int, conv func(T) S) (frame0, keyed []S) {
	frame0 = make([]S, len(channels))
	for i, s := range channels {
		v, _ := s.at(a)
		frame0[i] = conv(v)
		for f := a + 1; f <= b; f++ {
			if v, ok := s.track[f]; ok {
				utils.SetBit(bits, *bit+f-a-1)
				keyed = append(keyed, conv(v))
			}
		}
		*bit += b - a
	}
	return frame0, keyed
}

type chunkEncoder struct {
	animated [kindCount]uint16
	rot      []*sampler[mgl32.Quat]
	loc      []*sampler[mgl32.Vec3]
	scale    []*sampler[mgl32.Vec3]
	flt      []*sampler[float32]
	log      *utils.Logger
}

func (e *chunkEncoder) build(a, b int) KeyframeChunk {
	var c KeyframeChunk
	c.bind(e.animated, b-a)
	c.KeyframesInUse = make([]byte, utils.BitVectorSize(c.BitCount()))
	bit := 0
	c.Frame0Rotations, c.Rotations = fill(e.rot, a, b, c.KeyframesInUse, &bit, CompactQuatFromQuat)
	c.Frame0Locations, c.Locations = fill(e.loc, a, b, c.KeyframesInUse, &bit, keepVec3)
	c.Frame0Scales, c.Scales = fill(e.scale, a, b, c.KeyframesInUse, &bit, keepVec3)
	c.Frame0Floats, c.Floats = fill(e.flt, a, b, c.KeyframesInUse, &bit, keepFloat)
	return c
}

// emit appends the chunk for frames a..b, halving the span until every
// chunk fits its 16-bit size field.
func (e *chunkEncoder) emit(ab *AnimBinary, a, b int) error {
	c := e.build(a, b)
	err := c.prepare()
	var size int64
	if err == nil {
		if size, err = binrw.Measure(&c); err != nil {
			return err
		}
	} else if !errors.Is(err, errChunkTooLarge) {
		return err
	}
	if err == nil && size <= 0xffff {
		ab.Chunks = append(ab.Chunks, c)
		ab.ChunkSpans = append(ab.ChunkSpans, ChunkSpan{Start: uint16(a), Count: uint16(b - a)})
		return nil
	}
	if a == b {
		return errors.Errorf("frame %d alone does not fit a keyframe chunk", a)
	}
	mid := (a + b) / 2
	e.log.Printf("splitting frames %d..%d at %d", a, b, mid)
	if err := e.emit(ab, a, mid); err != nil {
		return err
	}
	return e.emit(ab, mid+1, b)
}

// ToBinary builds the on-disk form of ai for skeleton sk. A decoded
// animation keeps the channel split, chunk spans and mask of its source
// while its tracks fit them. Otherwise channels keyed only at frame 0 become
// static and every other non-empty channel is spread over consecutive
// chunks of opts.FramesPerChunk frames.
func (ai *AnimInterface) ToBinary(sk *skel.Skeleton, opts EncodeOptions) (*AnimBinary, error) {
	if sk == nil {
		return nil, errors.New("animation needs a decoded skeleton")
	}
	if ai.FrameCount < 0 || ai.FrameCount > 0xffff {
		return nil, errors.Errorf("frame count %d out of range", ai.FrameCount)
	}
	perChunk := opts.FramesPerChunk
	if perChunk <= 0 {
		perChunk = config.GetFramesPerChunk()
	}

	ab := NewAnimBinary(sk)
	ab.Logger = opts.Logger
	h := &ab.Header
	h.Duration = ai.Duration
	h.Rate = ai.Rate
	h.FrameCount = uint16(ai.FrameCount)

	bones, floats := sk.BoneCount(), sk.FloatChannelCount()
	var err error
	st, an := &ab.StaticIndices, &ab.AnimatedIndices
	if st[KindRotation], an[KindRotation], err = classify(ai.Rotations, bones, ai.FrameCount, KindRotation); err != nil {
		return nil, err
	}
	if st[KindLocation], an[KindLocation], err = classify(ai.Locations, bones, ai.FrameCount, KindLocation); err != nil {
		return nil, err
	}
	if st[KindScale], an[KindScale], err = classify(ai.Scales, bones, ai.FrameCount, KindScale); err != nil {
		return nil, err
	}
	if st[KindFloat], an[KindFloat], err = classify(ai.FloatChannels, floats, ai.FrameCount, KindFloat); err != nil {
		return nil, err
	}

	var src *SourceLayout
	if !opts.Relayout && ai.sourceFits(bones, floats) {
		src = ai.Source
		for k := range st {
			st[k] = append([]uint16(nil), src.Static[k]...)
			an[k] = append([]uint16(nil), src.Animated[k]...)
		}
		opts.Logger.Printf("keeping source layout: %d chunks", len(src.Spans))
	}

	ab.StaticRotations = staticValues(ai.Rotations, st[KindRotation], CompactQuatFromQuat)
	ab.StaticLocations = staticValues(ai.Locations, st[KindLocation], keepVec3)
	ab.StaticScales = staticValues(ai.Scales, st[KindScale], keepVec3)
	ab.StaticFloats = staticValues(ai.FloatChannels, st[KindFloat], keepFloat)

	ab.Mask.Bones = make([]uint8, bones)
	for b := range ab.Mask.Bones {
		if isEmpty(ai.Rotations, b) && isEmpty(ai.Locations, b) && isEmpty(ai.Scales, b) {
			ab.Mask.Bones[b] = 1
		}
		if src != nil {
			ab.Mask.Bones[b] &= src.BoneMask[b]
		}
	}
	ab.Mask.FloatChannels = make([]uint8, floats)
	for c := range ab.Mask.FloatChannels {
		if isEmpty(ai.FloatChannels, c) {
			ab.Mask.FloatChannels[c] = 1
		}
		if src != nil {
			ab.Mask.FloatChannels[c] &= src.FloatChannelMask[c]
		}
	}

	e := &chunkEncoder{
		rot:   samplers(ai.Rotations, an[KindRotation], utils.QuatSlerp),
		loc:   samplers(ai.Locations, an[KindLocation], utils.Vec3Lerp),
		scale: samplers(ai.Scales, an[KindScale], utils.Vec3Lerp),
		flt:   samplers(ai.FloatChannels, an[KindFloat], utils.FloatLerp),
		log:   opts.Logger,
	}
	total := 0
	for k := range an {
		e.animated[k] = uint16(len(an[k]))
		total += len(an[k])
	}
	if src != nil {
		for _, span := range src.Spans {
			a, b := int(span.Start), int(span.Start)+int(span.Count)
			if err := e.emit(ab, a, b); err != nil {
				return nil, errors.Wrapf(err, "frames %d..%d", a, b)
			}
		}
	} else if total > 0 {
		for a := 0; a < ai.FrameCount; a += perChunk {
			b := a + perChunk - 1
			if b >= ai.FrameCount {
				b = ai.FrameCount - 1
			}
			if err := e.emit(ab, a, b); err != nil {
				return nil, errors.Wrapf(err, "frames %d..%d", a, b)
			}
		}
	}
	e.log.Printf("encoded %d static and %d animated channels in %d chunks",
		len(st[KindRotation])+len(st[KindLocation])+len(st[KindScale])+len(st[KindFloat]), total, len(ab.Chunks))
	return ab, nil
}
