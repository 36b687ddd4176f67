package anim

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/assetcodec/utils"
)

// Track maps a frame number to the value explicitly stored for it.
type Track[T any] map[int]T

// Frames returns the keyed frames in increasing order.
func (tr Track[T]) Frames() []int {
	frames := make([]int, 0, len(tr))
	for f := range tr {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

// AnimInterface is the decoded animation. Bone tracks are indexed by bone,
// float tracks by float channel. Frames missing from a track were not stored
// in the file; filling them is up to the caller.
type AnimInterface struct {
	Duration   float32
	Rate       float32
	FrameCount int

	Rotations     []Track[mgl32.Quat]
	Locations     []Track[mgl32.Vec3]
	Scales        []Track[mgl32.Vec3]
	FloatChannels []Track[float32]

	// Source is the layout of the file the animation was decoded from.
	Source *SourceLayout `json:",omitempty" yaml:",omitempty"`
}

// SourceLayout records how a file split its channels into static and
// animated ones and its frames into chunks. Encoding reuses it while the
// tracks still fit, so an unchanged animation encodes to the same bytes.
type SourceLayout struct {
	Static   [kindCount][]uint16
	Animated [kindCount][]uint16
	Spans    []ChunkSpan

	BoneMask         []uint8
	FloatChannelMask []uint8
}

func newSourceLayout(ab *AnimBinary) *SourceLayout {
	src := &SourceLayout{
		Spans:            append([]ChunkSpan(nil), ab.ChunkSpans...),
		BoneMask:         append([]uint8(nil), ab.Mask.Bones...),
		FloatChannelMask: append([]uint8(nil), ab.Mask.FloatChannels...),
	}
	for k := range src.Static {
		src.Static[k] = append([]uint16(nil), ab.StaticIndices[k]...)
		src.Animated[k] = append([]uint16(nil), ab.AnimatedIndices[k]...)
	}
	return src
}

// covers reports whether frame lies in one of the spans.
func (src *SourceLayout) covers(frame int) bool {
	i := sort.Search(len(src.Spans), func(i int) bool {
		return int(src.Spans[i].Start)+int(src.Spans[i].Count) >= frame
	})
	return i < len(src.Spans) && int(src.Spans[i].Start) <= frame
}

// validSpans reports whether the spans are ordered, disjoint and inside
// frameCount frames.
func (src *SourceLayout) validSpans(frameCount int) bool {
	next := 0
	for _, span := range src.Spans {
		start, end := int(span.Start), int(span.Start)+int(span.Count)
		if start < next || end >= frameCount {
			return false
		}
		next = end + 1
	}
	return true
}

func newTracks[T any](n int) []Track[T] {
	tracks := make([]Track[T], n)
	for i := range tracks {
		tracks[i] = make(Track[T])
	}
	return tracks
}

func NewAnimInterface(boneCount, floatChannelCount int) *AnimInterface {
	return &AnimInterface{
		Rotations:     newTracks[mgl32.Quat](boneCount),
		Locations:     newTracks[mgl32.Vec3](boneCount),
		Scales:        newTracks[mgl32.Vec3](boneCount),
		FloatChannels: newTracks[float32](floatChannelCount),
	}
}

// CanonicalizeRotationSigns walks every rotation track in frame order and
// negates each quaternion pointing away from its predecessor.
func (ai *AnimInterface) CanonicalizeRotationSigns() {
	for _, track := range ai.Rotations {
		frames := track.Frames()
		qs := make([]mgl32.Quat, len(frames))
		for i, f := range frames {
			qs[i] = track[f]
		}
		utils.MatchQuatSigns(qs)
		for i, f := range frames {
			track[f] = qs[i]
		}
	}
}

// sampler interpolates a track between its keys and holds the first and
// last key beyond them.
type sampler[T any] struct {
	track  Track[T]
	frames []int
	lerp   func(a, b T, t float32) T
}

func newSampler[T any](track Track[T], lerp func(a, b T, t float32) T) *sampler[T] {
	return &sampler[T]{track: track, frames: track.Frames(), lerp: lerp}
}

func (s *sampler[T]) at(frame int) (T, bool) {
	var zero T
	if len(s.frames) == 0 {
		return zero, false
	}
	if v, ok := s.track[frame]; ok {
		return v, true
	}
	next := sort.SearchInts(s.frames, frame)
	if next == 0 {
		return s.track[s.frames[0]], true
	}
	if next == len(s.frames) {
		return s.track[s.frames[len(s.frames)-1]], true
	}
	pf, nf := s.frames[next-1], s.frames[next]
	return s.lerp(s.track[pf], s.track[nf], float32(frame-pf)/float32(nf-pf)), true
}

func trackAt[T any](tracks []Track[T], i int) Track[T] {
	if i < 0 || i >= len(tracks) {
		return nil
	}
	return tracks[i]
}

// SampleRotation returns the rotation of bone at frame, slerping between
// keys. It reports false when the bone has no rotation keys.
func (ai *AnimInterface) SampleRotation(bone, frame int) (mgl32.Quat, bool) {
	return newSampler(trackAt(ai.Rotations, bone), utils.QuatSlerp).at(frame)
}

func (ai *AnimInterface) SampleLocation(bone, frame int) (mgl32.Vec3, bool) {
	return newSampler(trackAt(ai.Locations, bone), utils.Vec3Lerp).at(frame)
}

func (ai *AnimInterface) SampleScale(bone, frame int) (mgl32.Vec3, bool) {
	return newSampler(trackAt(ai.Scales, bone), utils.Vec3Lerp).at(frame)
}

func (ai *AnimInterface) SampleFloat(channel, frame int) (float32, bool) {
	return newSampler(trackAt(ai.FloatChannels, channel), utils.FloatLerp).at(frame)
}

// KeyCount returns the number of stored keys over every track.
func (ai *AnimInterface) KeyCount() int {
	n := 0
	for _, tr := range ai.Rotations {
		n += len(tr)
	}
	for _, tr := range ai.Locations {
		n += len(tr)
	}
	for _, tr := range ai.Scales {
		n += len(tr)
	}
	for _, tr := range ai.FloatChannels {
		n += len(tr)
	}
	return n
}
