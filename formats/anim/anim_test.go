package anim

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/Pallinder/go-randomdata"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/binrw"
	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/utils"
)

func newSkeleton(bones, floats int) *skel.Skeleton {
	var names utils.RandomNameGenerator
	sk := skel.New(make([]skel.Bone, bones), make([]skel.FloatChannel, floats))
	for i := range sk.Bones {
		sk.Bones[i] = skel.Bone{
			Name:     names.RandomName(),
			Parent:   int16(i - 1),
			Rotation: mgl32.QuatIdent(),
			Scale:    mgl32.Vec3{1, 1, 1},
		}
	}
	for i := range sk.FloatChannels {
		sk.FloatChannels[i].Name = names.RandomName()
	}
	return sk
}

// exampleBinary is one bone keyed over five frames: rotation and location
// animated, scale static, rotation explicit at frames 2 and 4 only.
func exampleBinary(sk *skel.Skeleton, q2, q4 CompactQuat) *AnimBinary {
	ab := NewAnimBinary(sk)
	ab.Header.Duration = 4.0 / 30
	ab.Header.Rate = 30
	ab.Header.FrameCount = 5
	ab.StaticIndices[KindScale] = []uint16{0}
	ab.StaticScales = []mgl32.Vec3{{1, 1, 1}}
	ab.AnimatedIndices[KindRotation] = []uint16{0}
	ab.AnimatedIndices[KindLocation] = []uint16{0}
	ab.Mask = AnimMask{Bones: []uint8{0}, FloatChannels: []uint8{}}
	ab.ChunkSpans = []ChunkSpan{{Start: 0, Count: 4}}
	ab.Chunks = []KeyframeChunk{{
		Frame0Rotations: []CompactQuat{{0, 0, 0}},
		Frame0Locations: []mgl32.Vec3{{0, 0, 0}},
		KeyframesInUse:  []byte{0x0a},
		Rotations:       []CompactQuat{q2, q4},
	}}
	return ab
}

func exampleQuats() (CompactQuat, CompactQuat) {
	return CompactQuatFromQuat(mgl32.QuatRotate(0.5, mgl32.Vec3{0, 0, 1})),
		CompactQuatFromQuat(mgl32.QuatRotate(1, mgl32.Vec3{0, 0, 1}))
}

func TestDecodeSparseExample(t *testing.T) {
	sk := newSkeleton(1, 0)
	q2, q4 := exampleQuats()
	data, err := binrw.Encode(exampleBinary(sk, q2, q4))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	ai, err := Decode(bytes.NewReader(data), sk)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ai.FrameCount != 5 || ai.Rate != 30 {
		t.Errorf("header frames %d rate %v", ai.FrameCount, ai.Rate)
	}

	expectedRotations := Track[mgl32.Quat]{0: mgl32.QuatIdent(), 2: q2.Quat(), 4: q4.Quat()}
	if !reflect.DeepEqual(ai.Rotations[0], expectedRotations) {
		t.Errorf("rotations %v; expected %v", ai.Rotations[0], expectedRotations)
	}
	expectedLocations := Track[mgl32.Vec3]{0: {0, 0, 0}}
	if !reflect.DeepEqual(ai.Locations[0], expectedLocations) {
		t.Errorf("locations %v; expected %v", ai.Locations[0], expectedLocations)
	}
	expectedScales := Track[mgl32.Vec3]{0: {1, 1, 1}}
	if !reflect.DeepEqual(ai.Scales[0], expectedScales) {
		t.Errorf("scales %v; expected %v", ai.Scales[0], expectedScales)
	}
}

func TestReencodeKeepsSourceLayout(t *testing.T) {
	sk := newSkeleton(1, 0)
	q2, q4 := exampleQuats()
	data, err := binrw.Encode(exampleBinary(sk, q2, q4))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	ai, err := Decode(bytes.NewReader(data), sk)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	again, err := ai.Encode(sk, EncodeOptions{FramesPerChunk: 2})
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("re-encoded file differs: %d bytes, original %d", len(again), len(data))
	}

	js, err := json.Marshal(ai)
	if err != nil {
		t.Fatal(err)
	}
	var fromJson AnimInterface
	if err := json.Unmarshal(js, &fromJson); err != nil {
		t.Fatal(err)
	}
	if again, err = fromJson.Encode(sk, DefaultEncodeOptions()); err != nil {
		t.Fatalf("encode from json: %v", err)
	} else if !bytes.Equal(again, data) {
		t.Errorf("animation loaded from json encodes differently")
	}

	ab, err := ai.ToBinary(sk, EncodeOptions{Relayout: true})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ab.StaticIndices[KindLocation], []uint16{0}) || len(ab.AnimatedIndices[KindLocation]) != 0 {
		t.Errorf("relayout kept location animated: static %v animated %v",
			ab.StaticIndices[KindLocation], ab.AnimatedIndices[KindLocation])
	}

	ai.Scales[0][3] = mgl32.Vec3{2, 2, 2}
	if ab, err = ai.ToBinary(sk, DefaultEncodeOptions()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ab.AnimatedIndices[KindScale], []uint16{0}) || len(ab.StaticIndices[KindScale]) != 0 {
		t.Errorf("edited scale track not animated: static %v animated %v",
			ab.StaticIndices[KindScale], ab.AnimatedIndices[KindScale])
	}
	if !reflect.DeepEqual(ab.StaticIndices[KindLocation], []uint16{0}) {
		t.Errorf("layout of edited animation not rebuilt: static locations %v", ab.StaticIndices[KindLocation])
	}
}

func TestSourceLayoutSpans(t *testing.T) {
	src := &SourceLayout{Spans: []ChunkSpan{{Start: 0, Count: 3}, {Start: 4, Count: 0}, {Start: 6, Count: 2}}}
	if !src.validSpans(9) {
		t.Errorf("spans rejected for 9 frames")
	}
	if src.validSpans(8) {
		t.Errorf("span ending at frame 8 accepted for 8 frames")
	}
	for frame, expected := range map[int]bool{0: true, 3: true, 4: true, 5: false, 6: true, 8: true, 9: false} {
		if got := src.covers(frame); got != expected {
			t.Errorf("covers(%d) = %v", frame, got)
		}
	}

	overlapping := &SourceLayout{Spans: []ChunkSpan{{Start: 0, Count: 4}, {Start: 4, Count: 2}}}
	if overlapping.validSpans(10) {
		t.Errorf("overlapping spans accepted")
	}
}

func TestSectionMarksMatchReader(t *testing.T) {
	sk := newSkeleton(1, 0)
	q2, q4 := exampleQuats()
	ab := exampleBinary(sk, q2, q4)
	data, err := binrw.Encode(ab)
	if err != nil {
		t.Fatal(err)
	}
	marks, err := binrw.ResolvePointers(ab)
	if err != nil {
		t.Fatal(err)
	}

	rd := binrw.NewReader(bytes.NewReader(data))
	NewAnimBinary(sk).Layout(rd)
	if err := rd.Err(); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(marks, rd.Marks()) {
		t.Errorf("pointer calculator marks %v; reader marks %v", marks, rd.Marks())
	}
	for name, off := range marks {
		if off%16 != 0 {
			t.Errorf("section %q at 0x%x not 16-aligned", name, off)
		}
	}
	if marks["bone-index lists"] != HeaderSize {
		t.Errorf("bone-index lists at 0x%x; expected 0x%x", marks["bone-index lists"], HeaderSize)
	}
	if int64(ab.Header.AnimMaskOffset) != marks["animation mask"] {
		t.Errorf("mask pointer 0x%x; section at 0x%x", ab.Header.AnimMaskOffset, marks["animation mask"])
	}
}

func TestDecodeCorruptChunks(t *testing.T) {
	sk := newSkeleton(1, 0)
	q2, q4 := exampleQuats()

	tests := []struct {
		name   string
		patch  func(ab *AnimBinary)
		expect string
	}{
		{"pool exhausted", func(ab *AnimBinary) {
			ab.Chunks[0].Rotations = ab.Chunks[0].Rotations[:1]
		}, "exhausted"},
		{"pool not drained", func(ab *AnimBinary) {
			ab.Chunks[0].Locations = []mgl32.Vec3{{1, 2, 3}}
		}, "bit-vector used 0"},
		{"padding bits", func(ab *AnimBinary) {
			ab.ChunkSpans[0].Count = 3
			ab.Chunks[0].KeyframesInUse = []byte{0x82}
			ab.Chunks[0].Rotations = ab.Chunks[0].Rotations[:1]
		}, "padding bits set"},
		{"span past the end", func(ab *AnimBinary) {
			ab.ChunkSpans[0].Start = 1
		}, "outside the 5 frame animation"},
	}

	for _, test := range tests {
		ab := exampleBinary(sk, q2, q4)
		test.patch(ab)
		data, err := binrw.Encode(ab)
		if err != nil {
			t.Errorf("%s: Encode: %v", test.name, err)
			continue
		}
		ai, err := Decode(bytes.NewReader(data), sk)
		if err == nil || !strings.Contains(err.Error(), test.expect) {
			t.Errorf("%s: expected error containing %q, got %v", test.name, test.expect, err)
		}
		if ai != nil {
			t.Errorf("%s: partial animation returned", test.name)
		}
	}
}

func TestDecodeStructuralErrors(t *testing.T) {
	sk := newSkeleton(1, 0)
	q2, q4 := exampleQuats()
	valid, err := binrw.Encode(exampleBinary(sk, q2, q4))
	if err != nil {
		t.Fatal(err)
	}

	data := append([]byte(nil), valid...)
	copy(data, "MINA")
	_, err = Decode(bytes.NewReader(data), sk)
	var ae *binrw.AssertionError
	if !errors.As(err, &ae) || ae.What != "animation tag" || ae.Offset != 4 {
		t.Errorf("expected tag assertion at 0x4, got %v", err)
	}

	_, err = Decode(bytes.NewReader(valid), newSkeleton(2, 0))
	if !errors.As(err, &ae) || ae.What != "bone count" {
		t.Errorf("expected bone count assertion, got %v", err)
	}

	_, err = Decode(bytes.NewReader(valid[:len(valid)-8]), sk)
	if err == nil {
		t.Errorf("truncated animation decoded")
	}
}

func randomQuat() mgl32.Quat {
	axis := mgl32.Vec3{
		float32(randomdata.Decimal(-1, 1)),
		float32(randomdata.Decimal(-1, 1)),
		float32(randomdata.Decimal(-1, 1)),
	}
	if axis.Len() < 1e-3 {
		axis = mgl32.Vec3{0, 0, 1}
	}
	q := mgl32.QuatRotate(float32(randomdata.Decimal(-3, 3)), axis.Normalize())
	if randomdata.Boolean() {
		q = q.Scale(-1)
	}
	return q
}

func randomVec3() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(randomdata.Decimal(-10, 10)),
		float32(randomdata.Decimal(-10, 10)),
		float32(randomdata.Decimal(-10, 10)),
	}
}

// randomTrack leaves a track empty, keyed at frame 0 only, or keyed at
// random frames.
func randomTrack[T any](track Track[T], frames int, value func() T) {
	switch randomdata.Number(0, 3) {
	case 0:
	case 1:
		track[0] = value()
	default:
		track[1+randomdata.Number(0, frames-1)] = value()
		for f := 0; f < frames; f++ {
			if randomdata.Number(0, 4) == 0 {
				track[f] = value()
			}
		}
	}
}

func randomAnimation(bones, floats, frames int) *AnimInterface {
	ai := NewAnimInterface(bones, floats)
	ai.FrameCount = frames
	ai.Rate = 30
	ai.Duration = float32(frames-1) / 30
	for b := 0; b < bones; b++ {
		randomTrack(ai.Rotations[b], frames, randomQuat)
		randomTrack(ai.Locations[b], frames, randomVec3)
		randomTrack(ai.Scales[b], frames, randomVec3)
	}
	for c := 0; c < floats; c++ {
		randomTrack(ai.FloatChannels[c], frames, func() float32 { return float32(randomdata.Decimal(0, 1)) })
	}
	return ai
}

func checkKeysKept[T any](t *testing.T, what string, src, got []Track[T], same func(a, b T) bool) {
	t.Helper()
	for i := range src {
		for f, v := range src[i] {
			d, ok := got[i][f]
			if !ok {
				t.Errorf("%s %d: frame %d lost", what, i, f)
			} else if !same(v, d) {
				t.Errorf("%s %d frame %d: decoded %v; expected %v", what, i, f, d, v)
			}
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	sk := newSkeleton(12, 5)
	randomdata.CustomRand(rand.New(rand.NewSource(42)))
	opts := EncodeOptions{FramesPerChunk: 8}

	for iter := 0; iter < 20; iter++ {
		ai := randomAnimation(sk.BoneCount(), sk.FloatChannelCount(), 2+randomdata.Number(0, 40))

		data, err := ai.Encode(sk, opts)
		if err != nil {
			t.Fatalf("iteration %d: Encode: %v", iter, err)
		}
		got, err := Decode(bytes.NewReader(data), sk)
		if err != nil {
			t.Fatalf("iteration %d: Decode: %v", iter, err)
		}

		checkKeysKept(t, "rotation", ai.Rotations, got.Rotations, func(a, b mgl32.Quat) bool {
			return math.Abs(float64(a.Dot(b))) > 0.9999
		})
		checkKeysKept(t, "location", ai.Locations, got.Locations, func(a, b mgl32.Vec3) bool { return a == b })
		checkKeysKept(t, "scale", ai.Scales, got.Scales, func(a, b mgl32.Vec3) bool { return a == b })
		checkKeysKept(t, "float channel", ai.FloatChannels, got.FloatChannels, func(a, b float32) bool { return a == b })

		again, err := got.Encode(sk, opts)
		if err != nil {
			t.Fatalf("iteration %d: re-encode: %v", iter, err)
		}
		if !bytes.Equal(again, data) {
			t.Errorf("iteration %d: re-encoded animation differs\n%s", iter, utils.SDump(got))
		}
	}
}

func TestEncodeSplitsLargeChunks(t *testing.T) {
	const bones, frames = 40, 200
	sk := newSkeleton(bones, 0)
	ai := NewAnimInterface(bones, 0)
	ai.FrameCount = frames
	ai.Rate = 60
	for b := 0; b < bones; b++ {
		for f := 0; f < frames; f++ {
			ai.Locations[b][f] = mgl32.Vec3{float32(b), float32(f), 0}
		}
	}

	ab, err := ai.ToBinary(sk, EncodeOptions{FramesPerChunk: frames})
	if err != nil {
		t.Fatalf("ToBinary: %v", err)
	}
	if len(ab.ChunkSpans) < 2 {
		t.Fatalf("expected the span to be split, got %d chunks", len(ab.ChunkSpans))
	}
	next := 0
	for i, span := range ab.ChunkSpans {
		if int(span.Start) != next {
			t.Errorf("chunk %d starts at %d; expected %d", i, span.Start, next)
		}
		next = int(span.Start) + int(span.Count) + 1
	}
	if next != frames {
		t.Errorf("chunks cover %d frames; expected %d", next, frames)
	}

	data, err := binrw.Encode(ab)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i, co := range ab.ChunkOffsets {
		if co.Offset%16 != 0 {
			t.Errorf("chunk %d at unaligned 0x%x", i, co.Offset)
		}
	}
	got, err := Decode(bytes.NewReader(data), sk)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got.Locations, ai.Locations) {
		t.Errorf("locations changed through split chunks")
	}
}

func TestEncodeStaticAndMask(t *testing.T) {
	sk := newSkeleton(3, 2)
	ai := NewAnimInterface(3, 2)
	ai.FrameCount = 10
	ai.Locations[0][0] = mgl32.Vec3{1, 2, 3}
	ai.FloatChannels[1][0] = 0.5
	ai.FloatChannels[1][9] = 1

	ab, err := ai.ToBinary(sk, DefaultEncodeOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ab.StaticIndices[KindLocation], []uint16{0}) {
		t.Errorf("static locations %v", ab.StaticIndices[KindLocation])
	}
	if !reflect.DeepEqual(ab.AnimatedIndices[KindFloat], []uint16{1}) {
		t.Errorf("animated float channels %v", ab.AnimatedIndices[KindFloat])
	}
	if !reflect.DeepEqual(ab.Mask.Bones, []uint8{0, 1, 1}) || !reflect.DeepEqual(ab.Mask.FloatChannels, []uint8{1, 0}) {
		t.Errorf("mask bones %v floats %v", ab.Mask.Bones, ab.Mask.FloatChannels)
	}
	if len(ab.Chunks) != 1 || ab.ChunkSpans[0] != (ChunkSpan{Start: 0, Count: 9}) {
		t.Errorf("chunks %v", ab.ChunkSpans)
	}

	ai.Scales[2][10] = mgl32.Vec3{}
	if _, err := ai.ToBinary(sk, DefaultEncodeOptions()); err == nil {
		t.Errorf("key past the last frame accepted")
	}
}

func TestCanonicalizeRotationSignsIdempotent(t *testing.T) {
	randomdata.CustomRand(rand.New(rand.NewSource(7)))
	ai := NewAnimInterface(4, 0)
	for b := range ai.Rotations {
		for f := 0; f < 30; f += 1 + randomdata.Number(0, 3) {
			ai.Rotations[b][f] = randomQuat()
		}
	}

	ai.CanonicalizeRotationSigns()
	once := make([]Track[mgl32.Quat], len(ai.Rotations))
	for b, track := range ai.Rotations {
		once[b] = make(Track[mgl32.Quat], len(track))
		for f, q := range track {
			once[b][f] = q
		}
		frames := track.Frames()
		for i := 1; i < len(frames); i++ {
			if track[frames[i-1]].Dot(track[frames[i]]) < 0 {
				t.Errorf("bone %d: frames %d and %d point apart", b, frames[i-1], frames[i])
			}
		}
	}

	ai.CanonicalizeRotationSigns()
	if !reflect.DeepEqual(ai.Rotations, once) {
		t.Errorf("second pass changed rotations")
	}
}

func TestSampling(t *testing.T) {
	ai := NewAnimInterface(1, 1)
	ai.Locations[0][2] = mgl32.Vec3{0, 0, 0}
	ai.Locations[0][6] = mgl32.Vec3{4, 8, 0}
	ai.FloatChannels[0][3] = 1

	tests := []struct {
		frame    int
		expected mgl32.Vec3
	}{
		{0, mgl32.Vec3{0, 0, 0}},
		{3, mgl32.Vec3{1, 2, 0}},
		{6, mgl32.Vec3{4, 8, 0}},
		{9, mgl32.Vec3{4, 8, 0}},
	}
	for _, test := range tests {
		v, ok := ai.SampleLocation(0, test.frame)
		if !ok || !v.ApproxEqual(test.expected) {
			t.Errorf("frame %d: %v; expected %v", test.frame, v, test.expected)
		}
	}
	if v, ok := ai.SampleFloat(0, 10); !ok || v != 1 {
		t.Errorf("held float %v %v", v, ok)
	}
	if _, ok := ai.SampleRotation(0, 0); ok {
		t.Errorf("empty rotation track sampled")
	}
	if _, ok := ai.SampleScale(5, 0); ok {
		t.Errorf("missing bone sampled")
	}
}
