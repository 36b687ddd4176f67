package anim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/utils/gltfutils"
)

// NewGLTFDocument creates one node per bone in bind pose and returns the
// node index of every bone.
func NewGLTFDocument(sk *skel.Skeleton) (*gltf.Document, []uint32) {
	doc := gltfutils.NewDocument()
	jointNodes := make([]uint32, sk.BoneCount())
	for i := range sk.Bones {
		bone := &sk.Bones[i]
		jointNodes[i] = uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        bone.Name,
			Translation: bone.Location,
			Rotation:    bone.Rotation.V.Vec4(bone.Rotation.W),
			Scale:       bone.Scale,
		})
		if bone.Parent >= 0 {
			parent := doc.Nodes[jointNodes[bone.Parent]]
			parent.Children = append(parent.Children, jointNodes[i])
		}
	}
	return doc, jointNodes
}

func (ai *AnimInterface) frameTime(frame int) float32 {
	switch {
	case ai.Rate > 0:
		return float32(frame) / ai.Rate
	case ai.FrameCount > 1 && ai.Duration > 0:
		return float32(frame) * ai.Duration / float32(ai.FrameCount-1)
	default:
		return float32(frame)
	}
}

func (ai *AnimInterface) keyTimes(frames []int) []float32 {
	times := make([]float32, len(frames))
	for i, f := range frames {
		times[i] = ai.frameTime(f)
	}
	return times
}

func exportTrack[T, S any](doc *gltf.Document, anim *gltf.Animation, ai *AnimInterface,
	track Track[T], node uint32, path gltf.TRSProperty, conv func(T) S) {
	if len(track) == 0 {
		return
	}
	frames := track.Frames()
	values := make([]S, len(frames))
	for i, f := range frames {
		values[i] = conv(track[f])
	}
	input := modeler.WriteAccessor(doc, gltf.TargetNone, ai.keyTimes(frames))
	output := modeler.WriteAccessor(doc, gltf.TargetNone, values)

	anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
		Input:  gltf.Index(input),
		Output: gltf.Index(output),
	})
	anim.Channels = append(anim.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(anim.Samplers) - 1)),
		Target: gltf.ChannelTarget{
			Node: gltf.Index(node),
			Path: path,
		},
	})
}

func quatArray(q mgl32.Quat) [4]float32 { return q.V.Vec4(q.W) }
func vec3Array(v mgl32.Vec3) [3]float32 { return v }

// ExportGLTF appends one animation targeting jointNodes. Keys keep their
// frame positions with linear interpolation between them; float channels
// have no glTF counterpart and go to the animation extras by name.
func (ai *AnimInterface) ExportGLTF(doc *gltf.Document, sk *skel.Skeleton, jointNodes []uint32, name string) error {
	if len(jointNodes) != sk.BoneCount() {
		return errors.Errorf("%d joint nodes for %d bones", len(jointNodes), sk.BoneCount())
	}
	if len(ai.Rotations) > len(jointNodes) || len(ai.Locations) > len(jointNodes) || len(ai.Scales) > len(jointNodes) {
		return errors.Errorf("animation has more bone tracks than the skeleton has bones")
	}
	anim := &gltf.Animation{Name: name}
	for bone, node := range jointNodes {
		if bone < len(ai.Rotations) {
			exportTrack(doc, anim, ai, ai.Rotations[bone], node, gltf.TRSRotation, quatArray)
		}
		if bone < len(ai.Locations) {
			exportTrack(doc, anim, ai, ai.Locations[bone], node, gltf.TRSTranslation, vec3Array)
		}
		if bone < len(ai.Scales) {
			exportTrack(doc, anim, ai, ai.Scales[bone], node, gltf.TRSScale, vec3Array)
		}
	}

	if len(ai.FloatChannels) > 0 {
		floats := make(map[string]map[int]float32)
		for i, track := range ai.FloatChannels {
			if len(track) == 0 {
				continue
			}
			channelName := ""
			if i < len(sk.FloatChannels) {
				channelName = sk.FloatChannels[i].Name
			}
			if channelName == "" {
				channelName = fmt.Sprintf("float_%d", i)
			}
			floats[channelName] = track
		}
		if len(floats) > 0 {
			anim.Extras = map[string]interface{}{"float_channels": floats}
		}
	}

	doc.Animations = append(doc.Animations, anim)
	return nil
}
