package anim

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/utils/fbxbuilder"
)

var fbxAxes = [3]string{"X", "Y", "Z"}

func (ai *AnimInterface) keyTime(frame int) int64 {
	return int64(float64(ai.frameTime(frame)) * fbxbuilder.FBX_TIME_SECOND)
}

func fbxCurve(f *fbxbuilder.FBXBuilder, times []int64, values []float32) *fbx.Node {
	return fbxbuilder.Node("AnimationCurve", f.GenerateId(), "\x00\x01AnimCurve", "").AddNodes(
		fbxbuilder.Node("Default", float64(values[0])),
		fbxbuilder.Node("KeyVer", int32(4009)),
		fbxbuilder.Node("KeyTime", times),
		fbxbuilder.Node("KeyValueFloat", values),
		// linear interpolation
		fbxbuilder.Node("KeyAttrFlags", []int32{0x00000104}),
		fbxbuilder.Node("KeyAttrDataFloat", []float32{0, 0, 0, 0}),
		fbxbuilder.Node("KeyAttrRefCount", []int32{int32(len(times))}),
	)
}

// exportFbxTrack adds a curve node driving property of model with one curve
// per axis.
func exportFbxTrack[T any](f *fbxbuilder.FBXBuilder, ai *AnimInterface, layerId, modelId int64,
	track Track[T], property, short string, conv func(T) mgl32.Vec3) {
	if len(track) == 0 {
		return
	}
	frames := track.Frames()
	times := make([]int64, len(frames))
	var axes [3][]float32
	for i, frame := range frames {
		times[i] = ai.keyTime(frame)
		v := conv(track[frame])
		for a := range axes {
			axes[a] = append(axes[a], v[a])
		}
	}

	curveNodeId := f.GenerateId()
	props := bfbx73.Properties70()
	for a, axis := range fbxAxes {
		props.AddNodes(bfbx73.P("d|"+axis, "Number", "", "A", float64(axes[a][0])))
	}
	f.AddObjects(fbxbuilder.Node("AnimationCurveNode", curveNodeId, short+"\x00\x01AnimCurveNode", "").AddNodes(props))
	f.AddConnections(
		bfbx73.C("OO", curveNodeId, layerId),
		fbxbuilder.Node("C", "OP", curveNodeId, modelId, property),
	)

	for a, axis := range fbxAxes {
		curve := fbxCurve(f, times, axes[a])
		f.AddObjects(curve)
		f.AddConnections(fbxbuilder.Node("C", "OP", curve.Properties[0].(int64), curveNodeId, "d|"+axis))
	}
}

// ExportFbx adds an animation stack with a single layer animating the
// joints of fe. Float channels have no FBX model property to drive and
// are left out.
func (ai *AnimInterface) ExportFbx(f *fbxbuilder.FBXBuilder, fe *skel.FbxExporter, name string) error {
	if len(ai.Rotations) > len(fe.Joints) || len(ai.Locations) > len(fe.Joints) || len(ai.Scales) > len(fe.Joints) {
		return errors.Errorf("animation has more bone tracks than the skeleton has bones")
	}

	stop := int64(0)
	if ai.FrameCount > 1 {
		stop = ai.keyTime(ai.FrameCount - 1)
	}
	stackId := f.GenerateId()
	layerId := f.GenerateId()
	f.AddObjects(
		fbxbuilder.Node("AnimationStack", stackId, name+"\x00\x01AnimStack", "").AddNodes(
			bfbx73.Properties70().AddNodes(
				bfbx73.P("LocalStop", "KTime", "Time", "", stop),
				bfbx73.P("ReferenceStop", "KTime", "Time", "", stop),
			),
		),
		fbxbuilder.Node("AnimationLayer", layerId, "BaseLayer\x00\x01AnimLayer", ""),
	)
	f.AddConnections(bfbx73.C("OO", layerId, stackId))

	for bone, joint := range fe.Joints {
		if bone < len(ai.Locations) {
			exportFbxTrack(f, ai, layerId, joint.FbxModelId, ai.Locations[bone], "Lcl Translation", "T", keepVec3)
		}
		if bone < len(ai.Rotations) {
			exportFbxTrack(f, ai, layerId, joint.FbxModelId, ai.Rotations[bone], "Lcl Rotation", "R", skel.LclRotation)
		}
		if bone < len(ai.Scales) {
			exportFbxTrack(f, ai, layerId, joint.FbxModelId, ai.Scales[bone], "Lcl Scaling", "S", keepVec3)
		}
	}
	return nil
}
