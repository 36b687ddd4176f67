package skel

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/assetcodec/utils"
	"github.com/mogaika/assetcodec/utils/fbxbuilder"
)

type FbxExporterJoint struct {
	FbxModelId int64
	FbxModel   *fbx.Node
}

type FbxExporter struct {
	FbxModelId int64
	Joints     []FbxExporterJoint
}

// LclRotation returns q as the XYZ euler angles in degrees FBX stores in
// "Lcl Rotation".
func LclRotation(q mgl32.Quat) mgl32.Vec3 {
	return utils.RadiansToDegreesV3(utils.QuatToEuler(q))
}

func lcl(name string, v mgl32.Vec3) *fbx.Node {
	return bfbx73.P(name, name, "", "A+", float64(v[0]), float64(v[1]), float64(v[2]))
}

// ExportFbx adds a Null model named name with one LimbNode model per bone
// under it, posed in bind pose. Parents precede children in s.Bones.
func (s *Skeleton) ExportFbx(f *fbxbuilder.FBXBuilder, name string) *FbxExporter {
	fe := &FbxExporter{
		FbxModelId: f.GenerateId(),
		Joints:     make([]FbxExporterJoint, len(s.Bones)),
	}

	model := bfbx73.Model(fe.FbxModelId, name+"\x00\x01Model", "Null").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70(),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	nodeAttribute := bfbx73.NodeAttribute(f.GenerateId(), name+"\x00\x01NodeAttribute", "Null").AddNodes(
		bfbx73.TypeFlags("Null"),
	)
	f.AddObjects(model, nodeAttribute)
	f.AddConnections(bfbx73.C("OO", nodeAttribute.Properties[0].(int64), fe.FbxModelId))

	for i := range s.Bones {
		bone := &s.Bones[i]
		joint := &fe.Joints[i]
		joint.FbxModelId = f.GenerateId()
		joint.FbxModel = bfbx73.Model(joint.FbxModelId, bone.Name+"\x00\x01Model", "LimbNode").AddNodes(
			bfbx73.Version(232),
			bfbx73.Properties70().AddNodes(
				lcl("Lcl Translation", bone.Location),
				lcl("Lcl Rotation", LclRotation(bone.Rotation)),
				lcl("Lcl Scaling", bone.Scale),
			),
			bfbx73.Shading(true),
			bfbx73.Culling("CullingOff"),
		)
		limb := bfbx73.NodeAttribute(f.GenerateId(), bone.Name+"\x00\x01NodeAttribute", "LimbNode").AddNodes(
			bfbx73.TypeFlags("Skeleton"),
		)
		f.AddObjects(joint.FbxModel, limb)

		parent := fe.FbxModelId
		if bone.Parent >= 0 {
			parent = fe.Joints[bone.Parent].FbxModelId
		}
		f.AddConnections(
			bfbx73.C("OO", limb.Properties[0].(int64), joint.FbxModelId),
			bfbx73.C("OO", joint.FbxModelId, parent),
		)
	}

	return fe
}

func (s *Skeleton) ExportFbxDefault(name string) (*fbxbuilder.FBXBuilder, *FbxExporter) {
	f := fbxbuilder.NewFBXBuilder(name)
	fe := s.ExportFbx(f, name)
	f.AddConnections(bfbx73.C("OO", fe.FbxModelId, int64(0)))
	return f, fe
}
