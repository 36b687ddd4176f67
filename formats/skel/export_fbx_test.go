package skel

import (
	"bytes"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"
)

func fbxProperty(model *fbx.Node, name string) []interface{} {
	for _, props := range model.Nodes {
		if props.Name != "Properties70" {
			continue
		}
		for _, p := range props.Nodes {
			if len(p.Properties) > 0 && p.Properties[0] == name {
				return p.Properties
			}
		}
	}
	return nil
}

func fbxId(v interface{}) int64 {
	switch id := v.(type) {
	case int64:
		return id
	case int:
		return int64(id)
	}
	return -1
}

func TestExportFbxJoints(t *testing.T) {
	s := testSkeleton()
	s.Bones[1].Rotation = mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 0, 1})
	f, fe := s.ExportFbxDefault("hero.skel")

	if len(fe.Joints) != 3 {
		t.Fatalf("%d joints", len(fe.Joints))
	}
	models := 0
	for _, object := range f.Objects().Nodes {
		if object.Name == "Model" {
			models++
		}
	}
	if models != 4 {
		t.Errorf("%d models; expected skeleton root and 3 joints", models)
	}

	parents := make(map[int64]int64)
	for _, c := range f.Connections().Nodes {
		if c.Properties[0] == "OO" {
			parents[fbxId(c.Properties[1])] = fbxId(c.Properties[2])
		}
	}
	if p := parents[fe.Joints[0].FbxModelId]; p != fe.FbxModelId {
		t.Errorf("root joint parent %d; expected skeleton model %d", p, fe.FbxModelId)
	}
	if p := parents[fe.Joints[2].FbxModelId]; p != fe.Joints[1].FbxModelId {
		t.Errorf("head parent %d; expected spine %d", p, fe.Joints[1].FbxModelId)
	}
	if p, ok := parents[fe.FbxModelId]; !ok || p != 0 {
		t.Errorf("skeleton model not attached to the scene root")
	}

	rot := fbxProperty(fe.Joints[1].FbxModel, "Lcl Rotation")
	if len(rot) != 7 {
		t.Fatalf("Lcl Rotation %v", rot)
	}
	if z := rot[6].(float64); math.Abs(z-90) > 1e-3 || math.Abs(rot[4].(float64)) > 1e-3 {
		t.Errorf("spine rotation %v; expected 90 degrees around z", rot[4:])
	}
	loc := fbxProperty(fe.Joints[2].FbxModel, "Lcl Translation")
	if len(loc) != 7 || loc[5].(float64) != 0.5 {
		t.Errorf("head translation %v", loc)
	}
}

func TestExportFbxWrite(t *testing.T) {
	f, _ := testSkeleton().ExportFbxDefault("hero.skel")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("Kaydara FBX Binary")) {
		t.Errorf("not a binary fbx: %.24q", buf.Bytes())
	}
}

func TestLclRotation(t *testing.T) {
	e := LclRotation(mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0}))
	if !e.ApproxEqualThreshold(mgl32.Vec3{90, 0, 0}, 1e-3) {
		t.Errorf("rotation around x %v", e)
	}
	if e := LclRotation(mgl32.QuatIdent()); e != (mgl32.Vec3{}) {
		t.Errorf("identity %v", e)
	}
}
