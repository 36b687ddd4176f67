package web

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/assetcodec/formats/anim"
	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/pack"
	"github.com/mogaika/assetcodec/status"
	"github.com/mogaika/assetcodec/utils"
	"github.com/mogaika/assetcodec/utils/fbxbuilder"
	"github.com/mogaika/assetcodec/utils/gltfutils"
	"github.com/mogaika/assetcodec/vfs"
	"github.com/mogaika/assetcodec/webutils"
)

type fileEntry struct {
	Name      string
	Size      int64
	Decodable bool
}

func HandlerAjaxPack(w http.ResponseWriter, r *http.Request) {
	names, err := ServerDirectory.List()
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	files := make([]fileEntry, 0, len(names))
	for _, name := range names {
		f, err := vfs.DirectoryGetFile(ServerDirectory, name)
		if err != nil {
			continue
		}
		files = append(files, fileEntry{Name: name, Size: f.Size(), Decodable: pack.HasHandler(name)})
	}
	webutils.WriteJson(w, files)
}

func HandlerAjaxPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	if data, err := pack.GetInstanceHandler(ServerDirectory, file); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, data)
	}
}

type roundTripResult struct {
	Size      int
	Reencoded int
	Identical bool
	Keys      int
}

// HandlerAjaxRoundTrip re-encodes an animation and compares it with the file.
func HandlerAjaxRoundTrip(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	asset, err := loadAsset(file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	rd, err := vfs.OpenFileAndGetReader(f)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()
	var original bytes.Buffer
	if _, err := original.ReadFrom(rd); err != nil {
		webutils.WriteError(w, err)
		return
	}

	data, err := asset.Anim.Encode(asset.Skeleton, anim.DefaultEncodeOptions())
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, &roundTripResult{
		Size:      original.Len(),
		Reencoded: len(data),
		Identical: bytes.Equal(original.Bytes(), data),
		Keys:      asset.Anim.KeyCount(),
	})
}

func HandlerDumpPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	reader, err := vfs.OpenFileAndGetReader(f)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer f.Close()
	webutils.WriteFile(w, reader, file)
}

func HandlerSpewPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	if data, err := pack.GetInstanceHandler(ServerDirectory, file); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteText(w, utils.SDump(data))
	}
}

func HandlerGLTFPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var sk *skel.Skeleton
	var asset *anim.Asset
	switch v := data.(type) {
	case *skel.Skeleton:
		sk = v
	case *anim.Asset:
		sk, asset = v.Skeleton, v
	default:
		webutils.WriteError(w, errors.Errorf("%q has no glTF form", file))
		return
	}

	doc, joints := anim.NewGLTFDocument(sk)
	if asset != nil {
		if err := asset.Anim.ExportGLTF(doc, sk, joints, file); err != nil {
			webutils.WriteError(w, err)
			return
		}
	}
	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		webutils.WriteError(w, errors.Wrap(err, "gltf"))
		return
	}
	webutils.WriteFile(w, &buf, file+".glb")
}

func HandlerFBXPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var f *fbxbuilder.FBXBuilder
	switch v := data.(type) {
	case *skel.Skeleton:
		f, _ = v.ExportFbxDefault(file)
	case *anim.Asset:
		var fe *skel.FbxExporter
		f, fe = v.Skeleton.ExportFbxDefault(v.SkeletonName)
		if err := v.Anim.ExportFbx(f, fe, file); err != nil {
			webutils.WriteError(w, err)
			return
		}
	default:
		webutils.WriteError(w, errors.Errorf("%q has no FBX form", file))
		return
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		webutils.WriteError(w, errors.Wrap(err, "fbx"))
		return
	}
	webutils.WriteFile(w, &buf, file+".fbx")
}

// HandlerUploadPackFile replaces an animation with the JSON form posted as
// the "data" file, encoded against the animation's skeleton.
func HandlerUploadPackFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	var ai anim.AnimInterface
	if err := webutils.ReadJsonFile(r, "data", &ai); err != nil {
		webutils.WriteError(w, err)
		return
	}
	sk, _, err := anim.LoadSkeleton(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	data, err := ai.Encode(sk, anim.DefaultEncodeOptions())
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	f, err := vfs.DirectoryGetFile(ServerDirectory, file)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if err := vfs.OpenFileAndCopy(f, bytes.NewReader(data)); err != nil {
		status.Error("Upload of %s failed: %v", file, err)
		webutils.WriteError(w, errors.Wrap(err, "update file"))
		return
	}
	status.Info("Updated %s: %d bytes, %d keys", file, len(data), ai.KeyCount())
	webutils.WriteJson(w, &roundTripResult{Reencoded: len(data), Keys: ai.KeyCount()})
}

func loadAsset(file string) (*anim.Asset, error) {
	data, err := pack.GetInstanceHandler(ServerDirectory, file)
	if err != nil {
		return nil, err
	}
	asset, ok := data.(*anim.Asset)
	if !ok {
		return nil, errors.Errorf("%q is not an animation", file)
	}
	return asset, nil
}
