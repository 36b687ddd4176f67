package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"github.com/mogaika/assetcodec/formats/anim"
	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/status"
	"github.com/mogaika/assetcodec/vfs"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	sk := skel.New([]skel.Bone{
		{Name: "root", Parent: -1, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
		{Name: "arm", Parent: 0, Rotation: mgl32.QuatIdent(), Location: mgl32.Vec3{1, 0, 0}, Scale: mgl32.Vec3{1, 1, 1}},
	}, nil)
	if err := sk.EncodeFile(filepath.Join(dir, "hero.skel")); err != nil {
		t.Fatal(err)
	}

	ai := anim.NewAnimInterface(2, 0)
	ai.FrameCount = 4
	ai.Rate = 30
	ai.Locations[1][0] = mgl32.Vec3{1, 0, 0}
	ai.Locations[1][3] = mgl32.Vec3{2, 0, 0}
	if err := ai.EncodeFile(filepath.Join(dir, "hero.anim"), sk, anim.DefaultEncodeOptions()); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(NewRouter(vfs.NewDirectoryDriver(dir), ""))
	t.Cleanup(srv.Close)
	return srv
}

func getJson(t *testing.T, url string, v interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: %s %s", url, resp.Status, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
}

func TestServerListAndDecode(t *testing.T) {
	srv := newTestServer(t)

	var files []fileEntry
	getJson(t, srv.URL+"/json/pack", &files)
	if len(files) != 2 || files[0].Name != "hero.anim" || !files[0].Decodable {
		t.Errorf("files %+v", files)
	}

	var asset struct {
		SkeletonName string
		Anim         *anim.AnimInterface
	}
	getJson(t, srv.URL+"/json/pack/hero.anim", &asset)
	if asset.SkeletonName != "hero.skel" || asset.Anim == nil || asset.Anim.FrameCount != 4 {
		t.Fatalf("asset %+v", asset)
	}
	if v := asset.Anim.Locations[1][3]; v != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("location at frame 3 = %v", v)
	}

	var rt roundTripResult
	getJson(t, srv.URL+"/json/roundtrip/hero.anim", &rt)
	if !rt.Identical || rt.Size != rt.Reencoded {
		t.Errorf("round trip %+v", rt)
	}

	resp, err := http.Get(srv.URL + "/json/pack/missing.anim")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("missing file status %s", resp.Status)
	}
}

func TestServerGLTF(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/gltf/pack/hero.anim")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("glTF")) {
		t.Errorf("status %s, body %.16q", resp.Status, body)
	}
}

func TestServerFBX(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/fbx/pack/hero.anim")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("Kaydara FBX Binary")) {
		t.Errorf("status %s, body %.24q", resp.Status, body)
	}
}

func uploadAnimation(t *testing.T, srv *httptest.Server, file string, ai *anim.AnimInterface) {
	t.Helper()
	payload, err := json.Marshal(ai)
	if err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("data", "hero.json")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(payload)
	mw.Close()

	resp, err := http.Post(srv.URL+"/upload/pack/"+file, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %s", resp.Status)
	}
}

func TestServerUpload(t *testing.T) {
	srv := newTestServer(t)

	ai := anim.NewAnimInterface(2, 0)
	ai.FrameCount = 6
	ai.Rate = 30
	ai.Rotations[0][0] = mgl32.QuatIdent()
	ai.Rotations[0][5] = mgl32.QuatRotate(1, mgl32.Vec3{0, 1, 0})
	uploadAnimation(t, srv, "hero.anim", ai)

	var asset struct {
		Anim *anim.AnimInterface
	}
	getJson(t, srv.URL+"/json/pack/hero.anim", &asset)
	if asset.Anim.FrameCount != 6 || len(asset.Anim.Rotations[0]) != 2 || len(asset.Anim.Locations[1]) != 0 {
		t.Errorf("uploaded animation not stored: %+v", asset.Anim)
	}
}

func TestServerStatus(t *testing.T) {
	srv := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/status", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello status.Status
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.Type != status.HELLO {
		t.Fatalf("first message %+v", hello)
	}

	ai := anim.NewAnimInterface(2, 0)
	ai.FrameCount = 2
	ai.Rate = 30
	ai.Scales[0][1] = mgl32.Vec3{2, 2, 2}
	uploadAnimation(t, srv, "hero.anim", ai)

	for {
		var s status.Status
		if err := conn.ReadJSON(&s); err != nil {
			t.Fatalf("no upload status: %v", err)
		}
		if s.Type == status.INFO && strings.HasPrefix(s.Message, "Updated hero.anim") {
			break
		}
	}
}
