package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/assetcodec/status"
	"github.com/mogaika/assetcodec/vfs"
)

var ServerDirectory vfs.Directory

// NewRouter serves the assets of d. webPath, when set, holds static files
// served under /.
func NewRouter(d vfs.Directory, webPath string) *mux.Router {
	ServerDirectory = d

	r := mux.NewRouter()
	r.HandleFunc("/json/pack", HandlerAjaxPack)
	r.HandleFunc("/json/pack/{file}", HandlerAjaxPackFile)
	r.HandleFunc("/json/roundtrip/{file}", HandlerAjaxRoundTrip)
	r.HandleFunc("/dump/pack/{file}", HandlerDumpPackFile)
	r.HandleFunc("/spew/pack/{file}", HandlerSpewPackFile)
	r.HandleFunc("/gltf/pack/{file}", HandlerGLTFPackFile)
	r.HandleFunc("/fbx/pack/{file}", HandlerFBXPackFile)
	r.HandleFunc("/upload/pack/{file}", HandlerUploadPackFile).Methods(http.MethodPost)
	r.HandleFunc("/ws/status", status.ServeWs)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(webPath)))
	}
	return r
}

func StartServer(addr string, d vfs.Directory, webPath string) error {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(NewRouter(d, webPath))
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
