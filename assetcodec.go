package main

import (
	"flag"
	"log"
	"os"

	"github.com/mogaika/assetcodec/config"
	"github.com/mogaika/assetcodec/vfs"
	"github.com/mogaika/assetcodec/web"

	_ "github.com/mogaika/assetcodec/formats/anim"
	_ "github.com/mogaika/assetcodec/formats/skel"
)

func main() {
	var addr, dir, cfgPath, webPath string
	var check bool
	flag.StringVar(&addr, "i", "", "Address of server (overrides config)")
	flag.StringVar(&dir, "dir", "", "Path to folder with skeletons and animations (overrides config)")
	flag.StringVar(&cfgPath, "config", "", "Path to yaml config")
	flag.StringVar(&webPath, "web", "", "Path to static web files")
	flag.BoolVar(&check, "check", false, "Decode every asset of -dir and exit")
	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			log.Fatal(err)
		}
	}
	if err := cfg.Apply(); err != nil {
		log.Fatal(err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dir != "" {
		cfg.Server.Dir = dir
	}
	if cfg.Server.Dir == "" {
		flag.PrintDefaults()
		return
	}

	d := vfs.NewDirectoryDriver(cfg.Server.Dir)
	if check {
		if failed := parseCheck(d); failed != 0 {
			log.Printf("%d files failed to decode", failed)
			os.Exit(1)
		}
		return
	}

	if err := web.StartServer(cfg.Server.Addr, d, webPath); err != nil {
		log.Fatal(err)
	}
}
