package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/assetcodec/config"
	"github.com/mogaika/assetcodec/formats/anim"
	"github.com/mogaika/assetcodec/formats/skel"
	"github.com/mogaika/assetcodec/utils"
	"github.com/mogaika/assetcodec/utils/gltfutils"
)

type options struct {
	skel, anim, fromJson, config string
	yamlOut, jsonOut, gltfOut    string
	fbxOut                       string
	reencodeOut                  string
	dump, roundTrip, verbose     bool
	framesPerChunk               int
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0666); err != nil {
		return errors.Wrapf(err, "write %q", path)
	}
	log.Printf("Saved %q (%d bytes)", path, len(data))
	return nil
}

func loadAnimation(o *options, sk *skel.Skeleton, logger *utils.Logger) (*anim.AnimInterface, []byte, error) {
	if o.fromJson != "" {
		data, err := os.ReadFile(o.fromJson)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "read %q", o.fromJson)
		}
		var ai anim.AnimInterface
		if err := json.Unmarshal(data, &ai); err != nil {
			return nil, nil, errors.Wrapf(err, "parse %q", o.fromJson)
		}
		return &ai, nil, nil
	}

	original, err := os.ReadFile(o.anim)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %q", o.anim)
	}
	ab, err := anim.ReadBinary(bytes.NewReader(original), sk)
	if err != nil {
		return nil, nil, err
	}
	ab.Logger = logger
	logger.Dump(&ab.Header)
	if o.dump {
		fmt.Print(utils.SDump(ab))
	}
	ai, err := anim.FromBinary(ab)
	if err != nil {
		return nil, nil, err
	}
	return ai, original, nil
}

func run(o *options) error {
	if o.config != "" {
		cfg, err := config.Load(o.config)
		if err != nil {
			return err
		}
		if err := cfg.Apply(); err != nil {
			return err
		}
	}

	sk, err := skel.DecodeFile(o.skel)
	if err != nil {
		return err
	}
	log.Printf("Skeleton %q: %d bones, %d float channels, hash %016x",
		o.skel, sk.BoneCount(), sk.FloatChannelCount(), sk.Hash)

	if o.anim == "" && o.fromJson == "" {
		if o.dump {
			fmt.Print(utils.SDump(sk))
		}
		return nil
	}

	var logger *utils.Logger
	if o.verbose {
		logger = utils.NewLogger(os.Stderr)
	}
	ai, original, err := loadAnimation(o, sk, logger)
	if err != nil {
		return err
	}
	log.Printf("Animation: %d frames at %v fps, %d keys", ai.FrameCount, ai.Rate, ai.KeyCount())

	opts := anim.DefaultEncodeOptions()
	opts.Logger = logger
	if o.framesPerChunk > 0 {
		opts.FramesPerChunk = o.framesPerChunk
		opts.Relayout = true
	}

	if o.yamlOut != "" {
		data, err := yaml.Marshal(ai)
		if err != nil {
			return errors.Wrap(err, "yaml")
		}
		if err := writeFile(o.yamlOut, data); err != nil {
			return err
		}
	}
	if o.jsonOut != "" {
		data, err := json.MarshalIndent(ai, "", "  ")
		if err != nil {
			return errors.Wrap(err, "json")
		}
		if err := writeFile(o.jsonOut, data); err != nil {
			return err
		}
	}
	if o.gltfOut != "" {
		doc, joints := anim.NewGLTFDocument(sk)
		if err := ai.ExportGLTF(doc, sk, joints, filepath.Base(o.anim)); err != nil {
			return err
		}
		f, err := os.Create(o.gltfOut)
		if err != nil {
			return errors.Wrapf(err, "create %q", o.gltfOut)
		}
		defer f.Close()
		if err := gltfutils.ExportBinary(f, doc); err != nil {
			return errors.Wrapf(err, "gltf %q", o.gltfOut)
		}
		log.Printf("Saved %q", o.gltfOut)
	}
	if o.fbxOut != "" {
		f, fe := sk.ExportFbxDefault(filepath.Base(o.skel))
		name := o.anim
		if name == "" {
			name = o.fromJson
		}
		if err := ai.ExportFbx(f, fe, filepath.Base(name)); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return errors.Wrapf(err, "fbx %q", o.fbxOut)
		}
		if err := writeFile(o.fbxOut, buf.Bytes()); err != nil {
			return err
		}
	}

	if o.roundTrip || o.reencodeOut != "" {
		data, err := ai.Encode(sk, opts)
		if err != nil {
			return err
		}
		if o.roundTrip && original != nil {
			if !bytes.Equal(data, original) {
				return errors.Errorf("re-encoded animation differs: %d bytes, file has %d", len(data), len(original))
			}
			log.Printf("Round trip OK (%d bytes)", len(data))
		}
		if o.reencodeOut != "" {
			if err := writeFile(o.reencodeOut, data); err != nil {
				return err
			}
		}
	}
	return nil
}

func main() {
	var o options
	flag.StringVar(&o.skel, "skel", "", "Path to skeleton file")
	flag.StringVar(&o.anim, "anim", "", "Path to animation file")
	flag.StringVar(&o.fromJson, "fromjson", "", "Encode the animation from a json file instead of -anim")
	flag.StringVar(&o.config, "config", "", "Path to yaml config")
	flag.StringVar(&o.yamlOut, "yaml", "", "Save decoded animation as yaml")
	flag.StringVar(&o.jsonOut, "json", "", "Save decoded animation as json")
	flag.StringVar(&o.gltfOut, "gltf", "", "Export skeleton and animation as glb")
	flag.StringVar(&o.fbxOut, "fbx", "", "Export skeleton and animation as fbx")
	flag.StringVar(&o.reencodeOut, "reencode", "", "Encode the animation again into this file")
	flag.BoolVar(&o.dump, "dump", false, "Print decoded records")
	flag.BoolVar(&o.roundTrip, "roundtrip", false, "Check that re-encoding reproduces the file")
	flag.BoolVar(&o.verbose, "v", false, "Trace chunk decoding and encoding")
	flag.IntVar(&o.framesPerChunk, "chunk", 0, "Frames per keyframe chunk when encoding (0 - from config)")
	flag.Parse()

	if o.skel == "" {
		flag.PrintDefaults()
		return
	}
	if err := run(&o); err != nil {
		log.Fatal(err)
	}
}
