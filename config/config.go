// Package config holds process-wide codec settings and the YAML file that
// sets them.
package config

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

const DefaultFramesPerChunk = 64

var (
	currentCharMap *charmap.Charmap = charmap.Windows1252
	byteOrder      binary.ByteOrder = binary.LittleEndian
	framesPerChunk                  = DefaultFramesPerChunk
)

func SetEncoding(name string) error {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && cm.String() == name {
			currentCharMap = cm
			return nil
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

// GetEncoding returns the charmap strings in asset files are stored in.
func GetEncoding() *charmap.Charmap {
	return currentCharMap
}

func GetByteOrder() binary.ByteOrder {
	return byteOrder
}

func SetByteOrder(o binary.ByteOrder) {
	byteOrder = o
}

// GetFramesPerChunk returns how many frames the animation encoder puts in
// one keyframe chunk.
func GetFramesPerChunk() int {
	return framesPerChunk
}

func SetFramesPerChunk(n int) error {
	if n < 1 || n > 0x10000 {
		return errors.Errorf("frames per chunk %d out of range [1, 65536]", n)
	}
	framesPerChunk = n
	return nil
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Dir  string `yaml:"dir"`
}

type Config struct {
	Encoding       string       `yaml:"encoding"`
	FramesPerChunk int          `yaml:"frames_per_chunk"`
	BigEndian      bool         `yaml:"big_endian"`
	Server         ServerConfig `yaml:"server"`
}

func Default() Config {
	return Config{
		Encoding:       charmap.Windows1252.String(),
		FramesPerChunk: DefaultFramesPerChunk,
		Server: ServerConfig{
			Addr: ":8000",
		},
	}
}

// Load reads a YAML config. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "Can't read config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "Can't parse config %q", path)
	}
	return cfg, nil
}

// Apply makes cfg the process-wide configuration.
func (cfg Config) Apply() error {
	if err := SetEncoding(cfg.Encoding); err != nil {
		return err
	}
	if err := SetFramesPerChunk(cfg.FramesPerChunk); err != nil {
		return err
	}
	if cfg.BigEndian {
		SetByteOrder(binary.BigEndian)
	} else {
		SetByteOrder(binary.LittleEndian)
	}
	return nil
}
