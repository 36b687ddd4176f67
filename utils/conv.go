package utils

import (
	"bytes"

	"golang.org/x/text/transform"

	"github.com/mogaika/assetcodec/config"
)

// BytesStringLength returns the length of bs up to the first NUL byte.
func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}

// DecodeString converts raw bytes from the configured charmap.
func DecodeString(raw []byte) (string, error) {
	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// EncodeString converts s to the configured charmap, without terminator.
func EncodeString(s string) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return bs, nil
}
