package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// NewDocument returns a document with a single empty scene.
func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportBinary attaches every parentless node to the first scene and
// encodes the document as GLB.
func ExportBinary(w io.Writer, doc *gltf.Document) error {
	isChild := make(map[uint32]bool)
	for _, node := range doc.Nodes {
		for _, child := range node.Children {
			isChild[child] = true
		}
	}
	doc.Scenes[0].Nodes = doc.Scenes[0].Nodes[:0]
	for iNode := range doc.Nodes {
		if !isChild[uint32(iNode)] {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
