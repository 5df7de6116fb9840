package layout

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ExportGLTF writes the world-space LED cloud as a binary glTF file with one
// POINTS mesh per face, so the folding can be inspected in any 3-D viewer.
// World millimetres are exported as metres.
func ExportGLTF(path string, leds []LedRecord) error {
	doc := BuildGLTF(leds)
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save gltf: %w", err)
	}
	return nil
}

// BuildGLTF assembles the glTF document for leds. Faces appear in order of
// their first LED.
func BuildGLTF(leds []LedRecord) *gltf.Document {
	doc := gltf.NewDocument()

	var order []Face
	points := make(map[Face][][3]float32)
	for _, led := range leds {
		if _, ok := points[led.Face]; !ok {
			order = append(order, led.Face)
		}
		w := led.World.Scale(0.001)
		points[led.Face] = append(points[led.Face], [3]float32{float32(w.X), float32(w.Y), float32(w.Z)})
	}

	for _, face := range order {
		pos := modeler.WritePosition(doc, points[face])
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: string(face),
			Primitives: []*gltf.Primitive{{
				Mode:       gltf.PrimitivePoints,
				Attributes: map[string]int{gltf.POSITION: pos},
			}},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: string(face),
			Mesh: gltf.Index(len(doc.Meshes) - 1),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc
}
