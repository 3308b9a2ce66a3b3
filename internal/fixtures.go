// Package internal builds synthetic single-tile assets for tests.
package internal

import (
	"encoding/binary"
	"math"

	"github.com/eak1mov/go-tilemerge/container"
	"github.com/eak1mov/go-tilemerge/gltf"
)

// JPEGStub starts with a JPEG signature, enough for content sniffing.
var JPEGStub = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}

// TileDocument returns the scene description and binary buffer of a single-tile asset:
// a unit quad shifted by offset along x, with texture coordinates, u16 indices and an
// embedded image.
func TileDocument(offset float32) (*gltf.Document, []byte) {
	positions := [][3]float32{{offset, 0, 0}, {offset + 1, 0, 0}, {offset + 1, 1, 0}, {offset, 1, 0}}
	texCoords := [][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}
	indices := []uint16{0, 1, 2, 0, 2, 3}

	bin := make([]byte, 0, 128)
	for _, p := range positions {
		for _, v := range p {
			bin = binary.LittleEndian.AppendUint32(bin, math.Float32bits(v))
		}
	}
	for _, uv := range texCoords {
		for _, v := range uv {
			bin = binary.LittleEndian.AppendUint32(bin, math.Float32bits(v))
		}
	}
	for _, i := range indices {
		bin = binary.LittleEndian.AppendUint16(bin, i)
	}
	bin = append(bin, JPEGStub...)

	metallic := 0.0
	doc := &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0"},
		Scene:  gltf.Ref(0),
		Scenes: []gltf.Scene{{Nodes: []int{0}}},
		Nodes:  []gltf.Node{{Mesh: gltf.Ref(0)}},
		Meshes: []gltf.Mesh{{Primitives: []gltf.Primitive{{
			Attributes: map[string]int{gltf.AttributePosition: 0, gltf.AttributeTexCoord0: 1},
			Indices:    gltf.Ref(2),
			Material:   gltf.Ref(0),
		}}}},
		Materials: []gltf.Material{{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: 0},
				MetallicFactor:   &metallic,
			},
		}},
		Textures: []gltf.Texture{{Sampler: gltf.Ref(0), Source: gltf.Ref(0)}},
		Samplers: []gltf.Sampler{{MagFilter: 9729, MinFilter: 9729}},
		Images:   []gltf.Image{{BufferView: gltf.Ref(3), MimeType: "image/jpeg"}},
		Accessors: []gltf.Accessor{
			{BufferView: gltf.Ref(0), ComponentType: gltf.Float, Count: 4, Type: gltf.Vec3,
				Min: []float64{float64(offset), 0, 0}, Max: []float64{float64(offset) + 1, 1, 0}},
			{BufferView: gltf.Ref(1), ComponentType: gltf.Float, Count: 4, Type: gltf.Vec2},
			{BufferView: gltf.Ref(2), ComponentType: gltf.UnsignedShort, Count: 6, Type: gltf.Scalar},
		},
		BufferViews: []gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 48, Target: gltf.ArrayBuffer},
			{Buffer: 0, ByteOffset: 48, ByteLength: 32, Target: gltf.ArrayBuffer},
			{Buffer: 0, ByteOffset: 80, ByteLength: 12, Target: gltf.ElementArrayBuffer},
			{Buffer: 0, ByteOffset: 92, ByteLength: len(JPEGStub)},
		},
		Buffers: []gltf.Buffer{{ByteLength: len(bin)}},
	}
	return doc, bin
}

// TileGLB encodes TileDocument as a GLB.
func TileGLB(offset float32) []byte {
	doc, bin := TileDocument(offset)
	data, err := doc.Encode(bin)
	if err != nil {
		panic(err)
	}
	return data
}

// TileB3DM wraps TileGLB into a b3dm, with an RTC_CENTER when center is not nil.
func TileB3DM(offset float32, center *[3]float64) []byte {
	featureTable := container.FeatureTable{"BATCH_LENGTH": []byte("0")}
	if center != nil {
		featureTable.SetReferenceCenter(*center)
	}
	data, err := container.EncodeB3DM(featureTable, TileGLB(offset))
	if err != nil {
		panic(err)
	}
	return data
}
