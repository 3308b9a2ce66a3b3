package merge

import (
	"maps"
	"slices"

	"github.com/eak1mov/go-tilemerge/gltf"
)

const viewAlignment = 4

// combined accumulates the merged asset. Records refer to each other by index only.
type combined struct {
	doc        gltf.Document
	buffer     []byte
	children   []int
	extensions map[string]bool
}

func newCombined(generator string) *combined {
	return &combined{
		doc:        gltf.Document{Asset: gltf.Asset{Version: "2.0", Generator: generator}},
		extensions: make(map[string]bool),
	}
}

func (c *combined) appendView(data []byte, target gltf.Target) int {
	if pad := len(c.buffer) % viewAlignment; pad != 0 {
		c.buffer = append(c.buffer, make([]byte, viewAlignment-pad)...)
	}
	c.doc.BufferViews = append(c.doc.BufferViews, gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(c.buffer),
		ByteLength: len(data),
		Target:     target,
	})
	c.buffer = append(c.buffer, data...)
	return len(c.doc.BufferViews) - 1
}

func (c *combined) appendAccessor(blob gltf.Blob, view int) int {
	accessor := blob.Accessor
	accessor.BufferView = gltf.Ref(view)
	accessor.ByteOffset = 0
	c.doc.Accessors = append(c.doc.Accessors, accessor)
	return len(c.doc.Accessors) - 1
}

func (c *combined) appendMaterial(key string, source *gltf.Material, texture int) int {
	material := gltf.Material{}
	if source != nil {
		material = *source
	}
	if material.Name == "" {
		material.Name = key
	}

	pbr := gltf.PBRMetallicRoughness{}
	if material.PBRMetallicRoughness != nil {
		pbr = *material.PBRMetallicRoughness
	}
	pbr.BaseColorTexture = &gltf.TextureInfo{Index: texture}
	material.PBRMetallicRoughness = &pbr

	for name := range material.Extensions {
		c.extensions[name] = true
	}

	c.doc.Materials = append(c.doc.Materials, material)
	return len(c.doc.Materials) - 1
}

func (c *combined) addTile(key string, tile *gltf.Tile, translation [3]float64) {
	positionsView := c.appendView(tile.Positions.Data, gltf.ArrayBuffer)
	texCoordsView := c.appendView(tile.TexCoords.Data, gltf.ArrayBuffer)
	indicesView := c.appendView(tile.Indices.Data, gltf.ElementArrayBuffer)
	imageView := c.appendView(tile.Image.Data, 0)

	positions := c.appendAccessor(tile.Positions, positionsView)
	texCoords := c.appendAccessor(tile.TexCoords, texCoordsView)
	indices := c.appendAccessor(tile.Indices, indicesView)

	c.doc.Images = append(c.doc.Images, gltf.Image{
		BufferView: gltf.Ref(imageView),
		MimeType:   tile.Image.MimeType,
	})
	c.doc.Samplers = append(c.doc.Samplers, tile.Sampler)
	c.doc.Textures = append(c.doc.Textures, gltf.Texture{
		Sampler: gltf.Ref(len(c.doc.Samplers) - 1),
		Source:  gltf.Ref(len(c.doc.Images) - 1),
	})
	material := c.appendMaterial(key, tile.Material, len(c.doc.Textures)-1)

	c.doc.Meshes = append(c.doc.Meshes, gltf.Mesh{
		Name: key,
		Primitives: []gltf.Primitive{{
			Attributes: map[string]int{
				gltf.AttributePosition:  positions,
				gltf.AttributeTexCoord0: texCoords,
			},
			Indices:  gltf.Ref(indices),
			Material: gltf.Ref(material),
			Mode:     tile.Mode,
		}},
	})

	c.doc.Nodes = append(c.doc.Nodes, gltf.Node{
		Name:        key,
		Mesh:        gltf.Ref(len(c.doc.Meshes) - 1),
		Translation: &translation,
	})
	c.children = append(c.children, len(c.doc.Nodes)-1)
}

func (c *combined) encode(rotation [4]float64) ([]byte, error) {
	c.doc.Nodes = append(c.doc.Nodes, gltf.Node{
		Name:     "root",
		Children: c.children,
		Rotation: &rotation,
	})
	c.doc.Scene = gltf.Ref(0)
	c.doc.Scenes = []gltf.Scene{{Nodes: []int{len(c.doc.Nodes) - 1}}}

	if pad := len(c.buffer) % viewAlignment; pad != 0 {
		c.buffer = append(c.buffer, make([]byte, viewAlignment-pad)...)
	}
	c.buffer = append(c.buffer, 0, 0, 0, 0)
	c.doc.Buffers = []gltf.Buffer{{ByteLength: len(c.buffer)}}

	if len(c.extensions) > 0 {
		c.doc.ExtensionsUsed = slices.Sorted(maps.Keys(c.extensions))
	}

	return c.doc.Encode(c.buffer)
}
