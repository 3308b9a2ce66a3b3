package gltf

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// ImageData is an embedded image payload, usually compressed (jpeg, png, webp).
type ImageData struct {
	Data     []byte
	MimeType string
}

// Tile is the content of a single-tile asset: one textured primitive.
type Tile struct {
	Positions Blob
	TexCoords Blob
	Indices   Blob
	Image     ImageData
	Sampler   Sampler
	Material  *Material
	Mode      *int
}

// ReadTile decodes a GLB holding exactly one scene with one root node, one mesh with a
// single indexed primitive, one image and one sampler.
func ReadTile(data []byte) (*Tile, error) {
	doc, glb, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	bin := glb.Binary.Bytes(data)

	if len(doc.Scenes) != 1 {
		return nil, fmt.Errorf("%w: %d scenes", ErrSceneShape, len(doc.Scenes))
	}
	scene := doc.Scenes[0]
	if len(scene.Nodes) != 1 {
		return nil, fmt.Errorf("%w: %d root nodes", ErrSceneShape, len(scene.Nodes))
	}
	if idx := scene.Nodes[0]; idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("%w: node %d out of range", ErrSceneShape, idx)
	}
	node := doc.Nodes[scene.Nodes[0]]
	if node.Mesh == nil || *node.Mesh < 0 || *node.Mesh >= len(doc.Meshes) {
		return nil, fmt.Errorf("%w: root node has no mesh", ErrSceneShape)
	}
	mesh := doc.Meshes[*node.Mesh]
	if len(mesh.Primitives) != 1 {
		return nil, fmt.Errorf("%w: %d primitives", ErrSceneShape, len(mesh.Primitives))
	}
	primitive := mesh.Primitives[0]
	if len(doc.Images) != 1 {
		return nil, fmt.Errorf("%w: %d images", ErrSceneShape, len(doc.Images))
	}
	if len(doc.Samplers) != 1 {
		return nil, fmt.Errorf("%w: %d samplers", ErrSceneShape, len(doc.Samplers))
	}

	positionIdx, ok := primitive.Attributes[AttributePosition]
	if !ok {
		return nil, fmt.Errorf("%w: no %v attribute", ErrSceneShape, AttributePosition)
	}
	texCoordIdx, ok := primitive.Attributes[AttributeTexCoord0]
	if !ok {
		return nil, fmt.Errorf("%w: no %v attribute", ErrSceneShape, AttributeTexCoord0)
	}
	if primitive.Indices == nil {
		return nil, fmt.Errorf("%w: primitive is not indexed", ErrSceneShape)
	}

	tile := &Tile{
		Sampler: doc.Samplers[0],
		Mode:    primitive.Mode,
	}
	if tile.Positions, err = doc.readAccessor(bin, positionIdx); err != nil {
		return nil, err
	}
	if tile.TexCoords, err = doc.readAccessor(bin, texCoordIdx); err != nil {
		return nil, err
	}
	if tile.Indices, err = doc.readAccessor(bin, *primitive.Indices); err != nil {
		return nil, err
	}
	if tile.Image, err = doc.readImage(bin, doc.Images[0]); err != nil {
		return nil, err
	}

	if tile.Positions.Accessor.Count == 0 || tile.Indices.Accessor.Count == 0 || len(tile.Image.Data) == 0 {
		return nil, fmt.Errorf("%w: empty primitive or image", ErrSceneShape)
	}

	if primitive.Material != nil {
		if idx := *primitive.Material; idx >= 0 && idx < len(doc.Materials) {
			material := doc.Materials[idx]
			tile.Material = &material
		}
	}

	return tile, nil
}

func (d *Document) readImage(bin []byte, image Image) (ImageData, error) {
	if image.BufferView == nil {
		return ImageData{}, fmt.Errorf("%w: image is not embedded", ErrSceneShape)
	}
	view, err := d.bufferView(*image.BufferView)
	if err != nil {
		return ImageData{}, err
	}
	if err := checkView(view, *image.BufferView, bin); err != nil {
		return ImageData{}, err
	}

	data := bin[view.ByteOffset : view.ByteOffset+view.ByteLength]
	mimeType := image.MimeType
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return ImageData{Data: data, MimeType: mimeType}, nil
}
