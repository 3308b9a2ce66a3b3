// Package gltf models the subset of glTF 2.0 used by single-tile assets and reads the
// geometry, texture and sampler of such a tile out of a GLB.
package gltf

import (
	"errors"
	"fmt"

	"github.com/eak1mov/go-tilemerge/container"
	"github.com/goccy/go-json"
)

var (
	ErrBadDocument         = errors.New("gltf: invalid scene description")
	ErrSceneShape          = errors.New("gltf: unsupported scene shape")
	ErrUnsupportedAccessor = errors.New("gltf: unsupported accessor")
)

type ComponentType int

const (
	UnsignedShort ComponentType = 5123
	Float         ComponentType = 5126
)

// Size returns the byte size of a single component.
func (c ComponentType) Size() (int, error) {
	switch c {
	case UnsignedShort:
		return 2, nil
	case Float:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: component type %d", ErrUnsupportedAccessor, c)
}

type AccessorType string

const (
	Scalar AccessorType = "SCALAR"
	Vec2   AccessorType = "VEC2"
	Vec3   AccessorType = "VEC3"
)

// Fields returns the number of components per element.
func (t AccessorType) Fields() (int, error) {
	switch t {
	case Scalar:
		return 1, nil
	case Vec2:
		return 2, nil
	case Vec3:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: type %q", ErrUnsupportedAccessor, t)
}

type Target int

const (
	ArrayBuffer        Target = 34962
	ElementArrayBuffer Target = 34963
)

const (
	AttributePosition  = "POSITION"
	AttributeTexCoord0 = "TEXCOORD_0"
)

type Document struct {
	Asset          Asset        `json:"asset"`
	ExtensionsUsed []string     `json:"extensionsUsed,omitempty"`
	Scene          *int         `json:"scene,omitempty"`
	Scenes         []Scene      `json:"scenes,omitempty"`
	Nodes          []Node       `json:"nodes,omitempty"`
	Meshes         []Mesh       `json:"meshes,omitempty"`
	Materials      []Material   `json:"materials,omitempty"`
	Textures       []Texture    `json:"textures,omitempty"`
	Samplers       []Sampler    `json:"samplers,omitempty"`
	Images         []Image      `json:"images,omitempty"`
	Accessors      []Accessor   `json:"accessors,omitempty"`
	BufferViews    []BufferView `json:"bufferViews,omitempty"`
	Buffers        []Buffer     `json:"buffers,omitempty"`
}

type Asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type Scene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

type Node struct {
	Name        string       `json:"name,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Translation *[3]float64  `json:"translation,omitempty"`
	Rotation    *[4]float64  `json:"rotation,omitempty"`
	Scale       *[3]float64  `json:"scale,omitempty"`
	Matrix      *[16]float64 `json:"matrix,omitempty"`
}

type Mesh struct {
	Name       string      `json:"name,omitempty"`
	Primitives []Primitive `json:"primitives"`
}

type Primitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       *int           `json:"mode,omitempty"`
}

type Material struct {
	Name                 string                     `json:"name,omitempty"`
	PBRMetallicRoughness *PBRMetallicRoughness      `json:"pbrMetallicRoughness,omitempty"`
	EmissiveFactor       *[3]float64                `json:"emissiveFactor,omitempty"`
	AlphaMode            string                     `json:"alphaMode,omitempty"`
	AlphaCutoff          *float64                   `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                       `json:"doubleSided,omitempty"`
	Extensions           map[string]json.RawMessage `json:"extensions,omitempty"`
}

type PBRMetallicRoughness struct {
	BaseColorFactor  *[4]float64  `json:"baseColorFactor,omitempty"`
	BaseColorTexture *TextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor   *float64     `json:"metallicFactor,omitempty"`
	RoughnessFactor  *float64     `json:"roughnessFactor,omitempty"`
}

type TextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

type Texture struct {
	Sampler *int `json:"sampler,omitempty"`
	Source  *int `json:"source,omitempty"`
}

type Sampler struct {
	MagFilter int `json:"magFilter,omitempty"`
	MinFilter int `json:"minFilter,omitempty"`
	WrapS     int `json:"wrapS,omitempty"`
	WrapT     int `json:"wrapT,omitempty"`
}

type Image struct {
	Name       string `json:"name,omitempty"`
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
}

type Accessor struct {
	BufferView    *int          `json:"bufferView,omitempty"`
	ByteOffset    int           `json:"byteOffset,omitempty"`
	ComponentType ComponentType `json:"componentType"`
	Normalized    bool          `json:"normalized,omitempty"`
	Count         int           `json:"count"`
	Type          AccessorType  `json:"type"`
	Min           []float64     `json:"min,omitempty"`
	Max           []float64     `json:"max,omitempty"`
}

type BufferView struct {
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	ByteStride int    `json:"byteStride,omitempty"`
	Target     Target `json:"target,omitempty"`
}

type Buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// ParseDocument decodes a GLB and its scene description without any shape constraint.
func ParseDocument(data []byte) (*Document, *container.GLB, error) {
	glb, err := container.DecodeGLB(data)
	if err != nil {
		return nil, nil, err
	}
	doc := &Document{}
	if err := json.Unmarshal(glb.JSON.Bytes(data), doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadDocument, err)
	}
	return doc, glb, nil
}

// Encode serializes the document and its single binary buffer as a GLB.
func (d *Document) Encode(bin []byte) ([]byte, error) {
	jsonData, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadDocument, err)
	}
	return container.EncodeGLB(jsonData, bin), nil
}

func Ref(index int) *int {
	return &index
}
