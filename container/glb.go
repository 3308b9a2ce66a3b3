package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	GLBMagic        = "glTF"
	GLBVersion      = 2
	GLBHeaderLength = 12

	chunkHeaderLength = 8
	chunkAlignment    = 4
)

type ChunkType uint8

const (
	ChunkJSON ChunkType = iota + 1
	ChunkBinary
)

var (
	tagJSON   = [4]byte{'J', 'S', 'O', 'N'}
	tagBinary = [4]byte{'B', 'I', 'N', 0}
)

type GLBHeader struct {
	Magic   [4]byte
	Version uint32
	Length  uint32
}

type Chunk struct {
	Type ChunkType
	Tag  [4]byte
	Region
}

// GLB is a decoded binary glTF: the scene description chunk and the binary payload chunk.
type GLB struct {
	Header GLBHeader
	JSON   Chunk
	Binary Chunk
}

func DecodeGLB(data []byte) (*GLB, error) {
	header := GLBHeader{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: glb header: %w", ErrSizeMismatch, err)
	}
	if string(header.Magic[:]) != GLBMagic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, header.Magic[:])
	}
	if header.Version != GLBVersion {
		return nil, fmt.Errorf("%w: glb version %d", ErrBadVersion, header.Version)
	}
	if int(header.Length) != len(data) {
		return nil, fmt.Errorf("%w: glb declares %d bytes, got %d", ErrSizeMismatch, header.Length, len(data))
	}

	result := &GLB{Header: header}
	s := scanner{data: data, offset: GLBHeaderLength}
	for s.offset < len(data) {
		length := s.uint32()
		tag := s.tag()
		region := s.region(length)
		if s.err != nil {
			return nil, fmt.Errorf("%w: glb chunk at %d: %w", ErrSizeMismatch, s.offset, s.err)
		}

		if tag == tagJSON {
			if result.JSON.Type != 0 {
				return nil, fmt.Errorf("%w: more than one JSON chunk", ErrBadChunk)
			}
			result.JSON = Chunk{Type: ChunkJSON, Tag: tag, Region: region}
		} else {
			if result.Binary.Type != 0 {
				return nil, fmt.Errorf("%w: more than one binary chunk", ErrBadChunk)
			}
			result.Binary = Chunk{Type: ChunkBinary, Tag: tag, Region: region}
		}
	}

	if result.JSON.Type == 0 {
		return nil, fmt.Errorf("%w: JSON chunk not found", ErrBadChunk)
	}
	if result.Binary.Type == 0 {
		return nil, fmt.Errorf("%w: binary chunk not found", ErrBadChunk)
	}
	return result, nil
}

// EncodeGLB writes a GLB with one JSON chunk (space padded) and one binary chunk
// (zero padded), both aligned to 4 bytes.
func EncodeGLB(jsonData, binData []byte) []byte {
	jsonPadding := padding(len(jsonData), chunkAlignment)
	binPadding := padding(len(binData), chunkAlignment)
	length := GLBHeaderLength +
		chunkHeaderLength + len(jsonData) + jsonPadding +
		chunkHeaderLength + len(binData) + binPadding

	buffer := make([]byte, 0, length)
	buffer = append(buffer, GLBMagic...)
	buffer = binary.LittleEndian.AppendUint32(buffer, GLBVersion)
	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(length))

	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(len(jsonData)+jsonPadding))
	buffer = append(buffer, tagJSON[:]...)
	buffer = append(buffer, jsonData...)
	buffer = append(buffer, bytes.Repeat([]byte{' '}, jsonPadding)...)

	buffer = binary.LittleEndian.AppendUint32(buffer, uint32(len(binData)+binPadding))
	buffer = append(buffer, tagBinary[:]...)
	buffer = append(buffer, binData...)
	buffer = append(buffer, make([]byte, binPadding)...)

	return buffer
}
