// Package container decodes and encodes the chunked binary layouts of 3D Tiles batched
// models (b3dm) and binary glTF (GLB).
//
// Decoders never copy payload bytes: they return regions into the input buffer.
package container

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrBadMagic        = errors.New("container: bad magic")
	ErrBadVersion      = errors.New("container: bad version")
	ErrSizeMismatch    = errors.New("container: size mismatch")
	ErrBadChunk        = errors.New("container: invalid chunk layout")
	ErrBadFeatureTable = errors.New("container: invalid feature table")
)

// Region is a byte range inside a decoded buffer.
type Region struct {
	Offset int
	Length int
}

// Bytes returns the region of data it was decoded from, without copying.
func (r Region) Bytes(data []byte) []byte {
	return data[r.Offset : r.Offset+r.Length : r.Offset+r.Length]
}

func (r Region) End() int {
	return r.Offset + r.Length
}

// scanner consumes a buffer sequentially, remembering the first error.
type scanner struct {
	data   []byte
	offset int
	err    error
}

func (s *scanner) remaining() int {
	return len(s.data) - s.offset
}

func (s *scanner) uint32() uint32 {
	if s.err != nil {
		return 0
	}
	if s.remaining() < 4 {
		s.err = io.ErrUnexpectedEOF
		return 0
	}
	value := binary.LittleEndian.Uint32(s.data[s.offset:])
	s.offset += 4
	return value
}

func (s *scanner) tag() [4]byte {
	var tag [4]byte
	if s.err != nil {
		return tag
	}
	if s.remaining() < 4 {
		s.err = io.ErrUnexpectedEOF
		return tag
	}
	copy(tag[:], s.data[s.offset:])
	s.offset += 4
	return tag
}

func (s *scanner) region(length uint32) Region {
	if s.err != nil {
		return Region{}
	}
	if uint64(length) > uint64(s.remaining()) {
		s.err = io.ErrUnexpectedEOF
		return Region{}
	}
	region := Region{Offset: s.offset, Length: int(length)}
	s.offset += int(length)
	return region
}

func padding(length, alignment int) int {
	return (alignment - length%alignment) % alignment
}
