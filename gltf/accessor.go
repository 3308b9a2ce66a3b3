package gltf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/eak1mov/go-tilemerge/container"
)

// Blob is a tightly packed little-endian copy of an accessor's elements. Its Accessor
// has no buffer view; extrema are recomputed from the data.
type Blob struct {
	Data     []byte
	Accessor Accessor
}

func (d *Document) bufferView(index int) (BufferView, error) {
	if index < 0 || index >= len(d.BufferViews) {
		return BufferView{}, fmt.Errorf("%w: buffer view %d out of range", ErrSceneShape, index)
	}
	view := d.BufferViews[index]
	if view.Buffer != 0 {
		return BufferView{}, fmt.Errorf("%w: buffer view %d references external buffer %d", ErrSceneShape, index, view.Buffer)
	}
	return view, nil
}

// checkView fails unless the view lies within bin. Offsets come from untrusted JSON, so
// bounds are compared without sums that could overflow.
func checkView(view BufferView, index int, bin []byte) error {
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteStride < 0 ||
		view.ByteOffset > len(bin) || view.ByteLength > len(bin)-view.ByteOffset {
		return fmt.Errorf("%w: buffer view %d outside binary chunk", container.ErrSizeMismatch, index)
	}
	return nil
}

func (d *Document) readAccessor(bin []byte, index int) (Blob, error) {
	if index < 0 || index >= len(d.Accessors) {
		return Blob{}, fmt.Errorf("%w: accessor %d out of range", ErrSceneShape, index)
	}
	accessor := d.Accessors[index]

	fields, err := accessor.Type.Fields()
	if err != nil {
		return Blob{}, err
	}
	size, err := accessor.ComponentType.Size()
	if err != nil {
		return Blob{}, err
	}
	if accessor.BufferView == nil {
		return Blob{}, fmt.Errorf("%w: accessor %d has no buffer view", ErrUnsupportedAccessor, index)
	}
	view, err := d.bufferView(*accessor.BufferView)
	if err != nil {
		return Blob{}, err
	}
	if err := checkView(view, *accessor.BufferView, bin); err != nil {
		return Blob{}, err
	}

	elementSize := fields * size
	stride := view.ByteStride
	if stride == 0 {
		stride = elementSize
	}
	if accessor.ByteOffset < 0 || accessor.Count < 0 || stride < elementSize {
		return Blob{}, fmt.Errorf("%w: accessor %d layout", ErrUnsupportedAccessor, index)
	}
	if accessor.Count > 0 {
		// The view lies within bin, so only its own length needs checking.
		if accessor.ByteOffset > view.ByteLength || elementSize > view.ByteLength-accessor.ByteOffset {
			return Blob{}, fmt.Errorf("%w: accessor %d starts past buffer view", container.ErrSizeMismatch, index)
		}
		if accessor.Count-1 > (view.ByteLength-accessor.ByteOffset-elementSize)/stride {
			return Blob{}, fmt.Errorf("%w: accessor %d with %d elements ends past buffer view", container.ErrSizeMismatch, index, accessor.Count)
		}
	}
	start := view.ByteOffset + accessor.ByteOffset

	data := make([]byte, accessor.Count*elementSize)
	lower := make([]float64, fields)
	upper := make([]float64, fields)
	for f := range fields {
		lower[f] = math.Inf(1)
		upper[f] = math.Inf(-1)
	}

	for i := range accessor.Count {
		element := bin[start+i*stride : start+i*stride+elementSize]
		copy(data[i*elementSize:], element)

		for f := range fields {
			value := componentValue(element[f*size:], accessor.ComponentType)
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return Blob{}, fmt.Errorf("%w: accessor %d element %d is not finite", ErrUnsupportedAccessor, index, i)
			}
			lower[f] = min(lower[f], value)
			upper[f] = max(upper[f], value)
		}
	}

	result := Accessor{
		ComponentType: accessor.ComponentType,
		Normalized:    accessor.Normalized,
		Count:         accessor.Count,
		Type:          accessor.Type,
	}
	if accessor.Count > 0 {
		result.Min = lower
		result.Max = upper
	}
	return Blob{Data: data, Accessor: result}, nil
}

func componentValue(data []byte, componentType ComponentType) float64 {
	if componentType == UnsignedShort {
		return float64(binary.LittleEndian.Uint16(data))
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(data)))
}
