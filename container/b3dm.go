package container

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/goccy/go-json"
)

const (
	B3DMMagic        = "b3dm"
	B3DMVersion      = 1
	B3DMHeaderLength = 28

	// ReferenceCenterKey is the feature table property holding the relative-to-center
	// origin of the embedded vertex positions.
	ReferenceCenterKey = "RTC_CENTER"
)

type B3DMHeader struct {
	Magic                        [4]byte
	Version                      uint32
	ByteLength                   uint32
	FeatureTableJSONByteLength   uint32
	FeatureTableBinaryByteLength uint32
	BatchTableJSONByteLength     uint32
	BatchTableBinaryByteLength   uint32
}

// FeatureTable holds the raw JSON properties of a b3dm feature table.
type FeatureTable map[string]json.RawMessage

// ReferenceCenter returns the RTC_CENTER property, if present.
func (ft FeatureTable) ReferenceCenter() ([3]float64, bool) {
	raw, ok := ft[ReferenceCenterKey]
	if !ok {
		return [3]float64{}, false
	}
	var center [3]float64
	if err := json.Unmarshal(raw, &center); err != nil {
		return [3]float64{}, false
	}
	return center, true
}

func (ft FeatureTable) SetReferenceCenter(center [3]float64) {
	raw, _ := json.Marshal(center)
	ft[ReferenceCenterKey] = raw
}

func (ft FeatureTable) validate() error {
	raw, ok := ft[ReferenceCenterKey]
	if !ok {
		return nil
	}
	var values []float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrBadFeatureTable, ReferenceCenterKey, err)
	}
	if len(values) != 3 {
		return fmt.Errorf("%w: %v has %d components", ErrBadFeatureTable, ReferenceCenterKey, len(values))
	}
	return nil
}

// B3DM is a decoded batched 3D model: its tables and the embedded GLB region.
type B3DM struct {
	Header             B3DMHeader
	FeatureTable       FeatureTable
	FeatureTableJSON   Region
	FeatureTableBinary Region
	BatchTableJSON     Region
	BatchTableBinary   Region
	Embedded           Region
}

func DecodeB3DM(data []byte) (*B3DM, error) {
	header := B3DMHeader{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: b3dm header: %w", ErrSizeMismatch, err)
	}
	if string(header.Magic[:]) != B3DMMagic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, header.Magic[:])
	}
	if header.Version != B3DMVersion {
		return nil, fmt.Errorf("%w: b3dm version %d", ErrBadVersion, header.Version)
	}

	s := scanner{data: data, offset: B3DMHeaderLength}
	result := &B3DM{Header: header}
	result.FeatureTableJSON = s.region(header.FeatureTableJSONByteLength)
	result.FeatureTableBinary = s.region(header.FeatureTableBinaryByteLength)
	result.BatchTableJSON = s.region(header.BatchTableJSONByteLength)
	result.BatchTableBinary = s.region(header.BatchTableBinaryByteLength)
	if s.err != nil {
		return nil, fmt.Errorf("%w: b3dm tables: %w", ErrSizeMismatch, s.err)
	}

	result.Embedded = Region{Offset: s.offset, Length: s.remaining()}
	if int(header.ByteLength) != s.offset+result.Embedded.Length {
		return nil, fmt.Errorf("%w: b3dm declares %d bytes, got %d",
			ErrSizeMismatch, header.ByteLength, s.offset+result.Embedded.Length)
	}

	result.FeatureTable = make(FeatureTable)
	if result.FeatureTableJSON.Length > 0 {
		if err := json.Unmarshal(result.FeatureTableJSON.Bytes(data), &result.FeatureTable); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadFeatureTable, err)
		}
		if err := result.FeatureTable.validate(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// EncodeB3DM wraps a GLB into a b3dm with the given feature table and no batch table.
// The feature table JSON, "{}" when empty, is padded with spaces so the embedded asset
// starts 8-byte aligned.
func EncodeB3DM(featureTable FeatureTable, glb []byte) ([]byte, error) {
	tableData := []byte("{}")
	if len(featureTable) > 0 {
		var err error
		tableData, err = json.Marshal(featureTable)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadFeatureTable, err)
		}
	}
	tableData = append(tableData, bytes.Repeat([]byte{' '}, padding(B3DMHeaderLength+len(tableData), 8))...)

	header := B3DMHeader{
		Version:                    B3DMVersion,
		ByteLength:                 uint32(B3DMHeaderLength + len(tableData) + len(glb)),
		FeatureTableJSONByteLength: uint32(len(tableData)),
	}
	copy(header.Magic[:], B3DMMagic)

	buffer := bytes.NewBuffer(make([]byte, 0, header.ByteLength))
	binary.Write(buffer, binary.LittleEndian, &header)
	buffer.Write(tableData)
	buffer.Write(glb)
	return buffer.Bytes(), nil
}
