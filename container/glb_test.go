package container_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/eak1mov/go-tilemerge/container"
	"github.com/stretchr/testify/require"
)

func glbChunks(chunks ...[]byte) []byte {
	length := container.GLBHeaderLength
	for _, chunk := range chunks {
		length += len(chunk)
	}
	data := []byte(container.GLBMagic)
	data = binary.LittleEndian.AppendUint32(data, container.GLBVersion)
	data = binary.LittleEndian.AppendUint32(data, uint32(length))
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}
	return data
}

func chunk(tag string, payload []byte) []byte {
	data := binary.LittleEndian.AppendUint32(nil, uint32(len(payload)))
	data = append(data, tag...)
	return append(data, payload...)
}

func TestEncodeDecodeGLB(t *testing.T) {
	jsonData := []byte(`{"asset":{"version":"2.0"}}`)
	binData := []byte{1, 2, 3, 4, 5}

	data := container.EncodeGLB(jsonData, binData)
	require.Zero(t, len(data)%4)

	glb, err := container.DecodeGLB(data)
	require.NoError(t, err)
	require.Equal(t, uint32(len(data)), glb.Header.Length)

	require.Equal(t, container.ChunkJSON, glb.JSON.Type)
	require.Zero(t, glb.JSON.Length%4)
	require.Equal(t, "JSON", string(glb.JSON.Tag[:]))
	require.JSONEq(t, string(jsonData), string(glb.JSON.Bytes(data)))

	require.Equal(t, container.ChunkBinary, glb.Binary.Type)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 0, 0, 0}, glb.Binary.Bytes(data))
}

func TestDecodeGLBChunkOrder(t *testing.T) {
	data := glbChunks(chunk("BIN\x00", []byte{7, 7, 7, 7}), chunk("JSON", []byte(`{}  `)))

	glb, err := container.DecodeGLB(data)
	require.NoError(t, err)
	require.Equal(t, []byte{7, 7, 7, 7}, glb.Binary.Bytes(data))
	require.Equal(t, []byte(`{}  `), glb.JSON.Bytes(data))
	require.Less(t, glb.Binary.Offset, glb.JSON.Offset)
}

func TestDecodeGLBErrors(t *testing.T) {
	valid := container.EncodeGLB([]byte(`{}`), nil)

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "glTf")

	badVersion := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badVersion[4:], 1)

	truncated := glbChunks(chunk("JSON", []byte(`{}  `)), chunk("BIN\x00", []byte{1, 2, 3, 4}))
	binary.LittleEndian.PutUint32(truncated[len(truncated)-12:], 64)

	for _, tc := range []struct {
		name string
		data []byte
		want error
	}{
		{"Short", []byte("glTF"), container.ErrSizeMismatch},
		{"BadMagic", badMagic, container.ErrBadMagic},
		{"BadVersion", badVersion, container.ErrBadVersion},
		{"TrailingBytes", append(append([]byte(nil), valid...), 0, 0, 0, 0), container.ErrSizeMismatch},
		{"Truncated", truncated, container.ErrSizeMismatch},
		{"NoJSON", glbChunks(chunk("BIN\x00", []byte{1, 2, 3, 4})), container.ErrBadChunk},
		{"NoBinary", glbChunks(chunk("JSON", []byte(`{}  `))), container.ErrBadChunk},
		{"TwoJSON", glbChunks(chunk("JSON", []byte(`{}  `)), chunk("JSON", []byte(`{}  `))), container.ErrBadChunk},
		{"TwoBinary", glbChunks(chunk("JSON", []byte(`{}  `)), chunk("BIN\x00", nil), chunk("BIN\x00", nil)), container.ErrBadChunk},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := container.DecodeGLB(tc.data)
			require.Truef(t, errors.Is(err, tc.want), "%v", err)
		})
	}
}
