package merge_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/eak1mov/go-tilemerge/container"
	"github.com/eak1mov/go-tilemerge/gltf"
	"github.com/eak1mov/go-tilemerge/internal"
	"github.com/eak1mov/go-tilemerge/merge"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, data []byte) (*gltf.Document, []byte) {
	t.Helper()
	doc, glb, err := gltf.ParseDocument(data)
	require.NoError(t, err)
	return doc, glb.Binary.Bytes(data)
}

func rootNode(t *testing.T, doc *gltf.Document) gltf.Node {
	t.Helper()
	require.NotNil(t, doc.Scene)
	require.Len(t, doc.Scenes, 1)
	require.Len(t, doc.Scenes[0].Nodes, 1)
	root := doc.Nodes[doc.Scenes[0].Nodes[0]]
	require.Equal(t, "root", root.Name)
	return root
}

func TestMergeSingle(t *testing.T) {
	center := [3]float64{100, 200, 300}
	out, err := merge.Merge([]merge.Job{{Key: "L17_0123", Asset: internal.TileGLB(0), Center: &center}})
	require.NoError(t, err)

	doc, bin := parse(t, out)
	root := rootNode(t, doc)
	if diff := cmp.Diff([]int{0}, root.Children); diff != "" {
		t.Errorf("Children mismatch (-want+got):\n%v", diff)
	}
	if diff := cmp.Diff(&[4]float64{0, 0, 0, 1}, root.Rotation); diff != "" {
		t.Errorf("Rotation mismatch (-want+got):\n%v", diff)
	}

	child := doc.Nodes[0]
	require.Equal(t, "L17_0123", child.Name)
	if diff := cmp.Diff(&[3]float64{0, 0, 0}, child.Translation); diff != "" {
		t.Errorf("Translation mismatch (-want+got):\n%v", diff)
	}

	require.Equal(t, "2.0", doc.Asset.Version)
	require.Len(t, doc.Buffers, 1)
	require.Equal(t, len(bin), doc.Buffers[0].ByteLength)

	_, source := internal.TileDocument(0)
	for i, want := range [][]byte{source[0:48], source[48:80], source[80:92], internal.JPEGStub} {
		view := doc.BufferViews[i]
		got := bin[view.ByteOffset : view.ByteOffset+view.ByteLength]
		require.Truef(t, bytes.Equal(want, got), "view %d", i)
	}
	require.Equal(t, gltf.ArrayBuffer, doc.BufferViews[0].Target)
	require.Equal(t, gltf.ArrayBuffer, doc.BufferViews[1].Target)
	require.Equal(t, gltf.ElementArrayBuffer, doc.BufferViews[2].Target)
	require.Equal(t, gltf.Target(0), doc.BufferViews[3].Target)

	material := doc.Materials[0]
	require.Equal(t, 0, material.PBRMetallicRoughness.BaseColorTexture.Index)
	require.Equal(t, 0.0, *material.PBRMetallicRoughness.MetallicFactor)
	require.Equal(t, "image/jpeg", doc.Images[0].MimeType)
	require.Equal(t, 9729, doc.Samplers[0].MagFilter)
}

func TestMergeTranslations(t *testing.T) {
	first := [3]float64{10, 20, 30}
	second := [3]float64{15, 12, 31}
	out, err := merge.Merge([]merge.Job{
		{Key: "a", Asset: internal.TileGLB(0), Center: &first},
		{Key: "b", Asset: internal.TileGLB(1), Center: &second},
	})
	require.NoError(t, err)

	doc, _ := parse(t, out)
	root := rootNode(t, doc)
	if diff := cmp.Diff([]int{0, 1}, root.Children); diff != "" {
		t.Errorf("Children mismatch (-want+got):\n%v", diff)
	}

	want := []*[3]float64{{0, 0, 0}, {5, 1, 8}}
	got := []*[3]float64{doc.Nodes[0].Translation, doc.Nodes[1].Translation}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Translation mismatch (-want+got):\n%v", diff)
	}

	require.Len(t, doc.Meshes, 2)
	require.Len(t, doc.Accessors, 6)
	require.Equal(t, []float64{1, 0, 0}, doc.Accessors[3].Min)
	require.Equal(t, []float64{2, 1, 0}, doc.Accessors[3].Max)
	require.Equal(t, 1, *doc.Meshes[1].Primitives[0].Material)
	require.Equal(t, 1, doc.Materials[1].PBRMetallicRoughness.BaseColorTexture.Index)
}

func TestMergeSkipsMissingCenter(t *testing.T) {
	center := [3]float64{1, 2, 3}
	out, err := merge.Merge([]merge.Job{
		{Key: "valid", Asset: internal.TileGLB(0), Center: &center},
		{Key: "missing", Asset: internal.TileGLB(1)},
	})
	require.NoError(t, err)

	doc, _ := parse(t, out)
	root := rootNode(t, doc)
	require.Len(t, root.Children, 1)
	require.Equal(t, "valid", doc.Nodes[root.Children[0]].Name)
	require.Len(t, doc.Nodes, 2)
}

// corruptTile encodes the fixture tile after applying mutate to its scene description.
func corruptTile(t *testing.T, mutate func(doc *gltf.Document)) []byte {
	t.Helper()
	doc, bin := internal.TileDocument(0)
	mutate(doc)
	data, err := doc.Encode(bin)
	require.NoError(t, err)
	return data
}

func TestMergeSkipsMalformed(t *testing.T) {
	first := [3]float64{1, 2, 3}
	second := [3]float64{4, 5, 6}
	third := [3]float64{7, 8, 9}
	hugeCount := corruptTile(t, func(doc *gltf.Document) {
		doc.Accessors[0].Count = math.MaxInt / 4
	})
	hugeImageView := corruptTile(t, func(doc *gltf.Document) {
		doc.BufferViews[3].ByteOffset = math.MaxInt / 2
		doc.BufferViews[3].ByteLength = math.MaxInt / 2
	})

	out, err := merge.Merge([]merge.Job{
		{Key: "broken", Asset: []byte("not a glb"), Center: &first},
		{Key: "count", Asset: hugeCount, Center: &first},
		{Key: "a", Asset: internal.TileGLB(0), Center: &second},
		{Key: "image", Asset: hugeImageView, Center: &first},
		{Key: "b", Asset: internal.TileGLB(0), Center: &third},
	})
	require.NoError(t, err)

	doc, _ := parse(t, out)
	root := rootNode(t, doc)
	require.Len(t, root.Children, 2)
	require.Equal(t, "a", doc.Nodes[0].Name)
	require.Equal(t, "b", doc.Nodes[1].Name)
	// The first merged tile defines the origin, skipped ones do not.
	require.Equal(t, &[3]float64{0, 0, 0}, doc.Nodes[0].Translation)
	require.Equal(t, &[3]float64{3, 3, -3}, doc.Nodes[1].Translation)
}

func TestOrigin(t *testing.T) {
	skipped := [3]float64{1, 2, 3}
	merged := [3]float64{4, 5, 6}
	jobs := []merge.Job{
		{Key: "missing", Asset: internal.TileGLB(0)},
		{Key: "broken", Asset: corruptTile(t, func(doc *gltf.Document) {
			doc.BufferViews[3].ByteLength = 1000
		}), Center: &skipped},
		{Key: "a", Asset: internal.TileGLB(0), Center: &merged},
	}

	origin, ok := merge.Origin(jobs)
	require.True(t, ok)
	require.Equal(t, merged, origin)

	out, err := merge.Merge(jobs, merge.WithOrigin(origin))
	require.NoError(t, err)
	doc, _ := parse(t, out)
	require.Equal(t, &[3]float64{0, 0, 0}, doc.Nodes[0].Translation)

	_, ok = merge.Origin(jobs[:2])
	require.False(t, ok)
}

func TestMergeEmpty(t *testing.T) {
	for _, jobs := range [][]merge.Job{nil, {{Key: "missing", Asset: internal.TileGLB(0)}}} {
		out, err := merge.Merge(jobs)
		require.NoError(t, err)

		glb, err := container.DecodeGLB(out)
		require.NoError(t, err)
		require.Equal(t, 4, glb.Binary.Length)

		doc, _ := parse(t, out)
		root := rootNode(t, doc)
		require.Empty(t, root.Children)
		require.Len(t, doc.Nodes, 1)
		require.Equal(t, []gltf.Buffer{{ByteLength: 4}}, doc.Buffers)
	}
}

func TestMergeAlignment(t *testing.T) {
	// An odd-sized image shifts every following view.
	doc, bin := internal.TileDocument(0)
	bin = append(bin, 0xd9)
	doc.BufferViews[3].ByteLength++
	doc.Buffers[0].ByteLength++
	odd, err := doc.Encode(bin)
	require.NoError(t, err)

	center := [3]float64{0, 0, 0}
	jobs := []merge.Job{{Key: "odd", Asset: odd, Center: &center}}
	for i := range 2 {
		jobs = append(jobs, merge.Job{Key: string(rune('a' + i)), Asset: internal.TileGLB(float32(i)), Center: &center})
	}
	out, err := merge.Merge(jobs)
	require.NoError(t, err)

	merged, mergedBin := parse(t, out)
	require.Len(t, merged.BufferViews, 12)
	require.Equal(t, len(internal.JPEGStub)+1, merged.BufferViews[3].ByteLength)
	for i, view := range merged.BufferViews {
		require.Zerof(t, view.ByteOffset%4, "view %d offset %d", i, view.ByteOffset)
		require.LessOrEqualf(t, view.ByteOffset+view.ByteLength, len(mergedBin), "view %d", i)
	}
	require.Zero(t, len(mergedBin)%4)
	for _, accessor := range merged.Accessors {
		require.NotNil(t, accessor.BufferView)
		require.Less(t, *accessor.BufferView, len(merged.BufferViews))
	}
}

func TestMergeOptions(t *testing.T) {
	center := [3]float64{10, 20, 30}
	out, err := merge.Merge(
		[]merge.Job{{Key: "a", Asset: internal.TileGLB(0), Center: &center}},
		merge.WithOrigin([3]float64{9, 18, 27}),
		merge.WithReferenceLatitude(50),
		merge.WithGenerator("test"),
	)
	require.NoError(t, err)

	doc, _ := parse(t, out)
	require.Equal(t, "test", doc.Asset.Generator)
	require.Equal(t, &[3]float64{1, 3, -2}, doc.Nodes[0].Translation)

	rotation := rootNode(t, doc).Rotation
	require.NotNil(t, rotation)
	angle := math.Pi * 40 / 360
	require.InDelta(t, 0, rotation[0], 1e-12)
	require.InDelta(t, math.Sin(angle/2), rotation[1], 1e-12)
	require.InDelta(t, 0, rotation[2], 1e-12)
	require.InDelta(t, math.Cos(angle/2), rotation[3], 1e-12)
	norm := rotation[0]*rotation[0] + rotation[1]*rotation[1] + rotation[2]*rotation[2] + rotation[3]*rotation[3]
	require.InDelta(t, 1, norm, 1e-12)
}

func TestMergeInvalidLatitude(t *testing.T) {
	for _, latitude := range []float64{math.NaN(), 90.5, -91, math.Inf(1)} {
		_, err := merge.Merge(nil, merge.WithReferenceLatitude(latitude))
		require.Truef(t, errors.Is(err, merge.ErrInvalidLatitude), "%v", err)
	}
}

func TestMergeExtensionsUsed(t *testing.T) {
	doc, bin := internal.TileDocument(0)
	doc.Materials[0].Extensions = map[string]json.RawMessage{
		"KHR_materials_unlit": json.RawMessage(`{}`),
	}
	unlit, err := doc.Encode(bin)
	require.NoError(t, err)

	center := [3]float64{0, 0, 0}
	out, err := merge.Merge([]merge.Job{
		{Key: "a", Asset: internal.TileGLB(0), Center: &center},
		{Key: "b", Asset: unlit, Center: &center},
	})
	require.NoError(t, err)

	merged, _ := parse(t, out)
	if diff := cmp.Diff([]string{"KHR_materials_unlit"}, merged.ExtensionsUsed); diff != "" {
		t.Errorf("ExtensionsUsed mismatch (-want+got):\n%v", diff)
	}
	require.Empty(t, merged.Materials[0].Extensions)
	require.Contains(t, merged.Materials[1].Extensions, "KHR_materials_unlit")
}
