package model

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

func sampleModel(t *testing.T) *Model {
	t.Helper()
	skel := &Skeleton{Bones: []Bone{
		{Name: "root", ParentIndex: NoParent, Rotation: binio.Vec4{0, 0, 0, 1}, Scale: binio.Vec3{1, 1, 1}},
		{Name: "spine", ParentIndex: 0, Translation: binio.Vec3{0, 1, 0}, Rotation: binio.Vec4{0, 0, 0, 1}, Scale: binio.Vec3{1, 1, 1}},
		{Name: "head", ParentIndex: 1, Flags: 2, Translation: binio.Vec3{0, 0.5, 0}, Rotation: binio.Vec4{0, 0, 0, 1}, Scale: binio.Vec3{1, 1, 1}},
	}}
	require.NoError(t, skel.Link())

	tri := Indexed{
		Vertices: []Vertex{
			{Position: binio.Vec3{0, 0, 0}, Normal: binio.Vec3{0, 0, 1}, UV: binio.Vec2{0, 0}},
			{Position: binio.Vec3{1, 0, 0}, Normal: binio.Vec3{0, 0, 1}, UV: binio.Vec2{1, 0}},
			{Position: binio.Vec3{0, 1, 0}, Normal: binio.Vec3{0, 0, 1}, UV: binio.Vec2{0, 1}},
		},
		Indices: []uint16{0, 1, 2},
	}

	return &Model{
		Flags:     0x11,
		Scale:     1.5,
		BoundsMin: binio.Vec3{-1, 0, -1},
		BoundsMax: binio.Vec3{1, 2, 1},
		Name:      "chr_hero",
		Skeleton:  skel,
		Meshes: []Mesh{
			{
				Name:     "body",
				Material: 0,
				Batches: []*Batch{
					{Geometry: &tri},
					{Geometry: &Empty{}},
					nil,
				},
			},
			{
				Name:     "cape",
				Material: 1,
				Batches: []*Batch{
					{Geometry: &Strips{
						Positions: []binio.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
						Lengths:   []uint16{4},
						Indices:   []uint16{0, 1, 2, 3},
					}},
					{Geometry: &Skinned{
						Indexed: tri,
						Skin: []SkinWeight{
							{Bones: [4]uint8{0, 1}, Weights: [4]float32{0.75, 0.25}},
							{Bones: [4]uint8{1}, Weights: [4]float32{1}},
							{Bones: [4]uint8{1, 0}, Weights: [4]float32{0.5, 0.5}},
						},
						Palette: []uint16{1, 2},
					}},
				},
			},
		},
		Materials: []Material{
			{Diffuse: binio.Color{R: 255, G: 255, B: 255, A: 255}, Shininess: 8, Texture: 0, TextureName: "tex_body"},
			{Diffuse: binio.Color{R: 200, A: 255}, Specular: binio.Color{R: 1, G: 2, B: 3, A: 4}, Texture: NoTexture},
		},
	}
}

func TestModelRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			opts := resource.Options{ByteOrder: order}
			data, err := resource.Marshal(sampleModel(t), Context{Validate: true}, opts)
			require.NoError(t, err)

			got, err := resource.Unmarshal[Model](data, Context{Validate: true}, opts)
			require.NoError(t, err)
			resource.ForgetOrigins(got)
			assert.Equal(t, sampleModel(t), got)

			again, err := resource.Marshal(got, Context{}, opts)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestModelParentLinks(t *testing.T) {
	data, err := resource.Marshal(sampleModel(t), Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	got, err := resource.Unmarshal[Model](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)

	bones := got.Skeleton.Bones
	assert.Nil(t, bones[0].Parent)
	assert.Same(t, &bones[0], bones[1].Parent)
	assert.Same(t, &bones[1], bones[2].Parent)

	head, ok := got.Skeleton.Find("head")
	require.True(t, ok)
	assert.Equal(t, "spine", head.Parent.Name)
	_, ok = got.Skeleton.Find("tail")
	assert.False(t, ok)
}

func TestModelStats(t *testing.T) {
	assert.Equal(t, Stats{
		Meshes:    2,
		Batches:   4,
		Vertices:  3 + 4 + 3,
		Triangles: 1 + 2 + 1,
		Bones:     3,
		Materials: 2,
	}, sampleModel(t).Stats())
}

func TestUnknownBatchTag(t *testing.T) {
	m := New("plain")
	m.Meshes = []Mesh{{Name: "m", Batches: []*Batch{{Geometry: &Empty{}}}}}
	data, err := resource.Marshal(m, Context{}, resource.DefaultOptions())
	require.NoError(t, err)

	got, err := resource.Unmarshal[Model](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	origin, ok := got.Meshes[0].Batches[0].Origin()
	require.True(t, ok)

	binary.LittleEndian.PutUint32(data[origin.Offset:], 7)
	got, err = resource.Unmarshal[Model](data, Context{}, resource.DefaultOptions())
	assert.Nil(t, got)
	require.ErrorIs(t, err, resource.ErrUnknownVariantTag)
	assert.Contains(t, err.Error(), "geometry batch")
}

func TestMeshNameTooLong(t *testing.T) {
	m := sampleModel(t)
	m.Meshes[0].Name = "a_mesh_name_of_17"
	_, err := resource.Marshal(m, Context{}, resource.DefaultOptions())
	assert.ErrorIs(t, err, resource.ErrOversizedFixedField)

	_, err = resource.Marshal(m, Context{}, resource.Options{TruncateFixed: true})
	assert.NoError(t, err)
}

func TestPaletteOutOfRange(t *testing.T) {
	m := sampleModel(t)
	skinned := m.Meshes[1].Batches[1].Geometry.(*Skinned)
	skinned.Palette = []uint16{1, 5}
	_, err := resource.Marshal(m, Context{}, resource.DefaultOptions())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestIndexOutOfRange(t *testing.T) {
	m := sampleModel(t)
	m.Meshes[0].Batches[0].Geometry.(*Indexed).Indices = []uint16{0, 1, 3}
	_, err := resource.Marshal(m, Context{}, resource.DefaultOptions())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestStripLengthMismatch(t *testing.T) {
	m := sampleModel(t)
	m.Meshes[1].Batches[0].Geometry.(*Strips).Lengths = []uint16{3}
	_, err := resource.Marshal(m, Context{}, resource.DefaultOptions())
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestValidateMaterials(t *testing.T) {
	m := sampleModel(t)
	m.Meshes[1].Material = 9
	_, err := resource.Marshal(m, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	_, err = resource.Marshal(m, Context{Validate: true}, resource.DefaultOptions())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestValidateWithoutMaterialTable(t *testing.T) {
	m := New("untextured")
	m.Meshes = []Mesh{{Name: "a"}}
	assert.NoError(t, m.Validate())

	m.Meshes[0].Material = 1
	assert.ErrorIs(t, m.Validate(), ErrIndexOutOfRange)
}

func TestBatchCountOverflow(t *testing.T) {
	batches := make([]*Batch, 1<<16)
	for i := range batches {
		batches[i] = &Batch{Geometry: &Empty{}}
	}
	m := New("crowd")
	m.Meshes = []Mesh{{Name: "many", Batches: batches}}

	data, err := resource.Marshal(m, Context{}, resource.DefaultOptions())
	assert.Nil(t, data)
	require.ErrorIs(t, err, resource.ErrCountOverflow)
	assert.Contains(t, err.Error(), `mesh "many"`)

	m.Meshes[0].Batches = batches[:1<<16-1]
	data, err = resource.Marshal(m, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	got, err := resource.Unmarshal[Model](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, got.Meshes[0].Batches, 1<<16-1)
}

func TestEmptyModel(t *testing.T) {
	data, err := resource.Marshal(&Model{}, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	// Descriptor plus inline content, every reference absent.
	assert.Len(t, data, resource.DescriptorSize+4+4+12+12+4+4+4+4+4+4)

	got, err := resource.Unmarshal[Model](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	resource.ForgetOrigins(got)
	assert.Equal(t, &Model{}, got)
}
