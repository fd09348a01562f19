package field

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/model"
	"github.com/resforge/resforge/internal/resource"
)

func propModel() *model.Model {
	m := model.New("obj_box")
	m.BoundsMin = binio.Vec3{-1, -1, -1}
	m.BoundsMax = binio.Vec3{1, 1, 1}
	m.Meshes = []model.Mesh{{
		Name: "box",
		Batches: []*model.Batch{{Geometry: &model.Strips{
			Positions: []binio.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Lengths:   []uint16{3},
			Indices:   []uint16{0, 1, 2},
		}}},
	}}
	m.Materials = []model.Material{{Diffuse: binio.Color{R: 10, G: 20, B: 30, A: 255}, Texture: model.NoTexture}}
	return m
}

func sampleField() *Field {
	unit := binio.Vec3{1, 1, 1}
	root := &Node{Name: "field_root", Scale: unit}
	root.Adopt(&Node{
		Name:      "hero_spawn",
		Position:  binio.Vec3{10, 0, -4},
		Scale:     unit,
		Placeable: &Placeable{Data: &ModelInstance{Resource: 0, Tint: binio.Color{R: 255, G: 255, B: 255, A: 128}}},
	})
	root.Adopt(&Node{
		Name:      "sun",
		Rotation:  binio.Vec3{0.5, 0, 0},
		Scale:     unit,
		Placeable: &Placeable{Data: &Light{Type: LightDirectional, Color: binio.ColorF{R: 1, G: 0.5, B: 0.25, A: 1}, Range: 100, Intensity: 2}},
	})
	root.Adopt(&Node{
		Name:      "door",
		Scale:     unit,
		Placeable: &Placeable{Data: &Trigger{Extents: binio.Vec3{1, 2, 0.5}, Event: 42, Script: "open_door(1)"}},
	})
	root.Adopt(&Node{
		Name:      "cam",
		Scale:     unit,
		Placeable: &Placeable{Data: &Camera{FOV: 1, Near: 0.25, Far: 500}},
	})
	root.Adopt(&Node{
		Name:      "prop",
		Scale:     unit,
		Placeable: &Placeable{Data: &EmbeddedModel{Model: propModel()}},
	})
	group := &Node{Name: "group", Scale: unit}
	group.Adopt(&Node{Name: "lamp", Scale: unit, Placeable: &Placeable{Data: &None{}}})
	root.Adopt(group)

	return &Field{
		Name:      "town_square",
		Flags:     3,
		Root:      root,
		Resources: []string{"chr_hero", "", "obj_box"},
	}
}

func TestFieldRoundTrip(t *testing.T) {
	data, err := resource.Marshal(sampleField(), Context{Validate: true}, resource.DefaultOptions())
	require.NoError(t, err)

	got, err := resource.Unmarshal[Field](data, Context{Validate: true}, resource.DefaultOptions())
	require.NoError(t, err)
	resource.ForgetOrigins(got)
	assert.Equal(t, sampleField(), got)

	again, err := resource.Marshal(got, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestFieldParentLinks(t *testing.T) {
	data, err := resource.Marshal(sampleField(), Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	got, err := resource.Unmarshal[Field](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)

	assert.Nil(t, got.Root.Parent)
	lamp, ok := got.Find("lamp")
	require.True(t, ok)
	assert.Equal(t, "field_root/group/lamp", lamp.Path())
	assert.Same(t, got.Root, lamp.Parent.Parent)

	_, ok = got.Find("missing")
	assert.False(t, ok)
}

func TestEmbeddedModelHasOwnBase(t *testing.T) {
	data, err := resource.Marshal(sampleField(), Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	got, err := resource.Unmarshal[Field](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)

	prop, ok := got.Find("prop")
	require.True(t, ok)
	embedded := prop.Placeable.Data.(*EmbeddedModel).Model
	start, ok := embedded.Origin()
	require.True(t, ok)
	assert.Zero(t, start.Offset%64)

	// The embedded bytes are exactly the standalone encoding.
	standalone, err := resource.Marshal(propModel(), model.Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, standalone, data[start.Offset:start.Offset+int64(len(standalone))])

	// The size field is back-patched after the embedded container is flushed.
	p, ok := prop.Placeable.Origin()
	require.True(t, ok)
	assert.Equal(t, uint32(len(standalone)), binary.LittleEndian.Uint32(data[p.Offset+4:]))
}

func TestFieldCount(t *testing.T) {
	assert.Equal(t, map[PlaceableKind]int{
		KindNone:          3,
		KindModelInstance: 1,
		KindLight:         1,
		KindTrigger:       1,
		KindCamera:        1,
		KindEmbeddedModel: 1,
	}, sampleField().Count())
}

func TestUnknownPlaceableKind(t *testing.T) {
	data, err := resource.Marshal(sampleField(), Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	got, err := resource.Unmarshal[Field](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)

	cam, ok := got.Find("cam")
	require.True(t, ok)
	o, ok := cam.Placeable.Origin()
	require.True(t, ok)
	binary.LittleEndian.PutUint16(data[o.Offset:], 99)

	got, err = resource.Unmarshal[Field](data, Context{}, resource.DefaultOptions())
	assert.Nil(t, got)
	require.ErrorIs(t, err, resource.ErrUnknownVariantTag)
	assert.Contains(t, err.Error(), "placeable")
}

func TestDepthLimit(t *testing.T) {
	root := &Node{Name: "n"}
	cur := root
	for range MaxDepth + 1 {
		next := &Node{Name: "n"}
		cur.Adopt(next)
		cur = next
	}
	_, err := resource.Marshal(&Field{Root: root}, Context{}, resource.DefaultOptions())
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestValidateResources(t *testing.T) {
	f := sampleField()
	spawn, ok := f.Find("hero_spawn")
	require.True(t, ok)
	spawn.Placeable.Data.(*ModelInstance).Resource = 5

	_, err := resource.Marshal(f, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	_, err = resource.Marshal(f, Context{Validate: true}, resource.DefaultOptions())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMissingPlaceableData(t *testing.T) {
	f := &Field{Root: &Node{Name: "bad", Placeable: &Placeable{}}}
	_, err := resource.Marshal(f, Context{}, resource.DefaultOptions())
	assert.ErrorIs(t, err, resource.ErrUnknownVariantTag)
}

func TestSharedChildRejected(t *testing.T) {
	// A chain where every node has the next link and a leaf as children.
	root := &Node{Name: "n"}
	cur := root
	for range 40 {
		next := &Node{Name: "n"}
		cur.Adopt(next)
		cur.Adopt(&Node{Name: "leaf"})
		cur = next
	}
	data, err := resource.Marshal(&Field{Root: root}, Context{}, resource.DefaultOptions())
	require.NoError(t, err)
	got, err := resource.Unmarshal[Field](data, Context{}, resource.DefaultOptions())
	require.NoError(t, err)

	// Point each leaf slot at the next link, so every child table lists one node twice.
	for n := got.Root; len(n.Children) == 2; n = n.Children[0] {
		o, ok := n.Origin()
		require.True(t, ok)
		table := int64(binary.LittleEndian.Uint32(data[o.Offset+48:]))
		copy(data[table+4:table+8], data[table:table+4])
	}

	got, err = resource.Unmarshal[Field](data, Context{}, resource.DefaultOptions())
	assert.Nil(t, got)
	require.ErrorIs(t, err, resource.ErrOffsetOutOfRange)
	assert.Contains(t, err.Error(), "referenced more than once")
}
