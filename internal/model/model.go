package model

import (
	"fmt"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

// Descriptor identifies model pack containers.
var Descriptor = resource.Descriptor{
	Kind:   resource.NewTag("MDLP"),
	Format: resource.NewTag("0100"),
}

// Context configures a model read or write.
type Context struct {
	// Validate checks mesh material and skin palette indices against the decoded tables.
	Validate bool
}

// Model is the root of a model pack.
type Model struct {
	resource.Tracked
	Flags     uint32
	Scale     float32
	BoundsMin binio.Vec3
	BoundsMax binio.Vec3
	Name      string
	Skeleton  *Skeleton
	Meshes    []Mesh
	Materials []Material
}

// New returns an empty model with unit scale.
func New(name string) *Model {
	return &Model{Name: name, Scale: 1}
}

// Descriptor implements resource.Container.
func (m *Model) Descriptor() resource.Descriptor {
	return Descriptor
}

func (m *Model) Read(d *resource.Decoder, ctx Context) error {
	var err error
	if m.Flags, err = d.ReadU32(); err != nil {
		return err
	}
	if m.Scale, err = d.ReadF32(); err != nil {
		return err
	}
	if m.BoundsMin, err = d.ReadVec3(); err != nil {
		return err
	}
	if m.BoundsMax, err = d.ReadVec3(); err != nil {
		return err
	}
	if m.Name, err = d.ReadStringRef(binio.CString); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if m.Skeleton, err = resource.ReadObject[Skeleton](d, resource.NoContext{}); err != nil {
		return fmt.Errorf("skeleton: %w", err)
	}

	meshCount, err := d.ReadU32()
	if err != nil {
		return err
	}
	mctx := MeshContext{Bones: m.boneCount()}
	if m.Meshes, err = resource.ReadList[Mesh](d, int(meshCount), mctx); err != nil {
		return fmt.Errorf("meshes: %w", err)
	}

	materialCount, err := d.ReadU32()
	if err != nil {
		return err
	}
	if m.Materials, err = resource.ReadList[Material](d, int(materialCount), resource.NoContext{}); err != nil {
		return fmt.Errorf("materials: %w", err)
	}

	if ctx.Validate {
		return m.Validate()
	}
	return nil
}

func (m *Model) Write(e *resource.Encoder, ctx Context) error {
	if ctx.Validate {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if err := e.WriteU32(m.Flags); err != nil {
		return err
	}
	if err := e.WriteF32(m.Scale); err != nil {
		return err
	}
	if err := e.WriteVec3(m.BoundsMin); err != nil {
		return err
	}
	if err := e.WriteVec3(m.BoundsMax); err != nil {
		return err
	}
	if err := e.ScheduleString(4, m.Name, binio.CString); err != nil {
		return err
	}
	if err := resource.ScheduleObject(e, 16, m.Skeleton, resource.NoContext{}); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(m.Meshes))); err != nil {
		return err
	}
	mctx := MeshContext{Bones: m.boneCount()}
	if err := resource.ScheduleList(e, 16, m.Meshes, mctx); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(m.Materials))); err != nil {
		return err
	}
	return resource.ScheduleList(e, 4, m.Materials, resource.NoContext{})
}

func (m *Model) boneCount() int {
	if m.Skeleton == nil {
		return 0
	}
	return len(m.Skeleton.Bones)
}

// Validate checks that every mesh references an existing material. A model without a
// material table renders with the default material, index 0.
func (m *Model) Validate() error {
	for i, mesh := range m.Meshes {
		if int(mesh.Material) >= max(len(m.Materials), 1) {
			return fmt.Errorf("mesh %d (%s): material %d: %w", i, mesh.Name, mesh.Material, ErrIndexOutOfRange)
		}
	}
	return nil
}

// Stats summarizes the geometry of a model.
type Stats struct {
	Meshes    int `json:"meshes"`
	Batches   int `json:"batches"`
	Vertices  int `json:"vertices"`
	Triangles int `json:"triangles"`
	Bones     int `json:"bones"`
	Materials int `json:"materials"`
}

// Stats counts the model's meshes, batches, vertices and triangles.
func (m *Model) Stats() Stats {
	s := Stats{
		Meshes:    len(m.Meshes),
		Bones:     m.boneCount(),
		Materials: len(m.Materials),
	}
	for _, mesh := range m.Meshes {
		for _, b := range mesh.Batches {
			if b == nil {
				continue
			}
			s.Batches++
			s.Vertices += b.Geometry.VertexCount()
			s.Triangles += b.Geometry.TriangleCount()
		}
	}
	return s
}
