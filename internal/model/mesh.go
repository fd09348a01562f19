package model

import (
	"fmt"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

const meshNameFormat = 16

// MeshContext carries the skeleton size into mesh and batch decoding.
type MeshContext struct {
	Bones int // Bone count of the owning model; zero disables palette checks
}

// Mesh is a named group of geometry batches sharing one material.
type Mesh struct {
	resource.Tracked
	Name     string
	Material uint16
	Batches  []*Batch
}

func (m *Mesh) Read(d *resource.Decoder, ctx MeshContext) error {
	var err error
	if m.Name, err = d.ReadString(binio.Fixed(meshNameFormat)); err != nil {
		return err
	}
	if m.Material, err = d.ReadU16(); err != nil {
		return err
	}
	n, err := d.ReadU16()
	if err != nil {
		return err
	}
	bctx := BatchContext(ctx)
	if m.Batches, err = resource.ReadRefList[Batch](d, int(n), bctx); err != nil {
		return fmt.Errorf("mesh %q batches: %w", m.Name, err)
	}
	return nil
}

func (m *Mesh) Write(e *resource.Encoder, ctx MeshContext) error {
	if err := e.WriteString(m.Name, binio.Fixed(meshNameFormat)); err != nil {
		return err
	}
	if err := e.WriteU16(m.Material); err != nil {
		return err
	}
	if err := e.WriteCount16(len(m.Batches)); err != nil {
		return fmt.Errorf("mesh %q batches: %w", m.Name, err)
	}
	return resource.ScheduleRefList(e, 16, m.Batches, BatchContext(ctx))
}

// BatchKind is the wire tag of a geometry batch.
type BatchKind uint32

// Geometry batch kinds.
const (
	BatchEmpty   BatchKind = 0
	BatchIndexed BatchKind = 1
	BatchStrips  BatchKind = 2
	BatchSkinned BatchKind = 3
)

func (k BatchKind) String() string {
	switch k {
	case BatchEmpty:
		return "empty"
	case BatchIndexed:
		return "indexed"
	case BatchStrips:
		return "strips"
	case BatchSkinned:
		return "skinned"
	default:
		return fmt.Sprintf("BatchKind(%d)", uint32(k))
	}
}

// BatchContext is the context of batch payloads.
type BatchContext struct {
	Bones int
}

// Geometry is the payload of one batch variant.
type Geometry interface {
	Kind() BatchKind
	VertexCount() int
	TriangleCount() int
	read(d *resource.Decoder, ctx BatchContext) error
	write(e *resource.Encoder, ctx BatchContext) error
}

var batchKinds = resource.NewVariantTable("geometry batch", map[BatchKind]func() Geometry{
	BatchEmpty:   func() Geometry { return &Empty{} },
	BatchIndexed: func() Geometry { return &Indexed{} },
	BatchStrips:  func() Geometry { return &Strips{} },
	BatchSkinned: func() Geometry { return &Skinned{} },
})

// Batch is a tagged geometry payload.
type Batch struct {
	resource.Tracked
	Geometry Geometry
}

func (b *Batch) Read(d *resource.Decoder, ctx BatchContext) error {
	tag, err := d.ReadU32()
	if err != nil {
		return err
	}
	newGeometry, err := batchKinds.Lookup(BatchKind(tag))
	if err != nil {
		return err
	}
	g := newGeometry()
	if err := g.read(d, ctx); err != nil {
		return fmt.Errorf("%s batch: %w", g.Kind(), err)
	}
	b.Geometry = g
	return nil
}

func (b *Batch) Write(e *resource.Encoder, ctx BatchContext) error {
	if b.Geometry == nil {
		return &resource.VariantError{Family: batchKinds.Family(), Tag: "nil"}
	}
	kind := b.Geometry.Kind()
	if !batchKinds.Has(kind) {
		return &resource.VariantError{Family: batchKinds.Family(), Tag: kind.String()}
	}
	if err := e.WriteU32(uint32(kind)); err != nil {
		return err
	}
	return b.Geometry.write(e, ctx)
}

// Vertex is one vertex of an indexed batch.
type Vertex struct {
	Position binio.Vec3
	Normal   binio.Vec3
	UV       binio.Vec2
}

func (v *Vertex) Read(d *resource.Decoder, _ resource.NoContext) error {
	var err error
	if v.Position, err = d.ReadVec3(); err != nil {
		return err
	}
	if v.Normal, err = d.ReadVec3(); err != nil {
		return err
	}
	v.UV, err = d.ReadVec2()
	return err
}

func (v *Vertex) Write(e *resource.Encoder, _ resource.NoContext) error {
	if err := e.WriteVec3(v.Position); err != nil {
		return err
	}
	if err := e.WriteVec3(v.Normal); err != nil {
		return err
	}
	return e.WriteVec2(v.UV)
}

// Empty is a batch with no payload.
type Empty struct{}

func (*Empty) Kind() BatchKind                             { return BatchEmpty }
func (*Empty) VertexCount() int                            { return 0 }
func (*Empty) TriangleCount() int                          { return 0 }
func (*Empty) read(*resource.Decoder, BatchContext) error  { return nil }
func (*Empty) write(*resource.Encoder, BatchContext) error { return nil }

// Indexed is a triangle list over full vertices.
type Indexed struct {
	Vertices []Vertex
	Indices  []uint16
}

func (*Indexed) Kind() BatchKind { return BatchIndexed }

func (g *Indexed) VertexCount() int { return len(g.Vertices) }

func (g *Indexed) TriangleCount() int { return len(g.Indices) / 3 }

func (g *Indexed) read(d *resource.Decoder, _ BatchContext) error {
	vcount, err := d.ReadU32()
	if err != nil {
		return err
	}
	if g.Vertices, err = resource.ReadList[Vertex](d, int(vcount), resource.NoContext{}); err != nil {
		return fmt.Errorf("vertices: %w", err)
	}
	icount, err := d.ReadU32()
	if err != nil {
		return err
	}
	if g.Indices, err = d.ReadU16sRef(int(icount)); err != nil {
		return fmt.Errorf("indices: %w", err)
	}
	return g.check()
}

func (g *Indexed) check() error {
	for i, idx := range g.Indices {
		if int(idx) >= len(g.Vertices) {
			return fmt.Errorf("index %d = %d with %d vertices: %w", i, idx, len(g.Vertices), ErrIndexOutOfRange)
		}
	}
	return nil
}

func (g *Indexed) write(e *resource.Encoder, _ BatchContext) error {
	if err := g.check(); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(g.Vertices))); err != nil {
		return err
	}
	if err := resource.ScheduleList(e, 16, g.Vertices, resource.NoContext{}); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(g.Indices))); err != nil {
		return err
	}
	return e.ScheduleU16s(4, g.Indices)
}

// Strips is a set of position-only triangle strips.
type Strips struct {
	Positions []binio.Vec3
	Lengths   []uint16 // Index count of each strip
	Indices   []uint16
}

func (*Strips) Kind() BatchKind { return BatchStrips }

func (g *Strips) VertexCount() int { return len(g.Positions) }

func (g *Strips) TriangleCount() int {
	n := 0
	for _, l := range g.Lengths {
		if l >= 3 {
			n += int(l) - 2
		}
	}
	return n
}

func (g *Strips) indexCount() int {
	n := 0
	for _, l := range g.Lengths {
		n += int(l)
	}
	return n
}

func (g *Strips) read(d *resource.Decoder, _ BatchContext) error {
	vcount, err := d.ReadU32()
	if err != nil {
		return err
	}
	if g.Positions, err = readVec3s(d, int(vcount)); err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	scount, err := d.ReadU32()
	if err != nil {
		return err
	}
	if g.Lengths, err = d.ReadU16sRef(int(scount)); err != nil {
		return fmt.Errorf("strip lengths: %w", err)
	}
	if g.Indices, err = d.ReadU16sRef(g.indexCount()); err != nil {
		return fmt.Errorf("strip indices: %w", err)
	}
	return nil
}

func (g *Strips) write(e *resource.Encoder, _ BatchContext) error {
	if n := g.indexCount(); n != len(g.Indices) {
		return fmt.Errorf("strips cover %d indices, have %d: %w", n, len(g.Indices), ErrLengthMismatch)
	}
	if err := e.WriteU32(uint32(len(g.Positions))); err != nil {
		return err
	}
	if err := scheduleVec3s(e, 16, g.Positions); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(g.Lengths))); err != nil {
		return err
	}
	if err := e.ScheduleU16s(4, g.Lengths); err != nil {
		return err
	}
	return e.ScheduleU16s(4, g.Indices)
}

// SkinWeight binds one vertex to up to four bones.
type SkinWeight struct {
	Bones   [4]uint8 // Indices into the batch palette
	Weights [4]float32
}

func (w *SkinWeight) Read(d *resource.Decoder, _ resource.NoContext) error {
	raw, err := d.ReadBytes(4)
	if err != nil {
		return err
	}
	copy(w.Bones[:], raw)
	v, err := d.ReadVec4()
	w.Weights = v
	return err
}

func (w *SkinWeight) Write(e *resource.Encoder, _ resource.NoContext) error {
	if err := e.WriteBytes(w.Bones[:]); err != nil {
		return err
	}
	return e.WriteVec4(w.Weights)
}

// Skinned is an indexed batch deformed by a bone palette.
type Skinned struct {
	Indexed
	Skin    []SkinWeight // One per vertex
	Palette []uint16     // Skeleton bone indices
}

func (*Skinned) Kind() BatchKind { return BatchSkinned }

func (g *Skinned) read(d *resource.Decoder, ctx BatchContext) error {
	if err := g.Indexed.read(d, ctx); err != nil {
		return err
	}
	var err error
	if g.Skin, err = resource.ReadList[SkinWeight](d, len(g.Vertices), resource.NoContext{}); err != nil {
		return fmt.Errorf("skin: %w", err)
	}
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	if g.Palette, err = d.ReadU16sRef(int(n)); err != nil {
		return fmt.Errorf("palette: %w", err)
	}
	return g.check(ctx)
}

func (g *Skinned) check(ctx BatchContext) error {
	if g.Skin != nil && len(g.Skin) != len(g.Vertices) {
		return fmt.Errorf("%d skin weights for %d vertices: %w", len(g.Skin), len(g.Vertices), ErrLengthMismatch)
	}
	if ctx.Bones == 0 {
		return nil
	}
	for i, bone := range g.Palette {
		if int(bone) >= ctx.Bones {
			return fmt.Errorf("palette %d = bone %d of %d: %w", i, bone, ctx.Bones, ErrIndexOutOfRange)
		}
	}
	return nil
}

func (g *Skinned) write(e *resource.Encoder, ctx BatchContext) error {
	if err := g.check(ctx); err != nil {
		return err
	}
	if err := g.Indexed.write(e, ctx); err != nil {
		return err
	}
	if err := resource.ScheduleList(e, 16, g.Skin, resource.NoContext{}); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(g.Palette))); err != nil {
		return err
	}
	return e.ScheduleU16s(4, g.Palette)
}

func readVec3s(d *resource.Decoder, n int) ([]binio.Vec3, error) {
	return resource.ReadRef(d, func() ([]binio.Vec3, error) {
		raw, err := d.ReadF32s(n * 3)
		if err != nil {
			return nil, err
		}
		out := make([]binio.Vec3, n)
		for i := range out {
			copy(out[i][:], raw[i*3:])
		}
		return out, nil
	})
}

func scheduleVec3s(e *resource.Encoder, align int, vs []binio.Vec3) error {
	if len(vs) == 0 {
		return e.Schedule(align, nil)
	}
	return e.Schedule(align, func(e *resource.Encoder) error {
		for _, v := range vs {
			if err := e.WriteVec3(v); err != nil {
				return err
			}
		}
		return nil
	})
}
