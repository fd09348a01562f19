package field

import (
	"fmt"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/model"
	"github.com/resforge/resforge/internal/resource"
)

// PlaceableKind is the wire tag of a placeable resource.
type PlaceableKind uint16

// Placeable kinds.
const (
	KindNone          PlaceableKind = 0
	KindModelInstance PlaceableKind = 1
	KindLight         PlaceableKind = 2
	KindTrigger       PlaceableKind = 3
	KindCamera        PlaceableKind = 4
	KindEmbeddedModel PlaceableKind = 5
)

func (k PlaceableKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindModelInstance:
		return "model_instance"
	case KindLight:
		return "light"
	case KindTrigger:
		return "trigger"
	case KindCamera:
		return "camera"
	case KindEmbeddedModel:
		return "embedded_model"
	default:
		return fmt.Sprintf("PlaceableKind(%d)", uint16(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k PlaceableKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// PlaceableContext is the context of placeable payloads.
type PlaceableContext struct {
	Model model.Context
}

// PlaceableData is the payload of one placeable variant.
type PlaceableData interface {
	Kind() PlaceableKind
	read(d *resource.Decoder, ctx PlaceableContext) error
	write(e *resource.Encoder, ctx PlaceableContext) error
}

var placeableKinds = resource.NewVariantTable("placeable", map[PlaceableKind]func() PlaceableData{
	KindNone:          func() PlaceableData { return &None{} },
	KindModelInstance: func() PlaceableData { return &ModelInstance{} },
	KindLight:         func() PlaceableData { return &Light{} },
	KindTrigger:       func() PlaceableData { return &Trigger{} },
	KindCamera:        func() PlaceableData { return &Camera{} },
	KindEmbeddedModel: func() PlaceableData { return &EmbeddedModel{} },
})

// Placeable is a tagged resource attached to a node.
type Placeable struct {
	resource.Tracked
	Data PlaceableData
}

func (p *Placeable) Read(d *resource.Decoder, ctx PlaceableContext) error {
	tag, err := d.ReadU16()
	if err != nil {
		return err
	}
	if err := d.Skip(2); err != nil {
		return err
	}
	newData, err := placeableKinds.Lookup(PlaceableKind(tag))
	if err != nil {
		return err
	}
	data := newData()
	if err := data.read(d, ctx); err != nil {
		return fmt.Errorf("%s: %w", data.Kind(), err)
	}
	p.Data = data
	return nil
}

func (p *Placeable) Write(e *resource.Encoder, ctx PlaceableContext) error {
	if p.Data == nil {
		return &resource.VariantError{Family: placeableKinds.Family(), Tag: "nil"}
	}
	kind := p.Data.Kind()
	if !placeableKinds.Has(kind) {
		return &resource.VariantError{Family: placeableKinds.Family(), Tag: kind.String()}
	}
	if err := e.WriteU16(uint16(kind)); err != nil {
		return err
	}
	if err := e.WriteU16(0); err != nil {
		return err
	}
	return p.Data.write(e, ctx)
}

// None is a placeable with no payload.
type None struct{}

func (*None) Kind() PlaceableKind                             { return KindNone }
func (*None) read(*resource.Decoder, PlaceableContext) error  { return nil }
func (*None) write(*resource.Encoder, PlaceableContext) error { return nil }

// ModelInstance places a model listed in the field's resources.
type ModelInstance struct {
	Resource uint32
	Tint     binio.Color
}

func (*ModelInstance) Kind() PlaceableKind { return KindModelInstance }

func (m *ModelInstance) read(d *resource.Decoder, _ PlaceableContext) error {
	var err error
	if m.Resource, err = d.ReadU32(); err != nil {
		return err
	}
	m.Tint, err = d.ReadColor()
	return err
}

func (m *ModelInstance) write(e *resource.Encoder, _ PlaceableContext) error {
	if err := e.WriteU32(m.Resource); err != nil {
		return err
	}
	return e.WriteColor(m.Tint)
}

// LightType selects the light model.
type LightType uint8

// Light types.
const (
	LightPoint       LightType = 0
	LightSpot        LightType = 1
	LightDirectional LightType = 2
)

// Light is a dynamic light source.
type Light struct {
	Type      LightType
	Color     binio.ColorF
	Range     float32
	Intensity float32
}

func (*Light) Kind() PlaceableKind { return KindLight }

func (l *Light) read(d *resource.Decoder, _ PlaceableContext) error {
	t, err := d.ReadU8()
	if err != nil {
		return err
	}
	l.Type = LightType(t)
	if err := d.Skip(3); err != nil {
		return err
	}
	if l.Color, err = d.ReadColorF(); err != nil {
		return err
	}
	if l.Range, err = d.ReadF32(); err != nil {
		return err
	}
	l.Intensity, err = d.ReadF32()
	return err
}

func (l *Light) write(e *resource.Encoder, _ PlaceableContext) error {
	if err := e.WriteU8(uint8(l.Type)); err != nil {
		return err
	}
	if err := e.WriteBytes([]byte{0, 0, 0}); err != nil {
		return err
	}
	if err := e.WriteColorF(l.Color); err != nil {
		return err
	}
	if err := e.WriteF32(l.Range); err != nil {
		return err
	}
	return e.WriteF32(l.Intensity)
}

// Trigger is a box volume that fires a script event.
type Trigger struct {
	Extents binio.Vec3
	Event   uint32
	Script  string
}

func (*Trigger) Kind() PlaceableKind { return KindTrigger }

func (t *Trigger) read(d *resource.Decoder, _ PlaceableContext) error {
	var err error
	if t.Extents, err = d.ReadVec3(); err != nil {
		return err
	}
	if t.Event, err = d.ReadU32(); err != nil {
		return err
	}
	t.Script, err = d.ReadStringRef(binio.Prefixed32)
	return err
}

func (t *Trigger) write(e *resource.Encoder, _ PlaceableContext) error {
	if err := e.WriteVec3(t.Extents); err != nil {
		return err
	}
	if err := e.WriteU32(t.Event); err != nil {
		return err
	}
	return e.ScheduleString(4, t.Script, binio.Prefixed32)
}

// Camera is a fixed camera position.
type Camera struct {
	FOV  float32 // Vertical field of view, radians
	Near float32
	Far  float32
}

func (*Camera) Kind() PlaceableKind { return KindCamera }

func (c *Camera) read(d *resource.Decoder, _ PlaceableContext) error {
	var err error
	if c.FOV, err = d.ReadF32(); err != nil {
		return err
	}
	if c.Near, err = d.ReadF32(); err != nil {
		return err
	}
	c.Far, err = d.ReadF32()
	return err
}

func (c *Camera) write(e *resource.Encoder, _ PlaceableContext) error {
	if err := e.WriteF32(c.FOV); err != nil {
		return err
	}
	if err := e.WriteF32(c.Near); err != nil {
		return err
	}
	return e.WriteF32(c.Far)
}

// EmbeddedModel carries a complete model pack inside the field.
type EmbeddedModel struct {
	Model *model.Model
}

func (*EmbeddedModel) Kind() PlaceableKind { return KindEmbeddedModel }

func (m *EmbeddedModel) read(d *resource.Decoder, ctx PlaceableContext) error {
	size, err := d.ReadU32()
	if err != nil {
		return err
	}
	if m.Model, err = resource.ReadContainerRef[model.Model](d, ctx.Model); err != nil {
		return err
	}
	if m.Model == nil && size != 0 {
		return fmt.Errorf("absent embedded model with size %d", size)
	}
	return nil
}

func (m *EmbeddedModel) write(e *resource.Encoder, ctx PlaceableContext) error {
	sizePos := e.Pos()
	if err := e.WriteU32(0); err != nil {
		return err
	}
	return resource.ScheduleContainer[model.Model](e, 64, m.Model, ctx.Model, func(size int64) error {
		return e.PatchU32(sizePos, uint32(size))
	})
}
