package resource

import (
	"github.com/resforge/resforge/internal/binio"
)

// triple is a leaf object with three scalar fields.
type triple struct {
	Tracked
	A, B, C uint32
}

func (t *triple) Read(d *Decoder, _ NoContext) error {
	var err error
	if t.A, err = d.ReadU32(); err != nil {
		return err
	}
	if t.B, err = d.ReadU32(); err != nil {
		return err
	}
	t.C, err = d.ReadU32()
	return err
}

func (t *triple) Write(e *Encoder, _ NoContext) error {
	if err := e.WriteU32(t.A); err != nil {
		return err
	}
	if err := e.WriteU32(t.B); err != nil {
		return err
	}
	return e.WriteU32(t.C)
}

// entry holds an optional child at 16-byte alignment.
type entry struct {
	Tracked
	ID    uint16
	Child *triple
}

func (en *entry) Read(d *Decoder, ctx NoContext) error {
	var err error
	if en.ID, err = d.ReadU16(); err != nil {
		return err
	}
	if err := d.Skip(2); err != nil {
		return err
	}
	en.Child, err = ReadObject[triple](d, ctx)
	return err
}

func (en *entry) Write(e *Encoder, ctx NoContext) error {
	if err := e.WriteU16(en.ID); err != nil {
		return err
	}
	if err := e.WriteU16(0); err != nil {
		return err
	}
	return ScheduleObject(e, 16, en.Child, ctx)
}

var docDescriptor = Descriptor{Kind: NewTag("TEST"), Format: NewTag("0001")}

// doc is a container holding a reference list of entries.
type doc struct {
	Tracked
	Entries []*entry
}

func (doc) Descriptor() Descriptor { return docDescriptor }

func (c *doc) Read(d *Decoder, ctx NoContext) error {
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	c.Entries, err = ReadRefList[entry](d, int(n), ctx)
	return err
}

func (c *doc) Write(e *Encoder, ctx NoContext) error {
	if err := e.WriteU32(uint32(len(c.Entries))); err != nil {
		return err
	}
	return ScheduleRefList(e, 4, c.Entries, ctx)
}

var leafDescriptor = Descriptor{Kind: NewTag("LEAF"), Format: NewTag("0001")}

// leaf is a small container used as a pack entry.
type leaf struct {
	Tracked
	Value uint32
	Name  string
}

func (leaf) Descriptor() Descriptor { return leafDescriptor }

func (l *leaf) Read(d *Decoder, _ NoContext) error {
	var err error
	if l.Value, err = d.ReadU32(); err != nil {
		return err
	}
	l.Name, err = d.ReadStringRef(binio.CString)
	return err
}

func (l *leaf) Write(e *Encoder, _ NoContext) error {
	if err := e.WriteU32(l.Value); err != nil {
		return err
	}
	return e.ScheduleString(4, l.Name, binio.CString)
}

type bundleContext struct {
	Repair bool
}

var bundleDescriptor = Descriptor{Kind: NewTag("BNDL"), Format: NewTag("0001")}

// bundle is a multi-entry pack of leaves.
type bundle struct {
	Tracked
	Leaves []*leaf
}

func (bundle) Descriptor() Descriptor { return bundleDescriptor }

func (b *bundle) layout(ctx bundleContext) PackLayout {
	return PackLayout{EntryAlign: 64, RepairOffsets: ctx.Repair}
}

func (b *bundle) Read(d *Decoder, ctx bundleContext) error {
	var err error
	b.Leaves, err = ReadPack[leaf](d, b.layout(ctx), NoContext{})
	return err
}

func (b *bundle) Write(e *Encoder, ctx bundleContext) error {
	return WritePack(e, b.layout(ctx), b.Leaves, NoContext{})
}

// shape is a variant family keyed by a u8 tag.
type shape interface {
	area() float32
}

type square struct{ Side float32 }

func (s *square) area() float32 { return s.Side * s.Side }

type rect struct{ W, H float32 }

func (r *rect) area() float32 { return r.W * r.H }

var shapeKinds = NewVariantTable("shape", map[uint8]func(d *Decoder) (shape, error){
	1: func(d *Decoder) (shape, error) {
		side, err := d.ReadF32()
		if err != nil {
			return nil, err
		}
		return &square{Side: side}, nil
	},
	2: func(d *Decoder) (shape, error) {
		w, err := d.ReadF32()
		if err != nil {
			return nil, err
		}
		h, err := d.ReadF32()
		if err != nil {
			return nil, err
		}
		return &rect{W: w, H: h}, nil
	},
})

var shapeDescriptor = Descriptor{Kind: NewTag("SHPE"), Format: NewTag("0001")}

// shapeDoc is a container holding one variant.
type shapeDoc struct {
	Tracked
	Shape shape
}

func (shapeDoc) Descriptor() Descriptor { return shapeDescriptor }

func (s *shapeDoc) Read(d *Decoder, _ NoContext) error {
	tag, err := d.ReadU8()
	if err != nil {
		return err
	}
	decode, err := shapeKinds.Lookup(tag)
	if err != nil {
		return err
	}
	s.Shape, err = decode(d)
	return err
}

func (s *shapeDoc) Write(e *Encoder, _ NoContext) error {
	switch v := s.Shape.(type) {
	case *square:
		if err := e.WriteU8(1); err != nil {
			return err
		}
		return e.WriteF32(v.Side)
	case *rect:
		if err := e.WriteU8(2); err != nil {
			return err
		}
		if err := e.WriteF32(v.W); err != nil {
			return err
		}
		return e.WriteF32(v.H)
	default:
		return &VariantError{Family: "shape", Tag: "unset"}
	}
}
