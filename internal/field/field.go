package field

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/model"
	"github.com/resforge/resforge/internal/resource"
)

// Common errors.
var (
	ErrTooDeep         = errors.New("node tree too deep")
	ErrIndexOutOfRange = errors.New("resource index out of range")
)

// MaxDepth bounds node nesting. Offsets that loop back to an ancestor would otherwise
// recurse forever.
const MaxDepth = 256

// Descriptor identifies field scene containers.
var Descriptor = resource.Descriptor{
	Kind:   resource.NewTag("FLDS"),
	Format: resource.NewTag("0100"),
}

// Context configures a field read or write.
type Context struct {
	Model    model.Context // Passed to embedded model packs
	Validate bool          // Check model instance resource indices
}

// Field is the root of a field scene.
type Field struct {
	resource.Tracked
	Name      string
	Flags     uint32
	Root      *Node
	Resources []string // Model resource names referenced by model instances
}

// Descriptor implements resource.Container.
func (f *Field) Descriptor() resource.Descriptor {
	return Descriptor
}

func (f *Field) Read(d *resource.Decoder, ctx Context) error {
	var err error
	if f.Name, err = d.ReadStringRef(binio.Prefixed16); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if f.Flags, err = d.ReadU32(); err != nil {
		return err
	}
	nctx := NodeContext{Model: ctx.Model}
	if f.Root, err = resource.ReadObject[Node](d, nctx); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	f.Resources, err = resource.ReadRef(d, func() ([]string, error) {
		if err := d.CheckCount(int(n), 4); err != nil {
			return nil, err
		}
		out := make([]string, n)
		for i := range out {
			s, err := d.ReadStringRef(binio.CString)
			if err != nil {
				return nil, fmt.Errorf("resource %d: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	})
	if err != nil {
		return fmt.Errorf("resources: %w", err)
	}
	if ctx.Validate {
		return f.Validate()
	}
	return nil
}

func (f *Field) Write(e *resource.Encoder, ctx Context) error {
	if ctx.Validate {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	if err := e.ScheduleString(2, f.Name, binio.Prefixed16); err != nil {
		return err
	}
	if err := e.WriteU32(f.Flags); err != nil {
		return err
	}
	nctx := NodeContext{Model: ctx.Model}
	if err := resource.ScheduleObject(e, 16, f.Root, nctx); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(f.Resources))); err != nil {
		return err
	}
	if len(f.Resources) == 0 {
		return e.Schedule(4, nil)
	}
	return e.Schedule(4, func(e *resource.Encoder) error {
		for _, name := range f.Resources {
			if err := e.ScheduleString(1, name, binio.CString); err != nil {
				return err
			}
		}
		return nil
	})
}

// Validate checks that every model instance references a listed resource.
func (f *Field) Validate() error {
	var err error
	f.Walk(func(n *Node, _ int) bool {
		if n.Placeable == nil {
			return true
		}
		inst, ok := n.Placeable.Data.(*ModelInstance)
		if ok && int(inst.Resource) >= len(f.Resources) {
			err = fmt.Errorf("node %s: resource %d of %d: %w", n.Path(), inst.Resource, len(f.Resources), ErrIndexOutOfRange)
			return false
		}
		return true
	})
	return err
}

// Walk visits nodes depth first, parents before children. Returning false from fn stops
// the walk.
func (f *Field) Walk(fn func(n *Node, depth int) bool) {
	if f.Root != nil {
		f.Root.walk(0, fn)
	}
}

// Find returns the first node named name in walk order.
func (f *Field) Find(name string) (*Node, bool) {
	var found *Node
	f.Walk(func(n *Node, _ int) bool {
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found, found != nil
}

// Count returns the number of nodes per placeable kind. Nodes without a placeable are
// counted under KindNone.
func (f *Field) Count() map[PlaceableKind]int {
	counts := make(map[PlaceableKind]int)
	f.Walk(func(n *Node, _ int) bool {
		kind := KindNone
		if n.Placeable != nil && n.Placeable.Data != nil {
			kind = n.Placeable.Data.Kind()
		}
		counts[kind]++
		return true
	})
	return counts
}

// NodeContext is the context of node decoding.
type NodeContext struct {
	Parent *Node
	Depth  int
	Model  model.Context

	seen map[int64]struct{} // Node positions already decoded in this tree
}

func (c NodeContext) child(parent *Node) NodeContext {
	return NodeContext{Parent: parent, Depth: c.Depth + 1, Model: c.Model, seen: c.seen}
}

// Node is one transform in the scene tree.
type Node struct {
	resource.Tracked
	Name      string
	Position  binio.Vec3
	Rotation  binio.Vec3 // Euler angles, radians
	Scale     binio.Vec3
	Placeable *Placeable
	Children  []*Node

	// Parent is a lookup link set on decode and by Adopt.
	Parent *Node `json:"-"`
}

// Adopt appends child and sets its parent link.
func (n *Node) Adopt(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Path returns the slash separated names from the root to n.
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (n *Node) walk(depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if c != nil && !c.walk(depth+1, fn) {
			return false
		}
	}
	return true
}

func (n *Node) Read(d *resource.Decoder, ctx NodeContext) error {
	if ctx.Depth > MaxDepth {
		return fmt.Errorf("%w: depth %d", ErrTooDeep, ctx.Depth)
	}
	// Each node owns its bytes. A node reached twice would be decoded once per path.
	if ctx.seen == nil {
		ctx.seen = make(map[int64]struct{})
	}
	pos := d.Pos()
	if _, ok := ctx.seen[pos]; ok {
		return fmt.Errorf("%w: node at %d is referenced more than once", resource.ErrOffsetOutOfRange, pos)
	}
	ctx.seen[pos] = struct{}{}
	n.Parent = ctx.Parent

	var err error
	if n.Name, err = d.ReadStringRef(binio.CString); err != nil {
		return err
	}
	if n.Position, err = d.ReadVec3(); err != nil {
		return err
	}
	if n.Rotation, err = d.ReadVec3(); err != nil {
		return err
	}
	if n.Scale, err = d.ReadVec3(); err != nil {
		return err
	}
	pctx := PlaceableContext{Model: ctx.Model}
	if n.Placeable, err = resource.ReadObject[Placeable](d, pctx); err != nil {
		return fmt.Errorf("node %q placeable: %w", n.Name, err)
	}
	count, err := d.ReadU32()
	if err != nil {
		return err
	}
	if n.Children, err = resource.ReadRefList[Node](d, int(count), ctx.child(n)); err != nil {
		return fmt.Errorf("node %q children: %w", n.Name, err)
	}
	return nil
}

func (n *Node) Write(e *resource.Encoder, ctx NodeContext) error {
	if ctx.Depth > MaxDepth {
		return fmt.Errorf("%w: depth %d", ErrTooDeep, ctx.Depth)
	}
	if err := e.ScheduleString(1, n.Name, binio.CString); err != nil {
		return err
	}
	if err := e.WriteVec3(n.Position); err != nil {
		return err
	}
	if err := e.WriteVec3(n.Rotation); err != nil {
		return err
	}
	if err := e.WriteVec3(n.Scale); err != nil {
		return err
	}
	pctx := PlaceableContext{Model: ctx.Model}
	if err := resource.ScheduleObject(e, 16, n.Placeable, pctx); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(n.Children))); err != nil {
		return err
	}
	return resource.ScheduleRefList(e, 16, n.Children, ctx.child(n))
}
