package model

import (
	"fmt"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

// NoParent marks a root bone.
const NoParent = -1

// Skeleton is the bone hierarchy of a model.
type Skeleton struct {
	resource.Tracked
	Bones []Bone
}

// Bone is one joint in bind pose.
type Bone struct {
	resource.Tracked
	Name        string
	ParentIndex int16
	Flags       uint16
	Translation binio.Vec3
	Rotation    binio.Vec4 // Quaternion, xyzw
	Scale       binio.Vec3

	// Parent is a lookup link into the same skeleton, set by Link.
	Parent *Bone `json:"-"`
}

func (s *Skeleton) Read(d *resource.Decoder, ctx resource.NoContext) error {
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	if s.Bones, err = resource.ReadList[Bone](d, int(n), ctx); err != nil {
		return fmt.Errorf("bones: %w", err)
	}
	return s.Link()
}

func (s *Skeleton) Write(e *resource.Encoder, ctx resource.NoContext) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(s.Bones))); err != nil {
		return err
	}
	return resource.ScheduleList(e, 16, s.Bones, ctx)
}

func (s *Skeleton) check() error {
	for i := range s.Bones {
		p := int(s.Bones[i].ParentIndex)
		if p != NoParent && (p < 0 || p >= len(s.Bones)) {
			return fmt.Errorf("bone %d (%s): parent %d: %w", i, s.Bones[i].Name, p, ErrIndexOutOfRange)
		}
	}
	return nil
}

// Link sets every bone's Parent from its ParentIndex.
func (s *Skeleton) Link() error {
	if err := s.check(); err != nil {
		return err
	}
	for i := range s.Bones {
		b := &s.Bones[i]
		b.Parent = nil
		if b.ParentIndex != NoParent {
			b.Parent = &s.Bones[b.ParentIndex]
		}
	}
	return nil
}

// Find returns the first bone named name.
func (s *Skeleton) Find(name string) (*Bone, bool) {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return &s.Bones[i], true
		}
	}
	return nil, false
}

func (b *Bone) Read(d *resource.Decoder, _ resource.NoContext) error {
	var err error
	if b.Name, err = d.ReadStringRef(binio.Prefixed8); err != nil {
		return err
	}
	if b.ParentIndex, err = d.ReadI16(); err != nil {
		return err
	}
	if b.Flags, err = d.ReadU16(); err != nil {
		return err
	}
	if b.Translation, err = d.ReadVec3(); err != nil {
		return err
	}
	if b.Rotation, err = d.ReadVec4(); err != nil {
		return err
	}
	b.Scale, err = d.ReadVec3()
	return err
}

func (b *Bone) Write(e *resource.Encoder, _ resource.NoContext) error {
	if err := e.ScheduleString(1, b.Name, binio.Prefixed8); err != nil {
		return err
	}
	if err := e.WriteI16(b.ParentIndex); err != nil {
		return err
	}
	if err := e.WriteU16(b.Flags); err != nil {
		return err
	}
	if err := e.WriteVec3(b.Translation); err != nil {
		return err
	}
	if err := e.WriteVec4(b.Rotation); err != nil {
		return err
	}
	return e.WriteVec3(b.Scale)
}
