package texture

import (
	"errors"
	"fmt"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

// Common errors.
var (
	ErrPixelDataSize = errors.New("pixel data size does not match format")
	ErrPaletteSize   = errors.New("palette size does not match format")
)

const nameSize = 32

// Descriptors of texture containers.
var (
	PackDescriptor = resource.Descriptor{
		Kind:   resource.NewTag("TXPK"),
		Format: resource.NewTag("0100"),
	}
	EntryDescriptor = resource.Descriptor{
		Kind:   resource.NewTag("TEX0"),
		Format: resource.NewTag("0100"),
	}
)

// Layout is the entry layout of texture packs. Offset repair is enabled for this kind only.
var Layout = resource.PackLayout{EntryAlign: 64, RepairOffsets: true}

// Texture is one image with optional mip levels and palette.
type Texture struct {
	resource.Tracked
	Name     string
	Width    uint16
	Height   uint16
	Format   PixelFormat
	MipCount uint8
	Flags    uint16
	Pixels   []byte        `json:"-"`
	Palette  []binio.Color `json:"-"`
}

// Descriptor implements resource.Container.
func (t *Texture) Descriptor() resource.Descriptor {
	return EntryDescriptor
}

// DataSize returns the expected pixel data size for the texture's dimensions and format.
func (t *Texture) DataSize() (int, error) {
	return DataSize(t.Format, int(t.Width), int(t.Height), int(t.MipCount))
}

// Validate checks pixel data and palette against the format.
func (t *Texture) Validate() error {
	info, err := t.Format.Info()
	if err != nil {
		return err
	}
	want, err := t.DataSize()
	if err != nil {
		return err
	}
	if len(t.Pixels) != want {
		return fmt.Errorf("%s: %d bytes for %dx%d %s with %d mips, want %d: %w",
			t.Name, len(t.Pixels), t.Width, t.Height, t.Format, t.MipCount, want, ErrPixelDataSize)
	}
	if len(t.Palette) > info.MaxPalette {
		return fmt.Errorf("%s: %d palette entries for %s: %w", t.Name, len(t.Palette), t.Format, ErrPaletteSize)
	}
	return nil
}

func (t *Texture) Read(d *resource.Decoder, _ resource.NoContext) error {
	var err error
	if t.Name, err = d.ReadString(binio.Fixed(nameSize)); err != nil {
		return err
	}
	if t.Width, err = d.ReadU16(); err != nil {
		return err
	}
	if t.Height, err = d.ReadU16(); err != nil {
		return err
	}
	format, err := d.ReadU8()
	if err != nil {
		return err
	}
	t.Format = PixelFormat(format)
	if _, err := t.Format.Info(); err != nil {
		return err
	}
	if t.MipCount, err = d.ReadU8(); err != nil {
		return err
	}
	if t.Flags, err = d.ReadU16(); err != nil {
		return err
	}
	size, err := d.ReadU32()
	if err != nil {
		return err
	}
	if want, _ := t.DataSize(); int(size) != want {
		return fmt.Errorf("%s: stored size %d, want %d: %w", t.Name, size, want, ErrPixelDataSize)
	}
	if t.Pixels, err = d.ReadBytesRef(int(size)); err != nil {
		return fmt.Errorf("%s pixels: %w", t.Name, err)
	}
	n, err := d.ReadU16()
	if err != nil {
		return err
	}
	if err := d.Skip(2); err != nil {
		return err
	}
	t.Palette, err = resource.ReadRef(d, func() ([]binio.Color, error) {
		out := make([]binio.Color, n)
		for i := range out {
			c, err := d.ReadColor()
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	})
	if err != nil {
		return fmt.Errorf("%s palette: %w", t.Name, err)
	}
	return t.Validate()
}

func (t *Texture) Write(e *resource.Encoder, _ resource.NoContext) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := e.WriteString(t.Name, binio.Fixed(nameSize)); err != nil {
		return err
	}
	if err := e.WriteU16(t.Width); err != nil {
		return err
	}
	if err := e.WriteU16(t.Height); err != nil {
		return err
	}
	if err := e.WriteU8(uint8(t.Format)); err != nil {
		return err
	}
	if err := e.WriteU8(t.MipCount); err != nil {
		return err
	}
	if err := e.WriteU16(t.Flags); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(t.Pixels))); err != nil {
		return err
	}
	if err := e.ScheduleBytes(64, t.Pixels); err != nil {
		return err
	}
	if err := e.WriteCount16(len(t.Palette)); err != nil {
		return fmt.Errorf("palette: %w", err)
	}
	if err := e.WriteU16(0); err != nil {
		return err
	}
	if len(t.Palette) == 0 {
		return e.Schedule(16, nil)
	}
	return e.Schedule(16, func(e *resource.Encoder) error {
		for _, c := range t.Palette {
			if err := e.WriteColor(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// Pack is a texture pack.
type Pack struct {
	resource.Tracked
	Textures []*Texture
}

// Descriptor implements resource.Container.
func (p *Pack) Descriptor() resource.Descriptor {
	return PackDescriptor
}

func (p *Pack) Read(d *resource.Decoder, ctx resource.NoContext) error {
	var err error
	p.Textures, err = resource.ReadPack[Texture](d, Layout, ctx)
	return err
}

func (p *Pack) Write(e *resource.Encoder, ctx resource.NoContext) error {
	return resource.WritePack(e, Layout, p.Textures, ctx)
}

// Find returns the texture named name.
func (p *Pack) Find(name string) (*Texture, bool) {
	for _, t := range p.Textures {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Bytes returns the total pixel and palette payload size of the pack.
func (p *Pack) Bytes() int {
	n := 0
	for _, t := range p.Textures {
		n += len(t.Pixels) + 4*len(t.Palette)
	}
	return n
}
