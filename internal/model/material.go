package model

import (
	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

// NoTexture marks an untextured material.
const NoTexture = -1

// Material is a surface description shared by meshes.
type Material struct {
	resource.Tracked
	Diffuse     binio.Color
	Specular    binio.Color
	Shininess   float32
	Texture     int32 // Index into the texture pack, or NoTexture
	TextureName string
}

func (m *Material) Read(d *resource.Decoder, _ resource.NoContext) error {
	var err error
	if m.Diffuse, err = d.ReadColor(); err != nil {
		return err
	}
	if m.Specular, err = d.ReadColor(); err != nil {
		return err
	}
	if m.Shininess, err = d.ReadF32(); err != nil {
		return err
	}
	if m.Texture, err = d.ReadI32(); err != nil {
		return err
	}
	m.TextureName, err = d.ReadStringRef(binio.Prefixed16)
	return err
}

func (m *Material) Write(e *resource.Encoder, _ resource.NoContext) error {
	if err := e.WriteColor(m.Diffuse); err != nil {
		return err
	}
	if err := e.WriteColor(m.Specular); err != nil {
		return err
	}
	if err := e.WriteF32(m.Shininess); err != nil {
		return err
	}
	if err := e.WriteI32(m.Texture); err != nil {
		return err
	}
	return e.ScheduleString(2, m.TextureName, binio.Prefixed16)
}
