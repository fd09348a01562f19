package texture

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

func fill(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}

func samplePack() *Pack {
	palette := make([]binio.Color, 16)
	for i := range palette {
		palette[i] = binio.Color{R: uint8(i * 16), G: uint8(255 - i), B: 7, A: 255}
	}
	return &Pack{Textures: []*Texture{
		{Name: "tex_body", Width: 4, Height: 4, Format: RGBA8, MipCount: 1, Pixels: fill(64, 1)},
		{Name: "tex_face", Width: 8, Height: 8, Format: Indexed4, MipCount: 1, Flags: 1, Pixels: fill(32, 2), Palette: palette},
		{Name: "tex_ground", Width: 8, Height: 8, Format: DXT1, MipCount: 2, Pixels: fill(40, 3)},
	}}
}

func TestDataSize(t *testing.T) {
	tests := []struct {
		format        PixelFormat
		width, height int
		mips          int
		want          int
	}{
		{RGBA8, 4, 4, 1, 64},
		{RGBA8, 4, 4, 3, 64 + 16 + 4},
		{RGB565, 16, 8, 0, 256},
		{Indexed8, 3, 3, 1, 9},
		{Indexed4, 3, 3, 1, 5},
		{DXT1, 8, 8, 2, 32 + 8},
		{DXT1, 2, 2, 1, 8},
		{DXT5, 8, 4, 1, 32},
	}
	for _, tt := range tests {
		got, err := DataSize(tt.format, tt.width, tt.height, tt.mips)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %dx%d mips %d", tt.format, tt.width, tt.height, tt.mips)
	}

	_, err := DataSize(PixelFormat(42), 4, 4, 1)
	assert.ErrorIs(t, err, resource.ErrUnknownVariantTag)
	assert.Equal(t, "PixelFormat(42)", PixelFormat(42).String())
}

func TestPackRoundTrip(t *testing.T) {
	data, err := resource.Marshal(samplePack(), resource.NoContext{}, resource.DefaultOptions())
	require.NoError(t, err)

	got, err := resource.Unmarshal[Pack](data, resource.NoContext{}, resource.DefaultOptions())
	require.NoError(t, err)

	for _, tex := range got.Textures {
		o, ok := tex.Origin()
		require.True(t, ok)
		assert.Zero(t, o.Offset%64, tex.Name)
	}

	resource.ForgetOrigins(got)
	assert.Equal(t, samplePack(), got)

	face, ok := got.Find("tex_face")
	require.True(t, ok)
	assert.Len(t, face.Palette, 16)
	assert.Equal(t, 64+32+16*4+40, got.Bytes())
}

func TestPackOffsetRepair(t *testing.T) {
	data, err := resource.Marshal(samplePack(), resource.NoContext{}, resource.DefaultOptions())
	require.NoError(t, err)

	// Point the second record at the first entry's start.
	first := binary.LittleEndian.Uint32(data[16:])
	corrupt := bytes.Clone(data)
	binary.LittleEndian.PutUint32(corrupt[32:], first)

	logger, hook := test.NewNullLogger()
	opts := resource.DefaultOptions()
	opts.Logger = logger

	got, err := resource.Unmarshal[Pack](corrupt, resource.NoContext{}, opts)
	require.NoError(t, err)
	second, ok := got.Textures[1].Origin()
	require.True(t, ok)
	resource.ForgetOrigins(got)
	assert.Equal(t, samplePack(), got)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 1, entry.Data["entry"])
	assert.Equal(t, int32(first), entry.Data["stored"])
	assert.Equal(t, second.Offset, entry.Data["recomputed"])
}

func TestTextureValidation(t *testing.T) {
	tests := []struct {
		name string
		tex  *Texture
		err  error
	}{
		{
			name: "short pixels",
			tex:  &Texture{Name: "a", Width: 4, Height: 4, Format: RGBA8, Pixels: fill(63, 0)},
			err:  ErrPixelDataSize,
		},
		{
			name: "palette too large",
			tex:  &Texture{Name: "b", Width: 2, Height: 2, Format: Indexed4, Pixels: fill(2, 0), Palette: make([]binio.Color, 17)},
			err:  ErrPaletteSize,
		},
		{
			name: "palette on direct color",
			tex:  &Texture{Name: "c", Width: 1, Height: 1, Format: RGBA8, Pixels: fill(4, 0), Palette: make([]binio.Color, 1)},
			err:  ErrPaletteSize,
		},
		{
			name: "unknown format",
			tex:  &Texture{Name: "d", Width: 1, Height: 1, Format: 9, Pixels: fill(4, 0)},
			err:  resource.ErrUnknownVariantTag,
		},
		{
			name: "name too long",
			tex:  &Texture{Name: "a_texture_name_longer_than_32_bytes", Width: 1, Height: 1, Format: RGBA8, Pixels: fill(4, 0)},
			err:  resource.ErrOversizedFixedField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pack := &Pack{Textures: []*Texture{tt.tex}}
			_, err := resource.Marshal(pack, resource.NoContext{}, resource.DefaultOptions())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestUnknownFormatOnRead(t *testing.T) {
	data, err := resource.Marshal(samplePack(), resource.NoContext{}, resource.DefaultOptions())
	require.NoError(t, err)

	got, err := resource.Unmarshal[Pack](data, resource.NoContext{}, resource.DefaultOptions())
	require.NoError(t, err)
	o, _ := got.Textures[0].Origin()

	// Format byte follows descriptor, name, width and height.
	data[o.Offset+resource.DescriptorSize+nameSize+4] = 0xEE
	got, err = resource.Unmarshal[Pack](data, resource.NoContext{}, resource.DefaultOptions())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, resource.ErrUnknownVariantTag)
}
