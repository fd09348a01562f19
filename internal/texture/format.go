package texture

import (
	"fmt"

	"github.com/resforge/resforge/internal/resource"
)

// PixelFormat is the wire tag of a texture's pixel encoding.
type PixelFormat uint8

// Pixel formats.
const (
	RGBA8    PixelFormat = 0
	RGB565   PixelFormat = 1
	Indexed8 PixelFormat = 2
	Indexed4 PixelFormat = 3
	DXT1     PixelFormat = 4
	DXT5     PixelFormat = 5
)

// FormatInfo describes the storage of one pixel format.
type FormatInfo struct {
	Name         string
	BitsPerPixel int
	BlockSize    int // Edge length of a compression block; 1 for uncompressed formats
	MaxPalette   int // Palette entries; zero when the format has no palette
}

var formats = resource.NewVariantTable("pixel format", map[PixelFormat]FormatInfo{
	RGBA8:    {Name: "RGBA8", BitsPerPixel: 32, BlockSize: 1},
	RGB565:   {Name: "RGB565", BitsPerPixel: 16, BlockSize: 1},
	Indexed8: {Name: "I8", BitsPerPixel: 8, BlockSize: 1, MaxPalette: 256},
	Indexed4: {Name: "I4", BitsPerPixel: 4, BlockSize: 1, MaxPalette: 16},
	DXT1:     {Name: "DXT1", BitsPerPixel: 4, BlockSize: 4},
	DXT5:     {Name: "DXT5", BitsPerPixel: 8, BlockSize: 4},
})

// Info returns the storage description of f.
func (f PixelFormat) Info() (FormatInfo, error) {
	return formats.Lookup(f)
}

func (f PixelFormat) String() string {
	if info, err := formats.Lookup(f); err == nil {
		return info.Name
	}
	return fmt.Sprintf("PixelFormat(%d)", uint8(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f PixelFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// DataSize returns the byte size of a width x height image with mips levels, each level
// halving both dimensions down to one pixel.
func DataSize(f PixelFormat, width, height, mips int) (int, error) {
	info, err := formats.Lookup(f)
	if err != nil {
		return 0, err
	}
	mips = max(mips, 1)
	total := 0
	for level := range mips {
		w := max(width>>level, 1)
		h := max(height>>level, 1)
		if info.BlockSize > 1 {
			bw := (w + info.BlockSize - 1) / info.BlockSize
			bh := (h + info.BlockSize - 1) / info.BlockSize
			total += bw * bh * info.BlockSize * info.BlockSize * info.BitsPerPixel / 8
			continue
		}
		total += (w*h*info.BitsPerPixel + 7) / 8
	}
	return total, nil
}
