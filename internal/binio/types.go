package binio

import (
	"encoding/binary"

	"golang.org/x/text/encoding"
)

// Vec2 is a two component float32 vector (texture coordinates).
type Vec2 [2]float32

// Vec3 is a three component float32 vector (positions, normals, euler angles).
type Vec3 [3]float32

// Vec4 is a four component float32 vector (quaternions).
type Vec4 [4]float32

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// ColorF is a floating point RGBA color.
type ColorF struct {
	R, G, B, A float32
}

// Config binds a stream to its byte order and string handling.
type Config struct {
	Order binary.ByteOrder  // Byte order for every scalar; defaults to little-endian
	Text  encoding.Encoding // Text encoding applied to strings; nil keeps raw bytes

	// TruncateFixed cuts FixedLength strings to their capacity instead of failing.
	TruncateFixed bool
}

func (c Config) order() binary.ByteOrder {
	if c.Order == nil {
		return binary.LittleEndian
	}
	return c.Order
}

// AlignOffset rounds offset up to the next multiple of alignment.
func AlignOffset(offset int64, alignment int) int64 {
	if alignment <= 1 {
		return offset
	}
	return offset + int64((alignment-int(offset%int64(alignment)))%alignment)
}

func validAlignment(n int) bool {
	return n > 0 && n&(n-1) == 0
}
