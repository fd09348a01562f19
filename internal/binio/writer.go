package binio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/x448/float16"
)

// Writer encodes primitives to a seekable sink in one byte order.
type Writer struct {
	ws    io.WriteSeeker
	cfg   Config
	order binary.ByteOrder
	pos   int64
	buf   [8]byte
}

// NewWriter creates a writer positioned at the sink's current offset.
func NewWriter(ws io.WriteSeeker, cfg Config) (*Writer, error) {
	pos, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	return &Writer{
		ws:    ws,
		cfg:   cfg,
		order: cfg.order(),
		pos:   pos,
	}, nil
}

// Order returns the byte order of the sink.
func (w *Writer) Order() binary.ByteOrder {
	return w.order
}

// Config returns the configuration the writer was created with.
func (w *Writer) Config() Config {
	return w.cfg
}

// Pos returns the absolute sink position.
func (w *Writer) Pos() int64 {
	return w.pos
}

// Seek moves to an absolute position.
func (w *Writer) Seek(abs int64) error {
	if abs == w.pos {
		return nil
	}
	if _, err := w.ws.Seek(abs, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %d: %w", abs, err)
	}
	w.pos = abs
	return nil
}

// Align writes zero bytes until the position is a multiple of alignment.
func (w *Writer) Align(alignment int) error {
	if !validAlignment(alignment) {
		return fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}
	pad := AlignOffset(w.pos, alignment) - w.pos
	if pad == 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, pad))
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(p []byte) error {
	n, err := w.ws.Write(p)
	w.pos += int64(n)
	if err != nil {
		return fmt.Errorf("write %d bytes at %d: %w", len(p), w.pos-int64(n), err)
	}
	if n != len(p) {
		return fmt.Errorf("write %d bytes at %d: %w", len(p), w.pos-int64(n), io.ErrShortWrite)
	}
	return nil
}

// WriteU8 writes an unsigned byte.
func (w *Writer) WriteU8(v uint8) error {
	w.buf[0] = v
	return w.WriteBytes(w.buf[:1])
}

// WriteI8 writes a signed byte.
func (w *Writer) WriteI8(v int8) error {
	return w.WriteU8(uint8(v))
}

// WriteBool writes a one byte boolean.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteU8(1)
	}
	return w.WriteU8(0)
}

// WriteU16 writes an unsigned 16-bit integer.
func (w *Writer) WriteU16(v uint16) error {
	w.order.PutUint16(w.buf[:2], v)
	return w.WriteBytes(w.buf[:2])
}

// WriteI16 writes a signed 16-bit integer.
func (w *Writer) WriteI16(v int16) error {
	return w.WriteU16(uint16(v))
}

// WriteU32 writes an unsigned 32-bit integer.
func (w *Writer) WriteU32(v uint32) error {
	w.order.PutUint32(w.buf[:4], v)
	return w.WriteBytes(w.buf[:4])
}

// WriteI32 writes a signed 32-bit integer.
func (w *Writer) WriteI32(v int32) error {
	return w.WriteU32(uint32(v))
}

// WriteU32LE writes an unsigned 32-bit integer in little-endian order regardless of the sink order.
func (w *Writer) WriteU32LE(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.WriteBytes(w.buf[:4])
}

// WriteU64 writes an unsigned 64-bit integer.
func (w *Writer) WriteU64(v uint64) error {
	w.order.PutUint64(w.buf[:8], v)
	return w.WriteBytes(w.buf[:8])
}

// WriteI64 writes a signed 64-bit integer.
func (w *Writer) WriteI64(v int64) error {
	return w.WriteU64(uint64(v))
}

// WriteF16 narrows v to IEEE 754 half precision and writes it.
func (w *Writer) WriteF16(v float32) error {
	return w.WriteU16(float16.Fromfloat32(v).Bits())
}

// WriteF32 writes a float32.
func (w *Writer) WriteF32(v float32) error {
	return w.WriteU32(math.Float32bits(v))
}

// WriteF64 writes a float64.
func (w *Writer) WriteF64(v float64) error {
	return w.WriteU64(math.Float64bits(v))
}

// WriteU16s writes the values back-to-back.
func (w *Writer) WriteU16s(vs []uint16) error {
	p := make([]byte, len(vs)*2)
	for i, v := range vs {
		w.order.PutUint16(p[i*2:], v)
	}
	return w.WriteBytes(p)
}

// WriteF32s writes the values back-to-back.
func (w *Writer) WriteF32s(vs []float32) error {
	p := make([]byte, len(vs)*4)
	for i, v := range vs {
		w.order.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return w.WriteBytes(p)
}

// WriteVec2 writes two float32 components.
func (w *Writer) WriteVec2(v Vec2) error {
	return w.WriteF32s(v[:])
}

// WriteVec3 writes three float32 components.
func (w *Writer) WriteVec3(v Vec3) error {
	return w.WriteF32s(v[:])
}

// WriteVec4 writes four float32 components.
func (w *Writer) WriteVec4(v Vec4) error {
	return w.WriteF32s(v[:])
}

// WriteColor writes an RGBA8 color.
func (w *Writer) WriteColor(c Color) error {
	return w.WriteBytes([]byte{c.R, c.G, c.B, c.A})
}

// WriteColorF writes an RGBA float32 color.
func (w *Writer) WriteColorF(c ColorF) error {
	return w.WriteF32s([]float32{c.R, c.G, c.B, c.A})
}
