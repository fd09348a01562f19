package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/x448/float16"
)

// Reader decodes primitives from a seekable stream in one byte order.
type Reader struct {
	rs     io.ReadSeeker
	cfg    Config
	order  binary.ByteOrder
	pos    int64
	extent int64
	size   int64
	buf    [8]byte
}

// NewReader creates a reader positioned at the stream's current offset.
func NewReader(rs io.ReadSeeker, cfg Config) (*Reader, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("get stream size: %w", err)
	}
	if _, err := rs.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("restore position: %w", err)
	}
	return &Reader{
		rs:     rs,
		cfg:    cfg,
		order:  cfg.order(),
		pos:    pos,
		extent: pos,
		size:   size,
	}, nil
}

// Order returns the byte order of the stream.
func (r *Reader) Order() binary.ByteOrder {
	return r.order
}

// Config returns the configuration the reader was created with.
func (r *Reader) Config() Config {
	return r.cfg
}

// Pos returns the absolute stream position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Extent returns the furthest absolute position consumed since the last ResetExtent.
func (r *Reader) Extent() int64 {
	return r.extent
}

// ResetExtent sets the high-water mark to the current position.
func (r *Reader) ResetExtent() {
	r.extent = r.pos
}

// Seek moves to an absolute position.
func (r *Reader) Seek(abs int64) error {
	if abs == r.pos {
		return nil
	}
	if abs < 0 {
		return fmt.Errorf("%w: seek to negative offset %d", ErrTruncatedStream, abs)
	}
	if _, err := r.rs.Seek(abs, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %d: %w", abs, err)
	}
	r.pos = abs
	return nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int64) error {
	return r.Seek(r.pos + n)
}

// Align skips forward to the next multiple of alignment.
func (r *Reader) Align(alignment int) error {
	if !validAlignment(alignment) {
		return fmt.Errorf("%w: %d", ErrInvalidAlignment, alignment)
	}
	return r.Seek(AlignOffset(r.pos, alignment))
}

// Size returns the length of the underlying stream when the reader was created.
func (r *Reader) Size() (int64, error) {
	return r.size, nil
}

// Remaining returns the number of bytes between the position and the end of the stream.
func (r *Reader) Remaining() int64 {
	return max(r.size-r.pos, 0)
}

func (r *Reader) fill(p []byte) error {
	n, err := io.ReadFull(r.rs, p)
	r.pos += int64(n)
	if r.pos > r.extent {
		r.extent = r.pos
	}
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncatedStream, len(p), r.pos-int64(n))
		}
		return err
	}
	return nil
}

// ReadBytes reads exactly n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative byte count %d", n)
	}
	if int64(n) > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedStream, n, r.pos, r.Remaining())
	}
	p := make([]byte, n)
	if err := r.fill(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadU8 reads an unsigned byte.
func (r *Reader) ReadU8() (uint8, error) {
	if err := r.fill(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

// ReadI8 reads a signed byte.
func (r *Reader) ReadI8() (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

// ReadBool reads a one byte boolean.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadU8()
	return v != 0, err
}

// ReadU16 reads an unsigned 16-bit integer.
func (r *Reader) ReadU16() (uint16, error) {
	if err := r.fill(r.buf[:2]); err != nil {
		return 0, err
	}
	return r.order.Uint16(r.buf[:2]), nil
}

// ReadI16 reads a signed 16-bit integer.
func (r *Reader) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU32 reads an unsigned 32-bit integer.
func (r *Reader) ReadU32() (uint32, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return 0, err
	}
	return r.order.Uint32(r.buf[:4]), nil
}

// ReadI32 reads a signed 32-bit integer.
func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU32LE reads an unsigned 32-bit integer in little-endian order regardless of the stream order.
func (r *Reader) ReadU32LE() (uint32, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

// ReadU64 reads an unsigned 64-bit integer.
func (r *Reader) ReadU64() (uint64, error) {
	if err := r.fill(r.buf[:8]); err != nil {
		return 0, err
	}
	return r.order.Uint64(r.buf[:8]), nil
}

// ReadI64 reads a signed 64-bit integer.
func (r *Reader) ReadI64() (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

// ReadF16 reads an IEEE 754 half precision value widened to float32.
func (r *Reader) ReadF16() (float32, error) {
	v, err := r.ReadU16()
	if err != nil {
		return 0, err
	}
	return float16.Frombits(v).Float32(), nil
}

// ReadF32 reads a float32.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	return math.Float32frombits(v), err
}

// ReadF64 reads a float64.
func (r *Reader) ReadF64() (float64, error) {
	v, err := r.ReadU64()
	return math.Float64frombits(v), err
}

// ReadU16s reads n unsigned 16-bit integers.
func (r *Reader) ReadU16s(n int) ([]uint16, error) {
	raw, err := r.ReadBytes(n * 2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = r.order.Uint16(raw[i*2:])
	}
	return out, nil
}

// ReadF32s reads n float32 values.
func (r *Reader) ReadF32s(n int) ([]float32, error) {
	raw, err := r.ReadBytes(n * 4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(r.order.Uint32(raw[i*4:]))
	}
	return out, nil
}

// ReadVec2 reads two float32 components.
func (r *Reader) ReadVec2() (Vec2, error) {
	var v Vec2
	s, err := r.ReadF32s(2)
	if err != nil {
		return v, err
	}
	copy(v[:], s)
	return v, nil
}

// ReadVec3 reads three float32 components.
func (r *Reader) ReadVec3() (Vec3, error) {
	var v Vec3
	s, err := r.ReadF32s(3)
	if err != nil {
		return v, err
	}
	copy(v[:], s)
	return v, nil
}

// ReadVec4 reads four float32 components.
func (r *Reader) ReadVec4() (Vec4, error) {
	var v Vec4
	s, err := r.ReadF32s(4)
	if err != nil {
		return v, err
	}
	copy(v[:], s)
	return v, nil
}

// ReadColor reads an RGBA8 color.
func (r *Reader) ReadColor() (Color, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return Color{}, err
	}
	return Color{R: r.buf[0], G: r.buf[1], B: r.buf[2], A: r.buf[3]}, nil
}

// ReadColorF reads an RGBA float32 color.
func (r *Reader) ReadColorF() (ColorF, error) {
	s, err := r.ReadF32s(4)
	if err != nil {
		return ColorF{}, err
	}
	return ColorF{R: s[0], G: s[1], B: s[2], A: s[3]}, nil
}
