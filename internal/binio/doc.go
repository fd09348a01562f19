// Package binio provides the primitive endian codec shared by every resforge container.
//
// A Reader or Writer is bound to one byte order for its whole lifetime. Scalars are
// written with their natural width and sequences are written back-to-back with no
// implicit padding; alignment is always explicit and always zero-filled.
//
//	Supported primitives:
//	  u8 i8 u16 i16 u32 i32 u64 i64 f32 f64 f16 bool8
//	  Vec2 Vec3 Vec4 (f32 components), Color (RGBA8), ColorF (RGBA f32)
//	  strings: NullTerminated, FixedLength(n), PrefixedLength8/16/32
//
// Example usage:
//
//	buf := &binio.Buffer{}
//	w, err := binio.NewWriter(buf, binio.Config{Order: binary.LittleEndian})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = w.WriteU32(7)
//	_ = w.WriteString("hero", binio.Fixed(8))
//
//	r, _ := binio.NewReader(bytes.NewReader(buf.Bytes()), binio.Config{Order: binary.LittleEndian})
//	v, _ := r.ReadU32()
package binio
