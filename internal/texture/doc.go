// Package texture implements the TXPK texture pack and its TEX0 entries.
//
//	TXPK/0100:
//	  [u32 entry count][u32 reserved]
//	  [entry count x (i32 offset, u32 size, descriptor)]
//	  [TEX0 entries, each 64-byte aligned with its own offset base]
//
//	TEX0/0100:
//	  [FixedLength(32) name][u16 width][u16 height][u8 format][u8 mip count][u16 flags]
//	  [u32 data size][ref pixels (64)][u16 palette count][u16 reserved][ref palette (16)]
//
// Some shipped packs store entry offsets that overlap the previous entry. Reading relocates
// such entries to the aligned end of the previous one.
package texture
