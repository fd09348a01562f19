// Package motion implements the MOTN skeletal animation container.
//
//	MOTN/0100:
//	  [ref name (null terminated)][f32 frame rate][f32 frame count][u32 flags]
//	  [u32 track count][ref tracks (16)]
//
//	Track:
//	  [u16 bone][u8 channel][u8 sample size][u32 key count][ref keys (4)]
//
// The key encoding of a track is selected by its (channel, sample size) pair. Full
// precision encodings store the key time in seconds; quantized encodings store a frame
// number that is converted with the motion's frame rate.
package motion
