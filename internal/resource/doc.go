// Package resource implements the offset-based object serialization engine used by every
// resforge container.
//
// Objects reference each other through signed 32-bit relative offsets instead of
// pointers. Offsets are always little-endian and resolve against the base active at the
// moment they are read or written; zero means "absent".
//
//	Container Structure:
//	  [4 bytes: container kind tag]
//	  [4 bytes: format tag]
//	  [content: inline fields, then scheduled payloads]
//
// The read side (Decoder) follows offsets with save/seek/restore semantics. The write side
// (Encoder) emits zero placeholders for reference fields, queues the payloads, and patches
// the placeholders while draining the queue:
//
//	field write:   [00 00 00 00] -> queue {payload, patchPos, align, base}
//	Flush:         align -> P; seek patchPos; write P-base; seek P; payload.Write
//
// The queue is drained first-in first-out and payload writes may enqueue more work, so
// siblings at one depth are laid out before any of their own nested payloads.
//
// Example usage:
//
//	m, err := resource.LoadFile[model.Model]("chr_001.mdl", model.Context{}, resource.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m.Scale = 2
//	if err := resource.SaveFile("chr_001.mdl", m, model.Context{}, resource.DefaultOptions()); err != nil {
//	    log.Fatal(err)
//	}
package resource
