package resource

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/resforge/resforge/internal/binio"
)

// packEntrySize is the encoded size of one index record: offset, size, descriptor.
const packEntrySize = 4 + 4 + DescriptorSize

// PackLayout describes how a multi-entry container stores its entries.
type PackLayout struct {
	EntryAlign int // Alignment of each entry sub-container

	// RepairOffsets relocates entries whose stored offset overlaps the previous entry or
	// points past the end of the stream. Some shipped texture packs carry such offsets.
	RepairOffsets bool
}

// PackEntry is one record of a pack index.
type PackEntry struct {
	Offset     int32 // Relative to the pack base
	Size       uint32
	Descriptor Descriptor
}

// ReadPackIndex reads the entry count and index records at the cursor.
func ReadPackIndex(d *Decoder) ([]PackEntry, error) {
	count, err := d.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	if _, err := d.ReadU32(); err != nil {
		return nil, err
	}
	if err := d.CheckCount(int(count), packEntrySize); err != nil {
		return nil, fmt.Errorf("pack index: %w", err)
	}

	entries := make([]PackEntry, count)
	for i := range entries {
		if entries[i].Offset, err = d.Offset(); err != nil {
			return nil, err
		}
		if entries[i].Size, err = d.ReadU32(); err != nil {
			return nil, err
		}
		if entries[i].Descriptor, err = readDescriptor(d.Reader); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ReadPack reads a pack index at the cursor and decodes every entry as a sub-container with
// its own base.
func ReadPack[T any, P ContainerRef[T, C], C any](d *Decoder, layout PackLayout, ctx C) ([]P, error) {
	index, err := ReadPackIndex(d)
	if err != nil {
		return nil, err
	}
	size, err := d.Size()
	if err != nil {
		return nil, err
	}

	out := make([]P, len(index))
	prevEnd := d.Pos()
	for i, ent := range index {
		start := d.Base() + int64(ent.Offset)
		if layout.RepairOffsets && (start < prevEnd || start+DescriptorSize > size) {
			fixed := binio.AlignOffset(prevEnd, layout.EntryAlign)
			d.log.WithFields(logrus.Fields{
				"entry":      i,
				"stored":     ent.Offset,
				"recomputed": fixed,
			}).Warn("repairing pack entry offset")
			start = fixed
		}

		err := d.At(start, func() error {
			d.ResetExtent()
			obj := P(new(T))
			if want := obj.Descriptor(); ent.Descriptor != want {
				return &HeaderError{Want: want, Got: ent.Descriptor, Offset: start}
			}
			if err := ReadContainer[C](d, obj, ctx); err != nil {
				return err
			}
			out[i] = obj
			prevEnd = d.Extent()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return out, nil
}

// WritePack writes a pack index at the cursor followed by every entry as an aligned
// sub-container, then fills in the index.
func WritePack[T any, P ContainerRef[T, C], C any](e *Encoder, layout PackLayout, entries []P, ctx C) error {
	if err := e.WriteU32(uint32(len(entries))); err != nil {
		return err
	}
	if err := e.WriteU32(0); err != nil {
		return err
	}
	indexPos := e.Pos()
	if err := e.WriteBytes(make([]byte, len(entries)*packEntrySize)); err != nil {
		return err
	}

	for i, ent := range entries {
		if ent == nil {
			return fmt.Errorf("entry %d: nil", i)
		}
		if err := e.Align(layout.EntryAlign); err != nil {
			return err
		}
		start := e.Pos()
		size, err := WriteContainer[C](e, ent, ctx)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		rec := indexPos + int64(i)*packEntrySize
		if err := e.PatchOffset(rec, start); err != nil {
			return err
		}
		if err := e.PatchU32(rec+4, uint32(size)); err != nil {
			return err
		}
		desc := ent.Descriptor()
		err = e.patch(rec+8, func() error { return writeDescriptor(e.Writer, desc) })
		if err != nil {
			return err
		}
	}
	return nil
}
