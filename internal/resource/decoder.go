package resource

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/resforge/resforge/internal/binio"
)

// Decoder resolves relative offsets against an active base while reading objects.
//
// A Decoder exclusively owns its stream for the duration of one container read;
// nested objects share its cursor.
type Decoder struct {
	*binio.Reader
	opts Options
	log  logrus.FieldLogger
	base int64
}

// NewDecoder creates a decoder whose base is the stream's current position.
func NewDecoder(rs io.ReadSeeker, opts Options) (*Decoder, error) {
	r, err := binio.NewReader(rs, opts.codec())
	if err != nil {
		return nil, err
	}
	return &Decoder{
		Reader: r,
		opts:   opts,
		log:    opts.logger(),
		base:   r.Pos(),
	}, nil
}

// Base returns the position relative offsets currently resolve against.
func (d *Decoder) Base() int64 {
	return d.base
}

// Options returns the options the decoder was created with.
func (d *Decoder) Options() Options {
	return d.opts
}

// Logger returns the diagnostics logger.
func (d *Decoder) Logger() logrus.FieldLogger {
	return d.log
}

// Offset reads a raw relative offset field.
func (d *Decoder) Offset() (int32, error) {
	v, err := d.ReadU32LE()
	if err != nil {
		return 0, fmt.Errorf("read offset: %w", err)
	}
	return int32(v), nil
}

// At runs fn with the cursor at abs and restores the cursor afterwards, on every path.
func (d *Decoder) At(abs int64, fn func() error) (err error) {
	saved := d.Pos()
	if err := d.Seek(abs); err != nil {
		return err
	}
	defer func() {
		if serr := d.Seek(saved); serr != nil && err == nil {
			err = serr
		}
	}()
	return fn()
}

// Deferred reads an offset field. A zero offset skips fn and reports absent; otherwise fn
// runs at base+offset and the cursor is restored to just past the field.
func (d *Decoder) Deferred(fn func() error) (bool, error) {
	off, err := d.Offset()
	if err != nil {
		return false, err
	}
	if off == 0 {
		return false, nil
	}
	target := d.base + int64(off)
	if target < 0 {
		return false, fmt.Errorf("%w: offset %d from base %d", ErrOffsetOutOfRange, off, d.base)
	}
	return true, d.At(target, fn)
}

// Rebase runs fn with base as the active base and restores the outer base afterwards.
func (d *Decoder) Rebase(base int64, fn func() error) error {
	outer := d.base
	d.base = base
	defer func() { d.base = outer }()
	return fn()
}

// CheckCount fails with ErrTruncatedStream when count elements of at least elemSize
// bytes cannot fit between the cursor and the end of the stream.
func (d *Decoder) CheckCount(count, elemSize int) error {
	if count < 0 || int64(count)*int64(max(elemSize, 1)) > d.Remaining() {
		return fmt.Errorf("%w: %d elements of %d bytes at offset %d", ErrTruncatedStream, count, elemSize, d.Pos())
	}
	return nil
}

func (d *Decoder) origin(pos int64) Origin {
	return Origin{Path: d.opts.Path, Offset: pos, ByteOrder: d.Order()}
}

// ReadInline decodes obj at the cursor and attaches its origin.
func ReadInline[C any](d *Decoder, obj Object[C], ctx C) error {
	pos := d.Pos()
	if err := obj.Read(d, ctx); err != nil {
		return err
	}
	if h, ok := obj.(originHolder); ok {
		h.setOrigin(d.origin(pos))
	}
	return nil
}

// ReadObject follows an offset field and decodes exactly one T, or returns nil when the
// offset is zero. No partially decoded value is returned on error.
func ReadObject[T any, P Ref[T, C], C any](d *Decoder, ctx C) (P, error) {
	var out P
	_, err := d.Deferred(func() error {
		obj := P(new(T))
		if err := ReadInline[C](d, obj, ctx); err != nil {
			return err
		}
		out = obj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadList follows an offset field to count consecutive inline elements.
// A zero offset yields a nil slice.
func ReadList[T any, P Ref[T, C], C any](d *Decoder, count int, ctx C) ([]T, error) {
	var out []T
	_, err := d.Deferred(func() error {
		if err := d.CheckCount(count, 1); err != nil {
			return err
		}
		items := make([]T, count)
		for i := range items {
			if err := ReadInline[C](d, P(&items[i]), ctx); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadRefList follows an offset field to count offset fields, each referencing one T.
// Zero element offsets yield nil elements.
func ReadRefList[T any, P Ref[T, C], C any](d *Decoder, count int, ctx C) ([]P, error) {
	var out []P
	_, err := d.Deferred(func() error {
		if err := d.CheckCount(count, 4); err != nil {
			return err
		}
		items := make([]P, count)
		for i := range items {
			obj, err := ReadObject[T, P](d, ctx)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = obj
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadRef follows an offset field and runs read at the target. A zero offset yields the
// zero value of V.
func ReadRef[V any](d *Decoder, read func() (V, error)) (V, error) {
	var out V
	_, err := d.Deferred(func() error {
		v, err := read()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return out, nil
}

// ReadStringRef follows an offset field to a string. A zero offset yields "".
func (d *Decoder) ReadStringRef(f binio.StringFormat) (string, error) {
	return ReadRef(d, func() (string, error) { return d.ReadString(f) })
}

// ReadBytesRef follows an offset field to n raw bytes. A zero offset yields nil.
func (d *Decoder) ReadBytesRef(n int) ([]byte, error) {
	return ReadRef(d, func() ([]byte, error) { return d.ReadBytes(n) })
}

// ReadU16sRef follows an offset field to n u16 values. A zero offset yields nil.
func (d *Decoder) ReadU16sRef(n int) ([]uint16, error) {
	return ReadRef(d, func() ([]uint16, error) { return d.ReadU16s(n) })
}
