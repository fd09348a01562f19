package resource

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/resforge/resforge/internal/binio"
)

// task is one reserved offset field waiting for its payload.
// A nil emit encodes an absent payload and patches the field with zero.
type task struct {
	patchPos int64
	base     int64
	align    int
	emit     func(e *Encoder) error
}

// frame is the schedule state of one independently addressed region.
type frame struct {
	base      int64
	queue     []task
	head      int
	scheduled int
	patched   int
}

// Encoder emits objects and back-patches their relative offsets.
type Encoder struct {
	*binio.Writer
	opts Options
	log  logrus.FieldLogger
	frame
}

// NewEncoder creates an encoder whose base is the sink's current position.
func NewEncoder(ws io.WriteSeeker, opts Options) (*Encoder, error) {
	w, err := binio.NewWriter(ws, opts.codec())
	if err != nil {
		return nil, err
	}
	return &Encoder{
		Writer: w,
		opts:   opts,
		log:    opts.logger(),
		frame:  frame{base: w.Pos()},
	}, nil
}

// Base returns the position emitted offsets are relative to.
func (e *Encoder) Base() int64 {
	return e.base
}

// Options returns the options the encoder was created with.
func (e *Encoder) Options() Options {
	return e.opts
}

// Logger returns the diagnostics logger.
func (e *Encoder) Logger() logrus.FieldLogger {
	return e.log
}

// Pending returns the number of scheduled writes not yet patched.
func (e *Encoder) Pending() int {
	return e.scheduled - e.patched
}

// Schedule writes a zero placeholder at the cursor and queues emit to run at the next
// position aligned to align. A nil emit leaves the offset zero.
func (e *Encoder) Schedule(align int, emit func(e *Encoder) error) error {
	t := task{patchPos: e.Pos(), base: e.base, align: align, emit: emit}
	if err := e.WriteU32LE(0); err != nil {
		return fmt.Errorf("reserve offset: %w", err)
	}
	e.queue = append(e.queue, t)
	e.scheduled++
	return nil
}

// WriteCount16 writes n as a u16 count field, failing rather than wrapping.
func (e *Encoder) WriteCount16(n int) error {
	if n < 0 || n > math.MaxUint16 {
		return fmt.Errorf("%w: %d into u16", ErrCountOverflow, n)
	}
	return e.WriteU16(uint16(n))
}

// PatchU32 overwrites a 32-bit value at abs and returns the cursor to where it was.
func (e *Encoder) PatchU32(abs int64, v uint32) error {
	return e.patch(abs, func() error { return e.WriteU32(v) })
}

// PatchOffset overwrites an offset field at abs with target relative to the active base.
func (e *Encoder) PatchOffset(abs, target int64) error {
	rel, err := e.relative(target, e.base)
	if err != nil {
		return err
	}
	return e.patch(abs, func() error { return e.WriteU32LE(uint32(rel)) })
}

func (e *Encoder) patch(abs int64, write func() error) error {
	saved := e.Pos()
	if err := e.Seek(abs); err != nil {
		return err
	}
	if err := write(); err != nil {
		return err
	}
	return e.Seek(saved)
}

func (e *Encoder) relative(target, base int64) (int32, error) {
	rel := target - base
	if rel <= 0 || rel > math.MaxInt32 {
		return 0, fmt.Errorf("%w: position %d from base %d", ErrOffsetOutOfRange, target, base)
	}
	return int32(rel), nil
}

// Flush drains the queue in first-in first-out order. Payload writes may schedule more
// work; it is drained in the same pass. The cursor ends after the last payload.
func (e *Encoder) Flush() error {
	drained := 0
	for e.head < len(e.queue) {
		t := e.queue[e.head]
		e.queue[e.head] = task{}
		e.head++

		if t.emit == nil {
			if err := e.patch(t.patchPos, func() error { return e.WriteU32LE(0) }); err != nil {
				return err
			}
			e.patched++
			drained++
			continue
		}

		if err := e.Align(t.align); err != nil {
			return err
		}
		pos := e.Pos()
		rel, err := e.relative(pos, t.base)
		if err != nil {
			return err
		}
		if err := e.patch(t.patchPos, func() error { return e.WriteU32LE(uint32(rel)) }); err != nil {
			return err
		}

		outer := e.base
		e.base = t.base
		err = t.emit(e)
		e.base = outer
		if err != nil {
			return fmt.Errorf("payload at %d: %w", pos, err)
		}
		e.patched++
		drained++
	}

	if e.patched != e.scheduled {
		return fmt.Errorf("%w: %d scheduled, %d patched", ErrUnresolvedSchedule, e.scheduled, e.patched)
	}
	e.log.WithFields(logrus.Fields{"tasks": drained, "end": e.Pos()}).Trace("schedule flushed")
	e.queue, e.head = nil, 0
	e.scheduled, e.patched = 0, 0
	return nil
}

// Region runs fn with a fresh queue based at the cursor and flushes it before returning.
// The outer queue and base are restored afterwards.
func (e *Encoder) Region(fn func() error) (start int64, err error) {
	saved := e.frame
	start = e.Pos()
	e.frame = frame{base: start}
	defer func() { e.frame = saved }()

	if err := fn(); err != nil {
		return start, err
	}
	return start, e.Flush()
}

// ScheduleObject reserves an offset field for obj. A nil obj is written as absent.
func ScheduleObject[T any, P Ref[T, C], C any](e *Encoder, align int, obj P, ctx C) error {
	if obj == nil {
		return e.Schedule(align, nil)
	}
	return e.Schedule(align, func(e *Encoder) error {
		return obj.Write(e, ctx)
	})
}

// ScheduleList reserves an offset field for items stored back-to-back.
// An empty list is written as absent.
func ScheduleList[T any, P Ref[T, C], C any](e *Encoder, align int, items []T, ctx C) error {
	if len(items) == 0 {
		return e.Schedule(align, nil)
	}
	return e.Schedule(align, func(e *Encoder) error {
		for i := range items {
			if err := P(&items[i]).Write(e, ctx); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	})
}

// ScheduleRefList reserves an offset field for a table of offsets, one per item.
// The table is 4-aligned; each item is aligned to itemAlign. Nil items are absent.
func ScheduleRefList[T any, P Ref[T, C], C any](e *Encoder, itemAlign int, items []P, ctx C) error {
	if len(items) == 0 {
		return e.Schedule(4, nil)
	}
	return e.Schedule(4, func(e *Encoder) error {
		for i, item := range items {
			if err := ScheduleObject[T](e, itemAlign, item, ctx); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	})
}

// ScheduleString reserves an offset field for s. An empty string is written as absent.
func (e *Encoder) ScheduleString(align int, s string, f binio.StringFormat) error {
	if s == "" {
		return e.Schedule(align, nil)
	}
	// Fail at the reference rather than during the flush.
	if f.Kind == binio.FixedLength && !e.opts.TruncateFixed {
		n, err := e.EncodedLen(s)
		if err != nil {
			return err
		}
		if n > f.Size {
			return fmt.Errorf("%w: %q into %s", ErrOversizedFixedField, s, f)
		}
	}
	return e.Schedule(align, func(e *Encoder) error {
		return e.WriteString(s, f)
	})
}

// ScheduleBytes reserves an offset field for raw bytes. Empty data is written as absent.
func (e *Encoder) ScheduleBytes(align int, p []byte) error {
	if len(p) == 0 {
		return e.Schedule(align, nil)
	}
	return e.Schedule(align, func(e *Encoder) error {
		return e.WriteBytes(p)
	})
}

// ScheduleU16s reserves an offset field for a u16 array. An empty array is written as absent.
func (e *Encoder) ScheduleU16s(align int, vs []uint16) error {
	if len(vs) == 0 {
		return e.Schedule(align, nil)
	}
	return e.Schedule(align, func(e *Encoder) error {
		return e.WriteU16s(vs)
	})
}
