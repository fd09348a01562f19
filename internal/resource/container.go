package resource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/resforge/resforge/internal/binio"
)

// DescriptorSize is the encoded size of a container descriptor.
const DescriptorSize = 8

// Tag is a four character code.
type Tag [4]byte

// NewTag returns the tag spelled by s, zero padded or cut to four bytes.
func NewTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

// String returns the tag as text when printable, otherwise as hex.
func (t Tag) String() string {
	for _, b := range t {
		if b < 0x20 || b > 0x7e {
			return fmt.Sprintf("%#x", t[:])
		}
	}
	return string(t[:])
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Descriptor identifies the expected layout of a container.
type Descriptor struct {
	Kind   Tag // Container kind (e.g. "MDLP")
	Format Tag // Format version (e.g. "0100")
}

func (d Descriptor) String() string {
	return d.Kind.String() + "/" + d.Format.String()
}

// readDescriptor reads the kind and format tags at the cursor.
func readDescriptor(r *binio.Reader) (Descriptor, error) {
	raw, err := r.ReadBytes(DescriptorSize)
	if err != nil {
		return Descriptor{}, err
	}
	var d Descriptor
	copy(d.Kind[:], raw[:4])
	copy(d.Format[:], raw[4:])
	return d, nil
}

func writeDescriptor(w *binio.Writer, d Descriptor) error {
	if err := w.WriteBytes(d.Kind[:]); err != nil {
		return err
	}
	return w.WriteBytes(d.Format[:])
}

// containerState is the progress of one container read or write.
type containerState int

const (
	stateStart containerState = iota
	stateDescriptor
	stateContent
	stateFlushed
	stateDone
)

func (s containerState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateDescriptor:
		return "descriptor"
	case stateContent:
		return "content"
	case stateFlushed:
		return "flushed"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ReadContainer verifies c's descriptor at the cursor and decodes its content against a
// base at the container start. The outer base is restored afterwards.
func ReadContainer[C any](d *Decoder, c Container[C], ctx C) error {
	want := c.Descriptor()
	start := d.Pos()
	log := d.log.WithFields(logrus.Fields{"kind": want.Kind, "format": want.Format, "base": start})
	log.WithField("state", stateStart).Debug("read container")

	got, err := readDescriptor(d.Reader)
	if err != nil {
		return fmt.Errorf("read descriptor: %w", err)
	}
	if got != want {
		return &HeaderError{Want: want, Got: got, Offset: start}
	}
	log.WithField("state", stateDescriptor).Debug("read container")

	err = d.Rebase(start, func() error {
		log.WithField("state", stateContent).Debug("read container")
		return c.Read(d, ctx)
	})
	if err != nil {
		return fmt.Errorf("%s content: %w", want, err)
	}
	if h, ok := c.(originHolder); ok {
		h.setOrigin(d.origin(start))
	}
	log.WithField("state", stateDone).Debug("read container")
	return nil
}

// WriteContainer emits c's descriptor and content as a self-contained region at the cursor
// and returns the region's length, alignment padding included.
func WriteContainer[C any](e *Encoder, c Container[C], ctx C) (int64, error) {
	desc := c.Descriptor()
	log := e.log.WithFields(logrus.Fields{"kind": desc.Kind, "format": desc.Format, "base": e.Pos()})
	log.WithField("state", stateStart).Debug("write container")

	start, err := e.Region(func() error {
		if err := writeDescriptor(e.Writer, desc); err != nil {
			return err
		}
		log.WithField("state", stateDescriptor).Debug("write container")
		log.WithField("state", stateContent).Debug("write container")
		return c.Write(e, ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("%s content: %w", desc, err)
	}
	log.WithField("state", stateFlushed).Debug("write container")

	size := e.Pos() - start
	log.WithFields(logrus.Fields{"state": stateDone, "size": size}).Debug("write container")
	return size, nil
}

// ReadContainerRef follows an offset field to an embedded container. A zero offset yields nil.
func ReadContainerRef[T any, P ContainerRef[T, C], C any](d *Decoder, ctx C) (P, error) {
	return ReadRef(d, func() (P, error) {
		c := P(new(T))
		if err := ReadContainer[C](d, c, ctx); err != nil {
			return nil, err
		}
		return c, nil
	})
}

// ScheduleContainer reserves an offset field for an embedded container. The container is
// emitted as its own region and, when sized is not nil, its length is passed to sized
// once written. A nil c is written as absent.
func ScheduleContainer[T any, P ContainerRef[T, C], C any](e *Encoder, align int, c P, ctx C, sized func(int64) error) error {
	if c == nil {
		return e.Schedule(align, nil)
	}
	return e.Schedule(align, func(e *Encoder) error {
		size, err := WriteContainer[C](e, c, ctx)
		if err != nil || sized == nil {
			return err
		}
		return sized(size)
	})
}

// Decode reads one container of type T from rs.
func Decode[T any, P ContainerRef[T, C], C any](rs io.ReadSeeker, ctx C, opts Options) (P, error) {
	d, err := NewDecoder(rs, opts)
	if err != nil {
		return nil, err
	}
	c := P(new(T))
	if err := ReadContainer[C](d, c, ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Unmarshal decodes one container of type T from data.
func Unmarshal[T any, P ContainerRef[T, C], C any](data []byte, ctx C, opts Options) (P, error) {
	return Decode[T, P](bytes.NewReader(data), ctx, opts)
}

// Encode writes c to ws and returns the number of bytes written.
func Encode[C any](ws io.WriteSeeker, c Container[C], ctx C, opts Options) (int64, error) {
	e, err := NewEncoder(ws, opts)
	if err != nil {
		return 0, err
	}
	return WriteContainer(e, c, ctx)
}

// Marshal encodes c into memory.
func Marshal[C any](c Container[C], ctx C, opts Options) ([]byte, error) {
	buf := &binio.Buffer{}
	if _, err := Encode(buf, c, ctx, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadFile reads a container of type T from path. The path is recorded in origins.
func LoadFile[T any, P ContainerRef[T, C], C any](path string, ctx C, opts Options) (P, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts.Path = path
	c, err := Unmarshal[T, P](data, ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// SaveFile encodes c and replaces path with the result. Nothing is written to path unless
// encoding succeeds.
func SaveFile[C any](path string, c Container[C], ctx C, opts Options) error {
	data, err := Marshal(c, ctx, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+strings.TrimPrefix(name, ".")+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// PeekDescriptor reads the descriptor at the cursor without consuming it.
func PeekDescriptor(rs io.ReadSeeker) (Descriptor, error) {
	r, err := binio.NewReader(rs, binio.Config{})
	if err != nil {
		return Descriptor{}, err
	}
	start := r.Pos()
	desc, err := readDescriptor(r)
	if err != nil {
		return Descriptor{}, err
	}
	if err := r.Seek(start); err != nil {
		return Descriptor{}, err
	}
	return desc, nil
}
