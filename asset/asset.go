// Package asset opens, saves and inspects resforge resource containers.
//
// This package wraps the internal container implementations and exports a single entry
// point that detects the container kind from its descriptor.
//
// Example usage:
//
//	import "github.com/resforge/resforge/asset"
//
//	doc, err := asset.Open("chr_hero.mdl", asset.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if m, ok := doc.(*asset.Model); ok {
//	    fmt.Println(m.Name, m.Stats().Triangles)
//	}
//
//	// Re-encode as big-endian.
//	opts := asset.DefaultOptions()
//	opts.ByteOrder = binary.BigEndian
//	if err := asset.Save("chr_hero_be.mdl", doc, opts); err != nil {
//	    log.Fatal(err)
//	}
package asset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/resforge/resforge/internal/field"
	"github.com/resforge/resforge/internal/model"
	"github.com/resforge/resforge/internal/motion"
	"github.com/resforge/resforge/internal/parallel"
	"github.com/resforge/resforge/internal/resource"
	"github.com/resforge/resforge/internal/texture"
)

// Options configures decoding and encoding.
type Options = resource.Options

// Descriptor is the (kind, format) pair at the start of every container.
type Descriptor = resource.Descriptor

// Origin records where an object was decoded from.
type Origin = resource.Origin

// Checksum is the SHA-256 digest of an encoded container.
type Checksum = resource.Checksum

// Container types.
type (
	Model       = model.Model
	TexturePack = texture.Pack
	Texture     = texture.Texture
	Field       = field.Field
	Motion      = motion.Motion
)

// Common errors, re-exported for errors.Is matching.
var (
	ErrMalformedHeader     = resource.ErrMalformedHeader
	ErrUnknownVariantTag   = resource.ErrUnknownVariantTag
	ErrTruncatedStream     = resource.ErrTruncatedStream
	ErrOversizedFixedField = resource.ErrOversizedFixedField
	ErrUnresolvedSchedule  = resource.ErrUnresolvedSchedule
	ErrUnsupportedKind     = resource.ErrUnsupportedKind
	ErrChecksumMismatch    = resource.ErrChecksumMismatch
	ErrCountOverflow       = resource.ErrCountOverflow
)

// Document is any decoded container: *Model, *TexturePack, *Field or *Motion.
type Document interface {
	Descriptor() resource.Descriptor
}

// DefaultOptions returns little-endian, raw-text options with logging disabled.
func DefaultOptions() Options {
	return resource.DefaultOptions()
}

// ComputeChecksum returns the SHA-256 digest of data.
func ComputeChecksum(data []byte) Checksum {
	return resource.ComputeChecksum(data)
}

// ComputeChecksumReader returns the SHA-256 digest of everything r yields.
func ComputeChecksumReader(r io.Reader) (Checksum, error) {
	return resource.ComputeChecksumReader(r)
}

// ValidateChecksum reports ErrChecksumMismatch when computed differs from stored.
func ValidateChecksum(computed, stored Checksum) error {
	return resource.ValidateChecksum(computed, stored)
}

// EntryChecksums returns the checksum of each entry of a multi-entry container, in index
// order. Other kinds have no entries and yield nil.
func EntryChecksums(doc Document, opts Options) ([]Checksum, error) {
	if p, ok := doc.(*TexturePack); ok {
		return resource.EntryChecksums(p.Textures, resource.NoContext{}, opts)
	}
	return nil, nil
}

// Kinds returns the descriptors of every supported container.
func Kinds() []Descriptor {
	return []Descriptor{model.Descriptor, texture.PackDescriptor, field.Descriptor, motion.Descriptor}
}

// Open reads the container at path and detects its kind. The path is recorded in the
// origins of every decoded object.
func Open(path string, opts Options) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts.Path = path
	doc, err := Read(bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Read decodes one container from rs, starting at its current position.
func Read(rs io.ReadSeeker, opts Options) (Document, error) {
	desc, err := resource.PeekDescriptor(rs)
	if err != nil {
		return nil, err
	}
	switch desc.Kind {
	case model.Descriptor.Kind:
		return decode[model.Model](rs, model.Context{}, opts)
	case texture.PackDescriptor.Kind:
		return decode[texture.Pack](rs, resource.NoContext{}, opts)
	case field.Descriptor.Kind:
		return decode[field.Field](rs, field.Context{}, opts)
	case motion.Descriptor.Kind:
		return decode[motion.Motion](rs, resource.NoContext{}, opts)
	}
	return nil, fmt.Errorf("%w: %s", resource.ErrUnsupportedKind, desc)
}

func decode[T any, P resource.ContainerRef[T, C], C any](rs io.ReadSeeker, ctx C, opts Options) (Document, error) {
	doc, err := resource.Decode[T, P](rs, ctx, opts)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadModel reads a model pack from path.
func LoadModel(path string, opts Options) (*Model, error) {
	return resource.LoadFile[model.Model](path, model.Context{Validate: true}, opts)
}

// LoadTextures reads a texture pack from path.
func LoadTextures(path string, opts Options) (*TexturePack, error) {
	return resource.LoadFile[texture.Pack](path, resource.NoContext{}, opts)
}

// LoadField reads a field scene from path.
func LoadField(path string, opts Options) (*Field, error) {
	return resource.LoadFile[field.Field](path, field.Context{Validate: true, Model: model.Context{Validate: true}}, opts)
}

// LoadMotion reads a motion from path.
func LoadMotion(path string, opts Options) (*Motion, error) {
	return resource.LoadFile[motion.Motion](path, resource.NoContext{}, opts)
}

// Write encodes doc to ws and returns the number of bytes written.
func Write(ws io.WriteSeeker, doc Document, opts Options) (int64, error) {
	switch doc := doc.(type) {
	case *Model:
		return resource.Encode(ws, doc, model.Context{}, opts)
	case *TexturePack:
		return resource.Encode(ws, doc, resource.NoContext{}, opts)
	case *Field:
		return resource.Encode(ws, doc, field.Context{}, opts)
	case *Motion:
		return resource.Encode(ws, doc, resource.NoContext{}, opts)
	}
	return 0, unsupported(doc)
}

// Marshal encodes doc into memory.
func Marshal(doc Document, opts Options) ([]byte, error) {
	switch doc := doc.(type) {
	case *Model:
		return resource.Marshal(doc, model.Context{}, opts)
	case *TexturePack:
		return resource.Marshal(doc, resource.NoContext{}, opts)
	case *Field:
		return resource.Marshal(doc, field.Context{}, opts)
	case *Motion:
		return resource.Marshal(doc, resource.NoContext{}, opts)
	}
	return nil, unsupported(doc)
}

// Save encodes doc and atomically replaces path with the result.
func Save(path string, doc Document, opts Options) error {
	switch doc := doc.(type) {
	case *Model:
		return resource.SaveFile(path, doc, model.Context{}, opts)
	case *TexturePack:
		return resource.SaveFile(path, doc, resource.NoContext{}, opts)
	case *Field:
		return resource.SaveFile(path, doc, field.Context{}, opts)
	case *Motion:
		return resource.SaveFile(path, doc, resource.NoContext{}, opts)
	}
	return unsupported(doc)
}

func unsupported(doc Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", resource.ErrUnsupportedKind)
	}
	return fmt.Errorf("%w: %T", resource.ErrUnsupportedKind, doc)
}

// Validate runs the cross-reference checks of doc's container kind.
func Validate(doc Document) error {
	switch doc := doc.(type) {
	case *Model:
		return doc.Validate()
	case *TexturePack:
		for _, t := range doc.Textures {
			if t == nil {
				continue
			}
			if err := t.Validate(); err != nil {
				return fmt.Errorf("texture %q: %w", t.Name, err)
			}
		}
		return nil
	case *Field:
		return doc.Validate()
	case *Motion:
		return nil
	}
	return unsupported(doc)
}

// OpenFiles opens every path on up to workers goroutines and returns the documents in
// path order. workers <= 0 uses one worker per CPU. The first failure cancels the rest.
func OpenFiles(ctx context.Context, paths []string, opts Options, workers int) ([]Document, error) {
	return parallel.Map(ctx, paths, func(_ context.Context, path string) (Document, error) {
		return Open(path, opts)
	}, parallel.WithWorkers(workers))
}
