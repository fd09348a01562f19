package binio

import (
	"bytes"
	"fmt"
	"math"
)

// StringKind selects how a string field is framed on the wire.
type StringKind uint8

// String framings.
const (
	NullTerminated   StringKind = iota // bytes followed by a single zero byte
	FixedLength                        // exactly Size bytes, zero padded
	PrefixedLength8                    // u8 length, then bytes
	PrefixedLength16                   // u16 length, then bytes
	PrefixedLength32                   // u32 length, then bytes
)

// String returns the framing name.
func (k StringKind) String() string {
	switch k {
	case NullTerminated:
		return "NullTerminated"
	case FixedLength:
		return "FixedLength"
	case PrefixedLength8:
		return "PrefixedLength8"
	case PrefixedLength16:
		return "PrefixedLength16"
	case PrefixedLength32:
		return "PrefixedLength32"
	default:
		return fmt.Sprintf("StringKind(%d)", uint8(k))
	}
}

// StringFormat is the framing of one string field.
type StringFormat struct {
	Kind StringKind
	Size int // capacity in bytes, FixedLength only
}

// Common string formats.
var (
	CString    = StringFormat{Kind: NullTerminated}
	Prefixed8  = StringFormat{Kind: PrefixedLength8}
	Prefixed16 = StringFormat{Kind: PrefixedLength16}
	Prefixed32 = StringFormat{Kind: PrefixedLength32}
)

// Fixed returns a FixedLength format of n bytes.
func Fixed(n int) StringFormat {
	return StringFormat{Kind: FixedLength, Size: n}
}

func (f StringFormat) String() string {
	if f.Kind == FixedLength {
		return fmt.Sprintf("FixedLength(%d)", f.Size)
	}
	return f.Kind.String()
}

// maxPrefixed returns the longest payload a length prefix can express.
func (f StringFormat) maxPrefixed() int {
	switch f.Kind {
	case PrefixedLength8:
		return math.MaxUint8
	case PrefixedLength16:
		return math.MaxUint16
	default:
		return math.MaxInt32
	}
}

// ReadString reads a string framed by f.
func (r *Reader) ReadString(f StringFormat) (string, error) {
	var raw []byte
	switch f.Kind {
	case NullTerminated:
		for {
			b, err := r.ReadU8()
			if err != nil {
				return "", err
			}
			if b == 0 {
				break
			}
			raw = append(raw, b)
		}
	case FixedLength:
		p, err := r.ReadBytes(f.Size)
		if err != nil {
			return "", err
		}
		if i := bytes.IndexByte(p, 0); i >= 0 {
			p = p[:i]
		}
		raw = p
	case PrefixedLength8, PrefixedLength16, PrefixedLength32:
		n, err := r.readPrefix(f.Kind)
		if err != nil {
			return "", err
		}
		if raw, err = r.ReadBytes(n); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown string format: %s", f)
	}
	return r.decodeText(raw)
}

func (r *Reader) readPrefix(k StringKind) (int, error) {
	switch k {
	case PrefixedLength8:
		n, err := r.ReadU8()
		return int(n), err
	case PrefixedLength16:
		n, err := r.ReadU16()
		return int(n), err
	default:
		n, err := r.ReadU32()
		if err == nil && n > math.MaxInt32 {
			return 0, fmt.Errorf("string length %d too large", n)
		}
		return int(n), err
	}
}

func (r *Reader) decodeText(raw []byte) (string, error) {
	if r.cfg.Text == nil {
		return string(raw), nil
	}
	out, err := r.cfg.Text.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// EncodedLen returns the byte length of s after text encoding.
func (w *Writer) EncodedLen(s string) (int, error) {
	raw, err := w.encodeText(s)
	return len(raw), err
}

func (w *Writer) encodeText(s string) ([]byte, error) {
	if w.cfg.Text == nil {
		return []byte(s), nil
	}
	out, err := w.cfg.Text.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode text %q: %w", s, err)
	}
	return out, nil
}

// WriteString writes s framed by f. Nothing is written when the string does not fit.
func (w *Writer) WriteString(s string, f StringFormat) error {
	raw, err := w.encodeText(s)
	if err != nil {
		return err
	}
	switch f.Kind {
	case NullTerminated:
		if bytes.IndexByte(raw, 0) >= 0 {
			return fmt.Errorf("string %q contains a zero byte", s)
		}
		return w.WriteBytes(append(raw, 0))
	case FixedLength:
		if len(raw) > f.Size {
			if !w.cfg.TruncateFixed {
				return fmt.Errorf("%w: %d bytes into %s", ErrOversizedFixedField, len(raw), f)
			}
			raw = raw[:f.Size]
		}
		p := make([]byte, f.Size)
		copy(p, raw)
		return w.WriteBytes(p)
	case PrefixedLength8, PrefixedLength16, PrefixedLength32:
		if len(raw) > f.maxPrefixed() {
			return fmt.Errorf("%w: %d bytes into %s", ErrOversizedFixedField, len(raw), f)
		}
		switch f.Kind {
		case PrefixedLength8:
			err = w.WriteU8(uint8(len(raw)))
		case PrefixedLength16:
			err = w.WriteU16(uint16(len(raw)))
		default:
			err = w.WriteU32(uint32(len(raw)))
		}
		if err != nil {
			return err
		}
		return w.WriteBytes(raw)
	default:
		return fmt.Errorf("unknown string format: %s", f)
	}
}
