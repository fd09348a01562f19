package resource

import (
	"encoding/binary"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"

	"github.com/resforge/resforge/internal/binio"
)

// Options configures one container read or write.
type Options struct {
	ByteOrder     binary.ByteOrder   // Scalar byte order; offsets are always little-endian
	Text          encoding.Encoding  // String text encoding; nil keeps raw bytes
	TruncateFixed bool               // Truncate oversized FixedLength strings instead of failing
	Logger        logrus.FieldLogger // Diagnostics sink; nil discards
	Path          string             // Source path recorded in origins
}

// DefaultOptions returns little-endian, raw-text options with logging disabled.
func DefaultOptions() Options {
	return Options{ByteOrder: binary.LittleEndian}
}

func (o Options) codec() binio.Config {
	return binio.Config{
		Order:         o.ByteOrder,
		Text:          o.Text,
		TruncateFixed: o.TruncateFixed,
	}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
