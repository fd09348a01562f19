package motion

import (
	"errors"
	"fmt"
	"math"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

// Common errors.
var (
	ErrFrameRate    = errors.New("quantized keys need a positive frame rate")
	ErrFrameRange   = errors.New("key time outside quantized frame range")
	ErrUnsortedKeys = errors.New("key times are not ascending")
)

// Channel is the animated property of a track.
type Channel uint8

// Channels.
const (
	ChannelPosition Channel = 0
	ChannelRotation Channel = 1
	ChannelScale    Channel = 2
	ChannelMorph    Channel = 3
)

func (c Channel) String() string {
	switch c {
	case ChannelPosition:
		return "position"
	case ChannelRotation:
		return "rotation"
	case ChannelScale:
		return "scale"
	case ChannelMorph:
		return "morph"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// Encoding selects the on-wire key layout of a track.
type Encoding struct {
	Channel Channel
	Size    uint8 // Bytes per key
}

func (e Encoding) String() string {
	return fmt.Sprintf("%s/%d", e.Channel, e.Size)
}

// MarshalText implements encoding.TextMarshaler.
func (e Encoding) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Key encodings.
var (
	PositionF32 = Encoding{ChannelPosition, 16}
	PositionF16 = Encoding{ChannelPosition, 8}
	RotationF32 = Encoding{ChannelRotation, 20}
	RotationF16 = Encoding{ChannelRotation, 10}
	RotationS16 = Encoding{ChannelRotation, 8}
	ScaleF32    = Encoding{ChannelScale, 16}
	ScaleF16    = Encoding{ChannelScale, 8}
	MorphF32    = Encoding{ChannelMorph, 8}
	MorphF16    = Encoding{ChannelMorph, 4}
)

// Key is one sample. Value holds xyz for position and scale, xyzw for rotation and the
// weight in x for morph channels.
type Key struct {
	Time  float32 // Seconds
	Value binio.Vec4
}

// TrackContext carries the motion's frame rate into key decoding.
type TrackContext struct {
	FrameRate float32
}

type keyTime struct {
	read      func(d *resource.Decoder, ctx TrackContext) (float32, error)
	write     func(e *resource.Encoder, t float32, ctx TrackContext) error
	quantized bool
}

var (
	seconds = keyTime{read: readSeconds, write: writeSeconds}
	frames  = keyTime{read: readFrame, write: writeFrame, quantized: true}
)

type keyCodec struct {
	time       keyTime
	readValue  func(d *resource.Decoder) (binio.Vec4, error)
	writeValue func(e *resource.Encoder, v binio.Vec4) error
}

func (c keyCodec) read(d *resource.Decoder, ctx TrackContext) (Key, error) {
	t, err := c.time.read(d, ctx)
	if err != nil {
		return Key{}, err
	}
	v, err := c.readValue(d)
	return Key{Time: t, Value: v}, err
}

func (c keyCodec) write(e *resource.Encoder, k Key, ctx TrackContext) error {
	if err := c.time.write(e, k.Time, ctx); err != nil {
		return err
	}
	return c.writeValue(e, k.Value)
}

var encodings = resource.NewVariantTable("keyframe encoding", map[Encoding]keyCodec{
	PositionF32: {seconds, readF32s(3), writeF32s(3)},
	PositionF16: {frames, readF16s(3), writeF16s(3)},
	RotationF32: {seconds, readF32s(4), writeF32s(4)},
	RotationF16: {frames, readF16s(4), writeF16s(4)},
	RotationS16: {frames, readSnormQuat, writeSnormQuat},
	ScaleF32:    {seconds, readF32s(3), writeF32s(3)},
	ScaleF16:    {frames, readF16s(3), writeF16s(3)},
	MorphF32:    {seconds, readF32s(1), writeF32s(1)},
	MorphF16:    {frames, readF16s(1), writeF16s(1)},
})

// Quantized reports whether keys of this encoding store frame numbers.
func (e Encoding) Quantized() bool {
	c, err := encodings.Lookup(e)
	return err == nil && c.time.quantized
}

func readSeconds(d *resource.Decoder, _ TrackContext) (float32, error) {
	return d.ReadF32()
}

func writeSeconds(e *resource.Encoder, t float32, _ TrackContext) error {
	return e.WriteF32(t)
}

func readFrame(d *resource.Decoder, ctx TrackContext) (float32, error) {
	if ctx.FrameRate <= 0 {
		return 0, ErrFrameRate
	}
	f, err := d.ReadU16()
	if err != nil {
		return 0, err
	}
	return float32(f) / ctx.FrameRate, nil
}

func writeFrame(e *resource.Encoder, t float32, ctx TrackContext) error {
	if ctx.FrameRate <= 0 {
		return ErrFrameRate
	}
	f := math.Round(float64(t * ctx.FrameRate))
	if f < 0 || f > math.MaxUint16 {
		return fmt.Errorf("%w: %g s at %g fps", ErrFrameRange, t, ctx.FrameRate)
	}
	return e.WriteU16(uint16(f))
}

func readF32s(n int) func(*resource.Decoder) (binio.Vec4, error) {
	return func(d *resource.Decoder) (binio.Vec4, error) {
		var v binio.Vec4
		s, err := d.ReadF32s(n)
		if err != nil {
			return v, err
		}
		copy(v[:], s)
		return v, nil
	}
}

func writeF32s(n int) func(*resource.Encoder, binio.Vec4) error {
	return func(e *resource.Encoder, v binio.Vec4) error {
		return e.WriteF32s(v[:n])
	}
}

func readF16s(n int) func(*resource.Decoder) (binio.Vec4, error) {
	return func(d *resource.Decoder) (binio.Vec4, error) {
		var v binio.Vec4
		for i := range n {
			x, err := d.ReadF16()
			if err != nil {
				return v, err
			}
			v[i] = x
		}
		return v, nil
	}
}

func writeF16s(n int) func(*resource.Encoder, binio.Vec4) error {
	return func(e *resource.Encoder, v binio.Vec4) error {
		for _, x := range v[:n] {
			if err := e.WriteF16(x); err != nil {
				return err
			}
		}
		return nil
	}
}

const snormScale = math.MaxInt16

// readSnormQuat reads xyz as signed normalized 16-bit values and rebuilds a non-negative w.
func readSnormQuat(d *resource.Decoder) (binio.Vec4, error) {
	var q binio.Vec4
	sum := 0.0
	for i := range 3 {
		c, err := d.ReadI16()
		if err != nil {
			return q, err
		}
		q[i] = float32(c) / snormScale
		sum += float64(q[i]) * float64(q[i])
	}
	q[3] = float32(math.Sqrt(math.Max(0, 1-sum)))
	return q, nil
}

func writeSnormQuat(e *resource.Encoder, q binio.Vec4) error {
	q = normalize(q)
	if q[3] < 0 {
		q = binio.Vec4{-q[0], -q[1], -q[2], -q[3]}
	}
	for _, c := range q[:3] {
		c = max(-1, min(1, c))
		if err := e.WriteI16(int16(math.Round(float64(c) * snormScale))); err != nil {
			return err
		}
	}
	return nil
}

func normalize(q binio.Vec4) binio.Vec4 {
	n := math.Sqrt(float64(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3]))
	if n == 0 {
		return binio.Vec4{0, 0, 0, 1}
	}
	inv := float32(1 / n)
	return binio.Vec4{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}
