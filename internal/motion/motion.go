package motion

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/resforge/resforge/internal/binio"
	"github.com/resforge/resforge/internal/resource"
)

// Descriptor identifies motion containers.
var Descriptor = resource.Descriptor{
	Kind:   resource.NewTag("MOTN"),
	Format: resource.NewTag("0100"),
}

// FlagLoop marks motions that wrap around when played past their end.
const FlagLoop = 1 << 0

// Motion is one skeletal animation clip.
type Motion struct {
	resource.Tracked
	Name       string
	FrameRate  float32
	FrameCount float32
	Flags      uint32
	Tracks     []Track
}

// Descriptor implements resource.Container.
func (m *Motion) Descriptor() resource.Descriptor {
	return Descriptor
}

func (m *Motion) context() TrackContext {
	return TrackContext{FrameRate: m.FrameRate}
}

func (m *Motion) Read(d *resource.Decoder, _ resource.NoContext) error {
	var err error
	if m.Name, err = d.ReadStringRef(binio.CString); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if m.FrameRate, err = d.ReadF32(); err != nil {
		return err
	}
	if m.FrameCount, err = d.ReadF32(); err != nil {
		return err
	}
	if m.Flags, err = d.ReadU32(); err != nil {
		return err
	}
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	if m.Tracks, err = resource.ReadList[Track](d, int(n), m.context()); err != nil {
		return fmt.Errorf("tracks: %w", err)
	}
	return nil
}

func (m *Motion) Write(e *resource.Encoder, _ resource.NoContext) error {
	if err := e.ScheduleString(4, m.Name, binio.CString); err != nil {
		return err
	}
	if err := e.WriteF32(m.FrameRate); err != nil {
		return err
	}
	if err := e.WriteF32(m.FrameCount); err != nil {
		return err
	}
	if err := e.WriteU32(m.Flags); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(m.Tracks))); err != nil {
		return err
	}
	return resource.ScheduleList(e, 16, m.Tracks, m.context())
}

// Loop reports whether the motion wraps around.
func (m *Motion) Loop() bool {
	return m.Flags&FlagLoop != 0
}

// Duration is the clip length in seconds, or zero without a frame rate.
func (m *Motion) Duration() float32 {
	if m.FrameRate <= 0 {
		return 0
	}
	return m.FrameCount / m.FrameRate
}

// Bones returns the distinct bone indices animated by the motion in ascending order.
func (m *Motion) Bones() []uint16 {
	bones := make([]uint16, 0, len(m.Tracks))
	for _, t := range m.Tracks {
		bones = append(bones, t.Bone)
	}
	slices.Sort(bones)
	return slices.Compact(bones)
}

// Track returns the first track animating channel c of bone.
func (m *Motion) Track(bone uint16, c Channel) (*Track, bool) {
	for i := range m.Tracks {
		if m.Tracks[i].Bone == bone && m.Tracks[i].Encoding.Channel == c {
			return &m.Tracks[i], true
		}
	}
	return nil, false
}

// Sample evaluates a track at time t. Looping motions wrap t into the clip first.
func (m *Motion) Sample(tr *Track, t float32) binio.Vec4 {
	if d := m.Duration(); m.Loop() && d > 0 {
		t = float32(math.Mod(float64(t), float64(d)))
		if t < 0 {
			t += d
		}
	}
	return tr.Sample(t)
}

// Track is the key sequence of one bone channel.
type Track struct {
	resource.Tracked
	Bone     uint16
	Encoding Encoding
	Keys     []Key
}

func (tr *Track) Read(d *resource.Decoder, ctx TrackContext) error {
	var err error
	if tr.Bone, err = d.ReadU16(); err != nil {
		return err
	}
	channel, err := d.ReadU8()
	if err != nil {
		return err
	}
	size, err := d.ReadU8()
	if err != nil {
		return err
	}
	tr.Encoding = Encoding{Channel: Channel(channel), Size: size}
	codec, err := encodings.Lookup(tr.Encoding)
	if err != nil {
		return fmt.Errorf("bone %d: %w", tr.Bone, err)
	}
	n, err := d.ReadU32()
	if err != nil {
		return err
	}
	tr.Keys, err = resource.ReadRef(d, func() ([]Key, error) {
		if err := d.CheckCount(int(n), int(tr.Encoding.Size)); err != nil {
			return nil, err
		}
		keys := make([]Key, n)
		for i := range keys {
			k, err := codec.read(d, ctx)
			if err != nil {
				return nil, fmt.Errorf("key %d: %w", i, err)
			}
			keys[i] = k
		}
		return keys, nil
	})
	if err != nil {
		return fmt.Errorf("bone %d %s keys: %w", tr.Bone, tr.Encoding, err)
	}
	return nil
}

func (tr *Track) Write(e *resource.Encoder, ctx TrackContext) error {
	codec, err := encodings.Lookup(tr.Encoding)
	if err != nil {
		return fmt.Errorf("bone %d: %w", tr.Bone, err)
	}
	if !tr.sorted() {
		return fmt.Errorf("bone %d %s: %w", tr.Bone, tr.Encoding, ErrUnsortedKeys)
	}
	if err := e.WriteU16(tr.Bone); err != nil {
		return err
	}
	if err := e.WriteU8(uint8(tr.Encoding.Channel)); err != nil {
		return err
	}
	if err := e.WriteU8(tr.Encoding.Size); err != nil {
		return err
	}
	if err := e.WriteU32(uint32(len(tr.Keys))); err != nil {
		return err
	}
	if len(tr.Keys) == 0 {
		return e.Schedule(4, nil)
	}
	return e.Schedule(4, func(e *resource.Encoder) error {
		for i, k := range tr.Keys {
			if err := codec.write(e, k, ctx); err != nil {
				return fmt.Errorf("bone %d %s key %d: %w", tr.Bone, tr.Encoding, i, err)
			}
		}
		return nil
	})
}

func (tr *Track) sorted() bool {
	return slices.IsSortedFunc(tr.Keys, func(a, b Key) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
}

// Sample interpolates the track at time t, clamping outside the key range. Rotation
// tracks are blended along the shorter arc and renormalized.
func (tr *Track) Sample(t float32) binio.Vec4 {
	n := len(tr.Keys)
	switch {
	case n == 0:
		if tr.Encoding.Channel == ChannelRotation {
			return binio.Vec4{0, 0, 0, 1}
		}
		return binio.Vec4{}
	case t <= tr.Keys[0].Time:
		return tr.Keys[0].Value
	case t >= tr.Keys[n-1].Time:
		return tr.Keys[n-1].Value
	}
	i := sort.Search(n, func(i int) bool { return tr.Keys[i].Time > t })
	a, b := tr.Keys[i-1], tr.Keys[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Value
	}
	f := (t - a.Time) / span
	if tr.Encoding.Channel == ChannelRotation {
		return nlerp(a.Value, b.Value, f)
	}
	return lerp(a.Value, b.Value, f)
}

func lerp(a, b binio.Vec4, f float32) binio.Vec4 {
	var out binio.Vec4
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*f
	}
	return out
}

func nlerp(a, b binio.Vec4, f float32) binio.Vec4 {
	if a[0]*b[0]+a[1]*b[1]+a[2]*b[2]+a[3]*b[3] < 0 {
		b = binio.Vec4{-b[0], -b[1], -b[2], -b[3]}
	}
	return normalize(lerp(a, b, f))
}
