package resource

import (
	"encoding/binary"
	"reflect"
)

// Origin records where an object was decoded from. It is diagnostic only.
type Origin struct {
	Path      string           // Source path, empty for streams
	Offset    int64            // Absolute byte offset of the object's first field
	ByteOrder binary.ByteOrder // Byte order of the source stream
}

// Tracked is embedded by every serializable entity to carry its origin.
// Programmatically constructed entities have no origin.
type Tracked struct {
	origin *Origin
}

// Origin returns the object's origin and whether it was decoded from a stream.
func (t *Tracked) Origin() (Origin, bool) {
	if t.origin == nil {
		return Origin{}, false
	}
	return *t.origin, true
}

func (t *Tracked) setOrigin(o Origin) {
	t.origin = &o
}

func (t *Tracked) clearOrigin() {
	t.origin = nil
}

type originHolder interface {
	setOrigin(Origin)
	clearOrigin()
}

var trackedType = reflect.TypeOf(Tracked{})

// ForgetOrigins detaches the origin of every tracked object reachable from root, for
// graphs that are copied into a new document. Back-references are visited once.
func ForgetOrigins(root any) {
	forget(reflect.ValueOf(root), make(map[visit]bool))
}

// visit keys on type as well as address: a struct and its first field share an address.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

func forget(v reflect.Value, seen map[visit]bool) {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if seen[key] {
			return
		}
		seen[key] = true
		if h, ok := v.Interface().(originHolder); ok {
			h.clearOrigin()
		}
		forget(v.Elem(), seen)
	case reflect.Interface:
		if !v.IsNil() {
			forget(v.Elem(), seen)
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			forget(v.Index(i).Addr(), seen)
		}
	case reflect.Array:
		if !v.CanAddr() {
			return
		}
		for i := 0; i < v.Len(); i++ {
			forget(v.Index(i).Addr(), seen)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if f.Type() == trackedType || !v.Type().Field(i).IsExported() {
				continue
			}
			if f.CanAddr() && f.Kind() == reflect.Struct {
				forget(f.Addr(), seen)
				continue
			}
			forget(f, seen)
		}
	}
}
