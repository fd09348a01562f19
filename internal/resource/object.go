package resource

// Object is the read/write contract every serializable entity implements.
//
// The context value is passed down exactly one nesting level. Each implementation
// documents the concrete context type it requires; NoContext is used where no
// disambiguation is needed.
type Object[C any] interface {
	Read(d *Decoder, ctx C) error
	Write(e *Encoder, ctx C) error
}

// NoContext is the context of objects that decode the same way everywhere.
type NoContext struct{}

// Ref constrains P to be a pointer to T implementing Object[C]. It lets generic
// helpers allocate fresh values of T.
type Ref[T any, C any] interface {
	*T
	Object[C]
}

// Container is a top-level object framed by its own descriptor.
type Container[C any] interface {
	Object[C]
	Descriptor() Descriptor
}

// ContainerRef constrains P to be a pointer to T implementing Container[C].
type ContainerRef[T any, C any] interface {
	*T
	Container[C]
}
