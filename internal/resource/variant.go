package resource

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// VariantTable is a closed mapping from wire tags to the members of one variant family.
// It is built once and never modified.
type VariantTable[K comparable, V any] struct {
	family  string
	entries map[K]V
}

// NewVariantTable copies entries into a table for the named family.
func NewVariantTable[K comparable, V any](family string, entries map[K]V) *VariantTable[K, V] {
	return &VariantTable[K, V]{family: family, entries: maps.Clone(entries)}
}

// Family returns the family name used in errors.
func (t *VariantTable[K, V]) Family() string {
	return t.family
}

// Lookup returns the member registered for tag, or a *VariantError.
func (t *VariantTable[K, V]) Lookup(tag K) (V, error) {
	v, ok := t.entries[tag]
	if !ok {
		var zero V
		return zero, &VariantError{Family: t.family, Tag: fmt.Sprint(tag)}
	}
	return v, nil
}

// Has reports whether tag is registered.
func (t *VariantTable[K, V]) Has(tag K) bool {
	_, ok := t.entries[tag]
	return ok
}

// SortedTags returns the registered tags of an ordered family in ascending order.
func SortedTags[K cmp.Ordered, V any](t *VariantTable[K, V]) []K {
	return slices.Sorted(maps.Keys(t.entries))
}
