// Package field implements the FLDS field scene container.
//
// A field is a tree of transform nodes. Each node may carry one placeable resource: a
// model instance, a light, a trigger volume, a camera or a whole embedded model pack.
//
//	FLDS/0100:
//	  [ref name (PrefixedLength16)][u32 flags][ref root node (16)]
//	  [u32 resource count][ref resource names (offset table of null terminated strings)]
//
//	Node:
//	  [ref name][Vec3 position][Vec3 rotation][Vec3 scale]
//	  [ref placeable (16)][u32 child count][ref children (offset table, 16)]
//
// Embedded model packs are complete MDLP containers with their own offset base.
package field
