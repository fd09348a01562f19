// Package model implements the MDLP model pack container.
//
// A model pack holds meshes made of geometry batches, an optional skeleton and a material
// table:
//
//	MDLP/0100:
//	  [u32 flags][f32 scale][Vec3 bounds min][Vec3 bounds max]
//	  [ref name (null terminated)]
//	  [ref skeleton (16)]
//	  [u32 mesh count][ref meshes (16)]
//	  [u32 material count][ref materials (4)]
//
// Geometry batches are a closed variant family keyed by a u32 tag: empty, indexed,
// triangle strips and skinned.
package model
