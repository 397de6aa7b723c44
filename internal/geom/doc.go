// Package geom provides the geometric primitives the rest of the engine
// is built on: a 4-wide vector (position/velocity plus a smoothing-length
// slot), three tensor representations, and volumetric shapes.
//
//   - [Vec]: 4-component SIMD-friendly vector; component 3 carries the
//     smoothing length h for position vectors.
//   - [Tensor], [SymTensor], [TracelessTensor]: general, symmetric, and
//     traceless-symmetric 3x3 tensors with explicit conversions.
//   - [Box], [Sphere], [Domain]: bounding volumes with containment,
//     intersection, and projection queries.
package geom
