// Package storage implements the named, typed, material-partitioned
// multi-buffer particle store the rest of the engine operates on.
//
// A [Storage] is an ordered mapping from quantity id to [Quantity], plus
// an ordered sequence of materials and a per-particle material-index
// array. Quantities are typed (scalar, vector, symmetric tensor,
// traceless tensor, index) and carry a derivative order: 0 (value only),
// 1 (value + rate), or 2 (value + rate + second derivative, used for
// position so x, v, a share one quantity).
//
// Heterogeneous quantities are dispatched by value-type tag rather than
// per-particle dynamic dispatch (see DESIGN.md "Heterogeneous quantities"
// note): [Visitor] is the tagged-union visitor, and the generic
// [GetValue], [GetDt], [GetD2t], [Insert] accessors are the typed,
// type-checked front door equivalent to the spec's insert<T>/getValue<T>
// template operations.
package storage
