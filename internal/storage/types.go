package storage

import (
	"fmt"
	"math"
)

// QuantityID names a particle attribute (e.g. "position", "density").
type QuantityID string

// ValueKind tags the value type of a quantity, used for runtime dispatch
// instead of per-particle dynamic dispatch (§9 design note).
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindVector
	KindSymTensor
	KindTraceless
	KindIndex
)

func (k ValueKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindSymTensor:
		return "symtensor"
	case KindTraceless:
		return "traceless"
	case KindIndex:
		return "index"
	default:
		return "unknown"
	}
}

// AllocMode distinguishes accumulator buffers multiple derivatives may
// additively contribute to (Shared) from single-writer buffers (Unique).
type AllocMode int

const (
	Unique AllocMode = iota
	Shared
)

// Interval is an allowed value range; quantities are clamped into it
// after each integration step.
type Interval struct {
	Lo, Hi float64
}

func (iv Interval) Clamp(v float64) float64 {
	if v < iv.Lo {
		return iv.Lo
	}
	if v > iv.Hi {
		return iv.Hi
	}
	return v
}

// UnboundedInterval never clamps.
var UnboundedInterval = Interval{Lo: math.Inf(-1), Hi: math.Inf(1)}

// CloneFilter selects which buffers a Clone operation copies.
type CloneFilter int

const (
	// CloneAllBuffers copies value, first, and second derivative buffers.
	CloneAllBuffers CloneFilter = iota
	// CloneStateOnly copies only the value buffer.
	CloneStateOnly
	// CloneHighestDerivativesOnly copies only the highest-order derivative
	// buffer each quantity carries (what the derivative pipeline writes).
	CloneHighestDerivativesOnly
)

// BufferSubset selects which buffers a Swap operation exchanges.
type BufferSubset int

const (
	SwapAll BufferSubset = iota
	SwapValue
	SwapDt
	SwapD2t
)

// ErrTypeMismatch is returned by the typed accessors when a quantity
// exists under a different value type or order than requested.
type ErrTypeMismatch struct {
	ID       QuantityID
	Got      ValueKind
	Want     ValueKind
	GotOrder int
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("storage: quantity %q has kind %s (order %d), want %s", e.ID, e.Got, e.GotOrder, e.Want)
}

// ErrNotFound is returned when a quantity id is not present.
type ErrNotFound struct{ ID QuantityID }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("storage: quantity %q not found", e.ID) }

// ErrCountMismatch describes a particle count that disagrees with the
// storage's existing count. No function in this package returns it: the
// Insert* methods size every new quantity to the current count.
type ErrCountMismatch struct {
	Existing, Got int
}

func (e *ErrCountMismatch) Error() string {
	return fmt.Sprintf("storage: particle count mismatch: existing %d, got %d", e.Existing, e.Got)
}
