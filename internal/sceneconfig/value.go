package sceneconfig

import (
	"fmt"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/storage"
)

// ValueKind tags which field of Value is populated.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
	KindVec3
	KindInterval
	KindEnum
)

// Value is the typed-value union the scene grammar's keys assign (§6):
// signed 64-bit integer, 64-bit float, quoted string, 3-vector,
// interval, or an integer enumeration tag.
type Value struct {
	Kind ValueKind
	I    int64
	F    float64
	S    string
	Vec  geom.Vec
	Iv   storage.Interval
}

func Int(v int64) Value    { return Value{Kind: KindInt, I: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, F: v} }
func Str(v string) Value    { return Value{Kind: KindString, S: v} }
func Vec3(x, y, z float64) Value {
	return Value{Kind: KindVec3, Vec: geom.Vec{X: x, Y: y, Z: z}}
}
func IntervalValue(lo, hi float64) Value {
	return Value{Kind: KindInterval, Iv: storage.Interval{Lo: lo, Hi: hi}}
}
func Enum(v int64) Value { return Value{Kind: KindEnum, I: v} }

// AsFloat coerces an Int or Float value to float64, erroring on any
// other kind; convenience for numeric fields that accept either
// literal form.
func (v Value) AsFloat() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.F, nil
	case KindInt:
		return float64(v.I), nil
	default:
		return 0, fmt.Errorf("sceneconfig: value is not numeric (kind %d)", v.Kind)
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindString:
		return fmt.Sprintf("%q", v.S)
	case KindVec3:
		return fmt.Sprintf("(%g, %g, %g)", v.Vec.X, v.Vec.Y, v.Vec.Z)
	case KindInterval:
		return fmt.Sprintf("(%g, %g)", v.Iv.Lo, v.Iv.Hi)
	case KindEnum:
		return fmt.Sprintf("%d", v.I)
	default:
		return "<invalid>"
	}
}
