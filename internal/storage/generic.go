package storage

import "github.com/impactsim/sphcore/internal/geom"

// Value is the set of concrete per-particle value types storage can hold.
// It backs the generic typed accessors below, the Go-native counterpart
// to the spec's insert<T>/getValue<T> template operations.
type Value interface {
	float64 | geom.Vec | geom.SymTensor | geom.TracelessTensor | int
}

// Insert declares (or order-upgrades) a quantity of type T, dispatching
// to the matching concrete constructor. order is ignored for T=int
// (index quantities are always order 0).
func Insert[T Value](s *Storage, id QuantityID, order int, init T, mode AllocMode, iv Interval) error {
	switch z := any(init).(type) {
	case float64:
		_, err := s.InsertScalar(id, order, z, mode, iv)
		return err
	case geom.Vec:
		_, err := s.InsertVector(id, order, z, mode, iv)
		return err
	case geom.SymTensor:
		_, err := s.InsertSymTensor(id, order, mode, iv)
		return err
	case geom.TracelessTensor:
		_, err := s.InsertTraceless(id, order, mode, iv)
		return err
	case int:
		_, err := s.InsertIndex(id, z, mode)
		return err
	default:
		panic("storage: unreachable Value constraint case")
	}
}

// GetValue returns the value buffer of a type-T quantity, type-checked
// against both value kind and T.
func GetValue[T Value](s *Storage, id QuantityID) ([]T, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	switch any(*new(T)).(type) {
	case float64:
		sq, ok := q.(*ScalarQuantity)
		if !ok {
			return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindScalar}
		}
		return any(sq.Value).([]T), nil
	case geom.Vec:
		vq, ok := q.(*VectorQuantity)
		if !ok {
			return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindVector}
		}
		return any(vq.Value).([]T), nil
	case geom.SymTensor:
		tq, ok := q.(*SymTensorQuantity)
		if !ok {
			return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindSymTensor}
		}
		return any(tq.Value).([]T), nil
	case geom.TracelessTensor:
		tq, ok := q.(*TracelessQuantity)
		if !ok {
			return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindTraceless}
		}
		return any(tq.Value).([]T), nil
	case int:
		iq, ok := q.(*IndexQuantity)
		if !ok {
			return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindIndex}
		}
		return any(iq.Value).([]T), nil
	default:
		panic("storage: unreachable Value constraint case")
	}
}

// GetDt returns the first-derivative buffer of a type-T quantity. The
// quantity must have order >= 1.
func GetDt[T Value](s *Storage, id QuantityID) ([]T, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if q.Order() < 1 {
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: q.Kind(), GotOrder: q.Order()}
	}
	switch any(*new(T)).(type) {
	case float64:
		sq := q.(*ScalarQuantity)
		return any(sq.Dt).([]T), nil
	case geom.Vec:
		vq := q.(*VectorQuantity)
		return any(vq.Dt).([]T), nil
	case geom.SymTensor:
		tq := q.(*SymTensorQuantity)
		return any(tq.Dt).([]T), nil
	case geom.TracelessTensor:
		tq := q.(*TracelessQuantity)
		return any(tq.Dt).([]T), nil
	default:
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: q.Kind()}
	}
}

// GetD2t returns the second-derivative buffer of a type-T quantity. Only
// scalar and vector quantities may carry order 2.
func GetD2t[T Value](s *Storage, id QuantityID) ([]T, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if q.Order() < 2 {
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: q.Kind(), GotOrder: q.Order()}
	}
	switch any(*new(T)).(type) {
	case float64:
		sq := q.(*ScalarQuantity)
		return any(sq.D2t).([]T), nil
	case geom.Vec:
		vq := q.(*VectorQuantity)
		return any(vq.D2t).([]T), nil
	default:
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: q.Kind()}
	}
}
