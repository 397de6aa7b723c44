package storage

import (
	"fmt"
	"sort"

	"github.com/impactsim/sphcore/internal/geom"
)

// Material is the minimal contract Storage needs from a material: its
// ordinal identity for the material-index array. The concrete
// constitutive behavior lives in package material, kept decoupled from
// storage to avoid an import cycle (material never needs to import
// storage's internal quantity representation).
type Material interface {
	Name() string
}

const materialQuantityID QuantityID = "__material_index"

// Storage is the ordered, typed, material-partitioned particle store
// (§3 Storage, §4.1).
type Storage struct {
	order      []QuantityID
	quantities map[QuantityID]Quantity
	materials  []Material
	count      int
}

// New creates an empty storage with no particles and no quantities yet.
func New() *Storage {
	return &Storage{quantities: make(map[QuantityID]Quantity)}
}

// Count returns the current particle count.
func (s *Storage) Count() int { return s.count }

// Materials returns the ordered material sequence.
func (s *Storage) Materials() []Material { return s.materials }

// AddMaterial appends a material and returns its index.
func (s *Storage) AddMaterial(m Material) int {
	s.materials = append(s.materials, m)
	return len(s.materials) - 1
}

func (s *Storage) ensureMaterialQuantity(n int) *IndexQuantity {
	q, ok := s.quantities[materialQuantityID]
	if !ok {
		iq := newIndexQuantity(materialQuantityID, n, 0, Unique)
		s.quantities[materialQuantityID] = iq
		s.order = append(s.order, materialQuantityID)
		return iq
	}
	return q.(*IndexQuantity)
}

// MaterialIndex returns the per-particle material-index buffer.
func (s *Storage) MaterialIndex() []int {
	q, ok := s.quantities[materialQuantityID]
	if !ok {
		return nil
	}
	return q.(*IndexQuantity).Value
}

// GetMaterialSequence returns the contiguous particle index range
// [from, to) belonging to materialIndex, since materials are stored in
// sorted-particle order (§4.1).
func (s *Storage) GetMaterialSequence(materialIndex int) (from, to int) {
	mi := s.MaterialIndex()
	from, to = -1, -1
	for i, m := range mi {
		if m == materialIndex {
			if from == -1 {
				from = i
			}
			to = i + 1
		} else if from != -1 {
			break
		}
	}
	if from == -1 {
		return 0, 0
	}
	return from, to
}

// Has reports whether a quantity id exists.
func (s *Storage) Has(id QuantityID) bool {
	_, ok := s.quantities[id]
	return ok
}

// Order returns quantity ids in insertion order.
func (s *Storage) Order() []QuantityID { return append([]QuantityID(nil), s.order...) }

func (s *Storage) insertGeneric(id QuantityID, order int, kind ValueKind, build func(n int) Quantity) (Quantity, error) {
	if existing, ok := s.quantities[id]; ok {
		if existing.Kind() != kind {
			return nil, &ErrTypeMismatch{ID: id, Got: existing.Kind(), Want: kind, GotOrder: existing.Order()}
		}
		if existing.Order() < order {
			upgraded := build(existing.Len())
			s.quantities[id] = upgraded
			return upgraded, nil
		}
		return existing, nil
	}
	n := s.count
	q := build(n)
	s.quantities[id] = q
	s.order = append(s.order, id)
	return q, nil
}

// InsertScalar declares (or upgrades the order of) a scalar quantity.
func (s *Storage) InsertScalar(id QuantityID, order int, init float64, mode AllocMode, iv Interval) (*ScalarQuantity, error) {
	q, err := s.insertGeneric(id, order, KindScalar, func(n int) Quantity {
		return newScalarQuantity(id, order, n, init, mode, iv)
	})
	if err != nil {
		return nil, err
	}
	return q.(*ScalarQuantity), nil
}

// InsertVector declares (or upgrades) a vector quantity (order 2 for
// position: value/velocity/acceleration).
func (s *Storage) InsertVector(id QuantityID, order int, init geom.Vec, mode AllocMode, iv Interval) (*VectorQuantity, error) {
	q, err := s.insertGeneric(id, order, KindVector, func(n int) Quantity {
		return newVectorQuantity(id, order, n, init, mode, iv)
	})
	if err != nil {
		return nil, err
	}
	return q.(*VectorQuantity), nil
}

// InsertSymTensor declares (or upgrades) a symmetric-tensor quantity.
func (s *Storage) InsertSymTensor(id QuantityID, order int, mode AllocMode, iv Interval) (*SymTensorQuantity, error) {
	q, err := s.insertGeneric(id, order, KindSymTensor, func(n int) Quantity {
		return newSymTensorQuantity(id, order, n, mode, iv)
	})
	if err != nil {
		return nil, err
	}
	return q.(*SymTensorQuantity), nil
}

// InsertTraceless declares (or upgrades) a traceless-tensor quantity
// (deviatoric stress S).
func (s *Storage) InsertTraceless(id QuantityID, order int, mode AllocMode, iv Interval) (*TracelessQuantity, error) {
	q, err := s.insertGeneric(id, order, KindTraceless, func(n int) Quantity {
		return newTracelessQuantity(id, order, n, mode, iv)
	})
	if err != nil {
		return nil, err
	}
	return q.(*TracelessQuantity), nil
}

// InsertIndex declares an index quantity.
func (s *Storage) InsertIndex(id QuantityID, init int, mode AllocMode) (*IndexQuantity, error) {
	q, err := s.insertGeneric(id, 0, KindIndex, func(n int) Quantity {
		return newIndexQuantity(id, n, init, mode)
	})
	if err != nil {
		return nil, err
	}
	return q.(*IndexQuantity), nil
}

// Get returns the raw Quantity handle for id.
func (s *Storage) Get(id QuantityID) (Quantity, error) {
	q, ok := s.quantities[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	return q, nil
}

// GetScalar is the type-checked scalar accessor.
func (s *Storage) GetScalar(id QuantityID) (*ScalarQuantity, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sq, ok := q.(*ScalarQuantity)
	if !ok {
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindScalar, GotOrder: q.Order()}
	}
	return sq, nil
}

// GetVector is the type-checked vector accessor.
func (s *Storage) GetVector(id QuantityID) (*VectorQuantity, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	vq, ok := q.(*VectorQuantity)
	if !ok {
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindVector, GotOrder: q.Order()}
	}
	return vq, nil
}

// GetSymTensor is the type-checked symmetric-tensor accessor.
func (s *Storage) GetSymTensor(id QuantityID) (*SymTensorQuantity, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	tq, ok := q.(*SymTensorQuantity)
	if !ok {
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindSymTensor, GotOrder: q.Order()}
	}
	return tq, nil
}

// GetTraceless is the type-checked traceless-tensor accessor.
func (s *Storage) GetTraceless(id QuantityID) (*TracelessQuantity, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	tq, ok := q.(*TracelessQuantity)
	if !ok {
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindTraceless, GotOrder: q.Order()}
	}
	return tq, nil
}

// GetIndex is the type-checked index accessor.
func (s *Storage) GetIndex(id QuantityID) (*IndexQuantity, error) {
	q, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	iq, ok := q.(*IndexQuantity)
	if !ok {
		return nil, &ErrTypeMismatch{ID: id, Got: q.Kind(), Want: KindIndex, GotOrder: q.Order()}
	}
	return iq, nil
}

// Resize grows or shrinks every quantity (and the material-index array)
// to n particles, consistently.
func (s *Storage) Resize(n int) {
	s.ensureMaterialQuantity(n)
	for _, id := range s.order {
		s.quantities[id].resize(n)
	}
	s.count = n
}

// ZeroHighestDerivatives resets the outputs of the derivative pipeline
// to an additive identity at the start of each sub-step (§4.1).
func (s *Storage) ZeroHighestDerivatives() {
	for _, id := range s.order {
		if id == materialQuantityID {
			continue
		}
		s.quantities[id].zeroHighestDerivative()
	}
}

// ClampToIntervals clamps every quantity's value buffer into its
// material-defined allowed interval, called once per integration step.
func (s *Storage) ClampToIntervals() {
	for _, id := range s.order {
		s.quantities[id].clampToInterval()
	}
}

// Clone returns a new Storage with the same quantity set, material
// list, and particle count, copying buffers per filter.
func (s *Storage) Clone(filter CloneFilter) *Storage {
	out := New()
	out.count = s.count
	out.materials = append([]Material(nil), s.materials...)
	for _, id := range s.order {
		out.quantities[id] = s.quantities[id].cloneFiltered(filter)
		out.order = append(out.order, id)
	}
	return out
}

// Swap exchanges the selected buffer subset with another storage of
// matching quantity structure.
func (s *Storage) Swap(other *Storage, subset BufferSubset) error {
	if len(s.order) != len(other.order) {
		return fmt.Errorf("storage: swap requires matching quantity sets (%d vs %d)", len(s.order), len(other.order))
	}
	for _, id := range s.order {
		oq, ok := other.quantities[id]
		if !ok {
			return &ErrNotFound{ID: id}
		}
		if err := s.quantities[id].swapBuffers(oq, subset); err != nil {
			return err
		}
	}
	return nil
}

// Merge concatenates another storage's particles onto the end of s,
// renumbering material indices and concatenating the material lists.
// Both storages must declare the same quantity set.
func (s *Storage) Merge(other *Storage) error {
	if s.count == 0 && len(s.order) == 0 {
		*s = *other.Clone(CloneAllBuffers)
		return nil
	}
	offset := len(s.materials)
	for _, id := range s.order {
		if id == materialQuantityID {
			continue
		}
		oq, ok := other.quantities[id]
		if !ok {
			return &ErrNotFound{ID: id}
		}
		if err := mergeQuantity(s.quantities[id], oq); err != nil {
			return err
		}
	}
	mi := s.ensureMaterialQuantity(s.count)
	omi, ok := other.quantities[materialQuantityID]
	if ok {
		for _, v := range omi.(*IndexQuantity).Value {
			mi.Value = append(mi.Value, v+offset)
		}
	} else {
		for i := 0; i < other.count; i++ {
			mi.Value = append(mi.Value, offset)
		}
	}
	s.materials = append(s.materials, other.materials...)
	s.count += other.count
	s.reorderByMaterial()
	return nil
}

func mergeQuantity(a, b Quantity) error {
	switch av := a.(type) {
	case *ScalarQuantity:
		bv, ok := b.(*ScalarQuantity)
		if !ok {
			return &ErrTypeMismatch{ID: a.ID(), Got: b.Kind(), Want: KindScalar}
		}
		av.Value = append(av.Value, bv.Value...)
		if av.order >= 1 {
			av.Dt = append(av.Dt, bv.Dt...)
		}
		if av.order >= 2 {
			av.D2t = append(av.D2t, bv.D2t...)
		}
	case *VectorQuantity:
		bv, ok := b.(*VectorQuantity)
		if !ok {
			return &ErrTypeMismatch{ID: a.ID(), Got: b.Kind(), Want: KindVector}
		}
		av.Value = append(av.Value, bv.Value...)
		if av.order >= 1 {
			av.Dt = append(av.Dt, bv.Dt...)
		}
		if av.order >= 2 {
			av.D2t = append(av.D2t, bv.D2t...)
		}
	case *SymTensorQuantity:
		bv, ok := b.(*SymTensorQuantity)
		if !ok {
			return &ErrTypeMismatch{ID: a.ID(), Got: b.Kind(), Want: KindSymTensor}
		}
		av.Value = append(av.Value, bv.Value...)
		if av.order >= 1 {
			av.Dt = append(av.Dt, bv.Dt...)
		}
	case *TracelessQuantity:
		bv, ok := b.(*TracelessQuantity)
		if !ok {
			return &ErrTypeMismatch{ID: a.ID(), Got: b.Kind(), Want: KindTraceless}
		}
		av.Value = append(av.Value, bv.Value...)
		if av.order >= 1 {
			av.Dt = append(av.Dt, bv.Dt...)
		}
	case *IndexQuantity:
		bv, ok := b.(*IndexQuantity)
		if !ok {
			return &ErrTypeMismatch{ID: a.ID(), Got: b.Kind(), Want: KindIndex}
		}
		av.Value = append(av.Value, bv.Value...)
	default:
		return fmt.Errorf("storage: merge: unsupported quantity type for %q", a.ID())
	}
	return nil
}

// Remove deletes the given particle indices, preserving the relative
// order of the rest, and keeps the material sort invariant.
func (s *Storage) Remove(indices []int) {
	if len(indices) == 0 {
		return
	}
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	for _, id := range s.order {
		s.quantities[id].removeIndices(sorted)
	}
	s.count -= len(sorted)
}

// reorderByMaterial stable-sorts every buffer so particles are grouped
// by ascending material index, restoring the §4.1 sorted-particle-order
// invariant after a Merge.
func (s *Storage) reorderByMaterial() {
	mi := s.MaterialIndex()
	if len(mi) == 0 {
		return
	}
	perm := make([]int, len(mi))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return mi[perm[a]] < mi[perm[b]] })

	identity := true
	for i, p := range perm {
		if i != p {
			identity = false
			break
		}
	}
	if identity {
		return
	}
	for _, id := range s.order {
		permuteQuantity(s.quantities[id], perm)
	}
}

func permuteQuantity(q Quantity, perm []int) {
	switch v := q.(type) {
	case *ScalarQuantity:
		v.Value = permuteF(v.Value, perm)
		if v.order >= 1 {
			v.Dt = permuteF(v.Dt, perm)
		}
		if v.order >= 2 {
			v.D2t = permuteF(v.D2t, perm)
		}
	case *VectorQuantity:
		v.Value = permuteV(v.Value, perm)
		if v.order >= 1 {
			v.Dt = permuteV(v.Dt, perm)
		}
		if v.order >= 2 {
			v.D2t = permuteV(v.D2t, perm)
		}
	case *SymTensorQuantity:
		v.Value = permuteSym(v.Value, perm)
		if v.order >= 1 {
			v.Dt = permuteSym(v.Dt, perm)
		}
	case *TracelessQuantity:
		v.Value = permuteTrl(v.Value, perm)
		if v.order >= 1 {
			v.Dt = permuteTrl(v.Dt, perm)
		}
	case *IndexQuantity:
		v.Value = permuteI(v.Value, perm)
	}
}

func permuteF(s []float64, perm []int) []float64 {
	out := make([]float64, len(perm))
	for i, p := range perm {
		out[i] = s[p]
	}
	return out
}

func permuteV(s []geom.Vec, perm []int) []geom.Vec {
	out := make([]geom.Vec, len(perm))
	for i, p := range perm {
		out[i] = s[p]
	}
	return out
}

func permuteSym(s []geom.SymTensor, perm []int) []geom.SymTensor {
	out := make([]geom.SymTensor, len(perm))
	for i, p := range perm {
		out[i] = s[p]
	}
	return out
}

func permuteTrl(s []geom.TracelessTensor, perm []int) []geom.TracelessTensor {
	out := make([]geom.TracelessTensor, len(perm))
	for i, p := range perm {
		out[i] = s[p]
	}
	return out
}

func permuteI(s []int, perm []int) []int {
	out := make([]int, len(perm))
	for i, p := range perm {
		out[i] = s[p]
	}
	return out
}

// Iterate applies v to every quantity in insertion order, dispatching
// on value-type tag.
func (s *Storage) Iterate(v Visitor) {
	for _, id := range s.order {
		s.quantities[id].accept(id, v)
	}
}

// CheckInvariants verifies the §3/§8 per-particle invariants: smoothing
// length h>0, traceless tensors stay traceless, and finite values in the
// position vector and in scalar Value buffers (other vector and tensor
// quantities, and derivative buffers, are not checked for finiteness).
// It returns the indices of offending particles per failing quantity,
// used by the §7 diagnostics pass rather than panicking in release mode.
func (s *Storage) CheckInvariants() []InvariantViolation {
	var violations []InvariantViolation
	for _, id := range s.order {
		q := s.quantities[id]
		switch tq := q.(type) {
		case *VectorQuantity:
			if id == PositionID {
				for i, v := range tq.Value {
					if v.H <= 0 {
						violations = append(violations, InvariantViolation{Quantity: id, Particle: i, Kind: "non-positive-h"})
					}
					if !v.IsFinite() {
						violations = append(violations, InvariantViolation{Quantity: id, Particle: i, Kind: "non-finite"})
					}
				}
			}
		case *ScalarQuantity:
			if !tq.IsFinite() {
				for i, v := range tq.Value {
					if isNonFinite(v) {
						violations = append(violations, InvariantViolation{Quantity: id, Particle: i, Kind: "non-finite"})
					}
				}
			}
		case *TracelessQuantity:
			for i, v := range tq.Value {
				if v.TraceResidual() > 1e-6 {
					violations = append(violations, InvariantViolation{Quantity: id, Particle: i, Kind: "trace-nonzero"})
				}
			}
		}
	}
	return violations
}

func isNonFinite(v float64) bool { return v != v || v > maxFinite || v < -maxFinite }

const maxFinite = 1.0e300

// InvariantViolation names the offending particle and kind tag the §7
// diagnostics pipeline records instead of aborting in release mode.
type InvariantViolation struct {
	Quantity QuantityID
	Particle int
	Kind     string
}

// PositionID is the canonical quantity id for the order-2 position
// vector (x, v, a) whose 4th lane carries the smoothing length h.
const PositionID QuantityID = "position"
