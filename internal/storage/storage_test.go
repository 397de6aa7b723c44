package storage_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/storage"
)

type fakeMaterial struct{ name string }

func (m fakeMaterial) Name() string { return m.name }

var _ = Describe("Storage", func() {
	var s *storage.Storage

	BeforeEach(func() {
		s = storage.New()
		s.Resize(4)
	})

	It("inserts and retrieves a scalar quantity", func() {
		_, err := s.InsertScalar("density", 1, 1000.0, storage.Unique, storage.UnboundedInterval)
		Expect(err).NotTo(HaveOccurred())

		dens, err := s.GetScalar("density")
		Expect(err).NotTo(HaveOccurred())
		Expect(dens.Value).To(HaveLen(4))
		for _, v := range dens.Value {
			Expect(v).To(Equal(1000.0))
		}
	})

	It("upgrades a quantity's order in place without losing identity", func() {
		_, err := s.InsertScalar("energy", 0, 0, storage.Unique, storage.UnboundedInterval)
		Expect(err).NotTo(HaveOccurred())

		_, err = s.InsertScalar("energy", 1, 0, storage.Unique, storage.UnboundedInterval)
		Expect(err).NotTo(HaveOccurred())

		e, err := s.GetScalar("energy")
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Order()).To(Equal(1))
		Expect(e.Dt).To(HaveLen(4))
	})

	It("rejects a type-mismatched insert", func() {
		_, err := s.InsertScalar("position", 0, 0, storage.Unique, storage.UnboundedInterval)
		Expect(err).NotTo(HaveOccurred())

		_, err = s.InsertVector("position", 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval)
		var mismatch *storage.ErrTypeMismatch
		Expect(err).To(BeAssignableToTypeOf(mismatch))
	})

	It("round-trips through the generic Insert/GetValue accessors", func() {
		Expect(storage.Insert[float64](s, "mass", 0, 1.0, storage.Unique, storage.UnboundedInterval)).To(Succeed())

		vals, err := storage.GetValue[float64](s, "mass")
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(HaveLen(4))
	})

	It("zeroes only the highest declared derivative", func() {
		_, _ = s.InsertScalar("pressure", 0, 7.0, storage.Unique, storage.UnboundedInterval)
		pos, _ := s.InsertVector("position", 2, geom.Vec{X: 1}, storage.Unique, storage.UnboundedInterval)
		for i := range pos.D2t {
			pos.D2t[i] = geom.Vec{X: 9}
		}

		s.ZeroHighestDerivatives()

		p, _ := s.GetScalar("pressure")
		Expect(p.Value[0]).To(Equal(0.0), "order-0 quantity zeroes Value")

		pq, _ := s.GetVector("position")
		Expect(pq.Value[0].X).To(Equal(1.0), "order-2 quantity keeps Value intact")
		Expect(pq.D2t[0].X).To(Equal(0.0), "order-2 quantity zeroes D2t")
	})

	It("clones with the requested buffer filter", func() {
		q, _ := s.InsertScalar("energy", 2, 5.0, storage.Unique, storage.UnboundedInterval)
		q.Dt[0] = 1
		q.D2t[0] = 2

		clone := s.Clone(storage.CloneStateOnly)
		cq, err := clone.GetScalar("energy")
		Expect(err).NotTo(HaveOccurred())
		Expect(cq.Value[0]).To(Equal(5.0))
		Expect(cq.Dt[0]).To(Equal(0.0))
	})

	It("swaps the requested buffer subset between two compatible storages", func() {
		a := storage.New()
		a.Resize(2)
		qa, _ := a.InsertScalar("x", 1, 1.0, storage.Unique, storage.UnboundedInterval)
		qa.Dt[0] = 100

		b := storage.New()
		b.Resize(2)
		qb, _ := b.InsertScalar("x", 1, 2.0, storage.Unique, storage.UnboundedInterval)
		qb.Dt[0] = 200

		Expect(a.Swap(b, storage.SwapDt)).To(Succeed())

		ra, _ := a.GetScalar("x")
		rb, _ := b.GetScalar("x")
		Expect(ra.Dt[0]).To(Equal(200.0))
		Expect(ra.Value[0]).To(Equal(1.0), "SwapDt leaves Value untouched")
		Expect(rb.Dt[0]).To(Equal(100.0))
	})

	It("merges two storages and maintains the material-sorted invariant", func() {
		a := storage.New()
		mRock := fakeMaterial{"rock"}
		a.AddMaterial(mRock)
		a.Resize(2)
		qa, _ := a.InsertScalar("density", 0, 3000, storage.Unique, storage.UnboundedInterval)
		_ = qa

		b := storage.New()
		mIce := fakeMaterial{"ice"}
		b.AddMaterial(mIce)
		b.Resize(2)
		qb, _ := b.InsertScalar("density", 0, 900, storage.Unique, storage.UnboundedInterval)
		_ = qb

		Expect(a.Merge(b)).To(Succeed())
		Expect(a.Count()).To(Equal(4))
		Expect(a.Materials()).To(HaveLen(2))

		from, to := a.GetMaterialSequence(1)
		Expect(to - from).To(Equal(2))
	})

	It("removes particles and preserves relative order of the rest", func() {
		q, _ := s.InsertScalar("tag", 0, 0, storage.Unique, storage.UnboundedInterval)
		for i := range q.Value {
			q.Value[i] = float64(i)
		}

		s.Remove([]int{1})

		r, _ := s.GetScalar("tag")
		Expect(r.Value).To(Equal([]float64{0, 2, 3}))
		Expect(s.Count()).To(Equal(3))
	})

	It("reports non-positive smoothing length as an invariant violation", func() {
		_, err := s.InsertVector("position", 2, geom.Vec{H: -1}, storage.Unique, storage.UnboundedInterval)
		Expect(err).NotTo(HaveOccurred())

		violations := s.CheckInvariants()
		Expect(violations).NotTo(BeEmpty())
		Expect(violations[0].Kind).To(Equal("non-positive-h"))
	})

	It("never flags a constructor-built deviatoric stress as non-traceless", func() {
		tq, err := s.InsertTraceless("deviatoric_stress", 1, storage.Unique, storage.UnboundedInterval)
		Expect(err).NotTo(HaveOccurred())
		tq.Value[0] = geom.NewTracelessTensor(geom.SymTensor{XX: 1, YY: 2, ZZ: 3})

		violations := s.CheckInvariants()
		for _, v := range violations {
			Expect(v.Kind).NotTo(Equal("trace-nonzero"))
		}
	})
})
