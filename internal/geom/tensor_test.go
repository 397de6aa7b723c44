package geom

import (
	"math"
	"testing"
)

func TestTracelessTensorInvariant(t *testing.T) {
	s := SymTensor{XX: 1, YY: 2, ZZ: 3, XY: 0.5, XZ: -0.2, YZ: 0.1}
	tr := NewTracelessTensor(s)

	if r := tr.TraceResidual(); r > 1e-12 {
		t.Errorf("traceless tensor trace residual too large: %.3e", r)
	}
}

func TestSymTensorEigenDecompose(t *testing.T) {
	// diag(1, 2, 3) has eigenvalues 1, 2, 3 with no off-diagonal coupling.
	s := SymTensor{XX: 1, YY: 2, ZZ: 3}
	values, _ := s.EigenDecompose()

	want := [3]float64{1, 2, 3}
	for i := range want {
		if math.Abs(values[i]-want[i]) > 1e-9 {
			t.Errorf("eigenvalue[%d] = %.6f, want %.6f", i, values[i], want[i])
		}
	}
}

func TestTensorDeterminantIdentity(t *testing.T) {
	id := Tensor{1, 0, 0, 0, 1, 0, 0, 0, 1}
	if d := id.Det(); math.Abs(d-1) > 1e-12 {
		t.Errorf("det(I) = %.6f, want 1", d)
	}
}

func TestJ2OfDiagonalDeviator(t *testing.T) {
	s := SymTensor{XX: 1, YY: 2, ZZ: 3}
	dev, p := s.Deviator()

	if r := dev.TraceResidual(); r > 1e-12 {
		t.Errorf("deviator trace residual too large: %.3e", r)
	}
	if math.Abs(p+2) > 1e-12 {
		t.Errorf("mean pressure = %.6f, want -2", p)
	}

	// J2 = 1/2 S:S for diag(-1, 0, 1) = (1+0+1)/2 = 1
	if math.Abs(dev.J2()-1) > 1e-9 {
		t.Errorf("J2 = %.6f, want 1", dev.J2())
	}
}

func TestDomainWrap(t *testing.T) {
	d := NewDomain(NewBox(Vec{0, 0, 0, 0}, Vec{10, 10, 10, 0}), [3]bool{true, true, true})
	p := Vec{10.5, -0.5, 5, 0}
	w := d.Wrap(p)

	if math.Abs(w.X-0.5) > 1e-9 || math.Abs(w.Y-9.5) > 1e-9 || math.Abs(w.Z-5) > 1e-9 {
		t.Errorf("wrap(%v) = %v, want {0.5 9.5 5}", p, w)
	}
}

func TestBoxProjectClampsToBoundary(t *testing.T) {
	b := NewBox(Vec{0, 0, 0, 0}, Vec{1, 1, 1, 0})
	p := Vec{2, -1, 0.5, 0}
	proj := b.Project(p)
	want := Vec{1, 0, 0.5, 0}
	if proj != want {
		t.Errorf("Project(%v) = %v, want %v", p, proj, want)
	}
}
