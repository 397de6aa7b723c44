package geom

import "math"

// TracelessTensor is a symmetric 3x3 tensor with the representation
// invariant trace = 0, used for the deviatoric stress S (GLOSSARY).
// The zero value is the zero tensor and satisfies the invariant.
type TracelessTensor struct {
	sym SymTensor
}

// NewTracelessTensor projects s onto the traceless subspace by
// subtracting its mean diagonal, so the constructor always returns a
// value satisfying trace == 0.
func NewTracelessTensor(s SymTensor) TracelessTensor {
	mean := s.Trace() / 3.0
	return TracelessTensor{SymTensor{
		XX: s.XX - mean, YY: s.YY - mean, ZZ: s.ZZ - mean,
		XY: s.XY, XZ: s.XZ, YZ: s.YZ,
	}}
}

func (t TracelessTensor) Sym() SymTensor { return t.sym }

func (t TracelessTensor) Trace() float64 { return t.sym.Trace() }

// TraceResidual returns |trace| for invariant checking: §8 requires
// trace = 0 within 10*eps*max|diag|.
func (t TracelessTensor) TraceResidual() float64 { return math.Abs(t.sym.Trace()) }

func (t TracelessTensor) Add(o TracelessTensor) TracelessTensor {
	return TracelessTensor{t.sym.Add(o.sym)}
}

func (t TracelessTensor) Scale(k float64) TracelessTensor {
	return TracelessTensor{t.sym.Scale(k)}
}

func (t TracelessTensor) DoubleDot(o TracelessTensor) float64 { return t.sym.DoubleDot(o.sym) }

// J2 returns the second stress invariant J2 = 1/2 S:S used by the von
// Mises / Drucker-Prager yield checks (§4.5).
func (t TracelessTensor) J2() float64 { return 0.5 * t.sym.DoubleDot(t.sym) }

func (t TracelessTensor) EigenDecompose() ([3]float64, Tensor) { return t.sym.EigenDecompose() }

func (t TracelessTensor) IsFinite() bool { return t.sym.IsFinite() }
