// Package material implements the equation-of-state, rheology, and
// fracture parameterizations a [Material] packages together, plus the
// per-quantity reference values and allowed intervals storage clamps
// to (§4.5, §4.1).
package material

import "math"

// EOS computes pressure and sound speed from density and specific
// internal energy.
type EOS interface {
	Pressure(rho, rho0, u float64) float64
	SoundSpeed(rho, rho0, u, p float64) float64
}

// IdealGas is p = (gamma-1) * rho * u.
type IdealGas struct {
	Gamma float64
}

func (g IdealGas) Pressure(rho, rho0, u float64) float64 {
	return (g.Gamma - 1) * rho * u
}

func (g IdealGas) SoundSpeed(rho, rho0, u, p float64) float64 {
	if rho <= 0 {
		return 0
	}
	return math.Sqrt(g.Gamma * p / rho)
}

// Murnaghan is the simple compressed-solid EOS p = (K0/N) * ((rho/rho0)^N - 1).
type Murnaghan struct {
	K0 float64 // bulk modulus
	N  float64 // pressure derivative of bulk modulus
}

func (m Murnaghan) Pressure(rho, rho0, u float64) float64 {
	if rho0 <= 0 {
		return 0
	}
	eta := rho / rho0
	return (m.K0 / m.N) * (math.Pow(eta, m.N) - 1)
}

func (m Murnaghan) SoundSpeed(rho, rho0, u, p float64) float64 {
	if rho0 <= 0 || rho <= 0 {
		return 0
	}
	eta := rho / rho0
	// c^2 = dp/drho = (K0/rho0) * eta^(N-1)
	return math.Sqrt((m.K0 / rho0) * math.Pow(eta, m.N-1))
}

// Tillotson implements the Tillotson (1962) EOS used for impact and
// hypervelocity problems, blending a compressed branch and an expanded
// (partially vaporized) branch around the reference density.
type Tillotson struct {
	Rho0          float64
	A, B          float64
	E0            float64 // specific energy normalization
	EIV           float64 // incipient vaporization energy
	ECV           float64 // complete vaporization energy
	Alpha, Beta   float64
	Little_a      float64 // "a" coefficient (first compressed term)
	Little_b      float64 // "b" coefficient (second compressed term)
}

func (tl Tillotson) Pressure(rho, rho0, u float64) float64 {
	if rho0 <= 0 {
		rho0 = tl.Rho0
	}
	eta := rho / rho0
	mu := eta - 1

	compressed := func() float64 {
		term := tl.Little_a + tl.Little_b/(u/tl.E0+1)
		return term*rho*u + tl.A*mu + tl.B*mu*mu
	}

	switch {
	case rho >= rho0 || u < tl.EIV:
		return compressed()
	case u > tl.ECV:
		expTerm1 := math.Exp(-tl.Alpha * sq(rho0/rho-1))
		expTerm2 := math.Exp(-tl.Beta * (rho0/rho - 1))
		term := tl.Little_a*rho*u + (tl.Little_b*rho*u/(u/tl.E0+1)+tl.A*mu*math.Exp(1))*expTerm2
		return term * expTerm1
	default:
		pc := compressed()
		expTerm1 := math.Exp(-tl.Alpha * sq(rho0/rho-1))
		expTerm2 := math.Exp(-tl.Beta * (rho0/rho - 1))
		pe := (tl.Little_a*rho*u + (tl.Little_b*rho*u/(u/tl.E0+1)+tl.A*mu*math.Exp(1))*expTerm2) * expTerm1
		w := (u - tl.EIV) / (tl.ECV - tl.EIV)
		return (1-w)*pc + w*pe
	}
}

func (tl Tillotson) SoundSpeed(rho, rho0, u, p float64) float64 {
	if rho <= 0 {
		return 0
	}
	// Finite-difference bulk modulus K = rho * dp/drho, sound speed
	// c = sqrt(K/rho); avoids hand-deriving the branch-wise analytic
	// derivative of the blended Tillotson pressure surface above.
	const drho = 1e-6
	r0 := rho0
	if r0 <= 0 {
		r0 = tl.Rho0
	}
	pPlus := tl.Pressure(rho*(1+drho), r0, u)
	pMinus := tl.Pressure(rho*(1-drho), r0, u)
	dpdrho := (pPlus - pMinus) / (2 * rho * drho)
	if dpdrho < 0 {
		dpdrho = 0
	}
	return math.Sqrt(dpdrho)
}

func sq(x float64) float64 { return x * x }
