package snapshot

import (
	"fmt"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/storage"
)

type kv struct {
	key   string
	value float64
}

// materialParams flattens a Material's EOS/rheology/fracture fields
// into key-value float64 records (§6), tagged with an eos kind string
// so readMaterial knows which EOS type to reconstruct.
func materialParams(mat *material.Material) (eosKind string, params []kv) {
	params = append(params, kv{"density0", mat.Density0()})

	switch eos := mat.EOS().(type) {
	case material.IdealGas:
		eosKind = "ideal_gas"
		params = append(params, kv{"gamma", eos.Gamma})
	case material.Murnaghan:
		eosKind = "murnaghan"
		params = append(params, kv{"k0", eos.K0}, kv{"n", eos.N})
	case material.Tillotson:
		eosKind = "tillotson"
		params = append(params,
			kv{"rho0", eos.Rho0}, kv{"a", eos.A}, kv{"b", eos.B},
			kv{"e0", eos.E0}, kv{"eiv", eos.EIV}, kv{"ecv", eos.ECV},
			kv{"alpha", eos.Alpha}, kv{"beta", eos.Beta},
			kv{"little_a", eos.Little_a}, kv{"little_b", eos.Little_b})
	default:
		eosKind = "ideal_gas"
		params = append(params, kv{"gamma", 1.4})
	}

	rh := mat.Rheology()
	params = append(params,
		kv{"y0", rh.Y0}, kv{"ym", rh.YM}, kv{"mu_i", rh.MuI}, kv{"mu_d", rh.MuD})

	fr := mat.Fracture()
	params = append(params,
		kv{"weibull_k", fr.WeibullK}, kv{"weibull_m", fr.WeibullM},
		kv{"n_flaws", float64(fr.NFlaws)}, kv{"rayleigh_sound_speed", fr.RayleighSoundSpeed})

	if iv := mat.Interval(equation.Energy); iv != storage.UnboundedInterval {
		params = append(params, kv{"energy_floor", iv.Lo})
	}
	if iv := mat.Interval(equation.Damage); iv != storage.UnboundedInterval {
		params = append(params, kv{"damage_lo", iv.Lo}, kv{"damage_hi", iv.Hi})
	}
	return eosKind, params
}

// materialFromParams is the inverse of materialParams.
func materialFromParams(name, eosKind string, params map[string]float64) (*material.Material, error) {
	rho0 := params["density0"]

	var eos material.EOS
	switch eosKind {
	case "ideal_gas":
		eos = material.IdealGas{Gamma: params["gamma"]}
	case "murnaghan":
		eos = material.Murnaghan{K0: params["k0"], N: params["n"]}
	case "tillotson":
		eos = material.Tillotson{
			Rho0: params["rho0"], A: params["a"], B: params["b"],
			E0: params["e0"], EIV: params["eiv"], ECV: params["ecv"],
			Alpha: params["alpha"], Beta: params["beta"],
			Little_a: params["little_a"], Little_b: params["little_b"],
		}
	default:
		return nil, fmt.Errorf("snapshot: unknown eos kind %q", eosKind)
	}

	mat := material.New(name, rho0, eos)
	mat.WithRheology(material.Rheology{
		Y0: params["y0"], YM: params["ym"], MuI: params["mu_i"], MuD: params["mu_d"],
	})
	mat.WithFracture(material.FractureParams{
		WeibullK: params["weibull_k"], WeibullM: params["weibull_m"],
		NFlaws: int(params["n_flaws"]), RayleighSoundSpeed: params["rayleigh_sound_speed"],
	})
	if floor, ok := params["energy_floor"]; ok {
		mat.SetInterval(equation.Energy, storage.Interval{Lo: floor, Hi: storage.UnboundedInterval.Hi})
	}
	if lo, ok := params["damage_lo"]; ok {
		mat.SetInterval(equation.Damage, storage.Interval{Lo: lo, Hi: params["damage_hi"]})
	}
	return mat, nil
}
