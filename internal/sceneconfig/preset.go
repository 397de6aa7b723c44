package sceneconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MaterialPreset is a named, reusable material parameterization, the
// role the teacher's config.Presets table fills for per-model run
// configs, generalized to this engine's EOS/rheology/fracture fields.
type MaterialPreset struct {
	Name      string  `yaml:"name"`
	EOSKind   string  `yaml:"eos_kind"` // "ideal_gas" | "murnaghan" | "tillotson"
	Density0  float64 `yaml:"density0"`
	Gamma     float64 `yaml:"gamma,omitempty"`
	K0        float64 `yaml:"k0,omitempty"`
	N         float64 `yaml:"n,omitempty"`

	Y0  float64 `yaml:"y0,omitempty"`
	YM  float64 `yaml:"ym,omitempty"`
	MuI float64 `yaml:"mu_i,omitempty"`
	MuD float64 `yaml:"mu_d,omitempty"`

	WeibullK           float64 `yaml:"weibull_k,omitempty"`
	WeibullM           float64 `yaml:"weibull_m,omitempty"`
	NFlaws             int     `yaml:"n_flaws,omitempty"`
	RayleighSoundSpeed float64 `yaml:"rayleigh_sound_speed,omitempty"`
}

// Presets holds the built-in material library, keyed by name, the same
// shape as the teacher's per-model Presets map but flat since materials
// aren't grouped by simulated system the way models are.
var Presets = map[string]MaterialPreset{
	"basalt": {
		Name: "basalt", EOSKind: "tillotson", Density0: 2700,
		Y0: 1e7, YM: 3.5e9, MuI: 1.5, MuD: 0.6,
		WeibullK: 4e29, WeibullM: 9, NFlaws: 100, RayleighSoundSpeed: 5000,
	},
	"granite": {
		Name: "granite", EOSKind: "tillotson", Density0: 2650,
		Y0: 1.5e7, YM: 3.0e9, MuI: 1.4, MuD: 0.55,
		WeibullK: 4e29, WeibullM: 9, NFlaws: 100, RayleighSoundSpeed: 4800,
	},
	"ideal_gas": {
		Name: "ideal_gas", EOSKind: "ideal_gas", Density0: 1.0, Gamma: 1.4,
	},
	"water": {
		Name: "water", EOSKind: "murnaghan", Density0: 1000, K0: 2.15e9, N: 7,
	},
}

// LoadMaterialPresets reads a yaml document containing a list of
// MaterialPreset entries, for operators who want to override or extend
// the built-in library without recompiling.
func LoadMaterialPresets(path string) ([]MaterialPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sceneconfig: read material presets: %w", err)
	}
	var presets []MaterialPreset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("sceneconfig: parse material presets: %w", err)
	}
	return presets, nil
}

// RunMetadata is the yaml sidecar a completed run is tagged with,
// generalizing the teacher's storage.RunMetadata (there JSON-encoded)
// to this engine's run shape: particle count and run type instead of
// a flat state vector, plus the same identifying/timing fields.
type RunMetadata struct {
	ID         string             `yaml:"id"`
	RunType    string             `yaml:"run_type"` // "sph" | "nbody"
	Timestamp  time.Time          `yaml:"timestamp"`
	Seed       int64              `yaml:"seed"`
	Dt         float64            `yaml:"dt"`
	Duration   float64            `yaml:"duration"`
	Integrator string             `yaml:"integrator"`
	Particles  int                `yaml:"particles"`
	Steps      int                `yaml:"steps"`
	Metrics    map[string]float64 `yaml:"metrics"`
}

// SaveRunMetadata writes meta as yaml to path, the metadata sidecar a
// caller writes next to a .ssf/.scf snapshot.
func SaveRunMetadata(path string, meta RunMetadata) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("sceneconfig: marshal run metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("sceneconfig: write run metadata: %w", err)
	}
	return nil
}

// LoadRunMetadata reads a yaml run-metadata sidecar written by
// SaveRunMetadata.
func LoadRunMetadata(path string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, fmt.Errorf("sceneconfig: read run metadata: %w", err)
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("sceneconfig: parse run metadata: %w", err)
	}
	return meta, nil
}
