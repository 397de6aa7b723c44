package sceneconfig

import "testing"

const sampleScene = `
"scene" [
  "seed" = 42
  "duration" = 1.5
  "gravity" [
    "enabled" = 1
  ]
  "particles" [
    "name" = "impactor"
    "material" = "basalt"
    "center" = (1, 2, 3)
    "damage_bounds" = (0, 1)
  ]
]
`

func TestParseScene(t *testing.T) {
	root, err := Parse(sampleScene)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	scene, ok := root.Sub("scene")
	if !ok {
		t.Fatal("expected top-level \"scene\" section")
	}
	seed, ok := scene.Get("seed")
	if !ok || seed.Kind != KindInt || seed.I != 42 {
		t.Errorf("expected seed=42, got %+v", seed)
	}
	duration, ok := scene.Get("duration")
	if !ok || duration.Kind != KindFloat || duration.F != 1.5 {
		t.Errorf("expected duration=1.5, got %+v", duration)
	}
	gravity, ok := scene.Sub("gravity")
	if !ok {
		t.Fatal("expected \"gravity\" subsection")
	}
	if v, _ := gravity.Get("enabled"); v.I != 1 {
		t.Errorf("expected gravity.enabled=1, got %+v", v)
	}
	particles, ok := scene.Sub("particles")
	if !ok {
		t.Fatal("expected \"particles\" subsection")
	}
	if v, _ := particles.Get("name"); v.Kind != KindString || v.S != "impactor" {
		t.Errorf("expected name=\"impactor\", got %+v", v)
	}
	center, _ := particles.Get("center")
	if center.Kind != KindVec3 || center.Vec.X != 1 || center.Vec.Y != 2 || center.Vec.Z != 3 {
		t.Errorf("expected center=(1,2,3), got %+v", center)
	}
	bounds, _ := particles.Get("damage_bounds")
	if bounds.Kind != KindInterval || bounds.Iv.Lo != 0 || bounds.Iv.Hi != 1 {
		t.Errorf("expected damage_bounds=(0,1), got %+v", bounds)
	}
}

func TestWriteThenParseRoundTrips(t *testing.T) {
	root, err := Parse(sampleScene)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rendered := Write(root)

	reparsed, err := Parse(rendered)
	if err != nil {
		t.Fatalf("re-Parse: %v\nrendered:\n%s", err, rendered)
	}
	scene, ok := reparsed.Sub("scene")
	if !ok {
		t.Fatal("expected \"scene\" section after round-trip")
	}
	seed, _ := scene.Get("seed")
	if seed.I != 42 {
		t.Errorf("expected seed to survive round-trip, got %+v", seed)
	}
}

func TestParseRejectsMalformedTuple(t *testing.T) {
	_, err := Parse(`"s" [ "bad" = (1, 2, 3, 4) ]`)
	if err == nil {
		t.Error("expected an error for a 4-element tuple")
	}
}

func TestMaterialPresetsCoverKnownEOSKinds(t *testing.T) {
	for name, p := range Presets {
		if p.Density0 <= 0 {
			t.Errorf("preset %s: expected positive density0", name)
		}
		switch p.EOSKind {
		case "ideal_gas", "murnaghan", "tillotson":
		default:
			t.Errorf("preset %s: unrecognized eos_kind %q", name, p.EOSKind)
		}
	}
}
