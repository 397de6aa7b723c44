package snapshot

import (
	"bytes"
	"testing"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/storage"
)

func testSnapshot(t *testing.T) Snapshot {
	t.Helper()
	s := storage.New()
	if _, err := s.InsertVector(equation.Position, 2, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert position: %v", err)
	}
	if _, err := s.InsertScalar(equation.Mass, 0, 0, storage.Unique, storage.UnboundedInterval); err != nil {
		t.Fatalf("insert mass: %v", err)
	}
	if _, err := s.InsertScalar(equation.Density, 1, 0, storage.Unique, storage.Interval{Lo: 0, Hi: storage.UnboundedInterval.Hi}); err != nil {
		t.Fatalf("insert density: %v", err)
	}
	s.Resize(2)
	pos, _ := s.GetVector(equation.Position)
	mass, _ := s.GetScalar(equation.Mass)
	dens, _ := s.GetScalar(equation.Density)
	pos.Value[0] = geom.Vec{X: 0, Y: 0, Z: 0, H: 1}
	pos.Value[1] = geom.Vec{X: 1, Y: 0, Z: 0, H: 1}
	pos.Dt[0] = geom.Vec{X: 0.5}
	mass.Value[0], mass.Value[1] = 2, 3
	dens.Value[0], dens.Value[1] = 1000, 1200

	mat := material.New("basalt", 2700, material.Tillotson{Rho0: 2700, A: 2.67e10, B: 2.67e10})
	mat.WithRheology(material.Rheology{Y0: 1e7, YM: 3.5e9, MuI: 1.5, MuD: 0.6})
	mat.SetInterval(equation.Damage, storage.Interval{Lo: 0, Hi: 1})

	return Snapshot{Storage: s, Materials: []*material.Material{mat}, RunType: RunSPH, Time: 1.25}
}

func TestBinaryRoundTrip(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	if err := WriteBinary(&buf, snap); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}

	got, err := ReadBinary(&buf)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}
	if got.Time != snap.Time {
		t.Errorf("expected time %v, got %v", snap.Time, got.Time)
	}
	if got.Storage.Count() != snap.Storage.Count() {
		t.Errorf("expected count %d, got %d", snap.Storage.Count(), got.Storage.Count())
	}
	pos, err := got.Storage.GetVector(equation.Position)
	if err != nil {
		t.Fatalf("GetVector(Position): %v", err)
	}
	if pos.Value[1].X != 1 {
		t.Errorf("expected particle 1 at x=1, got %v", pos.Value[1].X)
	}
	if pos.Dt[0].X != 0.5 {
		t.Errorf("expected particle 0 velocity x=0.5, got %v", pos.Dt[0].X)
	}
	dens, err := got.Storage.GetScalar(equation.Density)
	if err != nil {
		t.Fatalf("GetScalar(Density): %v", err)
	}
	if dens.Value[1] != 1200 {
		t.Errorf("expected density 1200, got %v", dens.Value[1])
	}
	if len(got.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(got.Materials))
	}
	if got.Materials[0].Name() != "basalt" {
		t.Errorf("expected material name basalt, got %s", got.Materials[0].Name())
	}
	if got.Materials[0].Interval(equation.Damage) != (storage.Interval{Lo: 0, Hi: 1}) {
		t.Errorf("expected damage interval [0,1], got %+v", got.Materials[0].Interval(equation.Damage))
	}
}

func TestCompressedRoundTripPreservesInfoAndPayload(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	if err := WriteCompressed(&buf, snap); err != nil {
		t.Fatalf("WriteCompressed: %v", err)
	}

	infoBuf := bytes.NewReader(buf.Bytes())
	info, err := ReadCompressedInfo(infoBuf)
	if err != nil {
		t.Fatalf("ReadCompressedInfo: %v", err)
	}
	if info.ParticleCount != 2 {
		t.Errorf("expected particle_count 2, got %d", info.ParticleCount)
	}
	if info.RunType != "sph" {
		t.Errorf("expected run_type sph, got %s", info.RunType)
	}

	got, err := ReadCompressed(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadCompressed: %v", err)
	}
	if got.Storage.Count() != 2 {
		t.Errorf("expected count 2, got %d", got.Storage.Count())
	}
}

func TestTextRoundTripPreservesCoreColumns(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	if err := WriteText(&buf, snap.Storage); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	got, err := ReadText(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	pos, _ := got.GetVector(equation.Position)
	if pos.Value[1].X != 1 {
		t.Errorf("expected particle 1 at x=1, got %v", pos.Value[1].X)
	}
	mass, _ := got.GetScalar(equation.Mass)
	if mass.Value[1] != 3 {
		t.Errorf("expected mass 3, got %v", mass.Value[1])
	}
}
