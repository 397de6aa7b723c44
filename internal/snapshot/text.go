package snapshot

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/impactsim/sphcore/internal/equation"
	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/storage"
)

// particleRow is the flattened per-particle record the .txt codec
// marshals with gocsv, generalizing the teacher's storage.Store (which
// wrote raw encoding/csv rows of "x0, x1, ..." state components) into
// named, struct-tagged columns over this engine's known quantities.
// Unset quantities marshal as zero; this format is for debugging and
// small fixtures, not a lossless round trip (§6).
type particleRow struct {
	X                   float64 `csv:"x"`
	Y                   float64 `csv:"y"`
	Z                   float64 `csv:"z"`
	H                   float64 `csv:"h"`
	VX                  float64 `csv:"vx"`
	VY                  float64 `csv:"vy"`
	VZ                  float64 `csv:"vz"`
	Mass                float64 `csv:"mass"`
	Density             float64 `csv:"density"`
	Pressure            float64 `csv:"pressure"`
	Energy              float64 `csv:"energy"`
	SoundSpeed          float64 `csv:"sound_speed"`
	Damage              float64 `csv:"damage"`
	Material            int     `csv:"material"`
}

func init() {
	gocsv.SetCSVWriter(func(w io.Writer) *gocsv.SafeCSVWriter {
		cw := csv.NewWriter(w)
		cw.Comma = ' '
		return gocsv.NewSafeCSVWriter(cw)
	})
	gocsv.SetCSVReader(func(r io.Reader) gocsv.CSVReader {
		cr := csv.NewReader(r)
		cr.Comma = ' '
		cr.FieldsPerRecord = -1
		return cr
	})
}

// WriteText renders s as whitespace-delimited text columns (§6).
func WriteText(w io.Writer, s *storage.Storage) error {
	rows := make([]particleRow, s.Count())
	if pos, err := s.GetVector(equation.Position); err == nil {
		for i, v := range pos.Value {
			rows[i].X, rows[i].Y, rows[i].Z, rows[i].H = v.X, v.Y, v.Z, v.H
			if pos.Order() >= 1 {
				rows[i].VX, rows[i].VY, rows[i].VZ = pos.Dt[i].X, pos.Dt[i].Y, pos.Dt[i].Z
			}
		}
	}
	fillScalarColumn(s, equation.Mass, func(i int, v float64) { rows[i].Mass = v })
	fillScalarColumn(s, equation.Density, func(i int, v float64) { rows[i].Density = v })
	fillScalarColumn(s, equation.Pressure, func(i int, v float64) { rows[i].Pressure = v })
	fillScalarColumn(s, equation.Energy, func(i int, v float64) { rows[i].Energy = v })
	fillScalarColumn(s, equation.SoundSpeed, func(i int, v float64) { rows[i].SoundSpeed = v })
	fillScalarColumn(s, equation.Damage, func(i int, v float64) { rows[i].Damage = v })
	for i, m := range s.MaterialIndex() {
		if i < len(rows) {
			rows[i].Material = m
		}
	}

	return gocsv.Marshal(rows, w)
}

func fillScalarColumn(s *storage.Storage, id storage.QuantityID, set func(i int, v float64)) {
	q, err := s.GetScalar(id)
	if err != nil {
		return
	}
	for i, v := range q.Value {
		set(i, v)
	}
}

// ReadText parses a .txt file into a fresh storage with Position,
// Mass, Density, Pressure, Energy, SoundSpeed, and Damage columns
// populated from whatever the file provides.
func ReadText(r io.Reader) (*storage.Storage, error) {
	var rows []particleRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	s := storage.New()
	if _, err := s.InsertVector(equation.Position, 1, geom.Vec{}, storage.Unique, storage.UnboundedInterval); err != nil {
		return nil, err
	}
	for _, id := range []storage.QuantityID{equation.Mass, equation.Density, equation.Pressure, equation.Energy, equation.SoundSpeed, equation.Damage} {
		if _, err := s.InsertScalar(id, 0, 0, storage.Unique, storage.UnboundedInterval); err != nil {
			return nil, err
		}
	}
	s.Resize(len(rows))
	pos, _ := s.GetVector(equation.Position)
	mass, _ := s.GetScalar(equation.Mass)
	dens, _ := s.GetScalar(equation.Density)
	pres, _ := s.GetScalar(equation.Pressure)
	en, _ := s.GetScalar(equation.Energy)
	cs, _ := s.GetScalar(equation.SoundSpeed)
	dmg, _ := s.GetScalar(equation.Damage)
	for i, row := range rows {
		pos.Value[i] = geom.Vec{X: row.X, Y: row.Y, Z: row.Z, H: row.H}
		pos.Dt[i] = geom.Vec{X: row.VX, Y: row.VY, Z: row.VZ}
		mass.Value[i] = row.Mass
		dens.Value[i] = row.Density
		pres.Value[i] = row.Pressure
		en.Value[i] = row.Energy
		cs.Value[i] = row.SoundSpeed
		dmg.Value[i] = row.Damage
	}
	return s, nil
}
