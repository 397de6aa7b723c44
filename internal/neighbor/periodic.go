package neighbor

import "github.com/impactsim/sphcore/internal/geom"

// Periodic wraps any base Finder so a query near the domain boundary
// also searches the up-to-6 image points translated by +/- the domain
// size along each periodic axis, merging and deduplicating results
// (§4.2).
type Periodic struct {
	Finder
	Domain geom.Domain
}

func (p *Periodic) Find(query geom.Vec, radius float64, out []int) []int {
	seen := make(map[int]struct{})
	collect := func(q geom.Vec) {
		var hits []int
		hits = p.Finder.Find(q, radius, hits)
		for _, i := range hits {
			if _, dup := seen[i]; !dup {
				seen[i] = struct{}{}
				out = append(out, i)
			}
		}
	}
	collect(query)
	size := p.Domain.Size()
	for axis := 0; axis < 3; axis++ {
		if !p.Domain.Periodic[axis] {
			continue
		}
		collect(translate(query, axis, size, +1))
		collect(translate(query, axis, size, -1))
	}
	return out
}

func translate(v geom.Vec, axis int, size geom.Vec, sign float64) geom.Vec {
	switch axis {
	case 0:
		v.X += sign * size.X
	case 1:
		v.Y += sign * size.Y
	case 2:
		v.Z += sign * size.Z
	}
	return v
}

// indexed is satisfied by finders that can report a built point's
// position back out by index, needed to re-query translated images.
type indexed interface {
	PointAt(i int) geom.Vec
}

// FindIndex applies the same periodic-image search addressed by index,
// when the wrapped Finder exposes PointAt; otherwise it falls back to
// the base finder's single-image result.
func (p *Periodic) FindIndex(index int, radius float64, out []int) []int {
	base := p.Finder.FindIndex(index, radius, nil)
	ix, ok := p.Finder.(indexed)
	if !ok {
		return append(out, base...)
	}
	seen := make(map[int]struct{}, len(base))
	for _, i := range base {
		seen[i] = struct{}{}
		out = append(out, i)
	}
	query := ix.PointAt(index)
	size := p.Domain.Size()
	for axis := 0; axis < 3; axis++ {
		if !p.Domain.Periodic[axis] {
			continue
		}
		for _, sign := range [2]float64{+1, -1} {
			hits := p.Finder.Find(translate(query, axis, size, sign), radius, nil)
			for _, i := range hits {
				if i == index {
					continue
				}
				if _, dup := seen[i]; !dup {
					seen[i] = struct{}{}
					out = append(out, i)
				}
			}
		}
	}
	return out
}
