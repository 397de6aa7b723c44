// Package sceneconfig implements the scene description format: a
// line-oriented textual grammar of nested named sections (§6), plus a
// separate yaml.v3-backed layer for run metadata and material presets
// (the teacher's internal/config.Config/Presets role, generalized from
// a flat per-model struct to the section tree this engine's equation
// terms and materials need).
//
// The two layers serve different callers. The section grammar
// ("scene" files) describes a run's particle setup, equation terms,
// and material references in the notation an operator hand-edits. The
// yaml layer describes reusable material presets and the metadata a
// completed run is tagged with, mirroring the teacher's config
// package's own split between per-run Config and the canned Presets
// table.
package sceneconfig
