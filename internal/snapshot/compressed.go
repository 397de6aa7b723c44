package snapshot

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Info is the small yaml header prefixed to a .scf file so a reader
// can report particle count, time, and run type without inflating the
// compressed bulk that follows (§6).
type Info struct {
	ParticleCount int     `yaml:"particle_count"`
	MaterialCount int     `yaml:"material_count"`
	RunType       string  `yaml:"run_type"`
	Time          float64 `yaml:"time"`
}

func infoFor(snap Snapshot) Info {
	rt := "sph"
	if snap.RunType == RunNBody {
		rt = "nbody"
	}
	return Info{
		ParticleCount: snap.Storage.Count(),
		MaterialCount: len(snap.Materials),
		RunType:       rt,
		Time:          snap.Time,
	}
}

// WriteCompressed writes snap as a .scf file: a yaml Info record
// (length-prefixed so the reader can skip straight past it), followed
// by the .ssf payload deflated with compress/zlib.
func WriteCompressed(w io.Writer, snap Snapshot) error {
	infoBytes, err := yaml.Marshal(infoFor(snap))
	if err != nil {
		return fmt.Errorf("snapshot: marshal info record: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(infoBytes))); err != nil {
		return err
	}
	if _, err := w.Write(infoBytes); err != nil {
		return err
	}

	var raw bytes.Buffer
	if err := WriteBinary(&raw, snap); err != nil {
		return fmt.Errorf("snapshot: encode payload: %w", err)
	}

	zw := zlib.NewWriter(w)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return err
	}
	return zw.Close()
}

// ReadCompressedInfo reads only the yaml Info header from a .scf file,
// leaving the reader positioned at the compressed payload, so a caller
// can inspect run metadata without inflating the rest.
func ReadCompressedInfo(r io.Reader) (Info, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return Info{}, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Info{}, err
	}
	var info Info
	if err := yaml.Unmarshal(buf, &info); err != nil {
		return Info{}, fmt.Errorf("snapshot: parse info record: %w", err)
	}
	return info, nil
}

// ReadCompressed reads a full .scf file: the info header (discarded;
// callers that only need it should use ReadCompressedInfo) followed by
// the inflated .ssf payload.
func ReadCompressed(r io.Reader) (Snapshot, error) {
	if _, err := ReadCompressedInfo(r); err != nil {
		return Snapshot{}, err
	}
	zr, err := zlib.NewReader(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: open zlib stream: %w", err)
	}
	defer zr.Close()
	return ReadBinary(zr)
}
