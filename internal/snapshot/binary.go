// Package snapshot implements the three on-disk state formats (§6):
// a packed binary format (.ssf), a whitespace-delimited text format
// (.txt) for debugging and small fixtures, and a compressed binary
// format (.scf) with a yaml info header a reader can inspect without
// decompressing the bulk. Generalizes the teacher's storage.Store,
// which wrote run states as CSV plus a JSON metadata sidecar, onto the
// tagged-union particle storage this engine uses instead of a flat
// state vector.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/impactsim/sphcore/internal/geom"
	"github.com/impactsim/sphcore/internal/material"
	"github.com/impactsim/sphcore/internal/storage"
)

const magic = "SPH"
const version byte = 1

// RunType tags which simulation kind a snapshot belongs to.
type RunType uint8

const (
	RunSPH RunType = iota
	RunNBody
)

// Snapshot bundles everything a .ssf/.scf file captures. Materials is
// kept alongside Storage rather than inside it: storage.Storage only
// holds the decoupled storage.Material (a bare Name()) to avoid an
// import cycle with package material, so a full round trip needs the
// concrete material table supplied separately (§3, §4.1).
type Snapshot struct {
	Storage   *storage.Storage
	Materials []*material.Material
	RunType   RunType
	Time      float64
}

// WriteBinary writes snap in the .ssf format: header, material
// records, then one block per quantity in storage insertion order.
func WriteBinary(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, snap); err != nil {
		return err
	}
	for _, mat := range snap.Materials {
		if err := writeMaterial(bw, mat); err != nil {
			return err
		}
	}
	for _, id := range snap.Storage.Order() {
		if err := writeQuantity(bw, snap.Storage, id); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeHeader(w io.Writer, snap Snapshot) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	fields := []any{
		version,
		uint64(snap.Storage.Count()),
		uint32(len(snap.Materials)),
		uint8(snap.RunType),
		snap.Time,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("snapshot: write header: %w", err)
		}
	}
	return nil
}

// writeMaterial stores a material's constitutive parameters as
// key-value float64 records (§6): name and eos kind as strings, every
// numeric field as a (key, value) pair, letting ReadBinary rebuild the
// material without hardcoding a fixed struct layout.
func writeMaterial(w io.Writer, mat *material.Material) error {
	if err := writeString(w, mat.Name()); err != nil {
		return err
	}
	kind, params := materialParams(mat)
	if err := writeString(w, kind); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(params))); err != nil {
		return err
	}
	for _, kv := range params {
		if err := writeString(w, kv.key); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, kv.value); err != nil {
			return err
		}
	}
	return nil
}

func writeQuantity(w io.Writer, s *storage.Storage, id storage.QuantityID) error {
	q, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := writeString(w, string(id)); err != nil {
		return err
	}
	iv := q.Interval()
	header := []any{
		uint8(q.Kind()),
		uint8(q.Order()),
		uint8(q.AllocMode()),
		iv.Lo,
		iv.Hi,
	}
	for _, f := range header {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("snapshot: write quantity %s header: %w", id, err)
		}
	}
	return writeBuffers(w, q)
}

func writeBuffers(w io.Writer, q storage.Quantity) error {
	switch tq := q.(type) {
	case *storage.ScalarQuantity:
		for _, buf := range [][]float64{tq.Value, tq.Dt, tq.D2t}[:tq.Order()+1] {
			if err := writeFloats(w, buf); err != nil {
				return err
			}
		}
	case *storage.VectorQuantity:
		for _, buf := range [][]geom.Vec{tq.Value, tq.Dt, tq.D2t}[:tq.Order()+1] {
			if err := writeVecs(w, buf); err != nil {
				return err
			}
		}
	case *storage.SymTensorQuantity:
		for _, buf := range [][]geom.SymTensor{tq.Value, tq.Dt, tq.D2t}[:tq.Order()+1] {
			if err := writeSymTensors(w, buf); err != nil {
				return err
			}
		}
	case *storage.TracelessQuantity:
		for _, buf := range [][]geom.TracelessTensor{tq.Value, tq.Dt, tq.D2t}[:tq.Order()+1] {
			syms := make([]geom.SymTensor, len(buf))
			for i, t := range buf {
				syms[i] = t.Sym()
			}
			if err := writeSymTensors(w, syms); err != nil {
				return err
			}
		}
	case *storage.IndexQuantity:
		if err := writeInts(w, tq.Value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("snapshot: unknown quantity type for %s", q.ID())
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func writeFloats(w io.Writer, vs []float64) error {
	for _, v := range vs {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func writeInts(w io.Writer, vs []int) error {
	for _, v := range vs {
		if err := binary.Write(w, binary.LittleEndian, int64(v)); err != nil {
			return err
		}
	}
	return nil
}

func writeVecs(w io.Writer, vs []geom.Vec) error {
	for _, v := range vs {
		if err := writeFloats(w, []float64{v.X, v.Y, v.Z, v.H}); err != nil {
			return err
		}
	}
	return nil
}

func writeSymTensors(w io.Writer, vs []geom.SymTensor) error {
	for _, v := range vs {
		if err := writeFloats(w, []float64{v.XX, v.YY, v.ZZ, v.XY, v.XZ, v.YZ}); err != nil {
			return err
		}
	}
	return nil
}

// ReadBinary reconstructs a Snapshot written by WriteBinary.
func ReadBinary(r io.Reader) (Snapshot, error) {
	br := bufio.NewReader(r)
	count, matCount, runType, t, err := readHeader(br)
	if err != nil {
		return Snapshot{}, err
	}

	mats := make([]*material.Material, 0, matCount)
	for i := uint32(0); i < matCount; i++ {
		mat, err := readMaterial(br)
		if err != nil {
			return Snapshot{}, err
		}
		mats = append(mats, mat)
	}

	s := storage.New()
	for {
		ok, err := readQuantity(br, s, count)
		if err != nil {
			return Snapshot{}, err
		}
		if !ok {
			break
		}
	}
	s.Resize(int(count))

	return Snapshot{Storage: s, Materials: mats, RunType: RunType(runType), Time: t}, nil
}

func readHeader(r io.Reader) (count uint64, matCount uint32, runType uint8, t float64, err error) {
	var m [3]byte
	if _, err = io.ReadFull(r, m[:]); err != nil {
		return
	}
	if string(m[:]) != magic {
		err = fmt.Errorf("snapshot: bad magic %q", m)
		return
	}
	var ver byte
	if err = binary.Read(r, binary.LittleEndian, &ver); err != nil {
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &count); err != nil {
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &matCount); err != nil {
		return
	}
	if err = binary.Read(r, binary.LittleEndian, &runType); err != nil {
		return
	}
	err = binary.Read(r, binary.LittleEndian, &t)
	return
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readMaterial(r io.Reader) (*material.Material, error) {
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	eosKind, err := readString(r)
	if err != nil {
		return nil, err
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	params := make(map[string]float64, n)
	for i := uint32(0); i < n; i++ {
		key, err := readString(r)
		if err != nil {
			return nil, err
		}
		var v float64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, err
		}
		params[key] = v
	}
	return materialFromParams(name, eosKind, params)
}

// readQuantity reads one quantity block and inserts it into s, using
// count particles' worth of buffers. Returns ok=false at a clean EOF
// (the natural terminator: the format carries no trailing quantity
// count, the blocks simply run to the end of the file).
func readQuantity(r *bufio.Reader, s *storage.Storage, count uint64) (bool, error) {
	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	buf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return false, err
	}
	id := storage.QuantityID(buf)

	var kind, order, mode uint8
	var lo, hi float64
	for _, f := range []any{&kind, &order, &mode, &lo, &hi} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return false, fmt.Errorf("snapshot: read quantity %s header: %w", id, err)
		}
	}
	iv := storage.Interval{Lo: lo, Hi: hi}
	allocMode := storage.AllocMode(mode)
	n := int(count)

	switch storage.ValueKind(kind) {
	case storage.KindScalar:
		q, err := s.InsertScalar(id, int(order), 0, allocMode, iv)
		if err != nil {
			return false, err
		}
		q.Value = make([]float64, n)
		bufs := [][]float64{q.Value, nil, nil}
		if order >= 1 {
			q.Dt = make([]float64, n)
			bufs[1] = q.Dt
		}
		if order >= 2 {
			q.D2t = make([]float64, n)
			bufs[2] = q.D2t
		}
		for _, b := range bufs[:order+1] {
			if err := readFloats(r, b); err != nil {
				return false, err
			}
		}
	case storage.KindVector:
		q, err := s.InsertVector(id, int(order), geom.Vec{}, allocMode, iv)
		if err != nil {
			return false, err
		}
		q.Value = make([]geom.Vec, n)
		bufs := [][]geom.Vec{q.Value, nil, nil}
		if order >= 1 {
			q.Dt = make([]geom.Vec, n)
			bufs[1] = q.Dt
		}
		if order >= 2 {
			q.D2t = make([]geom.Vec, n)
			bufs[2] = q.D2t
		}
		for _, b := range bufs[:order+1] {
			if err := readVecs(r, b); err != nil {
				return false, err
			}
		}
	case storage.KindSymTensor:
		q, err := s.InsertSymTensor(id, int(order), allocMode, iv)
		if err != nil {
			return false, err
		}
		q.Value = make([]geom.SymTensor, n)
		bufs := [][]geom.SymTensor{q.Value, nil, nil}
		if order >= 1 {
			q.Dt = make([]geom.SymTensor, n)
			bufs[1] = q.Dt
		}
		if order >= 2 {
			q.D2t = make([]geom.SymTensor, n)
			bufs[2] = q.D2t
		}
		for _, b := range bufs[:order+1] {
			if err := readSymTensors(r, b); err != nil {
				return false, err
			}
		}
	case storage.KindTraceless:
		q, err := s.InsertTraceless(id, int(order), allocMode, iv)
		if err != nil {
			return false, err
		}
		nbuf := int(order) + 1
		for i := 0; i < nbuf; i++ {
			syms := make([]geom.SymTensor, n)
			if err := readSymTensors(r, syms); err != nil {
				return false, err
			}
			tensors := make([]geom.TracelessTensor, n)
			for j, sym := range syms {
				tensors[j] = geom.NewTracelessTensor(sym)
			}
			switch i {
			case 0:
				q.Value = tensors
			case 1:
				q.Dt = tensors
			case 2:
				q.D2t = tensors
			}
		}
	case storage.KindIndex:
		q, err := s.InsertIndex(id, 0, allocMode)
		if err != nil {
			return false, err
		}
		q.Value = make([]int, n)
		if err := readInts(r, q.Value); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("snapshot: unknown value kind %d for quantity %s", kind, id)
	}
	return true, nil
}

func readFloats(r io.Reader, out []float64) error {
	for i := range out {
		if err := binary.Read(r, binary.LittleEndian, &out[i]); err != nil {
			return err
		}
	}
	return nil
}

func readInts(r io.Reader, out []int) error {
	for i := range out {
		var v int64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return err
		}
		out[i] = int(v)
	}
	return nil
}

func readVecs(r io.Reader, out []geom.Vec) error {
	for i := range out {
		var xyzh [4]float64
		if err := readFloats(r, xyzh[:]); err != nil {
			return err
		}
		out[i] = geom.Vec{X: xyzh[0], Y: xyzh[1], Z: xyzh[2], H: xyzh[3]}
	}
	return nil
}

func readSymTensors(r io.Reader, out []geom.SymTensor) error {
	for i := range out {
		var c [6]float64
		if err := readFloats(r, c[:]); err != nil {
			return err
		}
		out[i] = geom.SymTensor{XX: c[0], YY: c[1], ZZ: c[2], XY: c[3], XZ: c[4], YZ: c[5]}
	}
	return nil
}
