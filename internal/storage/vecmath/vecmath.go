// Package vecmath implements the vector-distance math the storage
// extension's virtual table needs: packing float32 vectors to/from their
// on-disk binary representation and computing cosine distance, built on
// gonum's floats package.
package vecmath

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// Pack serializes a float32 vector into its packed little-endian binary
// form, the representation stored in Chunk.embedding.
func Pack(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Unpack is Pack's inverse.
func Unpack(b []byte) []float32 {
	n := len(b) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// ParseJSONVector parses a JSON array of floats (the virtual table's
// documented input shape) into a float32 vector; Pack turns it into the
// packed binary form.
func ParseJSONVector(raw []byte) ([]float32, error) {
	var floats64 []float64
	if err := json.Unmarshal(raw, &floats64); err != nil {
		return nil, fmt.Errorf("parse vector json: %w", err)
	}
	v := make([]float32, len(floats64))
	for i, f := range floats64 {
		v[i] = float32(f)
	}
	return v, nil
}

// CosineDistance returns 1 - cosine_similarity(a, b), zero for identical
// direction and up to 2 for opposite vectors. Mismatched dimensions return
// the maximum distance rather than panicking — the virtual table treats
// such rows as non-matches.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	af := make([]float64, len(a))
	bf := make([]float64, len(b))
	for i := range a {
		af[i] = float64(a[i])
		bf[i] = float64(b[i])
	}
	dot := floats.Dot(af, bf)
	na := math.Sqrt(floats.Dot(af, af))
	nb := math.Sqrt(floats.Dot(bf, bf))
	if na == 0 || nb == 0 {
		return 2
	}
	cos := dot / (na * nb)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 1 - cos
}

// Dimension reports the vector length encoded in a packed blob.
func Dimension(packed []byte) int {
	return len(packed) / 4
}
