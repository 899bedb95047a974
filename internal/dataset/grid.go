package dataset

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

// Grid is one fully-evaluated timestep of a dataset: the declared variables
// with their dimensions and flattened values.
type Grid struct {
	Time time.Time           `json:"time"`
	Vars map[string]Variable `json:"vars"`
}

type Variable struct {
	Dims   []string  `json:"dims"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"-"`
}

type gridHeader struct {
	Time time.Time           `json:"time"`
	Vars map[string]Variable `json:"vars"`
}

// WriteGrid serializes a grid to path: a JSON header line followed by one
// gzip-compressed little-endian float32 block per variable, in sorted
// variable-name order. The float32 downcast is deliberate and lossy. Parent
// directories are created as needed; an existing file is truncated, so the
// caller decides idempotence.
func WriteGrid(fs afero.Fs, path string, g *Grid) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create dir for %s: %w", path, err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	header, err := json.Marshal(gridHeader{Time: g.Time, Vars: g.Vars})
	if err != nil {
		return fmt.Errorf("cannot encode grid header: %w", err)
	}
	if _, err := w.Write(append(header, '\n')); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}

	zw := gzip.NewWriter(w)
	for _, name := range sortedVarNames(g.Vars) {
		values := g.Vars[name].Values
		buf := make([]byte, 4*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
		}

		if _, err := zw.Write(buf); err != nil {
			return fmt.Errorf("cannot write variable %s to %s: %w", name, path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("cannot finish %s: %w", path, err)
	}

	return w.Flush()
}

func sortedVarNames(vars map[string]Variable) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
