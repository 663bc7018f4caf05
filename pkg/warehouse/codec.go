package warehouse

import (
	"encoding/binary"
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"

	"vitalstats/verity/pkg/table"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// tablePayload is the JSON header stored next to the float blob. Integer and
// string columns are small and live in the header; float columns (the draw
// ensemble plus any value columns) go in the blob to keep the snapshot
// compact.
type tablePayload struct {
	Rows      int                 `json:"rows"`
	Order     []string            `json:"order"`
	Ints      map[string][]int    `json:"ints,omitempty"`
	Strs      map[string][]string `json:"strs,omitempty"`
	FloatCols []string            `json:"float_cols,omitempty"`
}

// encodeTable splits a table into its JSON header and float blob. The blob
// holds each float column contiguously, little endian, in FloatCols order.
func encodeTable(t *table.Table) ([]byte, []byte, error) {
	payload := tablePayload{
		Rows:  t.Len(),
		Order: t.Columns(),
	}

	var floats [][]float64
	for _, name := range payload.Order {
		if vals, ok := t.Ints(name); ok {
			if payload.Ints == nil {
				payload.Ints = make(map[string][]int)
			}
			payload.Ints[name] = vals
			continue
		}
		if vals, ok := t.Strings(name); ok {
			if payload.Strs == nil {
				payload.Strs = make(map[string][]string)
			}
			payload.Strs[name] = vals
			continue
		}
		vals, ok := t.Floats(name)
		if !ok {
			return nil, nil, fmt.Errorf("column %q has no backing data", name)
		}
		payload.FloatCols = append(payload.FloatCols, name)
		floats = append(floats, vals)
	}

	header, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding table header: %w", err)
	}

	blob := make([]byte, 0, len(floats)*t.Len()*8)
	var scratch [8]byte
	for _, col := range floats {
		for _, v := range col {
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
			blob = append(blob, scratch[:]...)
		}
	}
	return header, blob, nil
}

// decodeTable reassembles a table from its JSON header and float blob.
func decodeTable(header, blob []byte) (*table.Table, error) {
	var payload tablePayload
	if err := json.Unmarshal(header, &payload); err != nil {
		return nil, fmt.Errorf("decoding table header: %w", err)
	}

	if want := len(payload.FloatCols) * payload.Rows * 8; len(blob) != want {
		return nil, fmt.Errorf("float blob is %d bytes, want %d", len(blob), want)
	}

	b := table.NewBuilder()
	floatIdx := 0
	for _, name := range payload.Order {
		if vals, ok := payload.Ints[name]; ok {
			b.Ints(name, vals)
			continue
		}
		if vals, ok := payload.Strs[name]; ok {
			b.Strings(name, vals)
			continue
		}
		if floatIdx >= len(payload.FloatCols) || payload.FloatCols[floatIdx] != name {
			return nil, fmt.Errorf("column %q missing from header", name)
		}
		col := make([]float64, payload.Rows)
		off := floatIdx * payload.Rows * 8
		for i := range col {
			bits := binary.LittleEndian.Uint64(blob[off+i*8:])
			col[i] = math.Float64frombits(bits)
		}
		b.Floats(name, col)
		floatIdx++
	}
	return b.Build()
}
