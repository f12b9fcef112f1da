package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type wireColumn struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Values []any  `json:"values"`
}

type wireDataset struct {
	Columns []wireColumn `json:"columns"`
	Index   []wireColumn `json:"index,omitempty"`
}

func toWire(columns []*Column) []wireColumn {
	out := make([]wireColumn, len(columns))
	for i, c := range columns {
		out[i] = wireColumn{Name: c.Name, Kind: c.Kind, Values: c.Values}
	}
	return out
}

func (d *Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDataset{Columns: toWire(d.columns), Index: toWire(d.index)})
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var wire wireDataset
	if err := decoder.Decode(&wire); err != nil {
		return fmt.Errorf("error decoding dataset: %w", err)
	}

	columns, err := fromWire(wire.Columns)
	if err != nil {
		return err
	}
	index, err := fromWire(wire.Index)
	if err != nil {
		return err
	}

	decoded := Dataset{index: index}
	for _, c := range columns {
		if err := decoded.AddColumn(c); err != nil {
			return fmt.Errorf("error decoding dataset: %w", err)
		}
	}
	*d = decoded
	return nil
}

func fromWire(wire []wireColumn) ([]*Column, error) {
	columns := make([]*Column, 0, len(wire))
	for _, w := range wire {
		values := make([]any, len(w.Values))
		for i, raw := range w.Values {
			v, err := decodeCell(w.Kind, raw)
			if err != nil {
				return nil, fmt.Errorf("error decoding column '%s' row %d: %w", w.Name, i, err)
			}
			values[i] = v
		}
		c, err := NewColumn(w.Name, w.Kind, values)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, nil
}

func decodeCell(kind Kind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch kind {
	case Int:
		if n, ok := raw.(json.Number); ok {
			return n.Int64()
		}
	case Float:
		if n, ok := raw.(json.Number); ok {
			return n.Float64()
		}
	case Datetime:
		if s, ok := raw.(string); ok {
			return time.Parse(time.RFC3339Nano, s)
		}
	default:
		return raw, nil
	}
	return nil, fmt.Errorf("unexpected value %v for %s column", raw, kind)
}
