package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSONMap is an opaque JSON document (the "baggage" columns) persisted
// as text so the representation is identical across dialects. A nil map
// round-trips as SQL NULL.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encoding baggage")
	}
	return string(buf), nil
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var buf []byte
	switch v := value.(type) {
	case []byte:
		buf = v
	case string:
		buf = []byte(v)
	default:
		return errors.Errorf("unsupported baggage column type %T", value)
	}
	if len(buf) == 0 {
		*m = nil
		return nil
	}
	return errors.Wrap(json.Unmarshal(buf, m), "decoding baggage")
}
