package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// StringSlice maps a postgres text[] column.
type StringSlice []string

func (s *StringSlice) Scan(src interface{}) error {
	return pq.Array((*[]string)(s)).Scan(src)
}

func (s StringSlice) Value() (driver.Value, error) {
	return pq.Array([]string(s)).Value()
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(raw, m)
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
