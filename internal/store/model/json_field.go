package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONField stores any json-serializable value in a single column.
type JSONField[T any] struct {
	Data T
}

func MakeJSONField[T any](data T) JSONField[T] {
	return JSONField[T]{Data: data}
}

func (j *JSONField[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, &j.Data)
}

func (j JSONField[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j JSONField[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

func (j *JSONField[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &j.Data)
}

// StringList is the column type used for skill and signal lists.
type StringList = JSONField[[]string]

func MakeStringList(values []string) StringList {
	if values == nil {
		values = []string{}
	}
	return MakeJSONField(values)
}
