package dto

import (
	"bytes"
	"encoding/json"
)

// OptionalInt64 distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present in the payload.
type OptionalInt64 struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalInt64) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalInt64) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Int64 wraps a value as a present OptionalInt64.
func Int64(v int64) OptionalInt64 {
	return OptionalInt64{Set: true, Value: &v}
}

// Null is a present OptionalInt64 carrying null.
func Null() OptionalInt64 {
	return OptionalInt64{Set: true}
}
