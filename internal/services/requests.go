package services

import "encoding/json"

// OptionalString distinguishes a key that is absent from one that is present
// with a null value.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	o.Value = &value
	return nil
}

// Present reports whether the key was sent with a non-empty value.
func (o OptionalString) Present() bool {
	return o.Set && o.Value != nil && *o.Value != ""
}

func Some(value string) OptionalString {
	return OptionalString{Set: true, Value: &value}
}

func Null() OptionalString {
	return OptionalString{Set: true}
}
