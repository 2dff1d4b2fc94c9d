// Package exercise classifies exercises by their attributes.
//
// Attributes are reference data: a primary muscle, zero or more secondary muscles, an equipment tag, an exercise
// type and a mechanics type. Classification never fails; missing attributes fall into the default buckets.
package exercise

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AttributeName is the category of an [Attribute].
type AttributeName string

const (
	PrimaryMuscle   AttributeName = "PRIMARY_MUSCLE"
	SecondaryMuscle AttributeName = "SECONDARY_MUSCLE"
	Equipment       AttributeName = "EQUIPMENT"
	Type            AttributeName = "TYPE"
	MechanicsType   AttributeName = "MECHANICS_TYPE"
)

// Attribute is a single name/value pair describing an exercise.
type Attribute struct {
	Name  AttributeName `json:"attributeName"`
	Value string        `json:"attributeValue"`
}

// UnmarshalJSON accepts both the flat shape
//
//	{"attributeName": "EQUIPMENT", "attributeValue": "BARBELL"}
//
// and the relational shape
//
//	{"attributeName": {"name": "EQUIPMENT"}, "attributeValue": {"value": "BARBELL"}}
//
// and always resolves to plain strings.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  json.RawMessage `json:"attributeName"`
		Value json.RawMessage `json:"attributeValue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal attribute: %w", err)
	}
	name, err := stringOrField(raw.Name, "name")
	if err != nil {
		return fmt.Errorf("attributeName: %w", err)
	}
	value, err := stringOrField(raw.Value, "value")
	if err != nil {
		return fmt.Errorf("attributeValue: %w", err)
	}
	a.Name = AttributeName(name)
	a.Value = value
	return nil
}

func stringOrField(data json.RawMessage, field string) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", fmt.Errorf("unmarshal string: %w", err)
		}
		return s, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", fmt.Errorf("unmarshal object: %w", err)
	}
	inner, ok := obj[field]
	if !ok {
		return "", fmt.Errorf("missing field %q", field)
	}
	var s string
	if err := json.Unmarshal(inner, &s); err != nil {
		return "", fmt.Errorf("unmarshal field %q: %w", field, err)
	}
	return s, nil
}

// Values returns the values of all attributes with the given name in their original order.
func Values(attrs []Attribute, name AttributeName) []string {
	var values []string
	for _, a := range attrs {
		if a.Name == name {
			values = append(values, a.Value)
		}
	}
	return values
}

func first(attrs []Attribute, name AttributeName) string {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value
		}
	}
	return ""
}
