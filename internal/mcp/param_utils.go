package mcp

import (
	"encoding/json"
	"fmt"
	"sort"
)

// UnknownField represents a field that was passed but not recognized
type UnknownField struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// parseParams decodes tool arguments into v. Empty arguments leave v at its
// zero value. Unrecognised fields do not fail the call; they come back as
// warnings so clients can correct themselves.
func parseParams(data json.RawMessage, v interface{}, known ...string) ([]UnknownField, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	knownFields := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownFields[k] = struct{}{}
	}
	_, warnings, err := collectUnknownFields(data, knownFields)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return warnings, nil
}

// collectUnknownFields parses raw JSON into a map, capturing any fields
// that aren't part of the provided known field set. Warnings are sorted by
// name.
func collectUnknownFields(data []byte, known map[string]struct{}) (map[string]json.RawMessage, []UnknownField, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var warnings []UnknownField
	for key, value := range raw {
		if _, ok := known[key]; !ok {
			warnings = append(warnings, decodeUnknownField(key, value))
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Name < warnings[j].Name })
	return raw, warnings, nil
}

func decodeUnknownField(name string, data json.RawMessage) UnknownField {
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		value = string(data)
	}
	return UnknownField{Name: name, Value: value}
}
