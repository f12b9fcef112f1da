package utils

import (
	"analysis-backend/internal/errs"
	"strconv"
	"strings"
)

var boolValues = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "off": false, "0": false,
}

// ParseBool reads a form flag. Empty input yields def.
func ParseBool(param, raw string, def bool) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	v, ok := boolValues[strings.ToLower(raw)]
	if !ok {
		return false, &errs.ParameterError{Parameter: param, Value: raw, Expected: "boolean"}
	}
	return v, nil
}

// ParsePositiveInt reads an optional integer that must be >= 1.
func ParsePositiveInt(param, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return nil, &errs.ParameterError{Parameter: param, Value: raw, Expected: "positive integer"}
	}
	return &v, nil
}

// ParseFloat reads an optional float accepted by valid.
func ParseFloat(param, raw string, expected string, valid func(float64) bool) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || (valid != nil && !valid(v)) {
		return nil, &errs.ParameterError{Parameter: param, Value: raw, Expected: expected}
	}
	return &v, nil
}

// ParseChoice matches raw case-insensitively against the allowed values.
func ParseChoice(param, raw string, allowed []string) (string, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if norm == strings.ToLower(a) {
			return a, nil
		}
	}
	return "", &errs.ParameterError{Parameter: param, Value: raw, Expected: allowed}
}
