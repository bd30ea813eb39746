package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotFound is returned by lookups when the addressed object does not exist.
var ErrNotFound = errors.New("not found")

// InvalidValueError reports a property value that cannot be used as requested.
type InvalidValueError struct {
	Property string
	Value    any
	Want     string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("property %s: value %v (%T) is not a valid %s", e.Property, e.Value, e.Value, e.Want)
}

// Properties is a resource model as delivered by the orchestrator.
// CloudFormation passes custom resource properties as strings, so the
// accessors accept both native JSON values and their string forms.
type Properties map[string]any

func (p Properties) Has(key string) bool {
	if p == nil {
		return false
	}
	_, ok := p[key]
	return ok
}

// Float returns the numeric value of key. ok is false when the key is absent.
func (p Properties) Float(key string) (v float64, ok bool, err error) {
	raw, present := p[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	v, err = ToFloat(raw)
	if err != nil {
		return 0, true, &InvalidValueError{Property: key, Value: raw, Want: "number"}
	}
	return v, true, nil
}

func (p Properties) Int32(key string) (*int32, error) {
	v, ok, err := p.Float(key)
	if err != nil || !ok {
		return nil, err
	}
	if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return nil, &InvalidValueError{Property: key, Value: p[key], Want: "integer"}
	}
	i := int32(v)
	return &i, nil
}

func (p Properties) Bool(key string) (*bool, error) {
	raw, present := p[key]
	if !present || raw == nil {
		return nil, nil
	}
	var b bool
	switch t := raw.(type) {
	case bool:
		b = t
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, &InvalidValueError{Property: key, Value: raw, Want: "boolean"}
		}
		b = parsed
	default:
		return nil, &InvalidValueError{Property: key, Value: raw, Want: "boolean"}
	}
	return &b, nil
}

// ToFloat converts numbers and decimal strings to float64. Booleans,
// NaN and infinities are rejected.
func ToFloat(raw any) (float64, error) {
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int8:
		v = float64(t)
	case int16:
		v = float64(t)
	case int32:
		v = float64(t)
	case int64:
		v = float64(t)
	case uint:
		v = float64(t)
	case uint8:
		v = float64(t)
	case uint16:
		v = float64(t)
	case uint32:
		v = float64(t)
	case uint64:
		v = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, err
		}
		v = f
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %v", v)
	}
	return v, nil
}
