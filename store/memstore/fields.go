package memstore

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/chatwatch/cloud/store"
)

// copyInto appends ent onto the slice store.GetAll's dst points to.
// dst must be a pointer to a slice whose element type is exactly
// ent's concrete type (any other type gives store.ErrWrongType); reflection is used once per call since the
// concrete slice type is only known to the caller.
func copyInto(dst interface{}, ent store.Entity) error {
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("memstore: dst must be a pointer to a slice")
	}
	sliceVal := dv.Elem()
	elemType := sliceVal.Type().Elem()

	entVal := reflect.ValueOf(ent)
	for entVal.Kind() == reflect.Ptr {
		entVal = entVal.Elem()
	}
	if entVal.Type() != elemType {
		return store.ErrWrongType
	}
	sliceVal.Set(reflect.Append(sliceVal, entVal))
	return nil
}

// decodeFields decodes an entity's JSON Encode() form into a generic
// field map, for filter/order evaluation without needing the concrete
// Go type.
func decodeFields(data []byte) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func fieldMatches(data []byte, f filter) bool {
	m := decodeFields(data)
	if m == nil {
		return false
	}
	got, ok := m[f.field]
	if !ok {
		return false
	}
	return compare(got, f.value, f.operator)
}

func fieldLess(a, b []byte, field string) bool {
	ma, mb := decodeFields(a), decodeFields(b)
	if ma == nil || mb == nil {
		return false
	}
	return compare(ma[field], mb[field], "<")
}

// compare evaluates a op b for the JSON-decoded scalar types
// (float64, string, bool) that field values can take.
func compare(a, b interface{}, op string) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := toFloat(b)
		if !ok {
			return false
		}
		switch op {
		case "=":
			return av == bv
		case "!=":
			return av != bv
		case ">":
			return av > bv
		case ">=":
			return av >= bv
		case "<":
			return av < bv
		case "<=":
			return av <= bv
		}
	case string:
		bv, ok := b.(string)
		if !ok {
			return false
		}
		switch op {
		case "=":
			return av == bv
		case "!=":
			return av != bv
		case ">":
			return av > bv
		case ">=":
			return av >= bv
		case "<":
			return av < bv
		case "<=":
			return av <= bv
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return false
		}
		if op == "=" {
			return av == bv
		}
		if op == "!=" {
			return av != bv
		}
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
