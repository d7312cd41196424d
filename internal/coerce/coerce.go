// Package coerce converts loosely typed values (resolver output, reflective
// path navigation results) into the static types proxies declare.
package coerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// To converts value into T. Direct assertions win; scalar kinds fall back
// to reflect conversion (numeric widening, named string kinds); maps and
// slices hydrate into structs through a JSON round-trip.
func To[T any](value any) (T, error) {
	var zero T
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	target := reflect.TypeOf((*T)(nil)).Elem()
	if value == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return zero, nil
		default:
			return zero, fmt.Errorf("coerce: cannot use nil as %s", target)
		}
	}
	rv := reflect.ValueOf(value)
	if compatibleKinds(rv.Kind(), target.Kind()) && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface().(T), nil
	}
	if number, ok := value.(json.Number); ok {
		if i, err := number.Int64(); err == nil {
			return To[T](i)
		}
		if f, err := number.Float64(); err == nil {
			return To[T](f)
		}
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Struct, reflect.Pointer:
		hydrated, err := roundTrip[T](value)
		if err != nil {
			return zero, fmt.Errorf("coerce: cannot convert %T to %s: %w", value, target, err)
		}
		return hydrated, nil
	}
	return zero, fmt.Errorf("coerce: cannot convert %T to %s", value, target)
}

// Map flattens value into a string-keyed map for expression environments.
// Structs (and pointers to them) round-trip through JSON; existing maps are
// returned as-is.
func Map(value any) (map[string]any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	if m, ok := value.(map[string]any); ok {
		return m, nil
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return map[string]any{}, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct && v.Kind() != reflect.Map {
		return nil, fmt.Errorf("coerce: cannot flatten %T into a map", value)
	}
	flattened, err := roundTrip[map[string]any](v.Interface())
	if err != nil {
		return nil, fmt.Errorf("coerce: flatten %T: %w", value, err)
	}
	if flattened == nil {
		flattened = map[string]any{}
	}
	return flattened, nil
}

func roundTrip[T any](value any) (T, error) {
	var result T
	payload, err := json.Marshal(value)
	if err != nil {
		return result, err
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := decodeInto(dec, &result); err != nil {
		return result, err
	}
	return result, nil
}

// decodeInto tolerates json.Number payloads when the target is loosely
// typed, matching how expression engines hand back numbers.
func decodeInto(dec *json.Decoder, target any) error {
	if err := dec.Decode(target); err != nil {
		return err
	}
	normalizeNumbers(reflect.ValueOf(target).Elem())
	return nil
}

// normalizeNumbers rewrites json.Number leaves into float64 inside
// interface-typed containers so callers comparing against plain literals
// are not surprised.
func normalizeNumbers(v reflect.Value) {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return
		}
		if number, ok := v.Interface().(json.Number); ok {
			if f, err := number.Float64(); err == nil && v.CanSet() {
				v.Set(reflect.ValueOf(f))
			}
			return
		}
		normalizeNumbers(v.Elem())
	case reflect.Map:
		for _, key := range v.MapKeys() {
			item := v.MapIndex(key)
			if item.Kind() == reflect.Interface && !item.IsNil() {
				if number, ok := item.Interface().(json.Number); ok {
					if f, err := number.Float64(); err == nil {
						v.SetMapIndex(key, reflect.ValueOf(f))
					}
					continue
				}
				if item.Elem().Kind() == reflect.Map || item.Elem().Kind() == reflect.Slice {
					normalizeNumbers(item.Elem())
				}
			}
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i)
			if item.Kind() == reflect.Interface && !item.IsNil() {
				if number, ok := item.Interface().(json.Number); ok {
					if f, err := number.Float64(); err == nil {
						item.Set(reflect.ValueOf(f))
					}
					continue
				}
				normalizeNumbers(item.Elem())
			}
		}
	}
}

// compatibleKinds keeps reflect conversion inside one kind family so that
// e.g. int-to-string conversions (which produce code points, not digits)
// never happen implicitly.
func compatibleKinds(src, dst reflect.Kind) bool {
	return kindFamily(src) != 0 && kindFamily(src) == kindFamily(dst)
}

func kindFamily(kind reflect.Kind) int {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	default:
		return 0
	}
}
