package proxyvars

import (
	"fmt"
	"reflect"
	"strings"
)

// Dynamic forwarding surface: container, attribute, and call operations
// resolved reflectively against the freshly fetched value. Mutating
// operations follow the dual persistence path described on WithWriteBack:
// reference-kind roots are mutated in place, value-kind roots are copied,
// mutated, and written back through the setter.

// Len forwards the length query to the underlying string, slice, array,
// map, or channel.
func (p *Proxy[T]) Len() (int, error) {
	value, err := p.fetch("len")
	if err != nil {
		return 0, err
	}
	v := deref(reflect.ValueOf(any(value)))
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return v.Len(), nil
	default:
		return 0, fmt.Errorf("proxyvars: len of %s", describeKind(v))
	}
}

// Contains forwards membership: substring for strings, key presence for
// maps, element equality for slices and arrays.
func (p *Proxy[T]) Contains(elem any) (bool, error) {
	value, err := p.fetch("contains")
	if err != nil {
		return false, err
	}
	v := deref(reflect.ValueOf(any(value)))
	switch v.Kind() {
	case reflect.String:
		sub, ok := elem.(string)
		if !ok {
			return false, fmt.Errorf("proxyvars: contains on string requires a string, got %T", elem)
		}
		return strings.Contains(v.String(), sub), nil
	case reflect.Map:
		key, err := conformValue(elem, v.Type().Key())
		if err != nil {
			return false, err
		}
		return v.MapIndex(key).IsValid(), nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if reflect.DeepEqual(v.Index(i).Interface(), elem) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("proxyvars: contains on %s", describeKind(v))
	}
}

// Index forwards positional access to the underlying slice, array, or
// string (bytes).
func (p *Proxy[T]) Index(i int) (any, error) {
	value, err := p.fetch("index")
	if err != nil {
		return nil, err
	}
	return stepValue(any(value), i, stepItem)
}

// SetIndex replaces the element at position i and persists per the
// write-back policy.
func (p *Proxy[T]) SetIndex(i int, elem any) error {
	return p.mutate("set-index", []any{i}, stepItem, elem)
}

// Key forwards key access to the underlying map.
func (p *Proxy[T]) Key(key any) (any, error) {
	value, err := p.fetch("key")
	if err != nil {
		return nil, err
	}
	return stepValue(any(value), key, stepItem)
}

// SetKey installs a map entry and persists per the write-back policy.
func (p *Proxy[T]) SetKey(key, elem any) error {
	return p.mutate("set-key", []any{key}, stepItem, elem)
}

// DeleteKey removes a map entry. Maps are reference kinds, so the deletion
// is visible without write-back; the root is still written back when the
// policy asks for it.
func (p *Proxy[T]) DeleteKey(key any) error {
	value, err := p.fetch("delete-key")
	if err != nil {
		return err
	}
	v := deref(reflect.ValueOf(any(value)))
	if v.Kind() != reflect.Map {
		return fmt.Errorf("proxyvars: delete-key on %s", describeKind(v))
	}
	k, err := conformValue(key, v.Type().Key())
	if err != nil {
		return err
	}
	v.SetMapIndex(k, reflect.Value{})
	if p.cfg.writeBack {
		if _, err := p.persist("delete-key", value, nil, false); err != nil {
			return err
		}
	}
	return nil
}

// Attr forwards named access: a struct field, falling back to a bound
// method value.
func (p *Proxy[T]) Attr(name string) (any, error) {
	value, err := p.fetch("attr")
	if err != nil {
		return nil, err
	}
	return stepValue(any(value), name, stepAttr)
}

// SetAttr mutates the named field on the fetched value and persists per the
// write-back policy.
func (p *Proxy[T]) SetAttr(name string, fieldValue any) error {
	return p.mutate("set-attr", []any{name}, stepAttr, fieldValue)
}

// CallMethod invokes the named method on the fetched value. A trailing
// error result is split out and returned as the call's error; remaining
// results are returned as a slice.
func (p *Proxy[T]) CallMethod(name string, args ...any) ([]any, error) {
	value, err := p.fetch("call-method")
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(any(value))
	method := rv.MethodByName(name)
	if !method.IsValid() && rv.Kind() != reflect.Pointer {
		// retry against the pointer receiver set
		holder := reflect.New(rv.Type())
		holder.Elem().Set(rv)
		method = holder.MethodByName(name)
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("proxyvars: %T has no method %q", any(value), name)
	}
	return callFunc(method, args)
}

// Call invokes the underlying value itself, which must be a function.
func (p *Proxy[T]) Call(args ...any) ([]any, error) {
	value, err := p.fetch("call")
	if err != nil {
		return nil, err
	}
	fn := deref(reflect.ValueOf(any(value)))
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("proxyvars: %T is not callable", any(value))
	}
	return callFunc(fn, args)
}

// Range iterates the underlying container, invoking fn with (index, element)
// for slices, arrays, and strings (runes) or (key, value) for maps, until
// fn returns false.
func (p *Proxy[T]) Range(fn func(key, value any) bool) error {
	value, err := p.fetch("range")
	if err != nil {
		return err
	}
	v := deref(reflect.ValueOf(any(value)))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !fn(i, v.Index(i).Interface()) {
				return nil
			}
		}
	case reflect.String:
		for i, r := range v.String() {
			if !fn(i, r) {
				return nil
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !fn(iter.Key().Interface(), iter.Value().Interface()) {
				return nil
			}
		}
	default:
		return fmt.Errorf("proxyvars: range over %s", describeKind(v))
	}
	return nil
}

// mutate fetches the root, applies a path write on an addressable copy, and
// persists the result per the write-back policy. Reference-kind roots share
// storage with the copy, so the mutation is visible in place; value-kind
// roots require write-back to persist at all.
func (p *Proxy[T]) mutate(op string, steps []any, mode stepMode, leaf any) error {
	value, err := p.fetch(op)
	if err != nil {
		return err
	}
	root := reflect.ValueOf(any(value))
	if !root.IsValid() {
		return fmt.Errorf("proxyvars: cannot mutate nil value")
	}
	holder := reflect.New(root.Type())
	holder.Elem().Set(root)
	if err := setPath(holder.Elem(), steps, mode, leaf); err != nil {
		return err
	}
	if !p.cfg.writeBack {
		if referenceKind(root) {
			return nil
		}
		return configError("%s on value-typed %s requires write-back", op, root.Type())
	}
	mutated, err := p.conformRoot(holder.Elem().Interface())
	if err != nil {
		return err
	}
	_, err = p.persist(op, mutated, any(value), true)
	return err
}

func (p *Proxy[T]) conformRoot(root any) (T, error) {
	typed, ok := root.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("proxyvars: mutated root %T no longer satisfies proxy type", root)
	}
	return typed, nil
}

type stepMode int

const (
	// stepField treats string steps as struct fields or map keys and
	// everything else as an index/key step.
	stepField stepMode = iota
	// stepItem treats every step as an index/key step.
	stepItem
	// stepAttr only accepts string steps naming struct fields or methods.
	stepAttr
)

// stepValue resolves a single navigation step against a fetched value.
func stepValue(current, step any, mode stepMode) (any, error) {
	v := deref(reflect.ValueOf(current))
	if !v.IsValid() {
		return nil, fmt.Errorf("proxyvars: cannot descend into nil value")
	}
	name, isString := step.(string)
	attrLike := mode == stepAttr || (mode == stepField && isString && v.Kind() == reflect.Struct)
	if attrLike {
		if !isString {
			return nil, configError("attribute step %v is not a string", step)
		}
		if v.Kind() != reflect.Struct {
			return nil, fmt.Errorf("proxyvars: attribute %q on %s", name, describeKind(v))
		}
		if field := v.FieldByName(name); field.IsValid() {
			return field.Interface(), nil
		}
		if method := reflect.ValueOf(current).MethodByName(name); method.IsValid() {
			return method.Interface(), nil
		}
		return nil, fmt.Errorf("proxyvars: %s has no field or method %q", v.Type(), name)
	}
	switch v.Kind() {
	case reflect.Map:
		key, err := conformValue(step, v.Type().Key())
		if err != nil {
			return nil, err
		}
		item := v.MapIndex(key)
		if !item.IsValid() {
			return nil, fmt.Errorf("proxyvars: key %v not present in %s", step, v.Type())
		}
		return item.Interface(), nil
	case reflect.Slice, reflect.Array:
		idx, err := indexStep(step)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= v.Len() {
			return nil, fmt.Errorf("proxyvars: index %d out of range [0, %d)", idx, v.Len())
		}
		return v.Index(idx).Interface(), nil
	case reflect.String:
		idx, err := indexStep(step)
		if err != nil {
			return nil, err
		}
		s := v.String()
		if idx < 0 || idx >= len(s) {
			return nil, fmt.Errorf("proxyvars: index %d out of range [0, %d)", idx, len(s))
		}
		return s[idx], nil
	default:
		return nil, fmt.Errorf("proxyvars: item step %v on %s", step, describeKind(v))
	}
}

// setPath writes leaf at the end of steps on an addressable value,
// recursing through interfaces and non-addressable map entries by
// copy-modify-reinsert.
func setPath(v reflect.Value, steps []any, mode stepMode, leaf any) error {
	if len(steps) == 0 {
		return assignValue(v, leaf)
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return fmt.Errorf("proxyvars: cannot descend into nil value")
		}
		inner := v.Elem()
		scratch := reflect.New(inner.Type()).Elem()
		scratch.Set(inner)
		if err := setPath(scratch, steps, mode, leaf); err != nil {
			return err
		}
		v.Set(scratch)
		return nil
	case reflect.Pointer:
		if v.IsNil() {
			return fmt.Errorf("proxyvars: cannot descend into nil pointer")
		}
		return setPath(v.Elem(), steps, mode, leaf)
	}

	step := steps[0]
	name, isString := step.(string)
	attrLike := mode == stepAttr || (mode == stepField && isString && v.Kind() == reflect.Struct)
	if attrLike {
		if !isString {
			return configError("attribute step %v is not a string", step)
		}
		if v.Kind() != reflect.Struct {
			return fmt.Errorf("proxyvars: attribute %q on %s", name, describeKind(v))
		}
		field := v.FieldByName(name)
		if !field.IsValid() {
			return fmt.Errorf("proxyvars: %s has no field %q", v.Type(), name)
		}
		if !field.CanSet() {
			return fmt.Errorf("proxyvars: field %q of %s is not settable", name, v.Type())
		}
		return setPath(field, steps[1:], mode, leaf)
	}
	switch v.Kind() {
	case reflect.Map:
		key, err := conformValue(step, v.Type().Key())
		if err != nil {
			return err
		}
		if v.IsNil() {
			return fmt.Errorf("proxyvars: cannot write into nil map %s", v.Type())
		}
		if len(steps) == 1 {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := assignValue(elem, leaf); err != nil {
				return err
			}
			v.SetMapIndex(key, elem)
			return nil
		}
		item := v.MapIndex(key)
		if !item.IsValid() {
			return fmt.Errorf("proxyvars: key %v not present in %s", step, v.Type())
		}
		scratch := reflect.New(item.Type()).Elem()
		scratch.Set(item)
		if err := setPath(scratch, steps[1:], mode, leaf); err != nil {
			return err
		}
		v.SetMapIndex(key, scratch)
		return nil
	case reflect.Slice, reflect.Array:
		idx, err := indexStep(step)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= v.Len() {
			return fmt.Errorf("proxyvars: index %d out of range [0, %d)", idx, v.Len())
		}
		return setPath(v.Index(idx), steps[1:], mode, leaf)
	default:
		return fmt.Errorf("proxyvars: item step %v on %s", step, describeKind(v))
	}
}

func assignValue(dst reflect.Value, value any) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("proxyvars: cannot assign %T to %s", value, dst.Type())
}

func conformValue(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	if rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("proxyvars: cannot use %T as %s", value, target)
}

func indexStep(step any) (int, error) {
	switch idx := step.(type) {
	case int:
		return idx, nil
	case int64:
		return int(idx), nil
	case uint:
		return int(idx), nil
	default:
		return 0, fmt.Errorf("proxyvars: index step %v (%T) is not an integer", step, step)
	}
}

func callFunc(fn reflect.Value, args []any) ([]any, error) {
	t := fn.Type()
	if t.IsVariadic() {
		if len(args) < t.NumIn()-1 {
			return nil, fmt.Errorf("proxyvars: call needs at least %d args, got %d", t.NumIn()-1, len(args))
		}
	} else if len(args) != t.NumIn() {
		return nil, fmt.Errorf("proxyvars: call needs %d args, got %d", t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if t.IsVariadic() && i >= t.NumIn()-1 {
			paramType = t.In(t.NumIn() - 1).Elem()
		} else {
			paramType = t.In(i)
		}
		value, err := conformValue(arg, paramType)
		if err != nil {
			return nil, err
		}
		in[i] = value
	}
	out := fn.Call(in)
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		errValue := out[n-1]
		out = out[:n-1]
		if !errValue.IsNil() {
			return nil, errValue.Interface().(error)
		}
	}
	results := make([]any, len(out))
	for i, value := range out {
		results[i] = value.Interface()
	}
	return results, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			break
		}
		v = v.Elem()
	}
	return v
}

func referenceKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func describeKind(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}
