package proxyvars

import (
	"fmt"
	"reflect"

	"github.com/bswck/proxyvars/internal/coerce"
)

// Path accessors build proxies over a fragment of another proxy's value.
// Reads re-fetch the parent and navigate the path; writes rebuild the root
// on an addressable copy and persist it back through the parent per the
// write-back policy, so a fragment of an immutable root is still writable.

// FieldOf builds a proxy over a (possibly nested) fragment of parent.
// String steps name struct fields (or map keys on map nodes); integer steps
// index slices and arrays; any other step is a map key.
func FieldOf[F any](parent Source, path []any, opts ...ProxyOption[F]) (*Proxy[F], error) {
	return pathProxy[F](parent, path, stepField, opts)
}

// ItemOf builds a proxy over a nested item of parent: every path step is an
// index or key, including strings.
func ItemOf[F any](parent Source, path []any, opts ...ProxyOption[F]) (*Proxy[F], error) {
	return pathProxy[F](parent, path, stepItem, opts)
}

func pathProxy[F any](parent Source, path []any, mode stepMode, opts []ProxyOption[F]) (*Proxy[F], error) {
	if parent == nil {
		return nil, configError("parent proxy is required")
	}
	if len(path) == 0 {
		return nil, configError("accessor path must not be empty")
	}
	cfg := applyProxyOptions(opts)
	mgr := &pathManager[F]{
		parent:    parent,
		steps:     append([]any(nil), path...),
		mode:      mode,
		writeBack: cfg.writeBack,
	}
	return New[F](mgr, opts...)
}

// pathManager adapts a fragment of a parent proxy's value to the Manager
// capability.
type pathManager[F any] struct {
	parent    Source
	steps     []any
	mode      stepMode
	writeBack bool
}

func (m *pathManager[F]) Get() (F, error) {
	var zero F
	current, err := m.parent.Current()
	if err != nil {
		return zero, err
	}
	for _, step := range m.steps {
		current, err = stepValue(current, step, m.mode)
		if err != nil {
			return zero, err
		}
	}
	typed, err := coerce.To[F](current)
	if err != nil {
		return zero, fmt.Errorf("proxyvars: path value: %w", err)
	}
	return typed, nil
}

func (m *pathManager[F]) Set(value F) (Token, error) {
	root, err := m.parent.Current()
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(root)
	if !rv.IsValid() {
		return nil, fmt.Errorf("proxyvars: cannot write through nil root")
	}
	holder := reflect.New(rv.Type())
	holder.Elem().Set(rv)
	if err := setPath(holder.Elem(), m.steps, m.mode, any(value)); err != nil {
		return nil, err
	}
	if !m.writeBack {
		if referenceKind(rv) {
			return nil, nil
		}
		return nil, configError("path write on value-typed %s requires write-back", rv.Type())
	}
	return m.parent.Overwrite(holder.Elem().Interface())
}

// AttrOf adapts a plain object that does not implement the Manager
// capability: the target itself is the storage, and the proxy forwards the
// named (possibly nested) attribute. The target must be a pointer to struct
// or a map so writes have somewhere to land.
func AttrOf[F any](target any, path []string, opts ...ProxyOption[F]) (*Proxy[F], error) {
	if target == nil {
		return nil, configError("attribute target is required")
	}
	if len(path) == 0 {
		return nil, configError("accessor path must not be empty")
	}
	switch kind := reflect.ValueOf(target).Kind(); kind {
	case reflect.Pointer, reflect.Map:
	default:
		return nil, configError("attribute target must be a pointer or map, got %s", kind)
	}
	steps := make([]any, len(path))
	for i, name := range path {
		steps[i] = name
	}
	mgr := &attrManager[F]{
		target: target,
		steps:  steps,
	}
	return New[F](mgr, opts...)
}

// attrManager treats the adapted object itself as the thing whose named
// attribute is forwarded. Writes mutate the target in place; there is no
// undo token.
type attrManager[F any] struct {
	target any
	steps  []any
}

func (m *attrManager[F]) Get() (F, error) {
	var zero F
	current := m.target
	var err error
	for _, step := range m.steps {
		current, err = stepValue(current, step, stepField)
		if err != nil {
			return zero, err
		}
	}
	typed, err := coerce.To[F](current)
	if err != nil {
		return zero, fmt.Errorf("proxyvars: attribute value: %w", err)
	}
	return typed, nil
}

func (m *attrManager[F]) Set(value F) (Token, error) {
	rv := reflect.ValueOf(m.target)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, fmt.Errorf("proxyvars: attribute target is a nil pointer")
		}
		return nil, setPath(rv.Elem(), m.steps, stepField, any(value))
	case reflect.Map:
		scratch := reflect.New(rv.Type()).Elem()
		scratch.Set(rv)
		return nil, setPath(scratch, m.steps, stepField, any(value))
	default:
		return nil, configError("attribute target must be a pointer or map, got %s", rv.Kind())
	}
}
