// Package proxyvars provides callback-based proxy values: lightweight
// wrappers that forward every operation to an underlying value fetched on
// demand from a pluggable manager, so a single binding can stand in for a
// value that varies per execution context. The package implements no
// storage of its own; managers are injected capabilities with get/set
// semantics (see pkg/managers for ready-made ones).
package proxyvars

import "reflect"

// New constructs a Proxy over mgr. The getter/setter pair may be overridden
// together via WithGetter and WithSetter; supplying only one is a usage
// error because the pair must agree on forwarding semantics. The declared
// type label is taken from T when concrete, probed once from a bound
// manager when T is an interface, and left empty otherwise.
func New[T any](mgr Manager[T], opts ...ProxyOption[T]) (*Proxy[T], error) {
	if mgr == nil {
		return nil, configError("manager is required")
	}
	cfg := applyProxyOptions(opts)
	if (cfg.getter == nil) != (cfg.setter == nil) {
		return nil, configError("getter and setter must be supplied together")
	}
	get, set := cfg.getter, cfg.setter
	if get == nil {
		get = directGetter[T]
		set = directSetter[T]
	}
	p := &Proxy[T]{
		mgr: mgr,
		get: get,
		set: set,
		cfg: cfg,
	}
	if p.cfg.typeName == "" {
		p.cfg.typeName = inferTypeName(p)
	}
	return p, nil
}

// Must panics on construction failure, for static wiring:
//
//	count := proxyvars.Must(proxyvars.New[int](mgr))
func Must[T any](p *Proxy[T], err error) *Proxy[T] {
	if err != nil {
		panic(err)
	}
	return p
}

// Lookup is the common read-heavy case: a direct proxy over a whole
// context-local variable with no accessor transform. It cannot fail; a nil
// manager panics.
func Lookup[T any](mgr Manager[T]) *Proxy[T] {
	return Must(New[T](mgr))
}

// Const builds a proxy whose underlying value never changes after
// construction. Writing through it fails with a ConfigurationError.
func Const[T any](value T, opts ...ProxyOption[T]) *Proxy[T] {
	return Must(New[T](constManager[T]{value: value}, opts...))
}

func directGetter[T any](mgr Manager[T]) (T, error) {
	return mgr.Get()
}

func directSetter[T any](mgr Manager[T], value T) (Token, error) {
	return mgr.Set(value)
}

type constManager[T any] struct {
	value T
}

func (m constManager[T]) Get() (T, error) {
	return m.value, nil
}

func (m constManager[T]) Set(T) (Token, error) {
	return nil, configError("cannot overwrite a constant proxy")
}

// inferTypeName resolves the display label. When T is concrete the static
// type wins; interface-typed proxies probe the manager once, non-fatally,
// so an unbound manager simply leaves the label empty.
func inferTypeName[T any](p *Proxy[T]) string {
	if t := reflect.TypeOf((*T)(nil)).Elem(); t.Kind() != reflect.Interface {
		return t.String()
	}
	value, err := p.get(p.mgr)
	if err != nil {
		return ""
	}
	if t := reflect.TypeOf(any(value)); t != nil {
		return t.String()
	}
	return ""
}
