package proxyvars

import (
	"github.com/bswck/proxyvars/pkg/watch"
)

// Token is the opaque undo handle returned by a Manager's Set operation.
// Its shape is entirely manager-defined; the proxy never inspects it.
type Token any

// Manager is the external capability that owns the underlying value and its
// context-dependent storage. Get must fail with an error satisfying
// errors.Is(err, ErrUnbound) while no value is bound; absence is signalled by
// failure, never by a sentinel value. Set installs a new value and returns a
// token usable to undo the change.
type Manager[T any] interface {
	Get() (T, error)
	Set(value T) (Token, error)
}

// Getter reads the current underlying value through a manager.
type Getter[T any] func(Manager[T]) (T, error)

// Setter installs a new underlying value through a manager.
type Setter[T any] func(Manager[T], T) (Token, error)

// Integer constrains the bitwise and modulo operator surface.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Float constrains the floating-point operator surface.
type Float interface {
	~float32 | ~float64
}

// Numeric constrains the arithmetic operator surface.
type Numeric interface {
	Integer | Float
}

// ProxyOption configures a Proxy during construction.
type ProxyOption[T any] func(*proxyConfig[T])

type proxyConfig[T any] struct {
	getter    Getter[T]
	setter    Setter[T]
	typeName  string
	writeBack bool
	logger    AccessLogger
	watchers  watch.Hooks
}

func applyProxyOptions[T any](opts []ProxyOption[T]) proxyConfig[T] {
	cfg := proxyConfig[T]{
		writeBack: true,
		logger:    noopAccessLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithGetter overrides how the proxy reads through its manager. A custom
// getter must be paired with a custom setter; the factory rejects partial
// pairs.
func WithGetter[T any](getter Getter[T]) ProxyOption[T] {
	return func(cfg *proxyConfig[T]) {
		cfg.getter = getter
	}
}

// WithSetter overrides how the proxy writes through its manager. A custom
// setter must be paired with a custom getter; the factory rejects partial
// pairs.
func WithSetter[T any](setter Setter[T]) ProxyOption[T] {
	return func(cfg *proxyConfig[T]) {
		cfg.setter = setter
	}
}

// WithTypeName overrides the declared type label used for unbound display.
func WithTypeName[T any](name string) ProxyOption[T] {
	return func(cfg *proxyConfig[T]) {
		cfg.typeName = name
	}
}

// WithWriteBack controls whether mutating operations on fetched values
// (SetAttr, SetIndex, path accessor writes) persist the mutated root back
// through the setter. Enabled by default, which is correct for value-type
// managers; managers that hand out shared references can disable it since
// in-place mutation is already visible.
func WithWriteBack[T any](enabled bool) ProxyOption[T] {
	return func(cfg *proxyConfig[T]) {
		cfg.writeBack = enabled
	}
}

// WithWatchers registers hooks notified after every successful mutation
// through the proxy. Hook failures never fail the mutation; they are
// reported to the access logger instead.
func WithWatchers[T any](hooks ...watch.Hook) ProxyOption[T] {
	return func(cfg *proxyConfig[T]) {
		for _, hook := range hooks {
			if hook != nil {
				cfg.watchers = append(cfg.watchers, hook)
			}
		}
	}
}
