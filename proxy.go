package proxyvars

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"reflect"
	"time"

	"github.com/bswck/proxyvars/internal/coerce"
	"github.com/bswck/proxyvars/pkg/watch"
)

// Proxy is a lightweight forwarding value. Every operation re-fetches the
// current underlying value through the accessor pair; nothing is cached
// between operations, so two consecutive reads may observe different values
// when the backing manager's context changed in between. The proxy itself is
// immutable after construction and holds no locks: it is exactly as safe to
// share as its manager.
type Proxy[T any] struct {
	mgr Manager[T]
	get Getter[T]
	set Setter[T]
	cfg proxyConfig[T]
}

// Source is the untyped view of a proxy that path and derived accessors
// chain on. Every *Proxy[T] implements it.
type Source interface {
	// Current fetches the underlying value through the accessor.
	Current() (any, error)
	// Overwrite persists a new underlying value through the accessor.
	Overwrite(value any) (Token, error)
	// Label returns the display label used for logging and unbound output.
	Label() string
}

// Get fetches the current underlying value. One getter call, no caching.
func (p *Proxy[T]) Get() (T, error) {
	return p.fetch("get")
}

// MustGet is Get that panics on failure, for call sites where the manager is
// known to be bound.
func (p *Proxy[T]) MustGet() T {
	value, err := p.fetch("get")
	if err != nil {
		panic(err)
	}
	return value
}

// Set installs a new underlying value through the setter and returns the
// manager's undo token.
func (p *Proxy[T]) Set(value T) (Token, error) {
	prev, known := p.previous()
	return p.persist("set", value, prev, known)
}

// Update is the generic in-place family: fetch the current value, compute
// the replacement with apply, persist it through the setter, and return the
// same proxy so the caller's binding keeps behaving like a proxy.
func (p *Proxy[T]) Update(apply func(T) T) (*Proxy[T], error) {
	value, err := p.fetch("update")
	if err != nil {
		return nil, err
	}
	if _, err := p.persist("update", apply(value), value, true); err != nil {
		return nil, err
	}
	return p, nil
}

// Bound reports whether the manager currently holds a value.
func (p *Proxy[T]) Bound() bool {
	_, err := p.fetch("bound")
	return err == nil
}

// Truthy reports whether the underlying value is non-zero. An unbound proxy
// reports false rather than failing; truth testing is the one non-display
// operation where absence degrades to a value.
func (p *Proxy[T]) Truthy() bool {
	value, err := p.fetch("truth")
	if err != nil {
		return false
	}
	return !reflect.ValueOf(&value).Elem().IsZero()
}

// String renders the current underlying value. While unbound it substitutes
// a placeholder incorporating the declared type name instead of failing;
// this is the only operation that masks the unbound state.
func (p *Proxy[T]) String() string {
	value, err := p.fetch("string")
	if err != nil {
		if IsUnbound(err) {
			return p.unboundLabel()
		}
		return fmt.Sprintf("<proxy error: %v>", err)
	}
	return fmt.Sprint(value)
}

// TypeName returns the declared (or inferred) type label, empty when
// unknown.
func (p *Proxy[T]) TypeName() string {
	return p.cfg.typeName
}

// Equal compares the currently forwarded value against other. A proxy
// operand is unwrapped to its own forwarded value first, so two proxies
// compare by value, never by identity.
func (p *Proxy[T]) Equal(other any) (bool, error) {
	value, err := p.fetch("eq")
	if err != nil {
		return false, err
	}
	if src, ok := other.(Source); ok {
		unwrapped, err := src.Current()
		if err != nil {
			return false, err
		}
		other = unwrapped
	}
	return reflect.DeepEqual(any(value), other), nil
}

// Hash digests the currently forwarded value. Hash stability across context
// changes is the caller's responsibility: a value that changes while used
// as a container key breaks normal hashing invariants.
func (p *Proxy[T]) Hash() (uint64, error) {
	value, err := p.fetch("hash")
	if err != nil {
		return 0, err
	}
	return hashValue(any(value)), nil
}

// Manager exposes the backing manager capability.
func (p *Proxy[T]) Manager() Manager[T] {
	return p.mgr
}

// Current implements Source.
func (p *Proxy[T]) Current() (any, error) {
	value, err := p.fetch("current")
	if err != nil {
		return nil, err
	}
	return any(value), nil
}

// Overwrite implements Source. The value is coerced into the proxy's static
// type; incompatible values fail with a ConfigurationError.
func (p *Proxy[T]) Overwrite(value any) (Token, error) {
	typed, err := coerce.To[T](value)
	if err != nil {
		return nil, &ConfigurationError{Reason: "overwrite value incompatible with proxy type", Err: err}
	}
	prev, known := p.previous()
	return p.persist("overwrite", typed, prev, known)
}

// Label implements Source.
func (p *Proxy[T]) Label() string {
	if p.cfg.typeName != "" {
		return p.cfg.typeName
	}
	return "proxy"
}

func (p *Proxy[T]) unboundLabel() string {
	if p.cfg.typeName != "" {
		return fmt.Sprintf("<unbound '%s' object>", p.cfg.typeName)
	}
	return "<unbound proxy object>"
}

// fetch performs the single getter call backing a read operation.
func (p *Proxy[T]) fetch(op string) (T, error) {
	start := time.Now()
	value, err := p.get(p.mgr)
	p.cfg.logger.LogAccess(AccessEvent{
		Op:       op,
		Proxy:    p.Label(),
		Duration: time.Since(start),
		Err:      err,
	})
	return value, err
}

// persist performs the single setter call backing a mutation, then fans the
// change out to watchers. Watcher failures are logged, never propagated.
func (p *Proxy[T]) persist(op string, next T, prev any, prevKnown bool) (Token, error) {
	start := time.Now()
	token, err := p.set(p.mgr, next)
	p.cfg.logger.LogAccess(AccessEvent{
		Op:       op,
		Proxy:    p.Label(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	if p.cfg.watchers.Enabled() {
		event := watch.Event{
			Op:    op,
			Proxy: p.Label(),
			Next:  any(next),
			Token: token,
		}
		if prevKnown {
			event.Previous = prev
		}
		if hookErr := p.cfg.watchers.Notify(context.Background(), event); hookErr != nil {
			p.cfg.logger.LogAccess(AccessEvent{Op: op + "-watch", Proxy: p.Label(), Err: hookErr})
		}
	}
	return token, nil
}

// previous captures the pre-mutation value for watcher events. Skipped
// entirely when no watchers are registered so plain Set stays a single
// setter call.
func (p *Proxy[T]) previous() (any, bool) {
	if !p.cfg.watchers.Enabled() {
		return nil, false
	}
	value, err := p.get(p.mgr)
	if err != nil {
		return nil, false
	}
	return any(value), true
}

func hashValue(value any) uint64 {
	digest := fnv.New64a()
	data, err := json.Marshal(value)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", value))
	}
	digest.Write(data)
	return digest.Sum64()
}
