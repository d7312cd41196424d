package managers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/bswck/proxyvars"
)

// Handle is a context-carried cell: Attach installs a per-context value and
// Bound yields a Manager view over a specific context. Reads fall back to a
// process-wide default when the context carries nothing. The address of the
// key field keeps each handle's context entries private to it.
type Handle[T any] struct {
	key      struct{}
	name     string
	fallback atomic.Pointer[T]
}

// NewHandle constructs a handle with no default value.
func NewHandle[T any](name string) *Handle[T] {
	return &Handle[T]{name: name}
}

// SetDefault installs the process-wide fallback observed by contexts with
// no attached value.
func (h *Handle[T]) SetDefault(value T) {
	h.fallback.Store(&value)
}

// Attach returns a child context carrying its own mutable cell initialized
// to value. Writes through a manager bound to the child stay invisible to
// other contexts.
func (h *Handle[T]) Attach(ctx context.Context, value T) context.Context {
	cell := atomic.NewPointer(&value)
	return context.WithValue(ctx, &h.key, cell)
}

// Bound adapts the handle plus a context into the Manager capability. The
// view reads the context's cell when present, then the handle default;
// writes land in the context's cell, or the default when the context
// carries none.
func (h *Handle[T]) Bound(ctx context.Context) proxyvars.Manager[T] {
	return &boundHandle[T]{handle: h, ctx: ctx}
}

// Name returns the label given at construction.
func (h *Handle[T]) Name() string {
	return h.name
}

func (h *Handle[T]) describe() string {
	if h.name == "" {
		return "managers.Handle"
	}
	return fmt.Sprintf("managers.Handle(%s)", h.name)
}

func (h *Handle[T]) cell(ctx context.Context) *atomic.Pointer[T] {
	if ctx == nil {
		return nil
	}
	if cell, ok := ctx.Value(&h.key).(*atomic.Pointer[T]); ok {
		return cell
	}
	return nil
}

type boundHandle[T any] struct {
	handle *Handle[T]
	ctx    context.Context
}

func (b *boundHandle[T]) Get() (T, error) {
	if cell := b.handle.cell(b.ctx); cell != nil {
		if value := cell.Load(); value != nil {
			return *value, nil
		}
	}
	if value := b.handle.fallback.Load(); value != nil {
		return *value, nil
	}
	var zero T
	return zero, &proxyvars.UnboundError{Manager: b.handle.describe()}
}

func (b *boundHandle[T]) Set(value T) (proxyvars.Token, error) {
	cell := b.handle.cell(b.ctx)
	if cell == nil {
		cell = &b.handle.fallback
	}
	previous := cell.Load()
	cell.Store(&value)
	return &handleToken[T]{
		id:       uuid.New(),
		cell:     cell,
		previous: previous,
	}, nil
}

// Reset restores the cell targeted by token to its pre-Set state.
func (b *boundHandle[T]) Reset(token proxyvars.Token) error {
	t, ok := token.(*handleToken[T])
	if !ok {
		return fmt.Errorf("managers: token %T was not issued by %s", token, b.handle.describe())
	}
	t.cell.Store(t.previous)
	return nil
}

type handleToken[T any] struct {
	id       uuid.UUID
	cell     *atomic.Pointer[T]
	previous *T
}

func (t *handleToken[T]) String() string {
	return fmt.Sprintf("token %s", t.id)
}
