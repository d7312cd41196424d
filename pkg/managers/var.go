// Package managers provides ready-made implementations of the Manager
// capability consumed by proxyvars: a named mutable cell with undo tokens
// and a context-carried handle for per-request values. The proxy core never
// depends on these; any object with the right get/set shape works.
package managers

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bswck/proxyvars"
)

// Var is a named mutable cell that starts unbound. Every Set returns a
// token that Reset accepts to restore the previous state, including the
// unbound one. Safe for concurrent use; note that proxy-level
// fetch-modify-write sequences over a shared Var still race like any
// unsynchronized read-modify-write.
type Var[T any] struct {
	name  string
	mu    sync.Mutex
	value *T
}

// NewVar constructs an unbound cell labelled name.
func NewVar[T any](name string) *Var[T] {
	return &Var[T]{name: name}
}

// Get returns the current value, failing with an UnboundError while no
// value has been set.
func (v *Var[T]) Get() (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.value == nil {
		var zero T
		return zero, &proxyvars.UnboundError{Manager: v.describe()}
	}
	return *v.value, nil
}

// Set installs value and returns a token that undoes the change.
func (v *Var[T]) Set(value T) (proxyvars.Token, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	token := &varToken[T]{
		id:       uuid.New(),
		cell:     v,
		previous: v.value,
	}
	v.value = &value
	return token, nil
}

// Reset restores the state the cell had before the Set that produced token.
// A token from another cell, or one already spent, is rejected.
func (v *Var[T]) Reset(token proxyvars.Token) error {
	t, ok := token.(*varToken[T])
	if !ok {
		return fmt.Errorf("managers: token %T was not issued by %s", token, v.describe())
	}
	if t.cell != v {
		return fmt.Errorf("managers: token %s belongs to a different cell", t.id)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if t.spent {
		return fmt.Errorf("managers: token %s already used", t.id)
	}
	t.spent = true
	v.value = t.previous
	return nil
}

// Name returns the label given at construction.
func (v *Var[T]) Name() string {
	return v.name
}

func (v *Var[T]) String() string {
	return v.describe()
}

func (v *Var[T]) describe() string {
	if v.name == "" {
		return "managers.Var"
	}
	return fmt.Sprintf("managers.Var(%s)", v.name)
}

type varToken[T any] struct {
	id       uuid.UUID
	cell     *Var[T]
	previous *T
	spent    bool
}

func (t *varToken[T]) String() string {
	return fmt.Sprintf("token %s", t.id)
}
