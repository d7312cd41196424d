package proxyvars

import (
	"errors"
	"fmt"
)

// ErrUnbound is the sentinel matched by errors.Is for every UnboundError.
var ErrUnbound = errors.New("proxyvars: unbound")

// UnboundError reports that a manager currently holds no value. Managers
// raise it from Get; the proxy propagates it verbatim on every operation
// except the display path.
type UnboundError struct {
	Manager string
	Type    string
	Err     error
}

func (e *UnboundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "proxyvars: no value bound"
	if e.Manager != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.Manager)
	}
	if e.Type != "" {
		msg = fmt.Sprintf("%s (declared type %s)", msg, e.Type)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *UnboundError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports ErrUnbound so callers can match without the concrete type.
func (e *UnboundError) Is(target error) bool {
	return target == ErrUnbound
}

// IsUnbound reports whether err signals the unbound state.
func IsUnbound(err error) bool {
	return errors.Is(err, ErrUnbound)
}

// ConfigurationError reports a malformed factory invocation: a partial
// getter/setter pair, a missing manager, or an operation the chosen accessor
// cannot support.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("proxyvars: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("proxyvars: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ResolveError captures resolver metadata alongside the originating error.
type ResolveError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *ResolveError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("proxyvars: %s resolver %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *ResolveError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

// wrapResolveError augments err with engine and expression metadata without
// double-wrapping an existing ResolveError. Unbound errors pass through
// untouched so the absence contract survives derivation.
func wrapResolveError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}
	if IsUnbound(err) {
		return err
	}
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		if resolveErr.Engine == "" {
			resolveErr.Engine = engine
		}
		if resolveErr.Expr == "" {
			resolveErr.Expr = expr
		}
		return resolveErr
	}
	return &ResolveError{
		Engine: engine,
		Expr:   expr,
		Err:    err,
	}
}
