package proxyvars

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUnboundErrorMatchesSentinel(t *testing.T) {
	err := &UnboundError{Manager: "managers.Var(counter)", Type: "int"}
	if !errors.Is(err, ErrUnbound) {
		t.Fatalf("UnboundError should match ErrUnbound")
	}
	if !IsUnbound(err) {
		t.Fatalf("IsUnbound should report true")
	}
	if IsUnbound(errors.New("other")) {
		t.Fatalf("IsUnbound should report false for unrelated errors")
	}
	if IsUnbound(nil) {
		t.Fatalf("IsUnbound should report false for nil")
	}

	msg := err.Error()
	if !strings.Contains(msg, "managers.Var(counter)") || !strings.Contains(msg, "int") {
		t.Fatalf("message should carry manager and type, got %q", msg)
	}
}

func TestUnboundErrorWrapping(t *testing.T) {
	cause := errors.New("cell empty")
	err := &UnboundError{Manager: "cell", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("UnboundError should unwrap its cause")
	}
	wrapped := fmt.Errorf("get: %w", err)
	if !IsUnbound(wrapped) {
		t.Fatalf("IsUnbound should see through wrapping")
	}
}

func TestConfigurationErrorFormatting(t *testing.T) {
	err := configError("getter and setter must be supplied together")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("configError should yield a ConfigurationError")
	}
	if !strings.HasPrefix(err.Error(), "proxyvars: ") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	cause := errors.New("bad input")
	withCause := &ConfigurationError{Reason: "invalid path", Err: cause}
	if !errors.Is(withCause, cause) {
		t.Fatalf("ConfigurationError should unwrap its cause")
	}
	if !strings.Contains(withCause.Error(), "bad input") {
		t.Fatalf("unexpected message %q", withCause.Error())
	}
}

func TestWrapResolveError(t *testing.T) {
	if wrapResolveError("expr", "price", nil) != nil {
		t.Fatalf("nil errors must stay nil")
	}

	unbound := &UnboundError{Manager: "cell"}
	if got := wrapResolveError("expr", "price", unbound); got != error(unbound) {
		t.Fatalf("unbound errors must pass through untouched, got %v", got)
	}

	cause := errors.New("parse failed")
	err := wrapResolveError("cel", "price * 2", cause)
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("expected ResolveError, got %v", err)
	}
	if resolveErr.Engine != "cel" || resolveErr.Expr != "price * 2" {
		t.Fatalf("metadata not captured: %+v", resolveErr)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("ResolveError should unwrap its cause")
	}

	// Rewrapping fills blanks but never overwrites.
	again := wrapResolveError("expr", "other", err)
	if !errors.As(again, &resolveErr) {
		t.Fatalf("expected ResolveError, got %v", again)
	}
	if resolveErr.Engine != "cel" || resolveErr.Expr != "price * 2" {
		t.Fatalf("rewrapping must not overwrite metadata: %+v", resolveErr)
	}
}

func TestResolveErrorMessage(t *testing.T) {
	err := &ResolveError{Engine: "expr", Expr: "price +", Err: errors.New("unexpected token")}
	msg := err.Error()
	for _, fragment := range []string{"expr resolver", `expr="price +"`, "unexpected token"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("message %q missing %q", msg, fragment)
		}
	}

	empty := &ResolveError{Engine: "cel", Err: errors.New("boom")}
	if !strings.Contains(empty.Error(), "expr=<empty>") {
		t.Fatalf("empty expression should be flagged, got %q", empty.Error())
	}
}
