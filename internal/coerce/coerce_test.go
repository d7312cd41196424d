package coerce

import (
	"encoding/json"
	"testing"
)

type point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

func TestToDirectAssertion(t *testing.T) {
	got, err := To[string]("hello")
	if err != nil || got != "hello" {
		t.Fatalf("expected direct assertion, got %q err=%v", got, err)
	}
}

func TestToNumericWidening(t *testing.T) {
	got, err := To[float64](int64(7))
	if err != nil || got != 7.0 {
		t.Fatalf("expected 7.0, got %v err=%v", got, err)
	}
	narrowed, err := To[int](float64(3.0))
	if err != nil || narrowed != 3 {
		t.Fatalf("expected 3, got %v err=%v", narrowed, err)
	}
}

func TestToRejectsCrossFamilyConversion(t *testing.T) {
	// int-to-string would produce a code point, never digits.
	if _, err := To[string](65); err == nil {
		t.Fatalf("int to string must not convert implicitly")
	}
	if _, err := To[int](true); err == nil {
		t.Fatalf("bool to int must not convert")
	}
}

func TestToNamedStringKinds(t *testing.T) {
	type label string
	got, err := To[label]("tagged")
	if err != nil || got != label("tagged") {
		t.Fatalf("expected named string conversion, got %q err=%v", got, err)
	}
}

func TestToJSONNumber(t *testing.T) {
	got, err := To[int](json.Number("42"))
	if err != nil || got != 42 {
		t.Fatalf("expected 42, got %v err=%v", got, err)
	}
	f, err := To[float64](json.Number("2.5"))
	if err != nil || f != 2.5 {
		t.Fatalf("expected 2.5, got %v err=%v", f, err)
	}
	s, err := To[string](json.Number("42"))
	if err != nil || s != "42" {
		t.Fatalf("expected the textual form, got %q err=%v", s, err)
	}
}

func TestToNilHandling(t *testing.T) {
	got, err := To[*point](nil)
	if err != nil || got != nil {
		t.Fatalf("nil should satisfy pointer targets, got %v err=%v", got, err)
	}
	if _, err := To[int](nil); err == nil {
		t.Fatalf("nil must not satisfy scalar targets")
	}
	m, err := To[map[string]int](nil)
	if err != nil || m != nil {
		t.Fatalf("nil should satisfy map targets, got %v err=%v", m, err)
	}
}

func TestToHydratesStructs(t *testing.T) {
	got, err := To[point](map[string]any{"x": 1, "y": 2.5})
	if err != nil {
		t.Fatalf("hydration failed: %v", err)
	}
	if got.X != 1 || got.Y != 2.5 {
		t.Fatalf("unexpected hydration result %+v", got)
	}

	back, err := To[map[string]any](point{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("flattening failed: %v", err)
	}
	if back["x"] != 3.0 || back["y"] != 4.0 {
		t.Fatalf("numbers should normalize to float64, got %v", back)
	}
}

func TestToIncompatibleShapes(t *testing.T) {
	if _, err := To[point]([]int{1, 2}); err == nil {
		t.Fatalf("slice cannot hydrate into struct")
	}
	if _, err := To[chan int]("nope"); err == nil {
		t.Fatalf("string cannot become a channel")
	}
}

func TestMapFlattensStructs(t *testing.T) {
	flattened, err := Map(point{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("flatten failed: %v", err)
	}
	if flattened["x"] != 1.0 || flattened["y"] != 2.0 {
		t.Fatalf("unexpected flattening %v", flattened)
	}

	viaPointer, err := Map(&point{X: 5})
	if err != nil || viaPointer["x"] != 5.0 {
		t.Fatalf("pointer flattening failed: %v %v", viaPointer, err)
	}
}

func TestMapPassesThroughAndRejects(t *testing.T) {
	existing := map[string]any{"k": "v"}
	got, err := Map(existing)
	if err != nil {
		t.Fatalf("map flatten failed: %v", err)
	}
	if got["k"] != "v" {
		t.Fatalf("existing maps should pass through, got %v", got)
	}

	if _, err := Map(42); err == nil {
		t.Fatalf("scalars cannot flatten into maps")
	}
	empty, err := Map(nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("nil should flatten to an empty map, got %v err=%v", empty, err)
	}
	var nilPtr *point
	empty, err = Map(nilPtr)
	if err != nil || len(empty) != 0 {
		t.Fatalf("nil pointer should flatten to an empty map, got %v err=%v", empty, err)
	}
}
