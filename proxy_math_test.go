package proxyvars_test

import (
	"testing"

	"github.com/bswck/proxyvars"
	"github.com/bswck/proxyvars/pkg/managers"
)

func boundInt(t *testing.T, name string, value int) (*proxyvars.Proxy[int], *managers.Var[int]) {
	t.Helper()
	mgr := managers.NewVar[int](name)
	if _, err := mgr.Set(value); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	return proxyvars.Lookup[int](mgr), mgr
}

func TestArithmeticForwardsFreshValue(t *testing.T) {
	p, mgr := boundInt(t, "n", 10)

	cases := []struct {
		name string
		op   func() (int, error)
		want int
	}{
		{"add", func() (int, error) { return proxyvars.Add(p, 3) }, 13},
		{"sub", func() (int, error) { return proxyvars.Sub(p, 3) }, 7},
		{"mul", func() (int, error) { return proxyvars.Mul(p, 3) }, 30},
		{"div", func() (int, error) { return proxyvars.Div(p, 3) }, 3},
		{"mod", func() (int, error) { return proxyvars.Mod(p, 3) }, 1},
		{"bitand", func() (int, error) { return proxyvars.BitAnd(p, 6) }, 2},
		{"bitor", func() (int, error) { return proxyvars.BitOr(p, 5) }, 15},
		{"bitxor", func() (int, error) { return proxyvars.BitXor(p, 6) }, 12},
		{"lsh", func() (int, error) { return proxyvars.Lsh(p, 2) }, 40},
		{"rsh", func() (int, error) { return proxyvars.Rsh(p, 1) }, 5},
		{"neg", func() (int, error) { return proxyvars.Neg(p) }, -10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op()
			if err != nil {
				t.Fatalf("%s failed: %v", tc.name, err)
			}
			if got != tc.want {
				t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
			}
		})
	}

	// None of the pure operations should have touched the manager.
	if got, _ := mgr.Get(); got != 10 {
		t.Fatalf("pure operations must not mutate, manager holds %d", got)
	}
}

func TestComparisonsUseCurrentValue(t *testing.T) {
	p, mgr := boundInt(t, "n", 5)

	if less, err := proxyvars.Less(p, 6); err != nil || !less {
		t.Fatalf("expected 5 < 6, got %v err=%v", less, err)
	}
	if greater, err := proxyvars.Greater(p, 6); err != nil || greater {
		t.Fatalf("expected !(5 > 6), got %v err=%v", greater, err)
	}
	if _, err := mgr.Set(9); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if greater, err := proxyvars.Greater(p, 6); err != nil || !greater {
		t.Fatalf("rebind should flip the comparison, got %v err=%v", greater, err)
	}
	if ge, err := proxyvars.GreaterEqual(p, 9); err != nil || !ge {
		t.Fatalf("expected 9 >= 9, got %v err=%v", ge, err)
	}
	if le, err := proxyvars.LessEqual(p, 9); err != nil || !le {
		t.Fatalf("expected 9 <= 9, got %v err=%v", le, err)
	}
}

func TestInPlaceOperationsPersistAndReturnSameProxy(t *testing.T) {
	cases := []struct {
		name  string
		start int
		op    func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error)
		want  int
	}{
		{"add-assign", 10, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.AddAssign(p, 5) }, 15},
		{"sub-assign", 10, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.SubAssign(p, 5) }, 5},
		{"mul-assign", 10, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.MulAssign(p, 5) }, 50},
		{"div-assign", 10, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.DivAssign(p, 5) }, 2},
		{"mod-assign", 10, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.ModAssign(p, 3) }, 1},
		{"and-assign", 12, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.AndAssign(p, 10) }, 8},
		{"or-assign", 12, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.OrAssign(p, 3) }, 15},
		{"xor-assign", 12, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.XorAssign(p, 10) }, 6},
		{"lsh-assign", 3, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.LshAssign(p, 2) }, 12},
		{"rsh-assign", 12, func(p *proxyvars.Proxy[int]) (*proxyvars.Proxy[int], error) { return proxyvars.RshAssign(p, 2) }, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, mgr := boundInt(t, tc.name, tc.start)
			live, err := tc.op(p)
			if err != nil {
				t.Fatalf("%s failed: %v", tc.name, err)
			}
			if live != p {
				t.Fatalf("%s must return the proxy it mutated", tc.name)
			}
			if got, _ := mgr.Get(); got != tc.want {
				t.Fatalf("%s: manager should hold %d, got %d", tc.name, tc.want, got)
			}
			// The proxy stays live after the in-place operation.
			if got, err := live.Get(); err != nil || got != tc.want {
				t.Fatalf("%s: proxy should read %d, got %d err=%v", tc.name, tc.want, got, err)
			}
		})
	}
}

func TestConcatOnStrings(t *testing.T) {
	mgr := managers.NewVar[string]("word")
	word := proxyvars.Lookup[string](mgr)
	if _, err := mgr.Set("go"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := proxyvars.Concat(word, "pher")
	if err != nil {
		t.Fatalf("concat failed: %v", err)
	}
	if got != "gopher" {
		t.Fatalf("expected 'gopher', got %q", got)
	}
	if current, _ := mgr.Get(); current != "go" {
		t.Fatalf("concat must not mutate, manager holds %q", current)
	}

	if _, err := proxyvars.ConcatAssign(word, "pher"); err != nil {
		t.Fatalf("concat-assign failed: %v", err)
	}
	if current, _ := mgr.Get(); current != "gopher" {
		t.Fatalf("concat-assign should persist, manager holds %q", current)
	}
}

func TestFloatArithmetic(t *testing.T) {
	mgr := managers.NewVar[float64]("ratio")
	ratio := proxyvars.Lookup[float64](mgr)
	if _, err := mgr.Set(1.5); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := proxyvars.Mul(ratio, 2)
	if err != nil {
		t.Fatalf("mul failed: %v", err)
	}
	if got != 3.0 {
		t.Fatalf("expected 3.0, got %v", got)
	}
}

func TestInPlaceOnUnboundFails(t *testing.T) {
	mgr := managers.NewVar[int]("unset")
	p := proxyvars.Lookup[int](mgr)

	if _, err := proxyvars.AddAssign(p, 1); !proxyvars.IsUnbound(err) {
		t.Fatalf("expected unbound error, got %v", err)
	}
	// The failed fetch must not have bound the variable.
	if _, err := mgr.Get(); !proxyvars.IsUnbound(err) {
		t.Fatalf("manager should remain unbound, got %v", err)
	}
}
