package proxyvars

import "cmp"

// The operator surface is expressed as free generic functions because Go
// methods cannot introduce extra type parameters. Every read operator
// performs exactly one getter call; every Assign variant performs one getter
// call plus one setter call and returns the same proxy, so a proxy over an
// immutable value (an int, a string) can still sit on the left-hand side of
// an augmented assignment: the rebind is redirected through the manager
// instead of the caller's local binding.

// Add returns the forwarded value plus operand.
func Add[T Numeric](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("add")
	if err != nil {
		var zero T
		return zero, err
	}
	return value + operand, nil
}

// Sub returns the forwarded value minus operand.
func Sub[T Numeric](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("sub")
	if err != nil {
		var zero T
		return zero, err
	}
	return value - operand, nil
}

// Mul returns the forwarded value times operand.
func Mul[T Numeric](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("mul")
	if err != nil {
		var zero T
		return zero, err
	}
	return value * operand, nil
}

// Div returns the forwarded value divided by operand. Division by zero
// behaves exactly as it would on the raw value.
func Div[T Numeric](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("div")
	if err != nil {
		var zero T
		return zero, err
	}
	return value / operand, nil
}

// Mod returns the forwarded value modulo operand.
func Mod[T Integer](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("mod")
	if err != nil {
		var zero T
		return zero, err
	}
	return value % operand, nil
}

// Neg returns the arithmetic negation of the forwarded value.
func Neg[T Numeric](p *Proxy[T]) (T, error) {
	value, err := p.fetch("neg")
	if err != nil {
		var zero T
		return zero, err
	}
	return -value, nil
}

// BitAnd returns the forwarded value ANDed with operand.
func BitAnd[T Integer](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("and")
	if err != nil {
		var zero T
		return zero, err
	}
	return value & operand, nil
}

// BitOr returns the forwarded value ORed with operand.
func BitOr[T Integer](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("or")
	if err != nil {
		var zero T
		return zero, err
	}
	return value | operand, nil
}

// BitXor returns the forwarded value XORed with operand.
func BitXor[T Integer](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("xor")
	if err != nil {
		var zero T
		return zero, err
	}
	return value ^ operand, nil
}

// Lsh returns the forwarded value shifted left by bits.
func Lsh[T Integer](p *Proxy[T], bits uint) (T, error) {
	value, err := p.fetch("lsh")
	if err != nil {
		var zero T
		return zero, err
	}
	return value << bits, nil
}

// Rsh returns the forwarded value shifted right by bits.
func Rsh[T Integer](p *Proxy[T], bits uint) (T, error) {
	value, err := p.fetch("rsh")
	if err != nil {
		var zero T
		return zero, err
	}
	return value >> bits, nil
}

// Concat returns the forwarded string concatenated with operand.
func Concat[T ~string](p *Proxy[T], operand T) (T, error) {
	value, err := p.fetch("concat")
	if err != nil {
		var zero T
		return zero, err
	}
	return value + operand, nil
}

// Less reports whether the forwarded value orders before operand.
func Less[T cmp.Ordered](p *Proxy[T], operand T) (bool, error) {
	value, err := p.fetch("lt")
	if err != nil {
		return false, err
	}
	return value < operand, nil
}

// LessEqual reports whether the forwarded value orders at or before operand.
func LessEqual[T cmp.Ordered](p *Proxy[T], operand T) (bool, error) {
	value, err := p.fetch("le")
	if err != nil {
		return false, err
	}
	return value <= operand, nil
}

// Greater reports whether the forwarded value orders after operand.
func Greater[T cmp.Ordered](p *Proxy[T], operand T) (bool, error) {
	value, err := p.fetch("gt")
	if err != nil {
		return false, err
	}
	return value > operand, nil
}

// GreaterEqual reports whether the forwarded value orders at or after
// operand.
func GreaterEqual[T cmp.Ordered](p *Proxy[T], operand T) (bool, error) {
	value, err := p.fetch("ge")
	if err != nil {
		return false, err
	}
	return value >= operand, nil
}

// AddAssign fetches, adds operand, and persists the result.
func AddAssign[T Numeric](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "add-assign", func(value T) T { return value + operand })
}

// SubAssign fetches, subtracts operand, and persists the result.
func SubAssign[T Numeric](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "sub-assign", func(value T) T { return value - operand })
}

// MulAssign fetches, multiplies by operand, and persists the result.
func MulAssign[T Numeric](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "mul-assign", func(value T) T { return value * operand })
}

// DivAssign fetches, divides by operand, and persists the result.
func DivAssign[T Numeric](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "div-assign", func(value T) T { return value / operand })
}

// ModAssign fetches, reduces modulo operand, and persists the result.
func ModAssign[T Integer](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "mod-assign", func(value T) T { return value % operand })
}

// AndAssign fetches, ANDs with operand, and persists the result.
func AndAssign[T Integer](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "and-assign", func(value T) T { return value & operand })
}

// OrAssign fetches, ORs with operand, and persists the result.
func OrAssign[T Integer](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "or-assign", func(value T) T { return value | operand })
}

// XorAssign fetches, XORs with operand, and persists the result.
func XorAssign[T Integer](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "xor-assign", func(value T) T { return value ^ operand })
}

// LshAssign fetches, shifts left by bits, and persists the result.
func LshAssign[T Integer](p *Proxy[T], bits uint) (*Proxy[T], error) {
	return assign(p, "lsh-assign", func(value T) T { return value << bits })
}

// RshAssign fetches, shifts right by bits, and persists the result.
func RshAssign[T Integer](p *Proxy[T], bits uint) (*Proxy[T], error) {
	return assign(p, "rsh-assign", func(value T) T { return value >> bits })
}

// ConcatAssign fetches, appends operand, and persists the result.
func ConcatAssign[T ~string](p *Proxy[T], operand T) (*Proxy[T], error) {
	return assign(p, "concat-assign", func(value T) T { return value + operand })
}

func assign[T any](p *Proxy[T], op string, apply func(T) T) (*Proxy[T], error) {
	value, err := p.fetch(op)
	if err != nil {
		return nil, err
	}
	if _, err := p.persist(op, apply(value), any(value), true); err != nil {
		return nil, err
	}
	return p, nil
}
