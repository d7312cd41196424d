package proxyvars

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprResolverOption configures an expr resolver instance.
type ExprResolverOption func(*exprResolver)

// ExprWithProgramCache wires a ProgramCache into the expr resolver.
func ExprWithProgramCache(cache ProgramCache) ExprResolverOption {
	return func(r *exprResolver) {
		r.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr resolver.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprResolverOption {
	return func(r *exprResolver) {
		if registry == nil {
			return
		}
		r.registry = registry.Clone()
	}
}

// exprResolver executes expressions using github.com/expr-lang/expr.
type exprResolver struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprResolver constructs a Resolver backed by expr-lang/expr.
func NewExprResolver(opts ...ExprResolverOption) Resolver {
	r := &exprResolver{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Engine identifies the resolver in errors and access events.
func (r *exprResolver) Engine() string {
	return "expr"
}

// Resolve compiles and runs expression against ctx.
func (r *exprResolver) Resolve(ctx ResolveContext, expression string) (any, error) {
	if expression == "" {
		return nil, configError("expression must not be empty")
	}
	ctx = ctx.withDefaults()
	env := r.environment(ctx)
	if r.cache == nil {
		result, err := exprlang.Eval(expression, env)
		if err != nil {
			return nil, wrapResolveError("expr", expression, err)
		}
		return result, nil
	}
	program, err := r.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapResolveError("expr", expression, err)
	}
	return result, nil
}

// Compile returns a compiled expression evaluated per invocation.
func (r *exprResolver) Compile(expression string) (CompiledExpr, error) {
	if expression == "" {
		return nil, configError("expression must not be empty")
	}
	program, err := r.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiled{
		resolver:   r,
		program:    program,
		expression: expression,
	}, nil
}

func (r *exprResolver) loadOrCompile(expression string) (*exprvm.Program, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range r.registryNames() {
		fn := r.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapResolveError("expr", expression, err)
	}
	if r.cache != nil {
		r.cache.Set(expression, program)
	}
	return program, nil
}

type exprCompiled struct {
	resolver   *exprResolver
	program    *exprvm.Program
	expression string
}

func (c *exprCompiled) Resolve(ctx ResolveContext) (any, error) {
	if c.resolver == nil {
		return nil, configError("compiled expression missing resolver")
	}
	ctx = ctx.withDefaults()
	if c.program == nil {
		return c.resolver.Resolve(ctx, c.expression)
	}
	env := c.resolver.environment(ctx)
	result, err := exprlang.Run(c.program, env)
	if err != nil {
		return nil, wrapResolveError("expr", c.expression, err)
	}
	return result, nil
}

func (r *exprResolver) environment(ctx ResolveContext) map[string]any {
	env := map[string]any{
		"now":  ctx.timestamp(),
		"args": ctx.Args,
	}
	for key, value := range ctx.bindings() {
		env[key] = value
	}
	if r.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return r.registry.Call(name, arguments...)
		}
		for _, name := range r.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return r.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (r *exprResolver) registryNames() []string {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.Names()
}

func (r *exprResolver) registryFunction(name string) func(...any) (any, error) {
	if r == nil || r.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return r.registry.Call(name, arguments...)
	}
}
