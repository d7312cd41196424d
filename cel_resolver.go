package proxyvars

import (
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELResolverOption configures the CEL resolver.
type CELResolverOption func(*celResolver)

// CELWithProgramCache wires a ProgramCache into the CEL resolver.
func CELWithProgramCache(cache ProgramCache) CELResolverOption {
	return func(r *celResolver) {
		r.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL resolver.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELResolverOption {
	return func(r *celResolver) {
		if registry == nil {
			return
		}
		r.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celResolver struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELResolver constructs a Resolver backed by cel-go.
func NewCELResolver(opts ...CELResolverOption) Resolver {
	r := &celResolver{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Engine identifies the resolver in errors and access events.
func (r *celResolver) Engine() string {
	return "cel"
}

func (r *celResolver) Resolve(ctx ResolveContext, expression string) (any, error) {
	if expression == "" {
		return nil, configError("expression must not be empty")
	}
	ctx = ctx.withDefaults()
	bindings := ctx.bindings()
	program, err := r.loadOrCompile(expression, bindings)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(r.activation(ctx, bindings))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// Compile returns a compiled expression evaluated per invocation. The CEL
// environment depends on the root's shape, so compilation is deferred to
// the first resolve and cached.
func (r *celResolver) Compile(expression string) (CompiledExpr, error) {
	if expression == "" {
		return nil, configError("expression must not be empty")
	}
	return &celCompiled{
		resolver:   r,
		expression: expression,
	}, nil
}

func (r *celResolver) loadOrCompile(expression string, bindings map[string]any) (*celProgram, error) {
	if bindings == nil {
		bindings = map[string]any{}
	}
	if r.cache != nil {
		if cached, ok := r.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := r.buildEnv(bindings)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if r.cache != nil {
		r.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (r *celResolver) buildEnv(bindings map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
	}
	if r.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType},
			celgo.DynType,
			celgo.FunctionBinding(r.callBinding()),
		)))
	}
	for key := range bindings {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (r *celResolver) activation(ctx ResolveContext, bindings map[string]any) map[string]any {
	activation := map[string]any{
		"now":  ctx.timestamp(),
		"args": ctx.Args,
	}
	for key, value := range bindings {
		activation[key] = value
	}
	if r.registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return r.registry.Call(name, arguments...)
		}
	}
	return activation
}

type celCompiled struct {
	resolver   *celResolver
	expression string
}

func (c *celCompiled) Resolve(ctx ResolveContext) (any, error) {
	if c.resolver == nil {
		return nil, configError("compiled expression missing resolver")
	}
	ctx = ctx.withDefaults()
	bindings := ctx.bindings()
	program, err := c.resolver.loadOrCompile(c.expression, bindings)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(c.resolver.activation(ctx, bindings))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (r *celResolver) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if r.registry == nil {
			return types.NewErr("proxyvars: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("proxyvars: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("proxyvars: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := r.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
