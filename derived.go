package proxyvars

import (
	"time"

	"github.com/bswck/proxyvars/internal/coerce"
)

// ResolveContext carries the inputs an expression is evaluated against: the
// freshly fetched root value plus optional caller bindings.
type ResolveContext struct {
	Root any
	Now  *time.Time
	Args map[string]any
}

func (ctx ResolveContext) withDefaults() ResolveContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx ResolveContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

// bindings flattens the root into named expression variables. Struct and
// map roots contribute their fields; every root is additionally reachable
// as "value".
func (ctx ResolveContext) bindings() map[string]any {
	env := map[string]any{}
	if flattened, err := coerce.Map(ctx.Root); err == nil {
		for key, item := range flattened {
			env[key] = item
		}
	}
	env["value"] = ctx.Root
	return env
}

// Resolver executes expressions against a resolve context.
type Resolver interface {
	Resolve(ctx ResolveContext, expression string) (any, error)
}

// CompiledExpr evaluates a pre-compiled expression per invocation.
type CompiledExpr interface {
	Resolve(ctx ResolveContext) (any, error)
}

func resolverEngine(r Resolver) string {
	if named, ok := r.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}

// DerivedOption configures a derived proxy.
type DerivedOption func(*derivedConfig)

type derivedConfig struct {
	resolver  Resolver
	cache     ProgramCache
	functions *FunctionRegistry
	logger    AccessLogger
}

// WithResolver selects the expression engine backing a derived proxy. The
// default is the expr engine.
func WithResolver(resolver Resolver) DerivedOption {
	return func(cfg *derivedConfig) {
		cfg.resolver = resolver
	}
}

// WithResolverCache shares a compiled-program cache with the default
// resolver.
func WithResolverCache(cache ProgramCache) DerivedOption {
	return func(cfg *derivedConfig) {
		cfg.cache = cache
	}
}

// WithResolverFunctions exposes custom functions to the default resolver's
// expressions.
func WithResolverFunctions(registry *FunctionRegistry) DerivedOption {
	return func(cfg *derivedConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithDerivedLogger attaches an access logger to both the derived proxy and
// its resolution step.
func WithDerivedLogger(logger AccessLogger) DerivedOption {
	return func(cfg *derivedConfig) {
		cfg.logger = logger
	}
}

// Derived builds a read-only proxy whose value is an expression resolved
// against the parent's freshly fetched value on every access. Writing
// through a derived proxy fails with a ConfigurationError; rebinds belong
// on the parent.
func Derived[F any](parent Source, expression string, opts ...DerivedOption) (*Proxy[F], error) {
	if parent == nil {
		return nil, configError("parent proxy is required")
	}
	if expression == "" {
		return nil, configError("expression must not be empty")
	}
	cfg := derivedConfig{logger: noopAccessLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	resolver := cfg.resolver
	if resolver == nil {
		exprOpts := []ExprResolverOption{}
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
		}
		resolver = NewExprResolver(exprOpts...)
	}
	mgr := &derivedManager[F]{
		parent:     parent,
		expression: expression,
		resolver:   resolver,
		engine:     resolverEngine(resolver),
		logger:     cfg.logger,
	}
	return New[F](mgr, WithAccessLogger[F](cfg.logger))
}

type derivedManager[F any] struct {
	parent     Source
	expression string
	resolver   Resolver
	engine     string
	logger     AccessLogger
}

func (m *derivedManager[F]) Get() (F, error) {
	var zero F
	root, err := m.parent.Current()
	if err != nil {
		return zero, err
	}
	ctx := ResolveContext{Root: root}.withDefaults()
	start := time.Now()
	out, resolveErr := m.resolver.Resolve(ctx, m.expression)
	duration := time.Since(start)
	resolveErr = wrapResolveError(m.engine, m.expression, resolveErr)
	m.logger.LogAccess(AccessEvent{
		Op:       "resolve",
		Proxy:    m.parent.Label(),
		Engine:   m.engine,
		Expr:     m.expression,
		Duration: duration,
		Err:      resolveErr,
	})
	if resolveErr != nil {
		return zero, resolveErr
	}
	typed, err := coerce.To[F](out)
	if err != nil {
		return zero, wrapResolveError(m.engine, m.expression, err)
	}
	return typed, nil
}

func (m *derivedManager[F]) Set(F) (Token, error) {
	return nil, configError("derived proxy is read-only")
}
