package steps

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/cucumber/godog"
)

// Keyword is the Gherkin keyword a definition is written for. godog matches
// on the phrase alone; the keyword documents intent.
type Keyword string

const (
	Given Keyword = "Given"
	When  Keyword = "When"
	Then  Keyword = "Then"
)

var (
	// ErrUndefinedStep is returned by Dispatch when no definition matches.
	ErrUndefinedStep = errors.New("undefined step")
	// ErrAmbiguousStep is returned by Dispatch when several definitions match.
	ErrAmbiguousStep = errors.New("ambiguous step")
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	stringType  = reflect.TypeOf("")
)

// Definition binds a phrase to its handler.
type Definition struct {
	Keyword    Keyword
	Expression *Expression
	// Handler is a function taking an optional leading context.Context and
	// one argument per expression parameter, returning error or
	// (context.Context, error).
	Handler interface{}

	fn         reflect.Value
	takesCtx   bool
	returnsCtx bool
}

// Registry is the explicit phrase to handler mapping, kept in registration order.
type Registry struct {
	mu   sync.RWMutex
	defs []*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register compiles the expression, validates the handler signature
// against it and adds the definition.
func (r *Registry) Register(kw Keyword, expression string, handler interface{}) error {
	expr, err := Compile(expression)
	if err != nil {
		return err
	}
	def, err := newDefinition(kw, expr, handler)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.defs {
		if d.Expression.Source() == expr.Source() {
			return fmt.Errorf("step %q is already registered", expression)
		}
	}
	r.defs = append(r.defs, def)
	return nil
}

func newDefinition(kw Keyword, expr *Expression, handler interface{}) (*Definition, error) {
	fn := reflect.ValueOf(handler)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler for %q is %T, not a function", expr.Source(), handler)
	}
	typ := fn.Type()
	if typ.IsVariadic() {
		return nil, fmt.Errorf("handler for %q must not be variadic", expr.Source())
	}

	def := &Definition{Keyword: kw, Expression: expr, Handler: handler, fn: fn}

	in := 0
	if typ.NumIn() > 0 && typ.In(0) == contextType {
		def.takesCtx = true
		in = 1
	}
	params := expr.Parameters()
	if typ.NumIn()-in != len(params) {
		return nil, fmt.Errorf("handler for %q takes %d arguments, expression has %d parameters", expr.Source(), typ.NumIn()-in, len(params))
	}
	for i, p := range params {
		if got := typ.In(in + i).Kind(); got != p.Type.Kind {
			return nil, fmt.Errorf("handler for %q: argument %d is %s, parameter {%s} needs %s", expr.Source(), i+1, got, p.Type.Name, p.Type.Kind)
		}
	}

	switch {
	case typ.NumOut() == 1 && typ.Out(0) == errorType:
	case typ.NumOut() == 2 && typ.Out(0) == contextType && typ.Out(1) == errorType:
		def.returnsCtx = true
	default:
		return nil, fmt.Errorf("handler for %q must return error or (context.Context, error)", expr.Source())
	}
	return def, nil
}

// Definitions returns the registered definitions in order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Bind registers every definition with a godog scenario.
func (r *Registry) Bind(sc *godog.ScenarioContext) {
	for _, d := range r.Definitions() {
		sc.Step(d.Expression.Regexp(), d.stepFunc())
	}
}

// stepFunc adapts the definition to godog, which passes one string per
// capture group rather than one value per parameter.
func (d *Definition) stepFunc() interface{} {
	n := d.Expression.Regexp().NumSubexp()
	in := []reflect.Type{contextType}
	for i := 0; i < n; i++ {
		in = append(in, stringType)
	}
	typ := reflect.FuncOf(in, []reflect.Type{contextType, errorType}, false)

	return reflect.MakeFunc(typ, func(vals []reflect.Value) []reflect.Value {
		ctx := vals[0].Interface().(context.Context)
		groups := make([]string, n)
		for i := range groups {
			groups[i] = vals[i+1].String()
		}

		next := ctx
		args, err := d.Expression.args(groups)
		if err == nil {
			next, err = d.invoke(ctx, args)
		}
		errVal := reflect.Zero(errorType)
		if err != nil {
			errVal = reflect.ValueOf(&err).Elem()
		}
		return []reflect.Value{reflect.ValueOf(&next).Elem(), errVal}
	}).Interface()
}

// Dispatch finds the single definition matching text and invokes it.
func (r *Registry) Dispatch(ctx context.Context, text string) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	text = strings.TrimSpace(text)

	var (
		match *Definition
		args  []interface{}
	)
	for _, d := range r.Definitions() {
		a, ok, err := d.Expression.Match(text)
		if !ok {
			continue
		}
		if err != nil {
			return ctx, err
		}
		if match != nil {
			return ctx, fmt.Errorf("%w: %q matches %q and %q", ErrAmbiguousStep, text, match.Expression.Source(), d.Expression.Source())
		}
		match, args = d, a
	}
	if match == nil {
		return ctx, fmt.Errorf("%w: %q", ErrUndefinedStep, text)
	}
	return match.invoke(ctx, args)
}

func (d *Definition) invoke(ctx context.Context, args []interface{}) (context.Context, error) {
	in := make([]reflect.Value, 0, len(args)+1)
	if d.takesCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	typ := d.fn.Type()
	offset := len(in)
	for i, a := range args {
		in = append(in, reflect.ValueOf(a).Convert(typ.In(offset+i)))
	}

	out := d.fn.Call(in)
	errVal := out[len(out)-1]
	var err error
	if !errVal.IsNil() {
		err = errVal.Interface().(error)
	}
	if d.returnsCtx {
		if next, ok := out[0].Interface().(context.Context); ok && next != nil {
			ctx = next
		}
	}
	return ctx, err
}
