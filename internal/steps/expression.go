package steps

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// ParameterType describes a typed placeholder usable in step expressions.
type ParameterType struct {
	Name string
	// Pattern captures the value in one group per alternative; at most one
	// of them participates in a match.
	Pattern string
	Kind    reflect.Kind
	groups  int
	convert func(string) (interface{}, error)
}

var parameterTypes = map[string]ParameterType{
	"int": {
		Name:    "int",
		Pattern: `(-?\d+)`,
		Kind:    reflect.Int,
		groups:  1,
		convert: func(s string) (interface{}, error) { return strconv.Atoi(s) },
	},
	"float": {
		Name:    "float",
		Pattern: `(-?\d*\.?\d+(?:[eE][-+]?\d+)?)`,
		Kind:    reflect.Float64,
		groups:  1,
		convert: func(s string) (interface{}, error) { return strconv.ParseFloat(s, 64) },
	},
	"string": {
		Name:    "string",
		Pattern: `(?:"([^"]*)"|'([^']*)')`,
		Kind:    reflect.String,
		groups:  2,
		convert: func(s string) (interface{}, error) { return s, nil },
	},
	"word": {
		Name:    "word",
		Pattern: `([^\s]+)`,
		Kind:    reflect.String,
		groups:  1,
		convert: func(s string) (interface{}, error) { return s, nil },
	},
	"": {
		Name:    "anonymous",
		Pattern: `(.*)`,
		Kind:    reflect.String,
		groups:  1,
		convert: func(s string) (interface{}, error) { return s, nil },
	},
}

// Parameter is one placeholder of a compiled expression.
type Parameter struct {
	// Name is the optional label before the colon, e.g. "count" in {count:Int}.
	Name string
	Type ParameterType
}

// Expression is a compiled step phrase. It supports the Cucumber expression
// subset {Type}, {name:Type}, optional text "(s)" and backslash escapes.
// Type names are case-insensitive: Int, Float, String, Word, or empty.
type Expression struct {
	source string
	re     *regexp.Regexp
	params []Parameter
}

// Compile parses a step expression.
func Compile(source string) (*Expression, error) {
	var (
		b      strings.Builder
		params []Parameter
	)
	b.WriteString("^")

	for i := 0; i < len(source); i++ {
		c := source[i]
		switch c {
		case '\\':
			if i+1 >= len(source) {
				return nil, fmt.Errorf("expression %q: trailing escape", source)
			}
			i++
			b.WriteString(regexp.QuoteMeta(string(source[i])))
		case '{':
			end := strings.IndexByte(source[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("expression %q: unclosed '{' at offset %d", source, i)
			}
			param, err := parseParameter(source[i+1 : i+end])
			if err != nil {
				return nil, fmt.Errorf("expression %q: %w", source, err)
			}
			params = append(params, param)
			b.WriteString(param.Type.Pattern)
			i += end
		case '}':
			return nil, fmt.Errorf("expression %q: unexpected '}' at offset %d", source, i)
		case '(':
			end := strings.IndexByte(source[i:], ')')
			if end < 0 {
				return nil, fmt.Errorf("expression %q: unclosed '(' at offset %d", source, i)
			}
			optional := source[i+1 : i+end]
			if strings.ContainsAny(optional, "{}(") {
				return nil, fmt.Errorf("expression %q: optional text cannot contain parameters or groups", source)
			}
			b.WriteString("(?:" + regexp.QuoteMeta(optional) + ")?")
			i += end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", source, err)
	}
	return &Expression{source: source, re: re, params: params}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(source string) *Expression {
	e, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return e
}

func parseParameter(body string) (Parameter, error) {
	name, typeName := "", body
	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		name, typeName = strings.TrimSpace(body[:idx]), body[idx+1:]
	}
	typeName = strings.ToLower(strings.TrimSpace(typeName))
	pt, ok := parameterTypes[typeName]
	if !ok {
		return Parameter{}, fmt.Errorf("unknown parameter type %q", typeName)
	}
	return Parameter{Name: name, Type: pt}, nil
}

// Source returns the expression as written.
func (e *Expression) Source() string { return e.source }

// Regexp returns the anchored regular expression equivalent, suitable for
// godog.ScenarioContext.Step.
func (e *Expression) Regexp() *regexp.Regexp { return e.re }

// Parameters returns the placeholders in order of appearance.
func (e *Expression) Parameters() []Parameter { return e.params }

// Match reports whether text matches and returns the typed arguments.
func (e *Expression) Match(text string) ([]interface{}, bool, error) {
	m := e.re.FindStringSubmatch(text)
	if m == nil {
		return nil, false, nil
	}
	args, err := e.args(m[1:])
	return args, true, err
}

// args converts the capture groups of a match, in order, into one typed
// argument per parameter.
func (e *Expression) args(groups []string) ([]interface{}, error) {
	args := make([]interface{}, 0, len(e.params))
	offset := 0
	for i, p := range e.params {
		if offset+p.Type.groups > len(groups) {
			return nil, fmt.Errorf("expression %q: %d capture groups for %d parameters", e.source, len(groups), len(e.params))
		}
		raw := strings.Join(groups[offset:offset+p.Type.groups], "")
		offset += p.Type.groups
		v, err := p.Type.convert(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %d (%s) of %q: %w", i+1, p.Type.Name, e.source, err)
		}
		args = append(args, v)
	}
	return args, nil
}
