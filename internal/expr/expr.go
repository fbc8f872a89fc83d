// Package expr parses numeric parameters and single-variable target
// functions written as text, e.g. "2*pi" or "0.5*sin(x)+0.5".
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/Knetic/govaluate"

	apperrors "condor-synth/internal/errors"
)

// Variable is the name of the free variable in a Function expression.
const Variable = "x"

var constants = map[string]interface{}{
	"pi":  math.Pi,
	"tau": 2 * math.Pi,
	"e":   math.E,
}

var functions = map[string]govaluate.ExpressionFunction{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"abs":   unary(math.Abs),
	"sqrt":  unary(math.Sqrt),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		base, ok1 := args[0].(float64)
		exp, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("pow expects numeric arguments")
		}
		return math.Pow(base, exp), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		return fold("max", args, math.Max)
	},
	"min": func(args ...interface{}) (interface{}, error) {
		return fold("min", args, math.Min)
	},
}

func unary(fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		v, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("expected numeric argument, got %T", args[0])
		}
		return fn(v), nil
	}
}

func fold(name string, args []interface{}, fn func(a, b float64) float64) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s expects at least 1 argument", name)
	}
	var acc float64
	for i, a := range args {
		v, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("%s expects numeric arguments, got %T", name, a)
		}
		if i == 0 {
			acc = v
			continue
		}
		acc = fn(acc, v)
	}
	return acc, nil
}

func compile(s string) (*govaluate.EvaluableExpression, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, apperrors.NewExpressionError(s, fmt.Errorf("empty expression"))
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(text, functions)
	if err != nil {
		return nil, apperrors.NewExpressionError(s, err)
	}
	return e, nil
}

func evaluate(e *govaluate.EvaluableExpression, params map[string]interface{}) (float64, error) {
	result, err := e.Evaluate(params)
	if err != nil {
		return 0, err
	}
	f, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("expression yields %T, not a number", result)
	}
	return f, nil
}

// ParseScalar evaluates a constant expression. Plain numbers take a fast
// path; anything else may use pi, tau, e and the math functions.
func ParseScalar(s string) (float64, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f, nil
	}

	e, err := compile(s)
	if err != nil {
		return 0, err
	}
	for _, v := range e.Vars() {
		if _, ok := constants[v]; !ok {
			return 0, apperrors.NewExpressionError(s, fmt.Errorf("unknown name %q", v))
		}
	}
	f, err := evaluate(e, constants)
	if err != nil {
		return 0, apperrors.NewExpressionError(s, err)
	}
	return f, nil
}

// Function is a compiled expression in x. It is safe for concurrent use.
type Function struct {
	source string
	mu     sync.Mutex
	expr   *govaluate.EvaluableExpression
	params map[string]interface{}
}

// Compile parses an expression whose only free variable is x.
func Compile(s string) (*Function, error) {
	e, err := compile(s)
	if err != nil {
		return nil, err
	}
	for _, v := range e.Vars() {
		if _, ok := constants[v]; !ok && v != Variable {
			return nil, apperrors.NewExpressionError(s, fmt.Errorf("unknown name %q", v))
		}
	}

	params := make(map[string]interface{}, len(constants)+1)
	for k, v := range constants {
		params[k] = v
	}
	params[Variable] = 0.0

	fn := &Function{source: strings.TrimSpace(s), expr: e, params: params}
	// Reject expressions that do not produce a number, e.g. comparisons.
	if _, err := fn.Eval(0); err != nil {
		return nil, apperrors.NewExpressionError(s, err)
	}
	return fn, nil
}

// Eval evaluates the function at x.
func (f *Function) Eval(x float64) (float64, error) {
	// EvaluableExpression is not documented as goroutine safe and the
	// parameter map is shared.
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[Variable] = x
	return evaluate(f.expr, f.params)
}

// Evaluate returns the value at x, or NaN if evaluation fails.
func (f *Function) Evaluate(x float64) float64 {
	v, err := f.Eval(x)
	if err != nil {
		return math.NaN()
	}
	return v
}

// String returns the source expression.
func (f *Function) String() string { return f.source }
