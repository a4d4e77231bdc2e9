package transform

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	exprEnvOnce sync.Once
	exprEnv     *cel.Env
	exprEnvErr  error
)

// filterEnv declares the variables visible to filter expressions:
// fields (map of field name to value) and tags (list of source tags).
func filterEnv() (*cel.Env, error) {
	exprEnvOnce.Do(func() {
		exprEnv, exprEnvErr = cel.NewEnv(
			cel.Variable("fields", cel.MapType(cel.StringType, cel.StringType)),
			cel.Variable("tags", cel.ListType(cel.StringType)),
		)
	})
	return exprEnv, exprEnvErr
}

// Expr is a compiled boolean filter expression.
type Expr struct {
	src string
	prg cel.Program
}

// CompileExpr compiles a CEL expression that must yield a bool.
func CompileExpr(src string) (*Expr, error) {
	env, err := filterEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("expression %q: compile: %w", src, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression %q: result is %s, want bool", src, t)
	}
	prg, err := env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("expression %q: program: %w", src, err)
	}
	return &Expr{src: src, prg: prg}, nil
}

func (x *Expr) String() string { return x.src }

// Eval runs the expression against ns.
func (x *Expr) Eval(ns Namespace) (bool, error) {
	tags := ns.Tags
	if tags == nil {
		tags = []string{}
	}
	out, _, err := x.prg.Eval(map[string]any{
		"fields": ns.Fields(),
		"tags":   tags,
	})
	if err != nil {
		return false, fmt.Errorf("%w: %q: %w", ErrFilterEvaluation, x.src, err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q: result not bool", ErrFilterEvaluation, x.src)
	}
	return val, nil
}
