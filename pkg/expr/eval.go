package expr

import (
	"fmt"
	"io"

	"github.com/lemonberrylabs/flare/pkg/types"
)

// Scope provides variable storage for evaluation. It is a single flat table:
// there is no nesting and no shadowing.
type Scope interface {
	// Lookup returns the value bound to name.
	Lookup(name string) (types.Value, bool)

	// Define binds name, creating or overwriting it.
	Define(name string, value types.Value)

	// Update overwrites an existing binding and reports whether name was bound.
	Update(name string, value types.Value) bool
}

// Evaluator reduces expressions to values. display output goes to the
// writer given to NewEvaluator, one value per line.
type Evaluator struct {
	out io.Writer
}

// NewEvaluator creates an evaluator that prints to out. A nil writer
// discards output.
func NewEvaluator(out io.Writer) *Evaluator {
	if out == nil {
		out = io.Discard
	}
	return &Evaluator{out: out}
}

// Eval evaluates e within scope. Evaluation is strictly left to right and
// stops at the first error; side effects of the steps before the failure
// (printed output, earlier bindings) are kept.
func (ev *Evaluator) Eval(e types.Expr, scope Scope) (types.Value, error) {
	switch n := e.(type) {
	case types.Symbol:
		v, ok := scope.Lookup(n.Name)
		if !ok {
			return nil, types.NewUnboundSymbolError(n.Name)
		}
		return v, nil
	case types.Number, types.String:
		return n, nil
	case types.Print:
		return ev.evalPrint(n, scope)
	case types.List:
		return ev.evalList(n, scope)
	case types.Func:
		return nil, types.NewUnexpectedCallableError()
	case types.Let:
		v, err := ev.Eval(n.Value, scope)
		if err != nil {
			return nil, err
		}
		scope.Define(n.Name, v)
		return types.Zero, nil
	case types.Assign:
		v, err := ev.Eval(n.Value, scope)
		if err != nil {
			return nil, err
		}
		if !scope.Update(n.Name, v) {
			return nil, types.NewUndefinedVariableError(n.Name)
		}
		return v, nil
	case types.Op:
		return ev.evalOp(n, scope)
	case types.If:
		cond, err := ev.Eval(n.Cond, scope)
		if err != nil {
			return nil, err
		}
		if types.Truthy(cond) {
			return ev.Eval(n.Then, scope)
		}
		return ev.Eval(n.Else, scope)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

// evalPrint writes numbers and strings; other values are silently skipped.
// The result is always 0.
func (ev *Evaluator) evalPrint(n types.Print, scope Scope) (types.Value, error) {
	v, err := ev.Eval(n.Inner, scope)
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case types.Number, types.String:
		if _, err := fmt.Fprintln(ev.out, v.String()); err != nil {
			return nil, fmt.Errorf("display: %w", err)
		}
	}
	return types.Zero, nil
}

func (ev *Evaluator) evalList(n types.List, scope Scope) (types.Value, error) {
	if len(n.Items) == 0 {
		return nil, types.NewEmptyFormError()
	}

	head, err := ev.Eval(n.Items[0], scope)
	if err != nil {
		return nil, err
	}
	fn, ok := head.(types.Func)
	if !ok {
		return nil, types.NewNotCallableError(head)
	}

	args := make([]types.Value, 0, len(n.Items)-1)
	for _, item := range n.Items[1:] {
		v, err := ev.Eval(item, scope)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	return fn.Fn(args)
}

// evalOp evaluates both operands before checking either, even when the
// first one already decides the outcome.
func (ev *Evaluator) evalOp(n types.Op, scope Scope) (types.Value, error) {
	left, err := ev.Eval(n.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := ev.Eval(n.Right, scope)
	if err != nil {
		return nil, err
	}

	l, lOk := types.AsNumber(left)
	r, rOk := types.AsNumber(right)
	if !lOk || !rOk {
		return nil, types.NewTypeMismatchError(
			fmt.Sprintf("operands must be numbers, got %s and %s", left.Type(), right.Type()))
	}

	switch n.Operator {
	case "+":
		return types.NewNumber(l + r), nil
	case "-":
		return types.NewNumber(l - r), nil
	case "*":
		return types.NewNumber(l * r), nil
	case "/":
		if r == 0 {
			return nil, types.NewDivisionByZeroError()
		}
		return types.NewNumber(l / r), nil
	default:
		return nil, types.NewUnknownOperatorError(n.Operator)
	}
}
