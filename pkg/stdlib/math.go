package stdlib

import (
	"github.com/lemonberrylabs/flare/pkg/types"
)

// registerArith registers the variadic arithmetic built-ins.
func (r *Registry) registerArith() {
	r.Register("+", arithAdd)
	r.Register("-", arithSub)
	r.Register("*", arithMul)
	r.Register("/", arithDiv)
}

// arithAdd sums its arguments; no arguments sum to 0.
func arithAdd(args []types.Value) (types.Value, error) {
	nums, err := numbers("+", args)
	if err != nil {
		return nil, err
	}
	return types.NewNumber(sum(nums)), nil
}

// arithSub subtracts the sum of the rest from the first argument. A single
// argument is returned unchanged.
func arithSub(args []types.Value) (types.Value, error) {
	nums, err := numbers("-", args)
	if err != nil {
		return nil, err
	}
	if err := requireArgs("-", args, 1); err != nil {
		return nil, err
	}
	return types.NewNumber(nums[0] - sum(nums[1:])), nil
}

// arithMul multiplies its arguments; no arguments multiply to 1.
func arithMul(args []types.Value) (types.Value, error) {
	nums, err := numbers("*", args)
	if err != nil {
		return nil, err
	}
	product := 1.0
	for _, n := range nums {
		product *= n
	}
	return types.NewNumber(product), nil
}

// arithDiv divides the first argument by each of the rest in turn.
func arithDiv(args []types.Value) (types.Value, error) {
	nums, err := numbers("/", args)
	if err != nil {
		return nil, err
	}
	if err := requireArgs("/", args, 1); err != nil {
		return nil, err
	}
	result := nums[0]
	for _, n := range nums[1:] {
		if n == 0 {
			return nil, types.NewDivisionByZeroError()
		}
		result /= n
	}
	return types.NewNumber(result), nil
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total
}
