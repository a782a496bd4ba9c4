/*
Copyright © 2019 the watermass authors.
This file is part of watermass.

watermass is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

watermass is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with watermass.  If not, see <http://www.gnu.org/licenses/>.
*/

package watermass

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

func oneArg(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("watermass: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("watermass: invalid argument %v for function '%s'", arg[0], name)
		}
		return f(v), nil
	}
}

// ExpressionFunctions are the functions that are available in
// DerivedField expressions.
var ExpressionFunctions = map[string]govaluate.ExpressionFunction{
	"abs":  oneArg("abs", math.Abs),
	"exp":  oneArg("exp", math.Exp),
	"log":  oneArg("log", math.Log),
	"sqrt": oneArg("sqrt", math.Sqrt),
}

// DerivedField evaluates expression element by element over the fields
// in vars. For example, "votemper - 0.5*vosaline" or "sqrt(u*u + v*v)".
// Fields broadcast against the field with the most axes by alignment of
// their trailing axes. If expression is just the name of a field in vars,
// that field is returned as-is. Boolean results are converted to 1 or 0.
func DerivedField(expression string, vars map[string]*sparse.DenseArray) (*sparse.DenseArray, error) {
	expression = strings.TrimSpace(expression)
	if v, ok := vars[expression]; ok {
		return v, nil
	}
	expression = strings.NewReplacer("{", "", "}", "").Replace(expression)
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, ExpressionFunctions)
	if err != nil {
		return nil, fmt.Errorf("watermass: parsing expression '%s': %v", expression, err)
	}
	names := removeDuplicates(expr.Vars())
	if len(names) == 0 {
		return nil, fmt.Errorf("watermass: expression '%s' does not refer to any fields", expression)
	}
	arrays := make([]*sparse.DenseArray, len(names))
	for i, n := range names {
		a, ok := vars[n]
		if !ok {
			return nil, fmt.Errorf("watermass: expression '%s': undefined variable '%s'", expression, n)
		}
		arrays[i] = a
	}
	shape, err := broadcastShape("expression "+expression, arrays...)
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(shape...)
	params := make(map[string]interface{}, len(names))
	for i := range out.Elements {
		for j, n := range names {
			params[n] = at(arrays[j], i)
		}
		r, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("watermass: evaluating expression '%s': %v", expression, err)
		}
		switch v := r.(type) {
		case float64:
			out.Elements[i] = v
		case bool:
			if v {
				out.Elements[i] = 1
			}
		default:
			return nil, fmt.Errorf("watermass: expression '%s' evaluated to %v (type %T); expected a number", expression, r, r)
		}
	}
	return out, nil
}

// Variables returns the names of the fields that expression refers to.
func Variables(expression string) ([]string, error) {
	expression = strings.NewReplacer("{", "", "}", "").Replace(strings.TrimSpace(expression))
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, ExpressionFunctions)
	if err != nil {
		return nil, fmt.Errorf("watermass: parsing expression '%s': %v", expression, err)
	}
	return removeDuplicates(expr.Vars()), nil
}

func removeDuplicates(s []string) []string {
	seen := make(map[string]bool, len(s))
	var out []string
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
