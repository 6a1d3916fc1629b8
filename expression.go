/*
Copyright © 2019 the Terrain authors.
This file is part of Terrain.

Terrain is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Terrain is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Terrain.  If not, see <http://www.gnu.org/licenses/>.
*/

package terrain

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// expressionFunctions are the functions available to grid expressions.
var expressionFunctions = map[string]govaluate.ExpressionFunction{
	"exp":  unaryFunction("exp", math.Exp),
	"log":  unaryFunction("log", math.Log),
	"sqrt": unaryFunction("sqrt", math.Sqrt),
	"abs":  unaryFunction("abs", math.Abs),
	"sin":  unaryFunction("sin", math.Sin),
	"cos":  unaryFunction("cos", math.Cos),
}

func unaryFunction(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("terrain: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("terrain: argument to function '%s' must be a number", name)
		}
		return f(v), nil
	}
}

// Evaluate calculates expr at every node of the grid. The expression can
// use the names of grid fields, the node coordinates x and y, and the
// functions exp, log, sqrt, abs, sin and cos.
func (g *RasterGrid) Evaluate(expr string) ([]float64, error) {
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, expressionFunctions)
	if err != nil {
		return nil, fmt.Errorf("terrain: parsing expression %q: %v", expr, err)
	}
	vars := make(map[string][]float64)
	for _, v := range expression.Vars() {
		if v == "x" || v == "y" {
			continue
		}
		f, err := g.Field(v)
		if err != nil {
			return nil, fmt.Errorf("terrain: expression %q: %v", expr, err)
		}
		vars[v] = f
	}
	o := make([]float64, g.NumNodes())
	params := make(map[string]interface{}, len(vars)+2)
	for i := range o {
		params["x"] = float64(i%g.NCols) * g.Dx
		params["y"] = float64(i/g.NCols) * g.Dx
		for name, f := range vars {
			params[name] = f[i]
		}
		result, err := expression.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("terrain: evaluating expression %q: %v", expr, err)
		}
		v, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("terrain: expression %q does not evaluate to a number", expr)
		}
		o[i] = v
	}
	return o, nil
}

// SetTopographyExpression returns a function that sets the elevation of
// every node to the value of expr, creating the elevation field if it does
// not exist.
func SetTopographyExpression(expr string) ModelManipulator {
	return func(m *Model) error {
		z, err := m.Grid.Evaluate(expr)
		if err != nil {
			return err
		}
		f, err := m.Grid.Field(ElevationField)
		if err != nil {
			f = m.Grid.AddZeros(ElevationField)
		}
		copy(f, z)
		return nil
	}
}
