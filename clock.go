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
)

// Clock specifies the model time span and time step.
type Clock struct {
	Start float64 // model start time
	Stop  float64 // model stop time
	Step  float64 // time step duration
}

// Check returns an error if the clock settings are not usable.
func (c Clock) Check() error {
	for _, v := range []float64{c.Start, c.Stop, c.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("terrain: clock values must be finite: %+v", c)
		}
	}
	if c.Stop < c.Start {
		return fmt.Errorf("terrain: clock stop time %g is before start time %g", c.Stop, c.Start)
	}
	if c.Step <= 0 {
		return fmt.Errorf("terrain: clock step must be greater than zero but is %g", c.Step)
	}
	return nil
}
