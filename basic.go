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

import "fmt"

// BasicParams holds the parameters of the Basic model.
type BasicParams struct {
	// UpliftRate is the rate of rock uplift of the core nodes.
	UpliftRate float64

	// WaterErodibility is the stream power coefficient.
	WaterErodibility float64

	// MSP is the drainage area exponent of the stream power law.
	MSP float64

	// RegolithTransportParameter is the hillslope diffusivity.
	RegolithTransportParameter float64
}

// DefaultBasicParams returns the default Basic model parameters.
func DefaultBasicParams() BasicParams {
	return BasicParams{
		UpliftRate:                 0.001,
		WaterErodibility:           0.001,
		MSP:                        0.5,
		RegolithTransportParameter: 0.01,
	}
}

// Basic returns a model with uplift, stream power erosion with a slope
// exponent of one and linear hillslope diffusion. Extra init functions
// are run after the elevation field is created and before the initial
// flow routing.
func Basic(clock Clock, grid *RasterGrid, p BasicParams, initFuncs ...ModelManipulator) (*Model, error) {
	if grid == nil {
		return nil, fmt.Errorf("terrain: Basic model requires a grid")
	}
	if p.WaterErodibility < 0 || p.RegolithTransportParameter < 0 || p.MSP < 0 {
		return nil, fmt.Errorf("terrain: Basic model parameters must not be negative: %+v", p)
	}
	if !grid.HasField(ElevationField) {
		grid.AddZeros(ElevationField)
	}
	flow := NewFlowAccumulator(grid)
	procs := []Process{
		&Uplift{Grid: grid, Rate: p.UpliftRate},
		flow,
		&StreamPowerEroder{Flow: flow, K: p.WaterErodibility, M: p.MSP},
		&LinearDiffuser{Grid: grid, Diffusivity: p.RegolithTransportParameter},
	}
	m := &Model{
		Clock: clock,
		Grid:  grid,
	}
	m.InitFuncs = append(m.InitFuncs, initFuncs...)
	m.InitFuncs = append(m.InitFuncs, func(m *Model) error {
		return flow.RunOneStep(0)
	})
	m.RunFuncs = []ModelManipulator{StepProcesses(procs...)}
	return m, nil
}
