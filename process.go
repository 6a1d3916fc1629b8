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
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Process is a physical process that changes the grid over a time step.
type Process interface {
	RunOneStep(dt float64) error
}

// Uplift raises the core nodes at a constant rate.
type Uplift struct {
	Grid *RasterGrid
	Rate float64 // elevation change per unit time

	core []int
}

// RunOneStep raises the core nodes by Rate*dt.
func (u *Uplift) RunOneStep(dt float64) error {
	z, err := u.Grid.Field(ElevationField)
	if err != nil {
		return err
	}
	if u.core == nil {
		u.core = u.Grid.CoreNodes()
	}
	for _, i := range u.core {
		z[i] += u.Rate * dt
	}
	return nil
}

// FlowAccumulator routes flow from each core node to its steepest
// downhill neighbor and sums the contributing area at each node.
// Boundary nodes and nodes without a lower neighbor are their own
// receivers.
type FlowAccumulator struct {
	Grid *RasterGrid

	// Receivers holds the receiver of each node after RunOneStep.
	Receivers []int

	// Order holds the node indices sorted from lowest to highest
	// elevation after RunOneStep. Every node comes after its receiver.
	Order []int
}

// NewFlowAccumulator creates a FlowAccumulator and adds the drainage area
// and receiver fields to g.
func NewFlowAccumulator(g *RasterGrid) *FlowAccumulator {
	if !g.HasField(DrainageAreaField) {
		g.AddZeros(DrainageAreaField)
	}
	if !g.HasField(ReceiverField) {
		g.AddZeros(ReceiverField)
	}
	return &FlowAccumulator{
		Grid:      g,
		Receivers: make([]int, g.NumNodes()),
		Order:     make([]int, g.NumNodes()),
	}
}

// RunOneStep recalculates receivers and drainage area. dt is not used.
func (fa *FlowAccumulator) RunOneStep(dt float64) error {
	g := fa.Grid
	z, err := g.Field(ElevationField)
	if err != nil {
		return err
	}
	area, err := g.Field(DrainageAreaField)
	if err != nil {
		return err
	}
	rcv, err := g.Field(ReceiverField)
	if err != nil {
		return err
	}
	var nbrs []int
	for i := range fa.Receivers {
		fa.Receivers[i] = i
		fa.Order[i] = i
		if g.IsBoundary(i) {
			continue
		}
		steepest := 0.
		nbrs = g.Neighbors(i, nbrs)
		for _, j := range nbrs {
			if s := (z[i] - z[j]) / g.Dx; s > steepest {
				steepest = s
				fa.Receivers[i] = j
			}
		}
	}
	sort.SliceStable(fa.Order, func(a, b int) bool { return z[fa.Order[a]] < z[fa.Order[b]] })

	cell := g.Dx * g.Dx
	for i := range area {
		area[i] = cell
	}
	for k := len(fa.Order) - 1; k >= 0; k-- {
		i := fa.Order[k]
		if r := fa.Receivers[i]; r != i {
			area[r] += area[i]
		}
	}
	for i, r := range fa.Receivers {
		rcv[i] = float64(r)
	}
	return nil
}

// StreamPowerEroder lowers each node at a rate K*A^M*S, where A is drainage
// area and S is the slope to the receiver node. The solution is implicit,
// which is unconditionally stable for a slope exponent of one.
type StreamPowerEroder struct {
	Flow *FlowAccumulator
	K    float64 // erodibility
	M    float64 // drainage area exponent
}

// RunOneStep erodes the grid using the most recent flow routing.
func (sp *StreamPowerEroder) RunOneStep(dt float64) error {
	if sp.Flow == nil {
		return fmt.Errorf("terrain: stream power eroder requires a flow accumulator")
	}
	g := sp.Flow.Grid
	z, err := g.Field(ElevationField)
	if err != nil {
		return err
	}
	area, err := g.Field(DrainageAreaField)
	if err != nil {
		return err
	}
	for _, i := range sp.Flow.Order {
		r := sp.Flow.Receivers[i]
		if r == i || g.IsBoundary(i) {
			continue
		}
		f := sp.K * math.Pow(area[i], sp.M) * dt / g.Dx
		z[i] = (z[i] + f*z[r]) / (1 + f)
	}
	return nil
}

// LinearDiffuser smooths the surface with a constant diffusivity. Time
// steps longer than the explicit stability limit are split into
// substeps.
type LinearDiffuser struct {
	Grid        *RasterGrid
	Diffusivity float64

	lap  []float64
	core []int
}

// diffusionCFL is the fraction of the explicit stability limit used for
// each substep.
const diffusionCFL = 0.2

// RunOneStep diffuses the elevation field over dt.
func (ld *LinearDiffuser) RunOneStep(dt float64) error {
	g := ld.Grid
	z, err := g.Field(ElevationField)
	if err != nil {
		return err
	}
	if ld.Diffusivity <= 0 || dt <= 0 {
		return nil
	}
	if ld.lap == nil {
		ld.lap = make([]float64, g.NumNodes())
		ld.core = g.CoreNodes()
	}
	maxStep := diffusionCFL * g.Dx * g.Dx / ld.Diffusivity
	n := int(math.Ceil(dt / maxStep))
	sub := dt / float64(n)
	dx2 := g.Dx * g.Dx
	var nbrs []int
	for s := 0; s < n; s++ {
		for _, i := range ld.core {
			sum := 0.
			nbrs = g.Neighbors(i, nbrs)
			for _, j := range nbrs {
				sum += z[j] - z[i]
			}
			ld.lap[i] = sum / dx2
		}
		floats.AddScaled(z, ld.Diffusivity*sub, ld.lap)
	}
	return nil
}

// Processes combines processes that are run in order.
type Processes []Process

// RunOneStep runs each process in order.
func (p Processes) RunOneStep(dt float64) error {
	for i, pp := range p {
		if err := pp.RunOneStep(dt); err != nil {
			return fmt.Errorf("terrain: process %d: %v", i, err)
		}
	}
	return nil
}
