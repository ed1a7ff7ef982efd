/*
 * ceplot.go, part of structset.
 *
 * Copyright 2024 The structset authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package ceplot plots the energies of a labeled collection against the
//concentration of one of its elements, with the lower convex hull (the
//ground-state line) of the points.
package ceplot

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/rmera/structset"
)

//Points returns the (concentration of element, energy) points of the
//labeled collection C.
func Points(C *structset.Collection, element string) (plotter.XYs, error) {
	if !C.HasEnergies() {
		return nil, structset.NewError(structset.ErrValidation, "collection has no energies", "ceplot.Points")
	}
	conc, err := C.Concentration(element)
	if err != nil {
		return nil, err
	}
	e := C.Energies()
	ret := make(plotter.XYs, len(e))
	for i := range e {
		ret[i].X = conc[i]
		ret[i].Y = e[i]
	}
	return ret, nil
}

func cross(o, a, b plotter.XY) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

//LowerHull returns the lower convex hull of the points, sorted by X.
//For each X only the lowest point is considered.
func LowerHull(points plotter.XYs) plotter.XYs {
	pts := make(plotter.XYs, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	hull := make(plotter.XYs, 0, len(pts))
	for i, p := range pts {
		if i > 0 && p.X == pts[i-1].X {
			continue
		}
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull
}

//EnergyConcentration returns a plot of the energies in C against the concentration
//of element, with their lower convex hull.
func EnergyConcentration(C *structset.Collection, element, title string) (*plot.Plot, error) {
	pts, err := Points(C, element)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = fmt.Sprintf("x(%s)", element)
	p.Y.Label.Text = "Energy"
	p.X.Min = 0
	p.X.Max = 1
	p.Add(plotter.NewGrid())
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Color = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	s.GlyphStyle.Radius = vg.Points(2.5)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)
	hull := LowerHull(pts)
	if len(hull) > 1 {
		l, err := plotter.NewLine(hull)
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		l.LineStyle.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add("ground-state line", l)
	}
	p.Legend.Add("structures", s)
	p.Legend.Top = true
	return p, nil
}

//Save writes the plot to name. The format is given by the extension
//(png, svg, pdf, eps, jpg or tif).
func Save(p *plot.Plot, name string) error {
	return p.Save(6*vg.Inch, 4*vg.Inch, name)
}
