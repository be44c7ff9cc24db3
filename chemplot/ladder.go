/*
 * ladder.go, part of gomc
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
*/

//Package chemplot draws the coupling-ladder histograms and biases of a
//transfer move as PNG files.
package chemplot

import (
	"fmt"

	"github.com/rmera/gomc/cfcmc"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func basicLadderPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "Coupling"
	p.Y.Label.Text = ylabel
	//Constant axis
	p.X.Min = 0
	p.X.Max = 1
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	return p
}

//LadderPlot plots one series per element of data against the coupling of the
//ladder bins, i/(len-1), and saves the plot as plotname.png. names gives the legend
//of each series and can be nil. Series for which data is nil are skipped.
func LadderPlot(data [][]float64, names []string, title, ylabel, plotname string) error {
	if data == nil {
		return fmt.Errorf("LadderPlot: Given nil data")
	}
	if names != nil && len(names) < len(data) {
		return fmt.Errorf("LadderPlot: %d names for %d series", len(names), len(data))
	}
	bins := 0
	for _, v := range data {
		bins = max(bins, len(v))
	}
	if bins < 2 {
		return fmt.Errorf("LadderPlot: No series with at least 2 bins")
	}
	p := basicLadderPlot(title, ylabel)
	for key, val := range data {
		if len(val) < 2 {
			continue
		}
		pts := make(plotter.XYs, len(val))
		w := float64(len(val) - 1)
		for i, v := range val {
			pts[i].X = float64(i) / w
			pts[i].Y = v
		}
		l, s, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		c := colors(key, len(data))
		l.Color = c
		s.GlyphStyle.Color = c
		//past the 5th series the glyphs repeat, which is fine.
		s.GlyphStyle.Shape, _ = getShape(key)
		p.Add(l, s)
		if names != nil {
			p.Legend.Add(names[key], l, s)
		}
	}
	return p.Save(5*vg.Inch, 4*vg.Inch, fmt.Sprintf("%s.png", plotname))
}

//BiasPlots writes, for box, the plot of the ladder visits to plotname_visits.png and the
//plot of the bias to plotname_bias.png, one series per kind. Kinds with an empty
//name are left out.
func BiasPlots(B *cfcmc.Bias, kinds []string, box int, plotname string) error {
	rows, cols := B.Visits.Dims()
	if box < 0 || box >= rows {
		return fmt.Errorf("BiasPlots: Box %d out of range", box)
	}
	if len(kinds) != cols {
		return fmt.Errorf("BiasPlots: %d names for %d kinds", len(kinds), cols)
	}
	visits := make([][]float64, 0, cols)
	bias := make([][]float64, 0, cols)
	names := make([]string, 0, cols)
	for k, name := range kinds {
		if name == "" {
			continue
		}
		visits = append(visits, B.Visits.View(box, k).Copy())
		bias = append(bias, B.Values[box][k])
		names = append(names, name)
	}
	if len(names) == 0 {
		return fmt.Errorf("BiasPlots: No kinds to plot")
	}
	title := fmt.Sprintf("Box %d", box)
	if err := LadderPlot(visits, names, title, "Visits", plotname+"_visits"); err != nil {
		return err
	}
	return LadderPlot(bias, names, title, "Bias", plotname+"_bias")
}
